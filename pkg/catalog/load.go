package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses a catalog YAML file with strict unknown-field
// rejection.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a catalog document from r. Unknown fields are an error.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &doc, nil
}

// Open loads, validates and compiles a catalog file in one go. Warnings are
// returned alongside a usable catalog; any error-severity finding aborts.
func Open(path string, opts ...Option) (*Catalog, []*ValidationError, error) {
	doc, findings := ValidateFile(path)
	if HasErrors(findings) {
		return nil, findings, fmt.Errorf("catalog %s: %w", path, findings[firstError(findings)])
	}
	c, err := Compile(doc, opts...)
	if err != nil {
		return nil, findings, err
	}
	return c, findings, nil
}
