// Package builtin embeds the stock listing catalogs.
package builtin

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

//go:embed *.yaml
var files embed.FS

// Default is the catalog used when none is named.
const Default = "property-listing"

// Names lists the embedded catalogs, sorted.
func Names() []string {
	entries, _ := files.ReadDir(".")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// Source returns the raw YAML of a builtin catalog.
func Source(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Clean(name) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("builtin catalog %q not found (have %s)", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Document decodes a builtin catalog without compiling it.
func Document(name string) (*catalog.Document, error) {
	data, err := Source(name)
	if err != nil {
		return nil, err
	}
	return catalog.Load(bytes.NewReader(data))
}

// Load decodes and compiles a builtin catalog.
func Load(name string, opts ...catalog.Option) (*catalog.Catalog, error) {
	doc, err := Document(name)
	if err != nil {
		return nil, err
	}
	return catalog.Compile(doc, opts...)
}

// Resolve loads ref as a builtin name, or as a catalog file path when it
// looks like one.
func Resolve(ref string, opts ...catalog.Option) (*catalog.Catalog, error) {
	if ref == "" {
		ref = Default
	}
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") || strings.ContainsRune(ref, '/') {
		c, _, err := catalog.Open(ref, opts...)
		return c, err
	}
	return Load(ref, opts...)
}
