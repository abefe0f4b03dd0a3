package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
)

func TestParseAnswers(t *testing.T) {
	cat, err := builtin.Load("property-listing")
	if err != nil {
		t.Fatal(err)
	}
	got, err := parseAnswers(cat, []string{"category=Residential", "price=₹45,000", "amenities=gym,parking"})
	if err != nil {
		t.Fatal(err)
	}
	if got["category"] != "residential" || got["price"] != 45000.0 {
		t.Errorf("answers = %v", got)
	}
	if a, _ := got["amenities"].([]string); len(a) != 2 || a[0] != "parking" {
		t.Errorf("amenities = %v", got["amenities"])
	}

	if _, err := parseAnswers(cat, []string{"nope=1"}); !errors.Is(err, catalog.ErrUnknownStep) {
		t.Errorf("unknown step: err = %v", err)
	}
	if _, err := parseAnswers(cat, []string{"price"}); err == nil {
		t.Error("missing '=' accepted")
	}
	if _, err := parseAnswers(cat, []string{"price=-5"}); err == nil || !strings.Contains(err.Error(), "valid price") {
		t.Errorf("negative price: err = %v", err)
	}
}

func TestWritePreview_HidesResidentialStepsForLand(t *testing.T) {
	cat, err := builtin.Load("property-listing")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	writePreview(&buf, cat, catalog.Answers{"category": "land", "bedrooms": "3"})
	out := buf.String()
	if strings.Contains(out, " bedrooms [") || strings.Contains(out, " amenities [") {
		t.Errorf("residential steps shown for land:\n%s", out)
	}
	if !strings.Contains(out, "bedrooms no longer applies") {
		t.Errorf("orphan not reported:\n%s", out)
	}
	if !strings.Contains(out, "✓  1. category [single-select] * = land") {
		t.Errorf("answered step not marked:\n%s", out)
	}
}
