package main

import (
	"testing"

	"cardledger/internal/inventory"
)

func TestDisplayCategory(t *testing.T) {
	cases := []struct {
		category inventory.Category
		want     string
	}{
		{inventory.CategoryRawCard, "Raw Card"},
		{inventory.CategoryGradedCard, "Graded Card"},
		{inventory.CategorySealedProduct, "Sealed Product"},
		{inventory.Category(""), ""},
	}
	for _, tc := range cases {
		if got := displayCategory(tc.category); got != tc.want {
			t.Errorf("displayCategory(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "-"},
		{-10, "-"},
		{5, "$0.05"},
		{1299, "$12.99"},
		{130350, "$1303.50"},
	}
	for _, tc := range cases {
		if got := formatPrice(tc.cents); got != tc.want {
			t.Errorf("formatPrice(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFormatImageMarker(t *testing.T) {
	covered := &inventory.Item{ImageURL: "https://img.example/card.png"}
	if got := formatImageMarker(covered); got != "yes" {
		t.Errorf("marker for covered item = %q, want yes", got)
	}
	missing := &inventory.Item{}
	if got := formatImageMarker(missing); got != "MISSING" {
		t.Errorf("marker for missing item = %q, want MISSING", got)
	}
}
