package inventory

import (
	"strings"
	"time"
)

// Category classifies an inventory item for search and display purposes.
type Category string

const (
	CategoryRawCard       Category = "raw_card"
	CategoryGradedCard    Category = "graded_card"
	CategorySealedProduct Category = "sealed_product"
)

var allCategories = []Category{
	CategoryRawCard,
	CategoryGradedCard,
	CategorySealedProduct,
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(allCategories))
	for _, category := range allCategories {
		set[category] = struct{}{}
	}
	return set
}()

// AllCategories returns the ordered list of known categories.
func AllCategories() []Category {
	cp := make([]Category, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := categorySet[normalized]
	return normalized, ok
}

// IsSealed reports whether the category describes a sealed product rather
// than an individual card.
func (c Category) IsSealed() bool {
	return c == CategorySealedProduct
}

// Item represents a collectible tracked in the inventory database.
type Item struct {
	ID                 int64
	Name               string
	SetName            string
	CardNumber         string
	Category           Category
	Condition          string
	Quantity           int
	PurchasePriceCents int64
	Notes              string
	ImageURL           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasImage reports whether the item already carries a background image URL.
func (i Item) HasImage() bool {
	return strings.TrimSpace(i.ImageURL) != ""
}

// ItemStats aggregates inventory counts for diagnostic output. ValueCents is
// the sum of quantity times the per-unit purchase price.
type ItemStats struct {
	Total        int
	WithImage    int
	MissingImage int
	Quantity     int
	ValueCents   int64
	ByCategory   map[Category]int
}

// DatabaseHealth captures diagnostic information about the inventory database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
