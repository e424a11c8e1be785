package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardledger/internal/inventory"
)

var titleCaser = cases.Title(language.Und)

// displayCategory renders a category constant as a human label, raw_card
// becoming Raw Card.
func displayCategory(category inventory.Category) string {
	value := strings.TrimSpace(string(category))
	if value == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func buildItemListRows(items []*inventory.Item) [][]string {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.Name,
			dashIfEmpty(item.SetName),
			dashIfEmpty(item.CardNumber),
			displayCategory(item.Category),
			fmt.Sprintf("%d", item.Quantity),
			formatPrice(item.PurchasePriceCents),
			formatImageMarker(item),
		})
	}
	return rows
}

func buildCategoryRows(byCategory map[inventory.Category]int) [][]string {
	if len(byCategory) == 0 {
		return nil
	}
	keys := make([]inventory.Category, 0, len(byCategory))
	for key := range byCategory {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{displayCategory(key), fmt.Sprintf("%d", byCategory[key])})
	}
	return rows
}

func formatImageMarker(item *inventory.Item) string {
	if item.HasImage() {
		return "yes"
	}
	return "MISSING"
}

func formatPrice(cents int64) string {
	if cents <= 0 {
		return "-"
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func dashIfEmpty(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
