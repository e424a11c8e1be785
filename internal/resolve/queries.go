package resolve

import (
	"strings"
	"unicode/utf8"

	"cardledger/internal/inventory"
)

// QueryVariations builds the ordered, de-duplicated list of catalog queries
// for an item, most specific first. Sealed products search by set and name;
// cards additionally try card number and base-name fallbacks. Entries shorter
// than three runes are dropped.
func QueryVariations(item *inventory.Item) []string {
	if item == nil {
		return nil
	}

	clean := CleanName(item.Name)
	cleanedSet := CleanName(item.SetName)

	var queries []string
	if item.Category.IsSealed() {
		if clean != "" {
			if cleanedSet != "" && !strings.Contains(clean, cleanedSet) {
				queries = append(queries, cleanedSet+" "+clean)
			}
			queries = append(queries, clean)
		}
		return dedupeQueries(queries)
	}

	number := NormalizeCardNumber(item.CardNumber)
	base := BaseName(item.Name)

	if clean != "" {
		if number != "" {
			queries = append(queries, clean+" "+number)
		}
		if cleanedSet != "" && !strings.Contains(clean, cleanedSet) {
			queries = append(queries, clean+" "+cleanedSet)
		}
		queries = append(queries, clean)
	}
	if base != "" && base != clean {
		if number != "" {
			queries = append(queries, base+" "+number)
		}
		if cleanedSet != "" && !strings.Contains(base, cleanedSet) {
			queries = append(queries, base+" "+cleanedSet)
		}
		queries = append(queries, base)
	}
	if raw := strings.ToLower(strings.TrimSpace(item.Name)); raw != "" && raw != clean {
		queries = append(queries, raw)
	}

	return dedupeQueries(queries)
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	result := make([]string, 0, len(queries))
	for _, query := range queries {
		query = strings.TrimSpace(query)
		if utf8.RuneCountInString(query) < 3 {
			continue
		}
		if _, ok := seen[query]; ok {
			continue
		}
		seen[query] = struct{}{}
		result = append(result, query)
	}
	return result
}
