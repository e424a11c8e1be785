package resolve

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// levenshtein is shared across calls; Distance only reads its fields.
var levenshtein = metrics.NewLevenshtein()

// trailingQualifiers are finish/print markers stripped from the end of a
// cleaned name by BaseName. Rarity words like "ex" or "vmax" are part of the
// card identity and stay.
var trailingQualifiers = map[string]struct{}{
	"holo":       {},
	"holofoil":   {},
	"foil":       {},
	"reverse":    {},
	"full":       {},
	"alt":        {},
	"alternate":  {},
	"art":        {},
	"promo":      {},
	"1st":        {},
	"first":      {},
	"edition":    {},
	"shadowless": {},
}

// CleanName lowercases a raw item name, strips parenthetical and bracketed
// annotations, drops apostrophes, and collapses remaining punctuation and
// whitespace into single spaces.
func CleanName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	var builder strings.Builder
	parens, brackets := 0, 0
	for _, r := range lowered {
		switch {
		case r == '(':
			parens++
		case r == ')':
			if parens > 0 {
				parens--
			}
		case r == '[':
			brackets++
		case r == ']':
			if brackets > 0 {
				brackets--
			}
		case parens > 0 || brackets > 0:
			// inside an annotation
		case r == '\'' || r == '’':
			// apostrophes join their word: farfetch'd -> farfetchd
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		default:
			builder.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// BaseName returns CleanName with trailing finish qualifiers removed, for
// last-resort fallback queries. It never strips the final remaining token.
func BaseName(name string) string {
	clean := CleanName(name)
	if clean == "" {
		return ""
	}
	tokens := strings.Fields(clean)
	for len(tokens) > 1 {
		if _, ok := trailingQualifiers[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NormalizeSetName reduces a set name to lowercase alphanumerics so names
// differing only in punctuation or spacing compare equal. Ampersands and
// plus signs become "and".
func NormalizeSetName(set string) string {
	if strings.TrimSpace(set) == "" {
		return ""
	}
	normalized := strings.ToLower(set)
	normalized = strings.ReplaceAll(normalized, "&", "and")
	normalized = strings.ReplaceAll(normalized, "+", "and")

	var builder strings.Builder
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// NormalizeCardNumber extracts the identifier portion of a card number: the
// token left of any "/total" suffix, lowercased and trimmed. Returns "" when
// the number is absent.
func NormalizeCardNumber(number string) string {
	trimmed := strings.ToLower(strings.TrimSpace(number))
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// CardNumbersMatch reports whether two card numbers identify the same card:
// normalized tokens are equal, or both parse as integers and the integers are
// equal (handles "0146" vs "146"). False when either side is absent.
func CardNumbersMatch(a, b string) bool {
	na := NormalizeCardNumber(a)
	nb := NormalizeCardNumber(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	ia, errA := strconv.Atoi(na)
	ib, errB := strconv.Atoi(nb)
	if errA != nil || errB != nil {
		return false
	}
	return ia == ib
}

// StringSimilarity returns a normalized Levenshtein similarity in [0,1].
// Symmetric and deterministic; comparison is case-insensitive.
func StringSimilarity(a, b string) float64 {
	return strutil.Similarity(strings.ToLower(a), strings.ToLower(b), levenshtein)
}
