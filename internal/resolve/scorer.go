package resolve

import (
	"sort"
	"strconv"
	"strings"

	"cardledger/internal/catalog"
	"cardledger/internal/config"
	"cardledger/internal/inventory"
)

// MatchType classifies which signals agreed for a scored candidate.
type MatchType string

const (
	MatchPerfect    MatchType = "perfect"
	MatchNameNumber MatchType = "name+number"
	MatchNameSet    MatchType = "name+set"
	MatchNameOnly   MatchType = "name-only"
	MatchNone       MatchType = "none"
)

// Weights holds the scoring ceilings and the acceptance threshold. The
// containment and numeric tiers double as the match-type gates, so lowering a
// tier loosens classification in step with scoring.
type Weights struct {
	NameExact    int
	NameContains int
	NameFuzzyCap int

	SetExact    int
	SetContains int
	SetFuzzyCap int

	NumberExact   int
	NumberNumeric int

	AcceptThreshold int
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		NameExact:       40,
		NameContains:    30,
		NameFuzzyCap:    25,
		SetExact:        30,
		SetContains:     20,
		SetFuzzyCap:     15,
		NumberExact:     35,
		NumberNumeric:   30,
		AcceptThreshold: 25,
	}
}

// WeightsFromConfig maps the resolver config section onto scoring weights.
func WeightsFromConfig(cfg *config.Config) Weights {
	if cfg == nil {
		return DefaultWeights()
	}
	return Weights{
		NameExact:       cfg.Resolver.NameExactScore,
		NameContains:    cfg.Resolver.NameContainsScore,
		NameFuzzyCap:    cfg.Resolver.NameFuzzyCap,
		SetExact:        cfg.Resolver.SetExactScore,
		SetContains:     cfg.Resolver.SetContainsScore,
		SetFuzzyCap:     cfg.Resolver.SetFuzzyCap,
		NumberExact:     cfg.Resolver.NumberExactScore,
		NumberNumeric:   cfg.Resolver.NumberNumericScore,
		AcceptThreshold: cfg.Resolver.AcceptThreshold,
	}
}

// ScoredCandidate wraps a catalog product with its per-signal scores.
type ScoredCandidate struct {
	Product     catalog.Product
	NameScore   int
	SetScore    int
	NumberScore int
	TotalScore  int
	MatchType   MatchType
}

// Scorer computes multi-signal confidence scores for item/candidate pairs.
// Scoring is deterministic: the same item and candidate list always produce
// the same scores and ordering.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// ScoreCandidates scores products against the item and returns them sorted by
// TotalScore descending, ties broken by higher Relevance then input order.
// When the item has a card number and at least one product number matches it,
// scoring is restricted to the matching products.
func (s *Scorer) ScoreCandidates(item *inventory.Item, products []catalog.Product) []ScoredCandidate {
	if item == nil || len(products) == 0 {
		return nil
	}

	pool := products
	if NormalizeCardNumber(item.CardNumber) != "" {
		restricted := make([]catalog.Product, 0, len(products))
		for _, product := range products {
			if CardNumbersMatch(item.CardNumber, product.CardNumber) {
				restricted = append(restricted, product)
			}
		}
		if len(restricted) > 0 {
			pool = restricted
		}
	}

	itemName := CleanName(item.Name)
	itemSet := NormalizeSetName(item.SetName)
	itemNumber := NormalizeCardNumber(item.CardNumber)

	scored := make([]ScoredCandidate, 0, len(pool))
	for _, product := range pool {
		nameScore := s.scoreName(itemName, CleanName(product.Name))
		setScore := s.scoreSet(itemSet, NormalizeSetName(product.SetName))
		numberScore := s.scoreNumber(itemNumber, NormalizeCardNumber(product.CardNumber))
		scored = append(scored, ScoredCandidate{
			Product:     product,
			NameScore:   nameScore,
			SetScore:    setScore,
			NumberScore: numberScore,
			TotalScore:  nameScore + setScore + numberScore,
			MatchType:   s.classify(nameScore, setScore, numberScore),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].TotalScore != scored[j].TotalScore {
			return scored[i].TotalScore > scored[j].TotalScore
		}
		return scored[i].Product.Relevance > scored[j].Product.Relevance
	})
	return scored
}

// Best returns the top-scored candidate and whether it clears the acceptance
// threshold.
func (s *Scorer) Best(item *inventory.Item, products []catalog.Product) (ScoredCandidate, bool) {
	scored := s.ScoreCandidates(item, products)
	if len(scored) == 0 {
		return ScoredCandidate{MatchType: MatchNone}, false
	}
	best := scored[0]
	return best, best.TotalScore >= s.weights.AcceptThreshold
}

// Accepts reports whether a scored candidate clears the acceptance threshold.
func (s *Scorer) Accepts(candidate ScoredCandidate) bool {
	return candidate.TotalScore >= s.weights.AcceptThreshold
}

func (s *Scorer) scoreName(itemName, productName string) int {
	if itemName == "" || productName == "" {
		return 0
	}
	if itemName == productName {
		return s.weights.NameExact
	}
	if strings.Contains(itemName, productName) || strings.Contains(productName, itemName) {
		return s.weights.NameContains
	}
	return int(StringSimilarity(itemName, productName) * float64(s.weights.NameFuzzyCap))
}

func (s *Scorer) scoreSet(itemSet, productSet string) int {
	if itemSet == "" || productSet == "" {
		return 0
	}
	if itemSet == productSet {
		return s.weights.SetExact
	}
	if strings.Contains(itemSet, productSet) || strings.Contains(productSet, itemSet) {
		return s.weights.SetContains
	}
	return int(StringSimilarity(itemSet, productSet) * float64(s.weights.SetFuzzyCap))
}

func (s *Scorer) scoreNumber(itemNumber, productNumber string) int {
	if itemNumber == "" || productNumber == "" {
		return 0
	}
	if itemNumber == productNumber {
		return s.weights.NumberExact
	}
	ia, errA := strconv.Atoi(itemNumber)
	ib, errB := strconv.Atoi(productNumber)
	if errA == nil && errB == nil && ia == ib {
		return s.weights.NumberNumeric
	}
	return 0
}

func (s *Scorer) classify(nameScore, setScore, numberScore int) MatchType {
	w := s.weights
	switch {
	case nameScore >= w.NameContains && setScore >= w.SetContains && numberScore >= w.NumberNumeric:
		return MatchPerfect
	case nameScore >= w.NameContains && numberScore >= w.NumberNumeric:
		return MatchNameNumber
	case nameScore >= w.NameContains && setScore >= w.SetContains:
		return MatchNameSet
	case nameScore >= w.NameFuzzyCap:
		return MatchNameOnly
	default:
		return MatchNone
	}
}
