package resolve_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cardledger/internal/catalog"
	"cardledger/internal/inventory"
	"cardledger/internal/resolve"
	"cardledger/internal/testsupport"
)

// scriptedSearcher returns canned products per query and records the order
// queries arrive in.
type scriptedSearcher struct {
	mu      sync.Mutex
	results map[string][]catalog.Product
	errs    map[string]error
	queries []string
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{
		results: make(map[string][]catalog.Product),
		errs:    make(map[string]error),
	}
}

func (s *scriptedSearcher) SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func (s *scriptedSearcher) seenQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

// recordingWriter captures UpdateImageURL calls and can fail a set number of
// times before succeeding.
type recordingWriter struct {
	mu       sync.Mutex
	calls    int
	failures int
	ids      []int64
	imageURL string
}

func (w *recordingWriter) UpdateImageURL(ctx context.Context, ids []int64, imageURL string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return 0, errors.New("write failed")
	}
	w.ids = append([]int64(nil), ids...)
	w.imageURL = imageURL
	return int64(len(ids)), nil
}

func (w *recordingWriter) snapshot() (int, []int64, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls, append([]int64(nil), w.ids...), w.imageURL
}

func TestResolveItemFirstQueryWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 9, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/charizard.jpg", Relevance: 0.97},
	}
	writer := &recordingWriter{}
	resolver := resolve.NewResolver(cfg, searcher, writer, nil)

	item := &inventory.Item{ID: 7, Name: "Charizard (Holo) [Promo]", SetName: "Base Set", CardNumber: "4/102", Category: inventory.CategoryRawCard}
	resolution, err := resolver.ResolveItem(context.Background(), item)
	if err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	if !resolution.Found {
		t.Fatal("item not resolved")
	}
	if resolution.Query != "charizard 4" {
		t.Fatalf("deciding query = %q, want %q", resolution.Query, "charizard 4")
	}
	if resolution.Best.TotalScore != 105 || resolution.Best.MatchType != resolve.MatchPerfect {
		t.Fatalf("best = %d %q, want 105 perfect", resolution.Best.TotalScore, resolution.Best.MatchType)
	}

	if got := searcher.seenQueries(); len(got) != 1 || got[0] != "charizard 4" {
		t.Fatalf("queries sent = %v, want just %q", got, "charizard 4")
	}
	calls, ids, url := writer.snapshot()
	if calls != 1 || len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("writer calls=%d ids=%v, want one call for item 7", calls, ids)
	}
	if url != "https://img.test/charizard.jpg" {
		t.Fatalf("written url = %q", url)
	}
}

func TestLookupSkipsPlaceholderImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/placeholder-card.png"},
	}
	searcher.results["charizard base set"] = []catalog.Product{
		{ID: 2, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/real.jpg"},
	}
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.Lookup(context.Background(), item)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !resolution.Found {
		t.Fatal("item not resolved")
	}
	if resolution.Query != "charizard base set" {
		t.Fatalf("deciding query = %q, want fallback past placeholder-only results", resolution.Query)
	}
	if resolution.ImageURL != "https://img.test/real.jpg" {
		t.Fatalf("image url = %q", resolution.ImageURL)
	}
}

func TestLookupStopsAtFirstUsableQuery(t *testing.T) {
	// The first query with usable candidates decides the outcome even when
	// the best candidate is below the acceptance threshold. Later, broader
	// queries must not run.
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "totally different", ImageURL: "https://img.test/x.jpg"},
	}
	searcher.results["charizard base set"] = []catalog.Product{
		{ID: 2, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/real.jpg"},
	}
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.Lookup(context.Background(), item)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if resolution.Found {
		t.Fatal("below-threshold candidate should not resolve")
	}
	if resolution.Query != "charizard 4" {
		t.Fatalf("deciding query = %q, want %q", resolution.Query, "charizard 4")
	}
	if got := searcher.seenQueries(); len(got) != 1 {
		t.Fatalf("queries sent = %v, want lookup to stop after the deciding query", got)
	}
}

func TestLookupFallsThroughFailedQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.errs["charizard 4"] = errors.New("catalog timeout")
	searcher.results["charizard base set"] = []catalog.Product{
		{ID: 2, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/real.jpg"},
	}
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.Lookup(context.Background(), item)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !resolution.Found {
		t.Fatal("item not resolved after query fallback")
	}
	if resolution.QueriesTried != 2 || resolution.QueriesFailed != 1 {
		t.Fatalf("tried=%d failed=%d, want 2/1", resolution.QueriesTried, resolution.QueriesFailed)
	}
}

func TestLookupReportsSearchExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.errs["charizard 4"] = errors.New("boom")
	searcher.errs["charizard base set"] = errors.New("boom")
	searcher.errs["charizard"] = errors.New("boom")
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.Lookup(context.Background(), item)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if resolution.Found {
		t.Fatal("resolved despite every query failing")
	}
	if !resolution.SearchExhausted() {
		t.Fatalf("SearchExhausted() = false with tried=%d failed=%d", resolution.QueriesTried, resolution.QueriesFailed)
	}
}

func TestLookupEmptyResultsAreNotExhaustion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.Lookup(context.Background(), item)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if resolution.Found {
		t.Fatal("resolved with no candidates")
	}
	if resolution.SearchExhausted() {
		t.Fatal("empty result sets are misses, not search failures")
	}
}

func TestLookupPropagatesCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	resolver := resolve.NewResolver(cfg, searcher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item := &inventory.Item{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	_, err := resolver.Lookup(ctx, item)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLookupNilItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	resolver := resolve.NewResolver(cfg, newScriptedSearcher(), nil, nil)
	if _, err := resolver.Lookup(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil item")
	}
}

func TestResolveItemRetriesWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 9, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/c.jpg"},
	}
	writer := &recordingWriter{failures: 2}
	resolver := resolve.NewResolver(cfg, searcher, writer, nil)

	item := &inventory.Item{ID: 7, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.ResolveItem(context.Background(), item)
	if err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	if !resolution.Found {
		t.Fatal("item not resolved")
	}
	calls, ids, _ := writer.snapshot()
	if calls != 3 {
		t.Fatalf("writer calls = %d, want 3 (two failures then success)", calls)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("written ids = %v, want [7]", ids)
	}
}

func TestResolveItemWriteFailureSurfaces(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 9, Name: "Charizard", SetName: "Base Set", CardNumber: "4", ImageURL: "https://img.test/c.jpg"},
	}
	writer := &recordingWriter{failures: 99}
	resolver := resolve.NewResolver(cfg, searcher, writer, nil)

	item := &inventory.Item{ID: 7, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}
	resolution, err := resolver.ResolveItem(context.Background(), item)
	if err == nil {
		t.Fatal("expected write error")
	}
	if !resolution.Found {
		t.Fatal("resolution should still report the match when the write fails")
	}
	calls, _, _ := writer.snapshot()
	if calls != cfg.Resolver.WriteAttempts {
		t.Fatalf("writer calls = %d, want %d attempts", calls, cfg.Resolver.WriteAttempts)
	}
}
