package resolve_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardledger/internal/catalog"
	"cardledger/internal/inventory"
	"cardledger/internal/resolve"
	"cardledger/internal/testsupport"
)

// recordingNotifier captures notification calls for assertions.
type recordingNotifier struct {
	mu           sync.Mutex
	startedItems int
	startedUnits int
	started      int
	completed    int
	found        int
	totalUnits   int
	writeFailed  int
}

func (n *recordingNotifier) NotifyRunStarted(ctx context.Context, items, units int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started++
	n.startedItems = items
	n.startedUnits = units
	return nil
}

func (n *recordingNotifier) NotifyRunCompleted(ctx context.Context, found, totalUnits, writeFailed int, duration time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
	n.found = found
	n.totalUnits = totalUnits
	n.writeFailed = writeFailed
	return nil
}

func (n *recordingNotifier) NotifyImportCompleted(context.Context, int, int) error { return nil }
func (n *recordingNotifier) NotifyError(context.Context, error, string) error      { return nil }
func (n *recordingNotifier) TestNotification(context.Context) error                { return nil }

// blockingSearcher resolves known queries and blocks on unknown ones until the
// context is canceled.
type blockingSearcher struct {
	scripted *scriptedSearcher
	entered  chan string
}

func (s *blockingSearcher) SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	select {
	case s.entered <- query:
	default:
	}
	s.scripted.mu.Lock()
	products, known := s.scripted.results[query]
	s.scripted.mu.Unlock()
	if known {
		return products, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingStore serves items but rejects every image write.
type failingStore struct {
	items []*inventory.Item
}

func (s *failingStore) ItemsMissingImage(ctx context.Context, limit int) ([]*inventory.Item, error) {
	return s.items, nil
}

func (s *failingStore) UpdateImageURL(ctx context.Context, ids []int64, imageURL string) (int64, error) {
	return 0, errors.New("disk full")
}

func TestRunnerResolvesBatchAndFansOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	charA := testsupport.NewItem(t, store, "Charizard", "Base Set", "4/102")
	charB := testsupport.NewItem(t, store, "Charizard", "Base Set", "4/102")
	charC := testsupport.NewItem(t, store, "charizard", "base set", "4/102")
	pika := testsupport.NewItem(t, store, "Pikachu", "Jungle", "60/64")

	covered := testsupport.NewItem(t, store, "Snorlax", "Jungle", "11/64")
	if _, err := store.UpdateImageURL(ctx, []int64{covered.ID}, "https://img.test/existing.jpg"); err != nil {
		t.Fatalf("seed covered item: %v", err)
	}

	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/charizard.jpg"},
	}
	searcher.results["pikachu 60"] = []catalog.Product{
		{ID: 2, Name: "Pikachu", CardNumber: "60", ImageURL: "https://img.test/pikachu.jpg"},
	}

	notifier := &recordingNotifier{}
	runner := resolve.NewRunner(cfg, store, searcher, nil, notifier)

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if summary.TotalItems != 4 || summary.TotalUnits != 2 {
		t.Fatalf("summary items=%d units=%d, want 4 items in 2 units", summary.TotalItems, summary.TotalUnits)
	}
	if summary.Found != 2 || summary.Perfect != 1 || summary.Fuzzy != 1 {
		t.Fatalf("summary found=%d perfect=%d fuzzy=%d, want 2/1/1", summary.Found, summary.Perfect, summary.Fuzzy)
	}
	if summary.Skipped != 0 || summary.SearchFailed != 0 || summary.WriteFailed != 0 {
		t.Fatalf("summary skipped=%d searchFailed=%d writeFailed=%d, want zeros", summary.Skipped, summary.SearchFailed, summary.WriteFailed)
	}

	for _, id := range []int64{charA.ID, charB.ID, charC.ID} {
		got, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%d): %v", id, err)
		}
		if got.ImageURL != "https://img.test/charizard.jpg" {
			t.Fatalf("item %d image = %q, want fan-out to every copy", id, got.ImageURL)
		}
	}
	gotPika, err := store.GetByID(ctx, pika.ID)
	if err != nil {
		t.Fatalf("GetByID(pikachu): %v", err)
	}
	if gotPika.ImageURL != "https://img.test/pikachu.jpg" {
		t.Fatalf("pikachu image = %q", gotPika.ImageURL)
	}
	gotCovered, err := store.GetByID(ctx, covered.ID)
	if err != nil {
		t.Fatalf("GetByID(covered): %v", err)
	}
	if gotCovered.ImageURL != "https://img.test/existing.jpg" {
		t.Fatalf("covered item image overwritten: %q", gotCovered.ImageURL)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.started != 1 || notifier.startedItems != 4 || notifier.startedUnits != 2 {
		t.Fatalf("started notification = %d calls (%d items, %d units)", notifier.started, notifier.startedItems, notifier.startedUnits)
	}
	if notifier.completed != 1 || notifier.found != 2 || notifier.totalUnits != 2 || notifier.writeFailed != 0 {
		t.Fatalf("completed notification = %d calls (found=%d units=%d failed=%d)",
			notifier.completed, notifier.found, notifier.totalUnits, notifier.writeFailed)
	}
}

func TestRunnerSecondSweepIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, store, "Charizard", "Base Set", "4/102")

	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/charizard.jpg"},
	}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil)

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := job.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	job, err = runner.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	summary, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if summary.TotalItems != 0 || summary.TotalUnits != 0 || summary.Found != 0 {
		t.Fatalf("second sweep processed %d items (%d units, %d found), want none", summary.TotalItems, summary.TotalUnits, summary.Found)
	}
}

func TestRunnerRejectsConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	items := []*inventory.Item{{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"}}
	searcher := &blockingSearcher{scripted: newScriptedSearcher(), entered: make(chan string, 1)}
	store := &failingStore{}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job, err := runner.RunItems(runCtx, items)
	if err != nil {
		t.Fatalf("RunItems: %v", err)
	}

	<-searcher.entered
	if _, err := runner.RunItems(ctx, items); !errors.Is(err, resolve.ErrRunActive) {
		t.Fatalf("second RunItems err = %v, want ErrRunActive", err)
	}

	cancel()
	if _, err := job.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}

	// Once the first run drains, a new run may start.
	job, err = runner.RunItems(ctx, nil)
	if err != nil {
		t.Fatalf("RunItems after drain: %v", err)
	}
	if _, err := job.Wait(ctx); err != nil {
		t.Fatalf("Wait after drain: %v", err)
	}
}

func TestRunnerCancellationStopsBetweenUnits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	items := []*inventory.Item{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"},
		{ID: 2, Name: "Pikachu", SetName: "Jungle", CardNumber: "60/64"},
		{ID: 3, Name: "Mewtwo", SetName: "Base Set", CardNumber: "10/102"},
	}

	scripted := newScriptedSearcher()
	scripted.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/c.jpg"},
	}
	searcher := &blockingSearcher{scripted: scripted, entered: make(chan string, 8)}

	writer := &recordingWriter{}
	store := &seededStore{items: items, writer: writer}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil)

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// First unit resolves from script; the second blocks until canceled.
	for query := range searcher.entered {
		if query == "pikachu 60" {
			job.Cancel()
			break
		}
	}

	summary, err := job.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}
	if summary.TotalUnits != 3 || summary.Found != 1 {
		t.Fatalf("summary units=%d found=%d, want 3 units with 1 resolved before cancel", summary.TotalUnits, summary.Found)
	}
	if summary.Elapsed <= 0 {
		t.Fatal("canceled summary missing elapsed time")
	}
}

func TestRunnerDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, store, "Charizard", "Base Set", "4/102")

	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/charizard.jpg"},
	}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil, resolve.WithDryRun(true))

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if summary.Found != 1 || summary.Perfect != 1 {
		t.Fatalf("summary found=%d perfect=%d, want dry run to report the match", summary.Found, summary.Perfect)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ImageURL != "" {
		t.Fatalf("dry run wrote image %q", got.ImageURL)
	}
}

func TestRunnerCountsWriteFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Resolver.WriteAttempts = 1
	ctx := context.Background()

	store := &failingStore{items: []*inventory.Item{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"},
	}}
	searcher := newScriptedSearcher()
	searcher.results["charizard 4"] = []catalog.Product{
		{ID: 1, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102", ImageURL: "https://img.test/c.jpg"},
	}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil)

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if summary.WriteFailed != 1 || summary.Found != 0 {
		t.Fatalf("summary writeFailed=%d found=%d, want 1/0", summary.WriteFailed, summary.Found)
	}
}

func TestRunnerDistinguishesSkippedFromSearchFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	items := []*inventory.Item{
		{ID: 1, Name: "Pikachu", SetName: "Jungle", CardNumber: "60/64"},
		{ID: 2, Name: "Charizard", SetName: "Base Set", CardNumber: "4/102"},
	}
	searcher := newScriptedSearcher()
	// Pikachu queries succeed with no results; every Charizard query errors.
	searcher.errs["charizard 4"] = errors.New("boom")
	searcher.errs["charizard base set"] = errors.New("boom")
	searcher.errs["charizard"] = errors.New("boom")

	writer := &recordingWriter{}
	store := &seededStore{items: items, writer: writer}
	runner := resolve.NewRunner(cfg, store, searcher, nil, nil)

	job, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	summary, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1 (queries ran but found nothing)", summary.Skipped)
	}
	if summary.SearchFailed != 1 {
		t.Fatalf("searchFailed = %d, want 1 (every query errored)", summary.SearchFailed)
	}
	if summary.Found != 0 || summary.WriteFailed != 0 {
		t.Fatalf("summary found=%d writeFailed=%d, want zeros", summary.Found, summary.WriteFailed)
	}
}

// seededStore serves a fixed item list and delegates writes to a
// recordingWriter.
type seededStore struct {
	items  []*inventory.Item
	writer *recordingWriter
}

func (s *seededStore) ItemsMissingImage(ctx context.Context, limit int) ([]*inventory.Item, error) {
	return s.items, nil
}

func (s *seededStore) UpdateImageURL(ctx context.Context, ids []int64, imageURL string) (int64, error) {
	return s.writer.UpdateImageURL(ctx, ids, imageURL)
}
