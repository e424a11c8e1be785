package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardledger/internal/config"
	"cardledger/internal/inventory"
	"cardledger/internal/logging"
	"cardledger/internal/notifications"
)

// ErrRunActive indicates a resolution run is already in progress.
var ErrRunActive = errors.New("resolution run already active")

// Summary aggregates the outcome of a resolution run. Found, Skipped,
// SearchFailed, and WriteFailed partition the processed units.
type Summary struct {
	TotalItems   int
	TotalUnits   int
	Found        int
	Perfect      int
	Fuzzy        int
	Skipped      int
	SearchFailed int
	WriteFailed  int
	Elapsed      time.Duration
}

// Job is a handle on an in-flight resolution run. Summary and Err are valid
// once Done is closed.
type Job struct {
	RunID string

	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	summary Summary
	err     error
}

// Done is closed when the run finishes, fails, or is canceled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel stops the run at the next unit boundary.
func (j *Job) Cancel() {
	j.cancel()
}

// Summary returns the run counters. Valid once Done is closed; partial counts
// when the run was canceled.
func (j *Job) Summary() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.summary
}

// Err returns the run's terminal error, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Wait blocks until the run finishes or ctx expires.
func (j *Job) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case <-j.done:
		return j.Summary(), j.Err()
	}
}

// Runner drives batch resolution runs: it seeds units from the store, walks
// them strictly sequentially with a fixed inter-unit delay, and fans resolved
// images out to every member item. Only one run may be active per Runner.
type Runner struct {
	resolver *Resolver
	store    Store
	logger   *slog.Logger
	notifier notifications.Service

	batchLimit int
	unitDelay  time.Duration
	dryRun     bool

	mu     sync.Mutex
	active bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDryRun reports what would resolve without writing image URLs.
func WithDryRun(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.dryRun = enabled
	}
}

// WithBatchLimit overrides the configured cap on items loaded per run.
func WithBatchLimit(limit int) RunnerOption {
	return func(r *Runner) {
		if limit > 0 {
			r.batchLimit = limit
		}
	}
}

// NewRunner builds a Runner. The notifier may be nil.
func NewRunner(cfg *config.Config, store Store, searcher Searcher, logger *slog.Logger, notifier notifications.Service, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	runner := &Runner{
		resolver:   NewResolver(cfg, searcher, store, logger),
		store:      store,
		logger:     logging.NewComponentLogger(logger, "runner"),
		notifier:   notifier,
		batchLimit: cfg.Resolver.BatchItemLimit,
		unitDelay:  time.Duration(cfg.Resolver.UnitDelayMS) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Resolver returns the underlying single-item resolver.
func (r *Runner) Resolver() *Resolver {
	return r.resolver
}

// Run seeds a batch from items missing an image and starts processing it.
// Returns ErrRunActive when a run is already in flight.
func (r *Runner) Run(ctx context.Context) (*Job, error) {
	items, err := r.store.ItemsMissingImage(ctx, r.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("load items missing image: %w", err)
	}
	return r.RunItems(ctx, items)
}

// RunItems starts processing the given items. Returns ErrRunActive when a run
// is already in flight. The returned Job completes when every unit has been
// processed or ctx is canceled.
func (r *Runner) RunItems(ctx context.Context, items []*inventory.Item) (*Job, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, ErrRunActive
	}
	r.active = true
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		RunID:  uuid.NewString(),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(job.done)
		defer cancel()
		defer func() {
			r.mu.Lock()
			r.active = false
			r.mu.Unlock()
		}()

		summary, err := r.process(runCtx, job.RunID, items)
		job.mu.Lock()
		job.summary = summary
		job.err = err
		job.mu.Unlock()
	}()

	return job, nil
}

func (r *Runner) process(ctx context.Context, runID string, items []*inventory.Item) (Summary, error) {
	start := time.Now()
	units := BatchItems(items)
	summary := Summary{TotalItems: len(items), TotalUnits: len(units)}
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	logger.Info("resolution run started",
		logging.Int("items", summary.TotalItems),
		logging.Int("units", summary.TotalUnits),
		logging.Bool("dry_run", r.dryRun))
	if err := r.notifier.NotifyRunStarted(ctx, summary.TotalItems, summary.TotalUnits); err != nil {
		logger.Warn("run started notification failed", logging.Error(err))
	}

	for idx, unit := range units {
		if idx > 0 && r.unitDelay > 0 {
			select {
			case <-ctx.Done():
				summary.Elapsed = time.Since(start)
				logger.Warn("resolution run canceled", logging.Int("processed", idx))
				return summary, ctx.Err()
			case <-time.After(r.unitDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(start)
			logger.Warn("resolution run canceled", logging.Int("processed", idx))
			return summary, err
		}
		if err := r.processUnit(ctx, logger, unit, &summary); err != nil {
			summary.Elapsed = time.Since(start)
			logger.Warn("resolution run canceled", logging.Int("processed", idx))
			return summary, err
		}
	}

	summary.Elapsed = time.Since(start)
	logger.Info("resolution run completed",
		logging.Int("found", summary.Found),
		logging.Int("perfect", summary.Perfect),
		logging.Int("fuzzy", summary.Fuzzy),
		logging.Int("skipped", summary.Skipped),
		logging.Int("search_failed", summary.SearchFailed),
		logging.Int("write_failed", summary.WriteFailed),
		logging.Duration("elapsed", summary.Elapsed))
	if err := r.notifier.NotifyRunCompleted(ctx, summary.Found, summary.TotalUnits, summary.WriteFailed, summary.Elapsed); err != nil {
		logger.Warn("run completed notification failed", logging.Error(err))
	}
	return summary, nil
}

func (r *Runner) processUnit(ctx context.Context, logger *slog.Logger, unit *SearchUnit, summary *Summary) error {
	unitLogger := logger.With(logging.String(logging.FieldUnitKey, unit.Key))

	resolution, err := r.resolver.Lookup(ctx, unit.Representative)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.SearchFailed++
		unitLogger.Warn("unit lookup failed", logging.Error(err))
		return nil
	}

	if !resolution.Found {
		if resolution.SearchExhausted() {
			summary.SearchFailed++
			unitLogger.Warn("all queries failed for unit",
				logging.Int("queries", resolution.QueriesTried))
			return nil
		}
		summary.Skipped++
		unitLogger.Debug("unit skipped",
			logging.String(logging.FieldQuery, resolution.Query),
			logging.Int(logging.FieldScore, resolution.Best.TotalScore),
			logging.String(logging.FieldMatchType, string(resolution.Best.MatchType)))
		return nil
	}

	if !r.dryRun {
		if err := r.resolver.writeImage(ctx, unit.ItemIDs, resolution.ImageURL); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			summary.WriteFailed++
			unitLogger.Error("image write failed after retries",
				logging.Int("items", len(unit.ItemIDs)),
				logging.Error(err))
			return nil
		}
	}

	summary.Found++
	if resolution.Best.MatchType == MatchPerfect {
		summary.Perfect++
	} else {
		summary.Fuzzy++
	}
	unitLogger.Info("unit resolved",
		logging.String(logging.FieldQuery, resolution.Query),
		logging.String(logging.FieldMatchType, string(resolution.Best.MatchType)),
		logging.Int(logging.FieldScore, resolution.Best.TotalScore),
		logging.Int("items", len(unit.ItemIDs)))
	return nil
}
