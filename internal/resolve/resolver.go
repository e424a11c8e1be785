package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cardledger/internal/catalog"
	"cardledger/internal/config"
	"cardledger/internal/inventory"
	"cardledger/internal/logging"
)

// ImageWriter persists resolved image URLs to inventory items.
type ImageWriter interface {
	UpdateImageURL(ctx context.Context, ids []int64, imageURL string) (int64, error)
}

// ItemSource seeds batch runs with items missing an image.
type ItemSource interface {
	ItemsMissingImage(ctx context.Context, limit int) ([]*inventory.Item, error)
}

// Store combines the inventory surfaces the engine needs.
type Store interface {
	ImageWriter
	ItemSource
}

// Resolution describes the outcome of resolving one item or unit.
type Resolution struct {
	Found    bool
	ImageURL string
	Query    string
	Best     ScoredCandidate

	QueriesTried  int
	QueriesFailed int
}

// SearchExhausted reports whether every attempted query failed, as opposed to
// queries succeeding but returning nothing usable.
func (r Resolution) SearchExhausted() bool {
	return !r.Found && r.QueriesTried > 0 && r.QueriesFailed == r.QueriesTried
}

// Resolver matches a single item against the catalog and optionally persists
// the resolved image.
type Resolver struct {
	searcher Searcher
	scorer   *Scorer
	writer   ImageWriter
	logger   *slog.Logger

	maxResults        int
	placeholderMarker string
	searchTimeout     time.Duration
	writeAttempts     int
	writeBackoff      time.Duration
}

// NewResolver builds a resolver from configuration. The writer may be nil for
// lookup-only use.
func NewResolver(cfg *config.Config, searcher Searcher, writer ImageWriter, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		searcher:          searcher,
		scorer:            NewScorer(WeightsFromConfig(cfg)),
		writer:            writer,
		logger:            logging.NewComponentLogger(logger, "resolver"),
		maxResults:        cfg.Catalog.MaxResults,
		placeholderMarker: cfg.Catalog.PlaceholderMarker,
		searchTimeout:     time.Duration(cfg.Catalog.RequestTimeout) * time.Second,
		writeAttempts:     cfg.Resolver.WriteAttempts,
		writeBackoff:      200 * time.Millisecond,
	}
}

// Scorer exposes the resolver's scorer for diagnostic output.
func (r *Resolver) Scorer() *Scorer {
	return r.scorer
}

// Lookup finds the best catalog match for an item without writing anything.
// Queries are tried in order; the first one returning a candidate with a
// usable image decides the outcome. Search failures on individual queries are
// logged and the next query is tried. A nil error with Found=false means the
// item could not be matched.
func (r *Resolver) Lookup(ctx context.Context, item *inventory.Item) (Resolution, error) {
	if item == nil {
		return Resolution{}, errors.New("item is nil")
	}

	queries := QueryVariations(item)
	if len(queries) == 0 {
		r.logger.Debug("no usable queries for item",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("name", item.Name))
		return Resolution{}, nil
	}

	resolution := Resolution{}
	for _, query := range queries {
		resolution.QueriesTried++
		products, err := r.search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return resolution, ctx.Err()
			}
			resolution.QueriesFailed++
			r.logger.Warn("catalog query failed",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.String(logging.FieldQuery, query),
				logging.Error(err))
			continue
		}

		usable := filterUsable(products, r.placeholderMarker)
		if len(usable) == 0 {
			r.logger.Debug("query returned no usable candidates",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.String(logging.FieldQuery, query),
				logging.Int("candidates", len(products)))
			continue
		}

		best, accepted := r.scorer.Best(item, usable)
		resolution.Query = query
		resolution.Best = best
		if !accepted {
			r.logger.Debug("best candidate below threshold",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.String(logging.FieldQuery, query),
				logging.Int(logging.FieldScore, best.TotalScore),
				logging.String(logging.FieldMatchType, string(best.MatchType)))
			return resolution, nil
		}
		resolution.Found = true
		resolution.ImageURL = best.Product.ImageURL
		return resolution, nil
	}

	return resolution, nil
}

// ResolveItem looks up an item and, on a confident match, writes the image
// URL for that item's ID. The returned Resolution reflects the lookup even
// when the write fails.
func (r *Resolver) ResolveItem(ctx context.Context, item *inventory.Item) (Resolution, error) {
	resolution, err := r.Lookup(ctx, item)
	if err != nil || !resolution.Found {
		return resolution, err
	}

	if err := r.writeImage(ctx, []int64{item.ID}, resolution.ImageURL); err != nil {
		return resolution, fmt.Errorf("write image url: %w", err)
	}

	r.logger.Info("item resolved",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldQuery, resolution.Query),
		logging.String(logging.FieldMatchType, string(resolution.Best.MatchType)),
		logging.Int(logging.FieldScore, resolution.Best.TotalScore))
	return resolution, nil
}

func (r *Resolver) search(ctx context.Context, query string) ([]catalog.Product, error) {
	if r.searcher == nil {
		return nil, errors.New("searcher unavailable")
	}
	searchCtx := ctx
	if r.searchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()
	}
	return r.searcher.SearchProducts(searchCtx, query, r.maxResults)
}

func (r *Resolver) writeImage(ctx context.Context, ids []int64, imageURL string) error {
	if r.writer == nil {
		return errors.New("image writer unavailable")
	}
	attempts := r.writeAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err := r.writer.UpdateImageURL(ctx, ids, imageURL); err != nil {
			lastErr = err
			r.logger.Warn("image write attempt failed",
				logging.Int("attempt", attempt),
				logging.Int("attempts", attempts),
				logging.Error(err))
			if attempt < attempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(r.writeBackoff):
				}
			}
			continue
		}
		return nil
	}
	return lastErr
}

func filterUsable(products []catalog.Product, placeholderMarker string) []catalog.Product {
	usable := make([]catalog.Product, 0, len(products))
	for _, product := range products {
		if product.HasUsableImage(placeholderMarker) {
			usable = append(usable, product)
		}
	}
	return usable
}
