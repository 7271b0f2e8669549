package shelf

import (
	"context"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/batch"
	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Lookuper fetches a single catalog item by id.
type Lookuper interface {
	Lookup(ctx context.Context, id string) (catalog.Item, error)
}

// Resolver turns stored entries back into catalog items.
type Resolver struct {
	lookup Lookuper
	config batch.Config
	logger zerolog.Logger
}

// NewResolver creates a resolver using cfg for the parallel lookups.
func NewResolver(lookup Lookuper, cfg batch.Config) *Resolver {
	return &Resolver{
		lookup: lookup,
		config: cfg,
		logger: logging.NewLogger("shelf"),
	}
}

// Resolve looks every entry up in parallel and returns the items in entry
// order. Entries whose lookup fails are skipped. The error is non-nil only
// when ctx ends before resolution finishes.
func (r *Resolver) Resolve(ctx context.Context, entries []Entry) ([]catalog.Item, error) {
	start := time.Now()
	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !seen[e.ID] {
			seen[e.ID] = true
			ids = append(ids, e.ID)
		}
	}

	found, err := batch.FetchAll(ctx, r.config, ids, r.lookup.Lookup)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn().
			Err(err).
			Int("resolved", len(found)).
			Int("total", len(ids)).
			Msg("Some shelf entries could not be resolved")
	}

	items := make([]catalog.Item, 0, len(found))
	for _, id := range ids {
		it, ok := found[id]
		if !ok {
			shelfUnresolvedTotal.Inc()
			continue
		}
		items = append(items, it)
	}

	r.logger.Debug().
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Shelf resolved")
	return items, nil
}
