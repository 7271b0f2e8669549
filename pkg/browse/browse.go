// Package browse loads the curated shelves shown on the dashboard: one
// shelf per fixed genre plus a "Popular Books" shelf.
package browse

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/batch"
	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Genre is a curated subject shelf.
type Genre struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Genres is the fixed list of curated genres, in display order.
var Genres = []Genre{
	{Key: "fiction", Title: "Fiction"},
	{Key: "nonfiction", Title: "Non-Fiction"},
	{Key: "fantasy", Title: "Fantasy"},
	{Key: "science fiction", Title: "Sci-Fi"},
}

const (
	// PopularKey identifies the popular shelf.
	PopularKey = "popular"
	// PopularTitle is the popular shelf's title.
	PopularTitle = "Popular Books"
	// PopularQuery is the search backing the popular shelf.
	PopularQuery = "best seller"

	// DefaultShelfSize is the number of items per shelf.
	DefaultShelfSize = 20

	cacheKey = "shelves"
)

var (
	shelfLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_browse_loads_total",
		Help: "Curated shelf loads by result (cached, ok, partial, error)",
	}, []string{"result"})
)

// Shelf is one curated row of items.
type Shelf struct {
	Key   string         `json:"key"`
	Title string         `json:"title"`
	Items []catalog.Item `json:"items"`
}

// Searcher is the catalog search capability shelves are loaded from.
type Searcher interface {
	Search(ctx context.Context, query string, offset, limit int) ([]catalog.Item, error)
}

// Config holds curated shelf configuration.
type Config struct {
	// ShelfSize is the number of items requested per shelf.
	ShelfSize int
	// TTL is how long a complete set of shelves is served from memory.
	TTL time.Duration
	// Batch configures the parallel shelf fetch.
	Batch batch.Config
}

// DefaultConfig returns the default curated shelf configuration.
func DefaultConfig() Config {
	return Config{
		ShelfSize: DefaultShelfSize,
		TTL:       10 * time.Minute,
		Batch:     batch.DefaultConfig(),
	}
}

// Service loads and caches curated shelves.
type Service struct {
	searcher Searcher
	config   Config
	cache    *expirable.LRU[string, []Shelf]
	logger   zerolog.Logger
}

// New creates a shelf service.
func New(searcher Searcher, cfg Config) (*Service, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.ShelfSize <= 0 {
		return nil, fmt.Errorf("shelf_size must be > 0 (got %d)", cfg.ShelfSize)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be > 0 (got %s)", cfg.TTL)
	}

	return &Service{
		searcher: searcher,
		config:   cfg,
		cache:    expirable.NewLRU[string, []Shelf](1, nil, cfg.TTL),
		logger:   logging.NewLogger("browse"),
	}, nil
}

// shelfSource is what one shelf is fetched from.
type shelfSource struct {
	key   string
	title string
	query string
}

func sources() []shelfSource {
	out := make([]shelfSource, 0, len(Genres)+1)
	for _, g := range Genres {
		out = append(out, shelfSource{key: g.Key, title: g.Title, query: "subject:" + g.Key})
	}
	return append(out, shelfSource{key: PopularKey, title: PopularTitle, query: PopularQuery})
}

// Shelves returns the genre shelves in display order followed by the popular
// shelf. Genre shelves with no items are omitted. If some shelves fail to
// load, the loaded ones are returned together with the error and nothing is
// cached.
func (s *Service) Shelves(ctx context.Context) ([]Shelf, error) {
	if shelves, ok := s.cache.Get(cacheKey); ok {
		shelfLoadsTotal.WithLabelValues("cached").Inc()
		s.logger.Debug().Int("shelves", len(shelves)).Msg("Curated shelves served from cache")
		return shelves, nil
	}

	all := sources()
	byQuery := make(map[string]shelfSource, len(all))
	queries := make([]string, 0, len(all))
	for _, sp := range all {
		byQuery[sp.query] = sp
		queries = append(queries, sp.query)
	}

	start := time.Now()
	items, err := batch.FetchAll(ctx, s.config.Batch, queries, func(ctx context.Context, q string) ([]catalog.Item, error) {
		return s.searcher.Search(ctx, q, 0, s.config.ShelfSize)
	})

	shelves := make([]Shelf, 0, len(all))
	for _, q := range queries {
		got, ok := items[q]
		if !ok {
			continue
		}
		sp := byQuery[q]
		if len(got) == 0 && sp.key != PopularKey {
			continue
		}
		shelves = append(shelves, Shelf{Key: sp.key, Title: sp.title, Items: shelfItems(sp.key, got)})
	}

	if err != nil {
		if len(shelves) == 0 {
			shelfLoadsTotal.WithLabelValues("error").Inc()
		} else {
			shelfLoadsTotal.WithLabelValues("partial").Inc()
		}
		s.logger.Warn().Err(err).Int("shelves", len(shelves)).Msg("Curated shelves loaded partially")
		return shelves, fmt.Errorf("load shelves: %w", err)
	}

	shelfLoadsTotal.WithLabelValues("ok").Inc()
	s.cache.Add(cacheKey, shelves)
	s.logger.Info().
		Int("shelves", len(shelves)).
		Dur("duration", time.Since(start)).
		Msg("Curated shelves loaded")
	return shelves, nil
}

// Invalidate drops the cached shelves.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

// shelfItems rewrites item keys so they stay unique across shelves that
// share a volume.
func shelfItems(shelf string, items []catalog.Item) []catalog.Item {
	out := make([]catalog.Item, len(items))
	for i, it := range items {
		it.Key = fmt.Sprintf("%s-%s-%d", it.ID, shelf, i)
		out[i] = it
	}
	return out
}
