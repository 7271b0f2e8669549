package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/debounce"
	"github.com/Sternrassler/book-search-client/pkg/logging"
	"github.com/Sternrassler/book-search-client/pkg/navstate"
	"github.com/Sternrassler/book-search-client/pkg/pagecache"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of items requested per page.
const DefaultPageSize = 20

// Searcher is the remote catalog search capability.
type Searcher interface {
	Search(ctx context.Context, query string, offset, limit int) ([]catalog.Item, error)
}

// Navigator persists the (query, page) pair. Restore is read once at
// construction; Publish must not block.
type Navigator interface {
	Restore(ctx context.Context) navstate.State
	Publish(state navstate.State)
}

// Config holds engine configuration.
type Config struct {
	// PageSize is the number of items per page.
	PageSize int

	// QuietInterval is the debounce interval applied to OnQueryChange.
	QuietInterval time.Duration

	// FetchTimeout bounds a single page fetch. Zero leaves timeouts to the
	// searcher.
	FetchTimeout time.Duration

	// Navigator mirrors settled pages into restorable state. Optional.
	Navigator Navigator

	// SessionID tags log lines. Optional.
	SessionID string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:      DefaultPageSize,
		QuietInterval: debounce.DefaultQuietInterval,
	}
}

// fetch is one issued page request.
type fetch struct {
	query   string
	page    int
	started time.Time
}

// Engine is the incremental search and pagination engine.
type Engine struct {
	searcher  Searcher
	config    Config
	nav       Navigator
	debouncer *debounce.Debouncer[string]
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	cache       *pagecache.Cache[catalog.Item]
	failures    map[int]*FetchError
	query       string
	currentPage int
	pendingPage int
	inflight    *fetch
	changed     chan struct{}
	closed      bool
}

// New creates an engine. If the config carries a Navigator, the engine is
// seeded from its restored state and starts fetching immediately.
func New(ctx context.Context, searcher Searcher, cfg Config) (*Engine, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.PageSize < 0 {
		return nil, fmt.Errorf("page_size must be > 0 (got %d)", cfg.PageSize)
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}

	logger := logging.NewLogger("engine")
	if cfg.SessionID != "" {
		logger = logger.With().Str("session_id", cfg.SessionID).Logger()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		searcher:    searcher,
		config:      cfg,
		nav:         cfg.Navigator,
		logger:      logger,
		ctx:         runCtx,
		cancel:      cancel,
		cache:       pagecache.New[catalog.Item](),
		failures:    make(map[int]*FetchError),
		currentPage: 1,
		changed:     make(chan struct{}),
	}
	e.debouncer = debounce.New(cfg.QuietInterval, e.applyQuery)

	if e.nav != nil {
		st := e.nav.Restore(ctx)
		if q := strings.TrimSpace(st.Query); q != "" {
			e.mu.Lock()
			e.start(q, max(1, st.Page))
			e.mu.Unlock()
		}
	}

	return e, nil
}

// OnQueryChange feeds raw input text. The trimmed text becomes the active
// query once it has been stable for the quiet interval.
func (e *Engine) OnQueryChange(text string) {
	e.debouncer.Observe(strings.TrimSpace(text))
}

// SetQuery applies query immediately, dropping any pending debounced input.
func (e *Engine) SetQuery(query string) {
	e.debouncer.Cancel()
	e.applyQuery(strings.TrimSpace(query))
}

// FlushQuery applies pending debounced input now. It reports whether there
// was any.
func (e *Engine) FlushQuery() bool {
	return e.debouncer.Flush()
}

// applyQuery is the debouncer's emit function.
func (e *Engine) applyQuery(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || query == e.query {
		return
	}

	if query == "" {
		e.logger.Debug().Str("previous_query", e.query).Msg("Search cleared")
		queryChangesTotal.WithLabelValues("idle").Inc()
		e.query = ""
		e.cache.Reset("")
		clear(e.failures)
		e.currentPage = 1
		e.pendingPage = 0
		e.inflight = nil
		e.notify()
		return
	}

	queryChangesTotal.WithLabelValues("search").Inc()
	e.start(query, 1)
}

// start makes query active and issues the fetch for page. The cache is
// cleared before the fetch is issued. Caller holds e.mu.
func (e *Engine) start(query string, page int) {
	e.logger.Debug().Str("query", query).Int("page", page).Msg("Query changed")

	e.query = query
	e.cache.Reset(query)
	clear(e.failures)
	e.currentPage = page
	e.pendingPage = 0
	e.issue(page)
}

// OnPageRequest asks for page. It reports whether the request was accepted.
// Requests for page < 1, for the current page, or while no query is active
// are ignored, in flight or not. While a fetch is in flight the request
// replaces the pending page instead of starting a second fetch.
func (e *Engine) OnPageRequest(page int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.query == "" || page < 1 || page == e.currentPage {
		pageRequestsTotal.WithLabelValues("ignored").Inc()
		return false
	}

	if e.inflight != nil {
		target := e.pendingPage
		if target == 0 {
			target = e.inflight.page
		}
		if page == target {
			pageRequestsTotal.WithLabelValues("ignored").Inc()
			return false
		}
		e.pendingPage = page
		pageRequestsTotal.WithLabelValues("pending").Inc()
		e.logger.Debug().Str("query", e.query).Int("page", page).Msg("Page request queued behind in-flight fetch")
		e.notify()
		return true
	}

	e.pendingPage = page
	pageRequestsTotal.WithLabelValues("issued").Inc()
	e.issue(page)
	return true
}

// NextPage requests the page after the current one unless the current page
// came back empty.
func (e *Engine) NextPage() bool {
	e.mu.Lock()
	if e.query == "" || e.cache.IsEmpty(e.query, e.currentPage) {
		e.mu.Unlock()
		return false
	}
	next := e.currentPage + 1
	e.mu.Unlock()
	return e.OnPageRequest(next)
}

// PrevPage requests the page before the current one.
func (e *Engine) PrevPage() bool {
	e.mu.Lock()
	prev := e.currentPage - 1
	e.mu.Unlock()
	return e.OnPageRequest(prev)
}

// issue starts the fetch for page of the active query. Caller holds e.mu.
func (e *Engine) issue(page int) {
	f := &fetch{query: e.query, page: page, started: time.Now()}
	e.inflight = f

	e.logger.Debug().
		Str("query", f.query).
		Int("page", page).
		Int("offset", e.offset(page)).
		Msg("Fetching page")

	e.wg.Add(1)
	go e.run(f)
	e.notify()
}

func (e *Engine) offset(page int) int {
	return (page - 1) * e.config.PageSize
}

// run performs the remote call for f and settles its outcome.
func (e *Engine) run(f *fetch) {
	defer e.wg.Done()

	ctx := e.ctx
	if e.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.FetchTimeout)
		defer cancel()
	}

	items, err := e.searcher.Search(ctx, f.query, e.offset(f.page), e.config.PageSize)
	fetchDuration.Observe(time.Since(f.started).Seconds())

	e.settle(f, items, err)
}

// settle applies a fetch response in arrival order.
func (e *Engine) settle(f *fetch, items []catalog.Item, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	if f.query != e.query {
		fetchesTotal.WithLabelValues("stale").Inc()
		e.logger.Debug().
			Str("query", f.query).
			Str("active_query", e.query).
			Int("page", f.page).
			Msg("Discarding stale response")
		return
	}

	switch {
	case err != nil:
		fetchesTotal.WithLabelValues("failed").Inc()
		e.logger.Warn().
			Err(err).
			Str("query", f.query).
			Int("page", f.page).
			Str("error_class", string(catalog.ClassOf(err))).
			Msg("Page fetch failed")
		e.failures[f.page] = &FetchError{Query: f.query, Page: f.page, Err: err}
		e.cache.Put(f.query, f.page, pagecache.ResultPage[catalog.Item]{Items: []catalog.Item{}})
		e.cache.MarkEmpty(f.query, f.page)
	case len(items) == 0:
		fetchesTotal.WithLabelValues("empty").Inc()
		delete(e.failures, f.page)
		e.cache.Put(f.query, f.page, pagecache.ResultPage[catalog.Item]{Items: []catalog.Item{}})
		e.cache.MarkEmpty(f.query, f.page)
	default:
		fetchesTotal.WithLabelValues("ok").Inc()
		delete(e.failures, f.page)
		e.cache.Put(f.query, f.page, pagecache.ResultPage[catalog.Item]{Items: items})
	}

	e.currentPage = f.page
	if e.pendingPage == f.page {
		e.pendingPage = 0
	}
	if e.inflight == f {
		e.inflight = nil
	}

	e.logger.Info().
		Str("query", f.query).
		Int("page", f.page).
		Int("items", len(items)).
		Dur("duration", time.Since(f.started)).
		Msg("Page settled")

	if e.nav != nil {
		e.nav.Publish(navstate.State{Query: f.query, Page: f.page})
	}

	if e.inflight == nil && e.pendingPage != 0 {
		e.issue(e.pendingPage)
		return
	}
	e.notify()
}

// notify wakes everyone waiting on the current change channel. Caller holds e.mu.
func (e *Engine) notify() {
	close(e.changed)
	e.changed = make(chan struct{})
}

// View returns the current rendering snapshot.
func (e *Engine) View() View {
	v, _ := e.Snapshot()
	return v
}

// Snapshot returns the current view together with a channel that is closed
// on the next state change.
func (e *Engine) Snapshot() (View, <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked(), e.changed
}

func (e *Engine) viewLocked() View {
	v := View{
		Query:       e.query,
		CurrentPage: e.currentPage,
		PendingPage: e.pendingPage,
		IsFetching:  e.inflight != nil,
		Items:       []catalog.Item{},
	}

	switch {
	case e.query == "":
		v.State = StateIdle
		return v
	case e.inflight != nil:
		v.State = StateFetching
	default:
		v.State = StateSettled
	}

	if rp, ok := e.cache.Get(e.query, e.currentPage); ok {
		v.Items = rp.Items
	}
	v.IsCurrentPageEmpty = e.cache.IsEmpty(e.query, e.currentPage)
	v.HasPrev = e.currentPage > 1
	v.HasNext = !v.IsCurrentPageEmpty
	v.Window = PaginationWindow(e.currentPage)
	v.CachedPages = e.cache.Pages()
	v.EmptyPages = e.cache.EmptyPages()

	if fe, ok := e.failures[e.currentPage]; ok {
		v.Err = fe
		v.Error = fe.Error()
	}
	return v
}

// WaitSettled blocks until no debounced input is pending and no fetch is in
// flight, then returns the view.
func (e *Engine) WaitSettled(ctx context.Context) (View, error) {
	for {
		v, changed := e.Snapshot()
		if v.State != StateFetching && !e.debouncer.Pending() {
			return v, nil
		}

		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-changed:
		case <-time.After(e.debouncer.Interval()):
			// Debounced input settles without a state change of its own.
		}
	}
}

// Close stops the debouncer, aborts in-flight fetches and waits for their
// goroutines to exit.
func (e *Engine) Close() {
	e.debouncer.Stop()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.notify()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}
