package browse

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/book-search-client/pkg/catalog"
)

type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]catalog.Item
	errs    map[string]error
	calls   []string
}

func (s *stubSearcher) Search(_ context.Context, query string, offset, limit int) ([]catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, query)
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.results[query], nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func items(prefix string, n int) []catalog.Item {
	out := make([]catalog.Item, n)
	for i := range out {
		out[i] = catalog.Item{ID: prefix + string(rune('a'+i)), Title: prefix}
	}
	return out
}

func fullCatalog() *stubSearcher {
	return &stubSearcher{results: map[string][]catalog.Item{
		"subject:fiction":         items("fic", 3),
		"subject:nonfiction":      items("non", 2),
		"subject:fantasy":         items("fan", 2),
		"subject:science fiction": items("sci", 1),
		"best seller":             items("pop", 4),
	}}
}

func shelfKeys(shelves []Shelf) string {
	keys := make([]string, len(shelves))
	for i, s := range shelves {
		keys[i] = s.Key
	}
	return strings.Join(keys, ",")
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("expected error for nil searcher")
	}
	cfg := DefaultConfig()
	cfg.ShelfSize = 0
	if _, err := New(fullCatalog(), cfg); err == nil {
		t.Error("expected error for zero shelf size")
	}
	cfg = DefaultConfig()
	cfg.TTL = 0
	if _, err := New(fullCatalog(), cfg); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestShelves_Order(t *testing.T) {
	svc, err := New(fullCatalog(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	shelves, err := svc.Shelves(context.Background())
	if err != nil {
		t.Fatalf("Shelves() error: %v", err)
	}

	if got, want := shelfKeys(shelves), "fiction,nonfiction,fantasy,science fiction,popular"; got != want {
		t.Errorf("shelf order = %q, want %q", got, want)
	}
	if shelves[3].Title != "Sci-Fi" {
		t.Errorf("shelf title = %q, want Sci-Fi", shelves[3].Title)
	}
	if shelves[4].Title != PopularTitle || len(shelves[4].Items) != 4 {
		t.Errorf("popular shelf = %+v", shelves[4])
	}
	if got := shelves[0].Items[1].Key; got != "ficb-fiction-1" {
		t.Errorf("item key = %q, want ficb-fiction-1", got)
	}
}

func TestShelves_OmitsEmptyGenres(t *testing.T) {
	s := fullCatalog()
	s.results["subject:fantasy"] = nil

	svc, _ := New(s, DefaultConfig())
	shelves, err := svc.Shelves(context.Background())
	if err != nil {
		t.Fatalf("Shelves() error: %v", err)
	}
	if got, want := shelfKeys(shelves), "fiction,nonfiction,science fiction,popular"; got != want {
		t.Errorf("shelves = %q, want %q", got, want)
	}
}

func TestShelves_Cached(t *testing.T) {
	s := fullCatalog()
	svc, _ := New(s, DefaultConfig())

	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.callCount(); got != 5 {
		t.Errorf("search calls = %d, want 5 (second load cached)", got)
	}

	svc.Invalidate()
	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.callCount(); got != 10 {
		t.Errorf("search calls = %d, want 10 after invalidate", got)
	}
}

func TestShelves_CacheExpires(t *testing.T) {
	s := fullCatalog()
	cfg := DefaultConfig()
	cfg.TTL = 30 * time.Millisecond
	svc, _ := New(s, cfg)

	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.callCount(); got != 10 {
		t.Errorf("search calls = %d, want 10 after expiry", got)
	}
}

func TestShelves_PartialFailure(t *testing.T) {
	s := fullCatalog()
	errDown := errors.New("catalog down")
	s.errs = map[string]error{"subject:nonfiction": errDown}

	svc, _ := New(s, DefaultConfig())
	shelves, err := svc.Shelves(context.Background())
	if !errors.Is(err, errDown) {
		t.Fatalf("error = %v, want wrapped catalog error", err)
	}
	if got, want := shelfKeys(shelves), "fiction,fantasy,science fiction,popular"; got != want {
		t.Errorf("shelves = %q, want %q", got, want)
	}

	// A partial load is not cached.
	s.errs = nil
	if _, err := svc.Shelves(context.Background()); err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if got := s.callCount(); got != 10 {
		t.Errorf("search calls = %d, want 10", got)
	}
}
