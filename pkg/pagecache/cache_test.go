package pagecache

import (
	"reflect"
	"testing"
)

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "vol"
	}
	return out
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{Query: "dune", Page: 1}, "search:dune:page=1"},
		{Key{Query: "science fiction", Page: 12}, "search:science fiction:page=12"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		anchor int
		want   []int
	}{
		{0, []int{1}},
		{1, []int{1, 2}},
		{2, []int{1, 2, 3}},
		{3, []int{1, 2, 3, 4}},
		{7, []int{1, 6, 7, 8}},
	}

	for _, tt := range tests {
		if got := Window(tt.anchor); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Window(%d) = %v, want %v", tt.anchor, got, tt.want)
		}
	}
}

func TestCache_PutAndGet(t *testing.T) {
	c := New[string]()

	c.Put("dune", 1, ResultPage[string]{Items: items(20)})

	rp, ok := c.Get("dune", 1)
	if !ok {
		t.Fatal("expected page 1 to be cached")
	}
	if rp.Page != 1 {
		t.Errorf("Page = %d, want 1", rp.Page)
	}
	if len(rp.Items) != 20 {
		t.Errorf("len(Items) = %d, want 20", len(rp.Items))
	}

	if _, ok := c.Get("dune", 2); ok {
		t.Error("page 2 was never stored")
	}
	if _, ok := c.Get("foundation", 1); ok {
		t.Error("Get with another query must miss")
	}
}

func TestCache_EmptyResultPageIsAHit(t *testing.T) {
	c := New[string]()

	c.Put("dune", 4, ResultPage[string]{})

	rp, ok := c.Get("dune", 4)
	if !ok {
		t.Fatal("an empty result page is still a stored entry")
	}
	if len(rp.Items) != 0 {
		t.Errorf("expected no items, got %d", len(rp.Items))
	}
}

func TestCache_QueryChangeClearsEverything(t *testing.T) {
	c := New[string]()

	c.Put("dune", 1, ResultPage[string]{Items: items(20)})
	c.Put("dune", 2, ResultPage[string]{Items: items(20)})
	c.MarkEmpty("dune", 9)

	c.Put("foundation", 1, ResultPage[string]{Items: items(3)})

	if c.Query() != "foundation" {
		t.Errorf("Query() = %q, want foundation", c.Query())
	}
	if got := c.Pages(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Pages() = %v, want [1]", got)
	}
	if len(c.EmptyPages()) != 0 {
		t.Errorf("EmptyPages() = %v, want none", c.EmptyPages())
	}

	// Returning to the first query is a fresh start.
	c.MarkEmpty("dune", 3)
	if _, ok := c.Get("dune", 1); ok {
		t.Error("page 1 of dune must not survive a scope change")
	}
	if !c.IsEmpty("dune", 3) {
		t.Error("expected page 3 marked empty")
	}
}

func TestCache_WindowedEviction(t *testing.T) {
	c := New[string]()

	for p := 1; p <= 6; p++ {
		c.Put("dune", p, ResultPage[string]{Items: items(20)})
	}

	if got := c.Pages(); !reflect.DeepEqual(got, []int{1, 5, 6}) {
		t.Errorf("Pages() after settling 6 = %v, want [1 5 6]", got)
	}

	c.Put("dune", 7, ResultPage[string]{Items: items(20)})
	c.Put("dune", 8, ResultPage[string]{Items: items(20)})
	c.Put("dune", 7, ResultPage[string]{Items: items(20)})

	if got := c.Pages(); !reflect.DeepEqual(got, []int{1, 7, 8}) {
		t.Errorf("Pages() after settling 7 = %v, want [1 7 8]", got)
	}

	c.Put("dune", 1, ResultPage[string]{Items: items(20)})
	if got := c.Pages(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Pages() after settling 1 = %v, want [1]", got)
	}
}

func TestCache_MarkEmpty(t *testing.T) {
	c := New[string]()
	c.Reset("xyz-nonexistent")

	if c.IsEmpty("xyz-nonexistent", 5) {
		t.Error("page 5 not marked yet")
	}

	c.MarkEmpty("xyz-nonexistent", 5)
	if !c.IsEmpty("xyz-nonexistent", 5) {
		t.Error("expected page 5 marked empty")
	}
	if c.IsEmpty("other", 5) {
		t.Error("IsEmpty with another query must be false")
	}
	if _, ok := c.Get("xyz-nonexistent", 5); ok {
		t.Error("MarkEmpty must not store a page")
	}

	// Results arriving later for the same page clear the mark.
	c.Put("xyz-nonexistent", 5, ResultPage[string]{Items: items(2)})
	if c.IsEmpty("xyz-nonexistent", 5) {
		t.Error("non-empty page should clear the empty mark")
	}
}

func TestCache_InvalidPageIgnored(t *testing.T) {
	c := New[string]()

	c.Put("dune", 0, ResultPage[string]{Items: items(1)})
	c.MarkEmpty("dune", -1)

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if len(c.EmptyPages()) != 0 {
		t.Errorf("EmptyPages() = %v, want none", c.EmptyPages())
	}
}
