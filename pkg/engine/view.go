package engine

import (
	"strconv"

	"github.com/Sternrassler/book-search-client/pkg/catalog"
)

// State is the pagination controller state.
type State int

const (
	// StateIdle means no query is active.
	StateIdle State = iota
	// StateFetching means a page fetch is in flight.
	StateFetching
	// StateSettled means the current page's result is known.
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PageButton is one element of the pagination window: a page number or an
// ellipsis marker.
type PageButton struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// String renders the button label.
func (b PageButton) String() string {
	if b.Ellipsis {
		return "..."
	}
	return strconv.Itoa(b.Page)
}

// PaginationWindow returns the numbered buttons shown around current:
// page 1, an ellipsis when current > 3, then max(2, current-1)..current+1.
func PaginationWindow(current int) []PageButton {
	if current < 1 {
		current = 1
	}

	buttons := []PageButton{{Page: 1}}
	if current > 3 {
		buttons = append(buttons, PageButton{Ellipsis: true})
	}
	for p := max(2, current-1); p <= current+1; p++ {
		buttons = append(buttons, PageButton{Page: p})
	}
	return buttons
}

// View is what the rendering boundary draws on each tick.
type View struct {
	Query              string         `json:"query"`
	State              State          `json:"state"`
	CurrentPage        int            `json:"current_page"`
	PendingPage        int            `json:"pending_page,omitempty"`
	Items              []catalog.Item `json:"items"`
	IsFetching         bool           `json:"is_fetching"`
	IsCurrentPageEmpty bool           `json:"is_current_page_empty"`
	HasPrev            bool           `json:"has_prev"`
	HasNext            bool           `json:"has_next"`
	Window             []PageButton   `json:"window,omitempty"`
	CachedPages        []int          `json:"cached_pages,omitempty"`
	EmptyPages         []int          `json:"empty_pages,omitempty"`

	// Err is set when the current page's fetch failed.
	Err   *FetchError `json:"-"`
	Error string      `json:"error,omitempty"`
}
