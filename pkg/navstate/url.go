package navstate

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/schema"
)

// URLStore keeps the navigation state as address-bar query parameters
// (?q=...&page=...).
type URLStore struct {
	mu     sync.Mutex
	values url.Values
}

// NewURLStore creates a store seeded from an encoded query string such as
// "q=dune&page=2". A leading "?" is accepted.
func NewURLStore(rawQuery string) (*URLStore, error) {
	if len(rawQuery) > 0 && rawQuery[0] == '?' {
		rawQuery = rawQuery[1:]
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return &URLStore{values: values}, nil
}

// Load decodes q and page. A missing, malformed or non-positive page reads
// as 1.
func (s *URLStore) Load(_ context.Context) (State, error) {
	s.mu.Lock()
	values := cloneValues(s.values)
	s.mu.Unlock()

	if values.Get("q") == "" && values.Get("page") == "" {
		return Default(), ErrNoState
	}
	return DecodeValues(values), nil
}

// Save replaces q and page, leaving any other parameter in place.
func (s *URLStore) Save(_ context.Context, state State) error {
	encoded, err := EncodeValues(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Del("q")
	s.values.Del("page")
	for k, v := range encoded {
		s.values[k] = v
	}
	return nil
}

// Location returns the current address-bar query, e.g. "?q=dune&page=2".
func (s *URLStore) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return ""
	}
	return "?" + s.values.Encode()
}

// DecodeValues reads q and page from query parameters.
func DecodeValues(values url.Values) State {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	var state State
	if err := decoder.Decode(&state, values); err != nil {
		// A bad page must not lose the query.
		state = State{Query: values.Get("q")}
		if p, err := strconv.Atoi(values.Get("page")); err == nil {
			state.Page = p
		}
	}
	return state.Normalize()
}

// EncodeValues writes q and page as query parameters. An empty query is
// omitted.
func EncodeValues(state State) (url.Values, error) {
	encoder := schema.NewEncoder()

	values := url.Values{}
	if err := encoder.Encode(state.Normalize(), values); err != nil {
		return nil, err
	}
	if state.Query == "" {
		values.Del("q")
	}
	return values, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
