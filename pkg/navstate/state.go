// Package navstate mirrors the search engine's (query, page) pair into a
// restorable location: the address bar of the web client, a file for the
// terminal client, or Redis for server sessions.
package navstate

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNoState is returned by Store.Load when nothing has been saved yet.
var ErrNoState = errors.New("no navigation state")

// State is the persisted navigation state.
type State struct {
	Query string `json:"q" schema:"q"`
	Page  int    `json:"page" schema:"page"`
}

// Default returns the state used when nothing can be restored.
func Default() State {
	return State{Page: 1}
}

// Normalize clamps Page to >= 1.
func (s State) Normalize() State {
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// Store loads and saves navigation state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

var (
	navWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_navstate_writes_total",
		Help: "Navigation state writes by result (ok, error, superseded)",
	}, []string{"result"})

	navRestoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_navstate_restores_total",
		Help: "Navigation state restores by result (ok, empty, error)",
	}, []string{"result"})
)
