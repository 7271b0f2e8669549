// Package shelf stores the items a user saved to their personal library
// and resolves them back into catalog items.
package shelf

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrNotFound is returned when removing an entry that is not on the shelf.
	ErrNotFound = errors.New("shelf entry not found")

	// ErrInvalidEntry is returned for a missing user id or catalog id.
	ErrInvalidEntry = errors.New("invalid shelf entry")
)

var (
	shelfOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookscout_shelf_operations_total",
		Help: "Personal shelf store operations by backend, operation and result",
	}, []string{"backend", "operation", "result"})

	shelfUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookscout_shelf_unresolved_total",
		Help: "Shelf entries skipped because the catalog lookup failed",
	})
)

// Entry is one saved catalog item.
type Entry struct {
	ID      string    `json:"id" bson:"id"`
	AddedAt time.Time `json:"added_at" bson:"added_at"`
}

// Store is a per-user personal shelf. Entries are keyed by catalog id, so
// adding the same id twice keeps the first entry. List returns entries by
// AddedAt ascending.
type Store interface {
	Add(ctx context.Context, userID string, entry Entry) error
	List(ctx context.Context, userID string) ([]Entry, error)
	Remove(ctx context.Context, userID, id string) error
}

// prepare validates an entry and stamps AddedAt if unset.
func prepare(userID string, entry Entry, now time.Time) (Entry, error) {
	entry.ID = strings.TrimSpace(entry.ID)
	if strings.TrimSpace(userID) == "" {
		return entry, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	if entry.ID == "" {
		return entry, fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = now
	}
	entry.AddedAt = entry.AddedAt.UTC()
	return entry, nil
}

// sortEntries orders entries by AddedAt, then id.
func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func record(backend, op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	shelfOperationsTotal.WithLabelValues(backend, op, result).Inc()
}
