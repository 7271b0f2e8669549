package navstate

import (
	"context"
	"errors"
)

// Tee is a Store that loads from its first store and saves to all of them.
type Tee []Store

// Load reads from the first store.
func (t Tee) Load(ctx context.Context) (State, error) {
	if len(t) == 0 {
		return Default(), ErrNoState
	}
	return t[0].Load(ctx)
}

// Save writes to every store and joins their errors.
func (t Tee) Save(ctx context.Context, state State) error {
	var errs []error
	for _, s := range t {
		if err := s.Save(ctx, state); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
