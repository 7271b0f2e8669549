package engine

import (
	"fmt"
)

// FetchError reports a transient failure fetching one page of a query. The
// page settles as empty; other cached pages are untouched.
type FetchError struct {
	Query string
	Page  int
	Err   error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q page %d: %v", e.Query, e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
