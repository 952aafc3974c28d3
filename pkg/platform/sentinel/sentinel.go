package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the registry service translates them into domain errors.
//
//   - ErrNotFound: the row or key does not exist
//   - ErrConflict: a write collided with an existing row
//   - ErrInvalidState: persisted state is unreadable or out of range
//   - ErrUnavailable: the backing store or cache cannot be reached
//
// Validation failures never use these; see pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
