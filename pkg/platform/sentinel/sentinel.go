package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and adapters.
// Services translate them into domain errors; they never cross the HTTP boundary.
//
//   - ErrNotFound: no row for the key
//   - ErrAlreadyUsed: a unique key (serial_number) is already taken
//   - ErrInvalidState: compare-and-swap lost; the row is not in an expected state
//   - ErrConflict: the row is referenced and cannot be removed
//   - ErrUnavailable: backing service unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
