package unit

import "errors"

// Validation failures surfaced by storage unit operations. Each Apply call
// either fully succeeds or returns one of these with state unchanged.
var (
	ErrDuplicateFile       = errors.New("file already exists")
	ErrFileNotFound        = errors.New("file does not exist")
	ErrInvalidSize         = errors.New("size must be non-negative")
	ErrOutOfOrderOperation = errors.New("operation out of timestamp order")
	ErrNoDataForMonth      = errors.New("no recorded activity for month")
)
