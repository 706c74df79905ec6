package store

import "github.com/pkg/errors"

var (
	// ErrNotFound marks lookups for rows that are absent or owned by another
	// user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before touching the database.
	ErrValidation = errors.New("validation failed")
)
