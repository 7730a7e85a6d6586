package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformedRow marks an encoded category field whose layout does not
	// match the schema derived from the first row.
	ErrMalformedRow = errors.New("malformed category row")

	// ErrSchemaDrift marks a prediction vector whose length disagrees with
	// the persisted category schema.
	ErrSchemaDrift = errors.New("classifier schema drift")
)
