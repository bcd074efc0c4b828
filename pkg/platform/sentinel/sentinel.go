package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors:
// - ErrNotFound: record does not exist
// - ErrConflict: the stored version differs from the expected version
// - ErrDuplicate: a record with the same natural key already exists
// - ErrUnavailable: backing store unreachable
//
// Context deadline errors are passed through unchanged; services map them to
// a storage timeout.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("version conflict")
	ErrDuplicate   = errors.New("duplicate")
	ErrUnavailable = errors.New("unavailable")
)
