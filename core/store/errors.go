package store

import "errors"

// ErrConflict signals a stale-version write: the row changed under the
// caller since it was read.
var ErrConflict = errors.New("conflict")

// ErrNotFound signals a lookup for a row that does not exist.
var ErrNotFound = errors.New("not found")
