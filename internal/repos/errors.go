package repos

import "errors"

// ErrNotFound is the generic sentinel for missing rows.
var ErrNotFound = errors.New("not found")
