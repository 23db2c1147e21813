package database

import "errors"

// ErrNotFound is returned when a subject id does not exist in the store.
var ErrNotFound = errors.New("subject not found")
