package store

import "errors"

// ErrNotFound is returned when a slug or id matches no stored record. Handlers
// check for it with errors.Is and translate it to HTTP 404.
var ErrNotFound = errors.New("record not found")
