package todo

import "errors"

// ErrNotFound is returned by repositories when no row matches the id and owner.
var ErrNotFound = errors.New("todo not found")

// ErrNoDatabase is returned when the module starts without a usable store.
var ErrNoDatabase = errors.New("no database configured")
