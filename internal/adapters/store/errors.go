package store

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrNotFound means no table has been saved at the configured path.
	ErrNotFound = errors.New("polar table not found")
)
