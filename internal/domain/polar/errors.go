package polar

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrGridMismatch marks an attempt to merge tables built on
	// incompatible bucket grids.
	ErrGridMismatch = errors.New("incompatible polar grids")
)
