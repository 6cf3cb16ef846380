package legs

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrOverlappingLegs marks two configured legs whose time windows
	// intersect. Overlap is never silently resolved.
	ErrOverlappingLegs = errors.New("overlapping legs")

	// ErrInvalidWindow marks a leg whose end is not after its start.
	ErrInvalidWindow = errors.New("invalid leg window")
)
