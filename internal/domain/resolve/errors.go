package resolve

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrPinnedSourceAbsent marks a channel whose configured source never
	// appeared in the data. The channel is reported missing; the resolver
	// does not fall back to another source.
	ErrPinnedSourceAbsent = errors.New("pinned source never observed")
)
