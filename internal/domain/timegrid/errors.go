package timegrid

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrNoSamples means no channel produced a single resolved sample, so
	// there is no time span to grid.
	ErrNoSamples = errors.New("no samples to synchronize")
)
