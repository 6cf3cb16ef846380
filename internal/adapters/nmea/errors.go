package nmea

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownEncoding = errors.New("unknown input encoding")
)

// errTruncated marks records with too few fields to parse; it stays
// internal because truncation is a counted defect, not a caller concern.
var errTruncated = errors.New("truncated record")
