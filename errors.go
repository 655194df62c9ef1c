package dudect

import "errors"

// Errors returned by sessions and sample sources. They are wrapped with
// context (file, line, round) and should be matched with errors.Is.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("dudect: invalid configuration")

	// ErrMalformedRecord is returned when a record is not "<label>;<int64>".
	ErrMalformedRecord = errors.New("dudect: malformed record")

	// ErrTruncatedSource is returned when a source holds fewer records than declared.
	ErrTruncatedSource = errors.New("dudect: source has fewer records than expected")

	// ErrCapacityExceeded is returned when one class holds more records than allowed.
	ErrCapacityExceeded = errors.New("dudect: per-class record capacity exceeded")
)
