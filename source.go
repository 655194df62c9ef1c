package dudect

import "context"

// Class identifies which input population a measurement belongs to.
type Class uint8

const (
	// Baseline is the fixed-input population (class 0).
	Baseline Class = 0
	// Modified is the random or modified-input population (class 1).
	Modified Class = 1
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case Baseline:
		return "baseline"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Sample is one classified timing measurement in timer ticks.
// Negative timings come from a wrapped counter and are never scored.
type Sample struct {
	Timing int64
	Class  Class
}

// SampleSource feeds measurements to a session, one chunk per round.
//
// NextChunk returns at most max samples and reports whether the source
// has nothing left after this chunk. Once exhausted, further calls return
// an empty chunk and exhausted=true. Any error is fatal for the session.
type SampleSource interface {
	NextChunk(ctx context.Context, max int) (chunk []Sample, exhausted bool, err error)
}

// namedSource is implemented by sources that can label their logs and metrics.
type namedSource interface {
	Name() string
}

func timings(chunk []Sample) []int64 {
	out := make([]int64, len(chunk))
	for i, s := range chunk {
		out[i] = s.Timing
	}
	return out
}
