package bank

import "math"

// Default decision constants.
const (
	// DefaultEnough is the sample count a test must exceed before it
	// takes part in a decision.
	DefaultEnough = 10_000

	// DefaultModerate is the |t| above which leakage is probable.
	DefaultModerate = 10

	// DefaultOverwhelming is the |t| above which leakage is certain for
	// all practical purposes.
	DefaultOverwhelming = 500
)

// Level grades the strength of detected leakage.
type Level int

const (
	// LevelNone means no test crossed a threshold.
	LevelNone Level = iota
	// LevelProbable means max |t| crossed the moderate threshold.
	LevelProbable
	// LevelOverwhelming means max |t| crossed the overwhelming threshold.
	LevelOverwhelming
)

// Policy holds the decision thresholds.
type Policy struct {
	Enough       float64
	Moderate     float64
	Overwhelming float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Enough:       DefaultEnough,
		Moderate:     DefaultModerate,
		Overwhelming: DefaultOverwhelming,
	}
}

// Decision is the outcome of scanning the bank once.
type Decision struct {
	// Ready is false when no test has enough measurements yet.
	Ready bool
	// Test is the index of the test with the largest |t|.
	Test int
	// MaxT is |t| of that test.
	MaxT float64
	// Measurements is the total sample count of that test.
	Measurements float64
	// Tau is MaxT normalised by sqrt(Measurements).
	Tau float64
	// Needed estimates how many measurements would give |t| = 5, i.e.
	// (5/Tau)^2.
	Needed float64
	Level  Level
}

// Decide picks the test with the largest |t| among those holding more
// than p.Enough measurements and grades it against p.
//
// Tests whose statistic is NaN (one class too small, or both classes
// constant and equal) never win. On equal |t| the lowest index wins, so
// the raw test is preferred over cropped ones and cropped over second
// order.
func (b *Bank) Decide(p Policy) Decision {
	best := -1
	maxT := 0.0
	for i := range b.tests {
		ctx := &b.tests[i]
		if ctx.Count() <= p.Enough {
			continue
		}
		t := math.Abs(ctx.T())
		if math.IsNaN(t) {
			continue
		}
		if best < 0 || t > maxT {
			best = i
			maxT = t
		}
	}
	if best < 0 {
		return Decision{}
	}

	n := b.tests[best].Count()
	tau := maxT / math.Sqrt(n)
	d := Decision{
		Ready:        true,
		Test:         best,
		MaxT:         maxT,
		Measurements: n,
		Tau:          tau,
		Needed:       25 / (tau * tau),
	}
	switch {
	case maxT > p.Overwhelming:
		d.Level = LevelOverwhelming
	case maxT > p.Moderate:
		d.Level = LevelProbable
	}
	return d
}

// MaxCount returns the largest sample count held by any test. It is used
// to report progress while no test is ready.
func (b *Bank) MaxCount() float64 {
	maxN := 0.0
	for i := range b.tests {
		if n := b.tests[i].Count(); n > maxN {
			maxN = n
		}
	}
	return maxN
}
