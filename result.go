package dudect

import (
	"fmt"

	"github.com/ctbench/dudect/internal/bank"
)

// State is the outcome of a round. The numeric values double as process
// exit statuses for the no-leak and leak cases.
type State int

const (
	// NoLeakageEvidenceYet means the session should keep going. It never
	// certifies constant-time behaviour.
	NoLeakageEvidenceYet State = 10
	// LeakageFound means a test crossed a leakage threshold. Terminal.
	LeakageFound State = 11
	// DataExhausted means the source ran dry without leakage being found. Terminal.
	DataExhausted State = 12
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case NoLeakageEvidenceYet:
		return "NoLeakageEvidenceYet"
	case LeakageFound:
		return "LeakageFound"
	case DataExhausted:
		return "DataExhausted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the driving loop should stop.
func (s State) Terminal() bool {
	return s == LeakageFound || s == DataExhausted
}

// ExitCode maps the state to a process exit status: 11 when leakage was
// found, 10 otherwise.
func (s State) ExitCode() int {
	if s == LeakageFound {
		return int(LeakageFound)
	}
	return int(NoLeakageEvidenceYet)
}

// Reason explains a verdict that found no leakage.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonWarmingUp: the round calibrated cropping thresholds and scored nothing.
	ReasonWarmingUp
	// ReasonNotEnoughMeasurements: no test holds enough samples yet.
	ReasonNotEnoughMeasurements
	// ReasonNoEvidence: tests are ready but all are below the moderate threshold.
	ReasonNoEvidence
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonWarmingUp:
		return "WarmingUp"
	case ReasonNotEnoughMeasurements:
		return "NotEnoughMeasurements"
	case ReasonNoEvidence:
		return "NoEvidence"
	default:
		return "Unknown"
	}
}

// Verdict is the result of one round.
type Verdict struct {
	// State is the round outcome.
	State State

	// Severity grades detected leakage (SeverityNone unless LeakageFound).
	Severity Severity

	// Reason explains why no leakage was reported (ReasonNone if LeakageFound).
	Reason Reason

	// Round is the 1-based number of the round that produced the verdict.
	Round int

	// Consumed is the number of samples read from the source so far.
	Consumed int

	// Test is the index of the winning t-test, or -1 if no test was ready.
	Test int

	// MaxT is |t| of the winning test.
	MaxT float64

	// MaxTau is MaxT / sqrt(Measurements); comparable across sample sizes.
	MaxTau float64

	// Measurements is the sample count of the winning test.
	Measurements float64

	// Needed estimates the measurements required to barely detect the
	// effect, (5/MaxTau)^2.
	Needed float64

	// StillToGo is how many more samples the fullest test needs before it
	// can be scored (only set with ReasonNotEnoughMeasurements).
	StillToGo float64
}

// IsLeak returns true if leakage was found.
func (v *Verdict) IsLeak() bool {
	return v.State == LeakageFound
}

// TestName describes the winning test.
func (v *Verdict) TestName() string {
	return testName(v.Test)
}

func testName(i int) string {
	switch {
	case i < 0:
		return "none"
	case i == bank.RawTest:
		return "raw"
	case i == bank.SecondOrderTest:
		return "second-order"
	default:
		return fmt.Sprintf("cropped-%d", i-1)
	}
}

// String returns a human-readable summary of the verdict.
func (v *Verdict) String() string {
	head := fmt.Sprintf("meas: %7.2f M, ", v.Measurements/1e6)
	switch {
	case v.Reason == ReasonWarmingUp:
		return fmt.Sprintf("%s: warming up, %d samples consumed", v.State, v.Consumed)
	case v.Reason == ReasonNotEnoughMeasurements:
		return fmt.Sprintf("%s: %snot enough measurements (%.0f still to go)", v.State, head, v.StillToGo)
	}
	stats := fmt.Sprintf("max t: %+7.2f, max tau: %.2e, (5/tau)^2: %.2e, test: %s",
		v.MaxT, v.MaxTau, v.Needed, v.TestName())
	switch v.Severity {
	case SeverityOverwhelming:
		return fmt.Sprintf("%s: %s%s. Definitely not constant time.", v.State, head, stats)
	case SeverityProbable:
		return fmt.Sprintf("%s: %s%s. Probably not constant time.", v.State, head, stats)
	default:
		return fmt.Sprintf("%s: %s%s. For the moment, maybe constant time.", v.State, head, stats)
	}
}
