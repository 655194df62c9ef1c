package dudect

import "github.com/ctbench/dudect/internal/bank"

// Severity grades how strongly the timings of the two classes differ.
type Severity int

const (
	// SeverityNone: no test crossed the moderate threshold.
	SeverityNone Severity = iota

	// SeverityProbable: max |t| > moderate threshold (default 10).
	// Probably not constant time.
	SeverityProbable

	// SeverityOverwhelming: max |t| > overwhelming threshold (default 500).
	// Definitely not constant time.
	SeverityOverwhelming
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityProbable:
		return "Probable"
	case SeverityOverwhelming:
		return "Overwhelming"
	default:
		return "Unknown"
	}
}

func severityOf(l bank.Level) Severity {
	switch l {
	case bank.LevelOverwhelming:
		return SeverityOverwhelming
	case bank.LevelProbable:
		return SeverityProbable
	default:
		return SeverityNone
	}
}
