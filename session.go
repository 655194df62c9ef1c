package dudect

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ctbench/dudect/internal/bank"
)

// Phase is the position of a session in its state machine.
type Phase int

const (
	// PhaseWarmup: the next non-empty chunk calibrates the cropping thresholds.
	PhaseWarmup Phase = iota
	// PhaseMonitoring: chunks are scored and a verdict is taken every round.
	PhaseMonitoring
	// PhaseLeakageFound: terminal, a test crossed a threshold.
	PhaseLeakageFound
	// PhaseDataExhausted: terminal, the source ran dry first.
	PhaseDataExhausted
	// PhaseFailed: terminal, the source returned a fatal error.
	PhaseFailed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "Warmup"
	case PhaseMonitoring:
		return "Monitoring"
	case PhaseLeakageFound:
		return "LeakageFound"
	case PhaseDataExhausted:
		return "DataExhausted"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Session drives one leakage-detection run over a single source.
//
// Each call to Round consumes one chunk: the first non-empty chunk only
// calibrates the cropping thresholds, every later one is scored and
// followed by a decision. Rounds are strictly sequential; a Session is
// not safe for concurrent use.
type Session struct {
	id       string
	name     string
	cfg      *Config
	src      SampleSource
	bank     *bank.Bank
	log      logrus.FieldLogger
	round    int
	consumed int
	last     Verdict
	err      error
}

// NewSession creates a session reading from src.
func NewSession(src SampleSource, opts ...Option) (*Session, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil sample source", ErrInvalidConfig)
	}
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	name := "anonymous"
	if n, ok := src.(namedSource); ok {
		name = n.Name()
	}
	id := uuid.NewString()
	return &Session{
		id:   id,
		name: name,
		cfg:  cfg,
		src:  src,
		bank: bank.New(),
		log: cfg.logger.WithFields(logrus.Fields{
			"session": id,
			"source":  name,
		}),
		last: Verdict{State: NoLeakageEvidenceYet, Test: -1},
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns where the session is in its state machine.
func (s *Session) Phase() Phase {
	switch {
	case s.err != nil:
		return PhaseFailed
	case s.last.State == LeakageFound:
		return PhaseLeakageFound
	case s.last.State == DataExhausted:
		return PhaseDataExhausted
	case s.bank.Calibrated():
		return PhaseMonitoring
	default:
		return PhaseWarmup
	}
}

// Consumed returns the number of samples read from the source so far.
func (s *Session) Consumed() int {
	return s.consumed
}

// Last returns the most recent verdict.
func (s *Session) Last() Verdict {
	return s.last
}

// Thresholds returns the cropping thresholds, or nil before calibration.
func (s *Session) Thresholds() []int64 {
	return s.bank.Thresholds()
}

// Discarded returns how many negative timings were dropped while scoring.
func (s *Session) Discarded() uint64 {
	return s.bank.Discarded()
}

// Round runs one round and returns its verdict.
//
// Once a terminal verdict has been returned, Round keeps returning it
// without touching the source. A source error is fatal: it is returned
// now and on every later call. Context cancellation is only checked
// before the chunk is pulled, so a round never leaves partial state.
func (s *Session) Round(ctx context.Context) (Verdict, error) {
	if s.err != nil {
		return Verdict{}, s.err
	}
	if s.last.State.Terminal() {
		return s.last, nil
	}
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	chunk, exhausted, err := s.src.NextChunk(ctx, s.cfg.chunkSize)
	if err != nil {
		if ctx.Err() != nil {
			return Verdict{}, err
		}
		return Verdict{}, s.fail(err)
	}
	s.round++
	s.consumed += len(chunk)

	var v Verdict
	if !s.bank.Calibrated() {
		// The warm-up chunk is only used to place the cropping thresholds.
		v = Verdict{State: NoLeakageEvidenceYet, Reason: ReasonWarmingUp, Test: -1}
		if len(chunk) > 0 {
			if err := s.bank.Calibrate(timings(chunk)); err != nil {
				return Verdict{}, s.fail(err)
			}
			s.log.WithField("round", s.round).Debugf("calibrated %d cropping thresholds from %d samples",
				len(s.bank.Thresholds()), len(chunk))
		}
	} else {
		for _, smp := range chunk {
			s.bank.Push(smp.Timing, int(smp.Class))
		}
		v = s.decide()
	}

	if exhausted && v.State != LeakageFound {
		v.State = DataExhausted
	}
	v.Round = s.round
	v.Consumed = s.consumed
	s.last = v

	s.report(v)
	s.cfg.metrics.observe(s.name, v, len(chunk), s.bank.Discarded())
	return v, nil
}

func (s *Session) decide() Verdict {
	p := s.cfg.policy()
	d := s.bank.Decide(p)
	if !d.Ready {
		return Verdict{
			State:     NoLeakageEvidenceYet,
			Reason:    ReasonNotEnoughMeasurements,
			Test:      -1,
			StillToGo: max(p.Enough-s.bank.MaxCount()+1, 0),
		}
	}

	v := Verdict{
		State:        NoLeakageEvidenceYet,
		Severity:     severityOf(d.Level),
		Test:         d.Test,
		MaxT:         d.MaxT,
		MaxTau:       d.Tau,
		Measurements: d.Measurements,
		Needed:       d.Needed,
	}
	if v.Severity == SeverityNone {
		v.Reason = ReasonNoEvidence
	} else {
		v.State = LeakageFound
	}
	return v
}

func (s *Session) fail(err error) error {
	s.err = fmt.Errorf("session %s: round %d: %w", s.id, s.round+1, err)
	s.log.WithError(err).Error("session aborted")
	return s.err
}

func (s *Session) report(v Verdict) {
	entry := s.log.WithFields(logrus.Fields{
		"round":    v.Round,
		"consumed": v.Consumed,
		"state":    v.State.String(),
	})
	if v.Test >= 0 {
		entry = entry.WithFields(logrus.Fields{
			"test":    v.TestName(),
			"max_t":   v.MaxT,
			"max_tau": v.MaxTau,
		})
	}
	if v.State.Terminal() {
		entry.Info(v.String())
		return
	}
	entry.Debug(v.String())
}

// Run calls Round until a terminal verdict, an error or cancellation.
func (s *Session) Run(ctx context.Context) (Verdict, error) {
	for {
		v, err := s.Round(ctx)
		if err != nil {
			return v, err
		}
		if v.State.Terminal() {
			return v, nil
		}
	}
}

// RunFile replays a record file through a new session until a terminal
// verdict. WithExpectedRecords is required.
func RunFile(ctx context.Context, path string, opts ...Option) (Verdict, error) {
	src, err := OpenRecordFile(path, opts...)
	if err != nil {
		return Verdict{}, err
	}
	defer src.Close()

	sess, err := NewSession(src, opts...)
	if err != nil {
		return Verdict{}, err
	}
	return sess.Run(ctx)
}
