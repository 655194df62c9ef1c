package dudect

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// Generator fills the input buffer for the next measurement. Baseline
// inputs are usually fixed and modified inputs random.
type Generator interface {
	Generate(isBaseline bool, output []byte)
}

// Operation is the code under test. Only Execute is timed.
type Operation interface {
	Execute(input []byte)
}

// liveWarmupRuns untimed executions settle caches and clock frequency
// before the first measurement.
const liveWarmupRuns = 100

// LiveSource measures an operation on the fly. Each measurement picks a
// class at random, fills the input with the generator outside the timed
// region and records the cycle delta around a single Execute call.
//
// It is the live counterpart of RecordSource and is not safe for
// concurrent use.
type LiveSource struct {
	gen      Generator
	op       Operation
	input    []byte
	rng      *rand.Rand
	timer    func() uint64
	limit    int
	produced int
}

// NewLiveSource returns a source timing op on inputs of inputSize bytes.
// The operation is warmed up before the first measurement.
func NewLiveSource(gen Generator, op Operation, inputSize int, opts ...Option) (*LiveSource, error) {
	cfg := newConfig(opts)
	if inputSize <= 0 {
		return nil, fmt.Errorf("%w: input size must be positive, got %d", ErrInvalidConfig, inputSize)
	}
	if gen == nil || op == nil {
		return nil, fmt.Errorf("%w: generator and operation are required", ErrInvalidConfig)
	}
	if cfg.maxSamples < 0 {
		return nil, fmt.Errorf("%w: max samples must not be negative", ErrInvalidConfig)
	}

	timer := cfg.timer
	if timer == nil {
		timer = readTimer
	}
	input := make([]byte, inputSize)
	for range liveWarmupRuns {
		op.Execute(input)
	}

	return &LiveSource{
		gen:   gen,
		op:    op,
		input: input,
		rng:   newRand(cfg.seed),
		timer: timer,
		limit: cfg.maxSamples,
	}, nil
}

// Name implements namedSource.
func (s *LiveSource) Name() string {
	return "live"
}

// NextChunk implements SampleSource. With WithMaxSamples the source is
// exhausted after that many measurements; otherwise it never runs dry.
func (s *LiveSource) NextChunk(ctx context.Context, max int) ([]Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	n := max
	if s.limit > 0 {
		n = min(n, s.limit-s.produced)
	}
	chunk := make([]Sample, n)
	for i := range chunk {
		chunk[i] = s.measure()
	}
	s.produced += n
	return chunk, s.limit > 0 && s.produced >= s.limit, nil
}

// Produced returns the number of measurements taken so far.
func (s *LiveSource) Produced() int {
	return s.produced
}

func (s *LiveSource) measure() Sample {
	class := Class(s.rng.UintN(2))
	s.gen.Generate(class == Baseline, s.input)

	start := s.timer()
	s.op.Execute(s.input)
	end := s.timer()

	// A wrapped counter yields a negative delta, which scoring drops.
	return Sample{Timing: int64(end - start), Class: class}
}

// newRand returns a PCG stream for seed, or a randomly seeded one for 0.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, ^seed))
}

// FuncGenerator adapts a pair of fill functions to Generator.
type FuncGenerator struct {
	Baseline func(output []byte)
	Modified func(output []byte)
}

func (g FuncGenerator) Generate(isBaseline bool, output []byte) {
	if isBaseline {
		g.Baseline(output)
		return
	}
	g.Modified(output)
}

// FuncOperation adapts a function to Operation.
type FuncOperation func(input []byte)

func (f FuncOperation) Execute(input []byte) { f(input) }

// ZeroGenerator is the usual fix-vs-random generator: baseline inputs are
// all zero and modified inputs uniformly random.
type ZeroGenerator struct {
	rng *rand.Rand
}

// NewZeroGenerator returns a ZeroGenerator drawing from a PCG stream
// seeded with seed.
func NewZeroGenerator(seed uint64) *ZeroGenerator {
	return &ZeroGenerator{rng: newRand(seed)}
}

func (g *ZeroGenerator) Generate(isBaseline bool, output []byte) {
	if isBaseline {
		clear(output)
		return
	}
	for i := 0; i < len(output); i += 8 {
		v := g.rng.Uint64()
		for j := i; j < min(i+8, len(output)); j++ {
			output[j] = byte(v)
			v >>= 8
		}
	}
}
