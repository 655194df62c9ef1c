package dudect

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// RecordSource replays measurements from "<label>;<int64>" records.
//
// The records are read in full on first use, split by class and
// interleaved one-for-one (baseline first) until the shorter class runs
// out, after which the rest of the longer class follows. The interleaving
// keeps the warm-up chunk from being made of a single class.
//
// A RecordSource is read once and is not safe for concurrent use.
type RecordSource struct {
	name     string
	r        io.Reader
	closer   io.Closer
	expected int
	tag      byte
	capacity int

	loaded  bool
	err     error
	samples []Sample
	pos     int
}

// NewRecordSource returns a source reading exactly WithExpectedRecords
// records from r.
func NewRecordSource(r io.Reader, opts ...Option) (*RecordSource, error) {
	cfg := newConfig(opts)
	if cfg.expectedRecords <= 0 {
		return nil, fmt.Errorf("%w: expected record count must be positive, got %d", ErrInvalidConfig, cfg.expectedRecords)
	}
	if cfg.classCapacity < 0 {
		return nil, fmt.Errorf("%w: class capacity must not be negative", ErrInvalidConfig)
	}
	return &RecordSource{
		name:     "reader",
		r:        r,
		expected: cfg.expectedRecords,
		tag:      cfg.baselineTag,
		capacity: cfg.classCapacity,
	}, nil
}

// OpenRecordFile opens path as a RecordSource. The file is closed once
// its records have been loaded, or by Close.
func OpenRecordFile(path string, opts ...Option) (*RecordSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	src, err := NewRecordSource(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.name = path
	src.closer = f
	return src, nil
}

// Name returns the file path, or "reader" for sources built from an io.Reader.
func (s *RecordSource) Name() string {
	return s.name
}

// Load reads and interleaves the records. It runs at most once; NextChunk
// calls it on first use.
func (s *RecordSource) Load() error {
	if s.loaded {
		return s.err
	}
	s.loaded = true
	s.samples, s.err = s.read()
	if cerr := s.Close(); s.err == nil && cerr != nil {
		s.err = cerr
	}
	if s.err != nil {
		s.samples = nil
		s.err = fmt.Errorf("%s: %w", s.name, s.err)
	}
	return s.err
}

func (s *RecordSource) read() ([]Sample, error) {
	var byClass [2][]Sample
	sc := bufio.NewScanner(s.r)
	for line := 1; line <= s.expected; line++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			return nil, fmt.Errorf("%w: read %d of %d records", ErrTruncatedSource, line-1, s.expected)
		}
		smp, err := ParseRecord(sc.Text(), s.tag)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if s.capacity > 0 && len(byClass[smp.Class]) >= s.capacity {
			return nil, fmt.Errorf("%w: line %d: more than %d %s records", ErrCapacityExceeded, line, s.capacity, smp.Class)
		}
		byClass[smp.Class] = append(byClass[smp.Class], smp)
	}
	return interleave(byClass[Baseline], byClass[Modified]), nil
}

// interleave alternates a and b, then appends whatever is left of the longer.
func interleave(a, b []Sample) []Sample {
	out := make([]Sample, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		out = append(out, a[i], b[j])
		i++
		j++
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// NextChunk implements SampleSource.
func (s *RecordSource) NextChunk(ctx context.Context, max int) ([]Sample, bool, error) {
	if err := s.Load(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	end := min(s.pos+max, len(s.samples))
	chunk := s.samples[s.pos:end]
	s.pos = end
	return chunk, s.pos >= len(s.samples), nil
}

// Len returns the number of records loaded.
func (s *RecordSource) Len() int {
	return len(s.samples)
}

// Consumed returns how many samples have been handed out.
func (s *RecordSource) Consumed() int {
	return s.pos
}

// Samples returns a copy of all loaded samples in replay order.
func (s *RecordSource) Samples() ([]Sample, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out, nil
}

// Close releases the underlying file, if any.
func (s *RecordSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
