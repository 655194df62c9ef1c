package dudect

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultBaselineTag is the leading label character of baseline records.
const DefaultBaselineTag = 'X'

// recordSeparator splits a record into label and timing.
const recordSeparator = ";"

// ParseRecord parses one "<label>;<signed int64>" line. The class is
// Baseline when the label starts with baselineTag and Modified otherwise.
// A trailing CR or LF is ignored.
func ParseRecord(line string, baselineTag byte) (Sample, error) {
	line = strings.TrimRight(line, "\r\n")
	label, value, ok := strings.Cut(line, recordSeparator)
	if !ok {
		return Sample{}, fmt.Errorf("%w: missing %q separator", ErrMalformedRecord, recordSeparator)
	}
	if label == "" {
		return Sample{}, fmt.Errorf("%w: empty label", ErrMalformedRecord)
	}
	timing, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	class := Modified
	if label[0] == baselineTag {
		class = Baseline
	}
	return Sample{Timing: timing, Class: class}, nil
}

// RecordWriter writes samples in the record format read by RecordSource.
type RecordWriter struct {
	w        *bufio.Writer
	baseline string
	modified string
	written  int
}

// NewRecordWriter returns a writer labelling baseline records with
// baselineLabel and modified records with modifiedLabel. The labels must
// be non-empty, and only baselineLabel may start with the baseline tag.
func NewRecordWriter(w io.Writer, baselineLabel, modifiedLabel string) *RecordWriter {
	return &RecordWriter{
		w:        bufio.NewWriter(w),
		baseline: baselineLabel,
		modified: modifiedLabel,
	}
}

// Write appends one record.
func (rw *RecordWriter) Write(s Sample) error {
	label := rw.modified
	if s.Class == Baseline {
		label = rw.baseline
	}
	if _, err := fmt.Fprintf(rw.w, "%s%s%d\n", label, recordSeparator, s.Timing); err != nil {
		return err
	}
	rw.written++
	return nil
}

// WriteAll appends every sample in order.
func (rw *RecordWriter) WriteAll(samples []Sample) error {
	for _, s := range samples {
		if err := rw.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Written returns the number of records written so far.
func (rw *RecordWriter) Written() int {
	return rw.written
}

// Flush writes any buffered records to the underlying writer.
func (rw *RecordWriter) Flush() error {
	return rw.w.Flush()
}
