// Package bank holds the battery of Welch t-tests run over one measurement
// stream and decides whether any of them shows leakage.
//
// Test layout:
//   - index 0: first-order test on raw timings
//   - index 1..100: first-order tests on timings cropped below threshold k-1
//   - index 101: second-order test on centered squares
package bank

import (
	"errors"

	"github.com/ctbench/dudect/internal/percentile"
	"github.com/ctbench/dudect/internal/ttest"
)

const (
	// Tests is the number of t-tests in a bank.
	Tests = 1 + percentile.Count + 1

	// RawTest is the index of the uncropped test.
	RawTest = 0

	// SecondOrderTest is the index of the centered-square test.
	SecondOrderTest = 1 + percentile.Count

	// SecondOrderWarmup is how many class-0 raw values the first-order
	// test needs before the second-order test starts receiving data.
	SecondOrderWarmup = 10_000
)

// ErrAlreadyCalibrated is returned when thresholds are set a second time.
var ErrAlreadyCalibrated = errors.New("bank: cropping thresholds already calibrated")

// Bank owns the t-test contexts and the cropping thresholds.
// It is not safe for concurrent use.
type Bank struct {
	tests      [Tests]ttest.Context
	thresholds []int64
	discarded  uint64
}

// New returns an empty, uncalibrated bank.
func New() *Bank {
	return &Bank{}
}

// Calibrate derives the cropping thresholds from a warm-up batch.
// It succeeds once; later calls return ErrAlreadyCalibrated and leave the
// thresholds untouched.
func (b *Bank) Calibrate(raw []int64) error {
	if b.thresholds != nil {
		return ErrAlreadyCalibrated
	}
	thresholds, err := percentile.Calibrate(raw)
	if err != nil {
		return err
	}
	b.thresholds = thresholds
	return nil
}

// Calibrated reports whether thresholds have been set.
func (b *Bank) Calibrated() bool {
	return b.thresholds != nil
}

// Thresholds returns a copy of the cropping thresholds, or nil before
// calibration.
func (b *Bank) Thresholds() []int64 {
	if b.thresholds == nil {
		return nil
	}
	out := make([]int64, len(b.thresholds))
	copy(out, b.thresholds)
	return out
}

// Push routes one measurement of class c (0 or 1) to every test it
// qualifies for. Negative timings come from a wrapped cycle counter and
// are dropped. Push reports whether the measurement was kept.
//
// Pushing before calibration only feeds the raw and second-order tests.
func (b *Bank) Push(timing int64, c int) bool {
	if timing < 0 {
		b.discarded++
		return false
	}
	x := float64(timing)

	b.tests[RawTest].Push(x, c)

	for k, th := range b.thresholds {
		if timing < th {
			b.tests[k+1].Push(x, c)
		}
	}

	// The centering mean keeps moving as data arrives, so this statistic
	// is only approximately stationary.
	raw := &b.tests[RawTest]
	if raw.N(0) > SecondOrderWarmup {
		centered := x - raw.Mean(c)
		b.tests[SecondOrderTest].Push(centered*centered, c)
	}
	return true
}

// Test returns the context at index i.
func (b *Bank) Test(i int) *ttest.Context {
	return &b.tests[i]
}

// Discarded returns how many negative timings were dropped.
func (b *Bank) Discarded() uint64 {
	return b.discarded
}
