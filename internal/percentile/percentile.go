// Package percentile derives the cropping thresholds used by the cropped
// t-tests from a warm-up batch of raw timings.
package percentile

import (
	"errors"
	"math"
	"slices"
)

// Count is the number of cropping thresholds.
const Count = 100

// ErrEmptyCalibration is returned when there is nothing to calibrate from.
var ErrEmptyCalibration = errors.New("percentile: no measurements to calibrate from")

// Index returns the sorted position of threshold i for a batch of size w.
//
// Positions follow 1 - 0.5^(10*(i+1)/Count), so thresholds crowd towards
// the fast end of the distribution and thin out towards the slow tail.
// The result is always < w.
func Index(i, w int) int {
	which := 1 - math.Pow(0.5, 10*float64(i+1)/Count)
	pos := int(float64(w) * which)
	if pos >= w {
		pos = w - 1
	}
	return pos
}

// Calibrate returns Count thresholds taken from a sorted copy of raw.
// The input is not modified. Thresholds are non-decreasing.
func Calibrate(raw []int64) ([]int64, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyCalibration
	}
	sorted := slices.Clone(raw)
	slices.Sort(sorted)

	thresholds := make([]int64, Count)
	for i := range thresholds {
		thresholds[i] = sorted[Index(i, len(sorted))]
	}
	return thresholds, nil
}
