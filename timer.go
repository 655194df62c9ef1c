package dudect

import (
	"slices"
	"sync"
	"time"
)

// Each architecture provides readTimer, timerName and nativeFrequency.
// A zero nativeFrequency means the counter rate is not architectural and
// is measured against the monotonic clock on first use.

var (
	frequencyOnce sync.Once
	frequency     uint64
)

// TimerName returns the name of the platform timer being used.
func TimerName() string {
	return timerName()
}

// TimerFrequency returns the timer frequency in Hz.
func TimerFrequency() uint64 {
	frequencyOnce.Do(func() {
		frequency = nativeFrequency()
		if frequency == 0 {
			frequency = calibrateFrequency(readTimer, 5, 10*time.Millisecond)
		}
	})
	return frequency
}

// TimerResolutionNs returns the approximate timer resolution in nanoseconds.
func TimerResolutionNs() float64 {
	freq := TimerFrequency()
	if freq == 0 {
		return 1.0
	}
	return 1e9 / float64(freq)
}

// calibrateFrequency returns the median tick rate of read over rounds
// sleeps of the given length.
func calibrateFrequency(read func() uint64, rounds int, sleep time.Duration) uint64 {
	freqs := make([]uint64, rounds)
	for i := range freqs {
		t0 := time.Now()
		c0 := read()
		time.Sleep(sleep)
		c1 := read()
		freqs[i] = uint64(float64(c1-c0) / time.Since(t0).Seconds())
	}
	slices.Sort(freqs)
	return freqs[rounds/2]
}
