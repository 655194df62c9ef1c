//go:build !amd64 && !arm64

package dudect

import "time"

var monotonicEpoch = time.Now()

// readTimer counts monotonic nanoseconds. The actual granularity depends
// on the OS clock and is often coarser than 1ns.
func readTimer() uint64 {
	return uint64(time.Since(monotonicEpoch))
}

func timerName() string {
	return "monotonic"
}

func nativeFrequency() uint64 {
	return 1_000_000_000
}
