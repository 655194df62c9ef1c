package dudect

// rdtsc reads the Time Stamp Counter, fenced with LFENCE so earlier loads
// complete first. Implemented in timer_amd64.s.
func rdtsc() uint64

func readTimer() uint64 {
	return rdtsc()
}

func timerName() string {
	return "rdtsc"
}

// The invariant TSC rate is not exposed architecturally.
func nativeFrequency() uint64 {
	return 0
}
