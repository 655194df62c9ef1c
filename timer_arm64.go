package dudect

// cntvct reads the virtual counter CNTVCT_EL0 after an ISB.
// Implemented in timer_arm64.s.
func cntvct() uint64

// cntfrq reads the counter frequency register CNTFRQ_EL0.
func cntfrq() uint64

func readTimer() uint64 {
	return cntvct()
}

func timerName() string {
	return "cntvct_el0"
}

// nativeFrequency is 24 MHz on Apple Silicon (about 42ns per tick) and
// usually 1 GHz elsewhere.
func nativeFrequency() uint64 {
	return cntfrq()
}
