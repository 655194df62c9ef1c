package bank

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctbench/dudect/internal/percentile"
)

func newRandForTest(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xDEADBEEF))
}

func calibratedBank(t *testing.T, rng *rand.Rand) *Bank {
	t.Helper()
	warmup := make([]int64, 10_000)
	for i := range warmup {
		warmup[i] = 1000 + int64(rng.ExpFloat64()*100)
	}
	b := New()
	require.NoError(t, b.Calibrate(warmup))
	return b
}

func TestCalibrateOnce(t *testing.T) {
	b := New()
	assert.False(t, b.Calibrated())
	assert.Nil(t, b.Thresholds())

	require.NoError(t, b.Calibrate([]int64{5, 1, 3, 2, 4}))
	first := b.Thresholds()
	require.Len(t, first, percentile.Count)

	err := b.Calibrate([]int64{1000, 2000, 3000})
	assert.ErrorIs(t, err, ErrAlreadyCalibrated)
	assert.Equal(t, first, b.Thresholds())
}

func TestCalibrateEmptyLeavesBankUncalibrated(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Calibrate(nil), percentile.ErrEmptyCalibration)
	assert.False(t, b.Calibrated())
}

// TestCropMembership checks that a value lands in exactly {k : t < threshold[k]}.
func TestCropMembership(t *testing.T) {
	rng := newRandForTest(3)
	b := calibratedBank(t, rng)
	thresholds := b.Thresholds()

	for i := 0; i < 2_000; i++ {
		timing := 900 + int64(rng.IntN(800))
		var before [Tests]float64
		for k := range before {
			before[k] = b.Test(k).Count()
		}

		require.True(t, b.Push(timing, i%2))

		assert.Equal(t, before[RawTest]+1, b.Test(RawTest).Count())
		for k, th := range thresholds {
			want := before[k+1]
			if timing < th {
				want++
			}
			require.Equal(t, want, b.Test(k+1).Count(), "timing=%d threshold[%d]=%d", timing, k, th)
		}
	}
}

func TestNegativeTimingDiscarded(t *testing.T) {
	b := calibratedBank(t, newRandForTest(4))
	assert.False(t, b.Push(-17, 0))
	assert.False(t, b.Push(math.MinInt64, 1))
	for k := 0; k < Tests; k++ {
		assert.Zero(t, b.Test(k).Count())
	}
	assert.Equal(t, uint64(2), b.Discarded())
}

func TestSecondOrderActivation(t *testing.T) {
	b := New()
	for i := 0; i < 2*SecondOrderWarmup; i++ {
		b.Push(100, i%2)
	}
	// Class 0 reached SecondOrderWarmup exactly; nothing yet.
	assert.Equal(t, float64(SecondOrderWarmup), b.Test(RawTest).N(0))
	assert.Zero(t, b.Test(SecondOrderTest).Count())

	b.Push(100, 1)
	assert.Zero(t, b.Test(SecondOrderTest).Count())

	b.Push(110, 0)
	require.Equal(t, 1.0, b.Test(SecondOrderTest).Count())
	centered := 110 - b.Test(RawTest).Mean(0)
	assert.InDelta(t, centered*centered, b.Test(SecondOrderTest).Mean(0), 1e-9)
}

func TestDecideNotReady(t *testing.T) {
	b := calibratedBank(t, newRandForTest(5))
	for i := 0; i < DefaultEnough; i++ {
		b.Push(1000+int64(i%7), i%2)
	}
	// Exactly Enough measurements is not more than Enough.
	d := b.Decide(DefaultPolicy())
	assert.False(t, d.Ready)
	assert.Equal(t, LevelNone, d.Level)
	assert.Equal(t, float64(DefaultEnough), b.MaxCount())
}

func TestDecideIdenticalConstants(t *testing.T) {
	b := New()
	require.NoError(t, b.Calibrate([]int64{100, 100, 100}))
	for i := 0; i < 3*DefaultEnough; i++ {
		b.Push(100, i%2)
	}
	d := b.Decide(DefaultPolicy())
	assert.False(t, d.Ready, "constant identical classes carry no evidence")
}

func TestDecideLevels(t *testing.T) {
	tests := []struct {
		name  string
		shift float64
		level Level
	}{
		{"none", 0, LevelNone},
		{"probable", 0.2, LevelProbable},
		{"overwhelming", 8, LevelOverwhelming},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng := newRandForTest(11)
			b := New()
			for i := 0; i < 40_000; i++ {
				c := i % 2
				v := 1000 + rng.NormFloat64()*1 + tc.shift*float64(c)
				b.Push(int64(math.Round(v*100)), c)
			}
			d := b.Decide(DefaultPolicy())
			require.True(t, d.Ready)
			t.Logf("test=%d max_t=%.2f tau=%.3g", d.Test, d.MaxT, d.Tau)
			assert.Equal(t, tc.level, d.Level)
			assert.InDelta(t, d.MaxT/math.Sqrt(d.Measurements), d.Tau, 1e-12)
		})
	}
}

func TestDecideTieGoesToLowestIndex(t *testing.T) {
	b := New()
	// Thresholds above every value: each cropped test mirrors the raw one.
	require.NoError(t, b.Calibrate([]int64{1_000_000}))
	for i := 0; i < 2*DefaultEnough+2; i++ {
		b.Push(100+int64(i%3)+int64(i%2)*5, i%2)
	}
	d := b.Decide(DefaultPolicy())
	require.True(t, d.Ready)
	assert.Equal(t, RawTest, d.Test)
	assert.Equal(t, b.Test(RawTest).Count(), b.Test(percentile.Count).Count())
}
