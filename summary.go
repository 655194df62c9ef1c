package dudect

import (
	"github.com/aclements/go-moremath/stats"
)

// ClassSummary describes the timings of one class.
type ClassSummary struct {
	Class     Class
	Count     int
	Discarded int
	Mean      float64
	StdDev    float64
	Min       float64
	Median    float64
	P99       float64
	Max       float64
}

// Summarize computes per-class descriptive statistics. Negative timings
// are counted as discarded and left out, as they are during scoring.
func Summarize(samples []Sample) [2]ClassSummary {
	var xs [2][]float64
	var out [2]ClassSummary
	for c := range out {
		out[c].Class = Class(c)
	}
	for _, s := range samples {
		if s.Timing < 0 {
			out[s.Class].Discarded++
			continue
		}
		xs[s.Class] = append(xs[s.Class], float64(s.Timing))
	}

	for c := range out {
		if len(xs[c]) == 0 {
			continue
		}
		sample := (&stats.Sample{Xs: xs[c]}).Sort()
		out[c].Count = len(xs[c])
		out[c].Mean = sample.Mean()
		out[c].StdDev = sample.StdDev()
		out[c].Min, out[c].Max = sample.Bounds()
		out[c].Median = sample.Quantile(0.5)
		out[c].P99 = sample.Quantile(0.99)
	}
	return out
}
