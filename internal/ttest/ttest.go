// Package ttest implements an online Welch's t-test over two classes.
//
// Means and variances are accumulated with Welford's method, which stays
// numerically stable over many millions of pushes (Knuth, TAOCP vol. 2).
package ttest

import "math"

// Context accumulates one stream of measurements split into two classes.
//
// Counts are kept as float64 so that very long sessions never overflow.
// The zero value is an empty, ready to use context.
type Context struct {
	n    [2]float64
	mean [2]float64
	m2   [2]float64
}

// Push adds x to class c (0 or 1).
func (t *Context) Push(x float64, c int) {
	t.n[c]++
	delta := x - t.mean[c]
	t.mean[c] += delta / t.n[c]
	t.m2[c] += delta * (x - t.mean[c])
}

// N returns the number of values pushed to class c.
func (t *Context) N(c int) float64 {
	return t.n[c]
}

// Mean returns the running mean of class c.
func (t *Context) Mean(c int) float64 {
	return t.mean[c]
}

// Variance returns the unbiased sample variance of class c,
// or NaN when fewer than two values have been pushed.
func (t *Context) Variance(c int) float64 {
	if t.n[c] < 2 {
		return math.NaN()
	}
	return t.m2[c] / (t.n[c] - 1)
}

// Count returns the total number of values pushed to both classes.
func (t *Context) Count() float64 {
	return t.n[0] + t.n[1]
}

// T returns Welch's t statistic for mean(class 0) - mean(class 1).
//
// It returns NaN when either class holds fewer than two values. Callers
// must treat NaN as "not enough data". Two constant but different classes
// give ±Inf, two identical constant classes give NaN.
func (t *Context) T() float64 {
	if t.n[0] < 2 || t.n[1] < 2 {
		return math.NaN()
	}
	num := t.mean[0] - t.mean[1]
	den := math.Sqrt(t.Variance(0)/t.n[0] + t.Variance(1)/t.n[1])
	return num / den
}
