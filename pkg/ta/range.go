package ta

import (
	"math"
	"sort"
)

// Highest computes the maximum of src over a trailing window. A NaN
// inside the window makes the output NaN.
func Highest(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	for i := length - 1; i < len(src); i++ {
		m := src[i-length+1]
		for j := i - length + 2; j <= i; j++ {
			if math.IsNaN(m) {
				break
			}
			if math.IsNaN(src[j]) || src[j] > m {
				m = src[j]
			}
		}
		out[i] = m
	}
	return out
}

// Lowest computes the minimum of src over a trailing window. A NaN
// inside the window makes the output NaN.
func Lowest(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	for i := length - 1; i < len(src); i++ {
		m := src[i-length+1]
		for j := i - length + 2; j <= i; j++ {
			if math.IsNaN(m) {
				break
			}
			if math.IsNaN(src[j]) || src[j] < m {
				m = src[j]
			}
		}
		out[i] = m
	}
	return out
}

// Median computes the window median, ignoring NaN values inside the
// window. A window with no real values yields NaN; an even count of real
// values yields the mean of the two middle ones.
func Median(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	buf := make([]float64, 0, length)
	for i := length - 1; i < len(src); i++ {
		buf = buf[:0]
		for j := i - length + 1; j <= i; j++ {
			if !math.IsNaN(src[j]) {
				buf = append(buf, src[j])
			}
		}
		if len(buf) == 0 {
			continue
		}
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 1 {
			out[i] = buf[mid]
		} else {
			out[i] = (buf[mid-1] + buf[mid]) / 2
		}
	}
	return out
}

// Mode computes the most frequent value in the window, ignoring NaN.
// Ties resolve to the smallest tied value; an empty window yields NaN.
func Mode(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	buf := make([]float64, 0, length)
	for i := length - 1; i < len(src); i++ {
		buf = buf[:0]
		for j := i - length + 1; j <= i; j++ {
			if !math.IsNaN(src[j]) {
				buf = append(buf, src[j])
			}
		}
		if len(buf) == 0 {
			continue
		}
		sort.Float64s(buf)
		best, bestCount := buf[0], 1
		cur, count := buf[0], 1
		for _, v := range buf[1:] {
			if v == cur {
				count++
			} else {
				cur, count = v, 1
			}
			if count > bestCount {
				best, bestCount = cur, count
			}
		}
		out[i] = best
	}
	return out
}

// PercentileLinear computes the pth percentile of the window using linear
// interpolation between the two closest ranks. Percentiles outside [0,100]
// are clamped. A NaN inside the window makes the output NaN.
func PercentileLinear(src []float64, length int, p float64) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	p = math.Min(math.Max(p, 0), 100)
	buf := make([]float64, length)
	for i := length - 1; i < len(src); i++ {
		if windowHasNaN(src, i-length+1, i) {
			continue
		}
		copy(buf, src[i-length+1:i+1])
		sort.Float64s(buf)
		rank := p / 100 * float64(length-1)
		lo := int(math.Floor(rank))
		hi := int(math.Ceil(rank))
		out[i] = buf[lo] + (buf[hi]-buf[lo])*(rank-float64(lo))
	}
	return out
}

// PercentileNearestRank computes the pth percentile of the window using
// the nearest-rank method: the smallest window value with at least p
// percent of values at or below it. NaN values inside the window are
// ignored; an empty window yields NaN.
func PercentileNearestRank(src []float64, length int, p float64) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	p = math.Min(math.Max(p, 0), 100)
	buf := make([]float64, 0, length)
	for i := length - 1; i < len(src); i++ {
		buf = buf[:0]
		for j := i - length + 1; j <= i; j++ {
			if !math.IsNaN(src[j]) {
				buf = append(buf, src[j])
			}
		}
		if len(buf) == 0 {
			continue
		}
		sort.Float64s(buf)
		rank := int(math.Ceil(p / 100 * float64(len(buf))))
		if rank < 1 {
			rank = 1
		}
		out[i] = buf[rank-1]
	}
	return out
}
