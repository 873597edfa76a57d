package ta

import (
	"math"
	"sort"
)

// Variance computes the population variance of src over a trailing
// window: sum((x-mean)^2)/length. A NaN inside the window makes the
// output NaN.
func Variance(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	for i := length - 1; i < len(src); i++ {
		mean := 0.0
		for j := i - length + 1; j <= i; j++ {
			mean += src[j]
		}
		mean /= float64(length)
		sum := 0.0
		for j := i - length + 1; j <= i; j++ {
			d := src[j] - mean
			sum += d * d
		}
		out[i] = sum / float64(length)
	}
	return out
}

// Stdev computes the population standard deviation over a trailing window.
func Stdev(src []float64, length int) []float64 {
	out := Variance(src, length)
	for i, v := range out {
		out[i] = math.Sqrt(v)
	}
	return out
}

// BB computes Bollinger Bands: an SMA basis with upper and lower bands
// offset by mult population standard deviations.
func BB(src []float64, length int, mult float64) (basis, upper, lower []float64) {
	basis = SMA(src, length)
	dev := Stdev(src, length)
	upper = make([]float64, len(src))
	lower = make([]float64, len(src))
	for i := range src {
		upper[i] = basis[i] + mult*dev[i]
		lower[i] = basis[i] - mult*dev[i]
	}
	return basis, upper, lower
}

// Correlation computes the windowed Pearson correlation of two arrays.
// Windows containing NaN, or in which either array is constant, yield NaN.
func Correlation(a, b []float64, length int) ([]float64, error) {
	if err := sameLen(a, b); err != nil {
		return nil, err
	}
	out := nans(len(a))
	if length < 1 {
		return out, nil
	}
	for i := length - 1; i < len(a); i++ {
		from := i - length + 1
		if windowHasNaN(a, from, i) || windowHasNaN(b, from, i) {
			continue
		}
		var meanA, meanB float64
		for j := from; j <= i; j++ {
			meanA += a[j]
			meanB += b[j]
		}
		meanA /= float64(length)
		meanB /= float64(length)
		var cov, varA, varB float64
		for j := from; j <= i; j++ {
			da := a[j] - meanA
			db := b[j] - meanB
			cov += da * db
			varA += da * da
			varB += db * db
		}
		if varA == 0 || varB == 0 {
			continue
		}
		out[i] = cov / math.Sqrt(varA*varB)
	}
	return out, nil
}

// RCI computes the Rank Correlation Index: the Spearman rank correlation
// between time order and value order inside the window, scaled to
// [-100, 100]. Ties in value receive their average rank. A NaN inside
// the window makes the output NaN.
func RCI(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 2 {
		return out
	}
	idx := make([]int, length)
	valueRank := make([]float64, length)
	for i := length - 1; i < len(src); i++ {
		from := i - length + 1
		if windowHasNaN(src, from, i) {
			continue
		}
		window := src[from : i+1]
		for j := range idx {
			idx[j] = j
		}
		sort.Slice(idx, func(x, y int) bool { return window[idx[x]] < window[idx[y]] })
		// Average ranks across runs of equal values.
		for j := 0; j < length; {
			k := j
			for k+1 < length && window[idx[k+1]] == window[idx[j]] {
				k++
			}
			avg := float64(j+k)/2 + 1
			for m := j; m <= k; m++ {
				valueRank[idx[m]] = avg
			}
			j = k + 1
		}
		// Pearson correlation of value ranks against time ranks 1..length.
		mean := float64(length+1) / 2
		var cov, varT, varV float64
		for j := 0; j < length; j++ {
			dt := float64(j+1) - mean
			dv := valueRank[j] - mean
			cov += dt * dv
			varT += dt * dt
			varV += dv * dv
		}
		if varV == 0 {
			continue
		}
		out[i] = cov / math.Sqrt(varT*varV) * 100
	}
	return out
}
