package ta

import "math"

// SMA computes the simple moving average of src over a trailing window.
// Indices below length-1 are NaN; a NaN inside the window makes that
// output NaN.
func SMA(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	for i := length - 1; i < len(src); i++ {
		sum := 0.0
		for j := i - length + 1; j <= i; j++ {
			sum += src[j]
		}
		out[i] = sum / float64(length)
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(length+1).
// The recursion seeds at the first non-NaN source value, which is emitted
// unchanged; every later value is alpha*src + (1-alpha)*prev.
func EMA(src []float64, length int) []float64 {
	if length < 1 {
		return nans(len(src))
	}
	return ewma(src, 2.0/(float64(length)+1.0))
}

// RMA computes Wilder's smoothing, an EMA with alpha = 1/length. It is
// the smoother behind RSI, ATR and DMI.
func RMA(src []float64, length int) []float64 {
	if length < 1 {
		return nans(len(src))
	}
	return ewma(src, 1.0/float64(length))
}

// ewma runs the shared recursive smoothing: leading NaNs are skipped and
// the first real value seeds the average. NaN appearing after the seed
// flows through the recursion and poisons the remainder, matching the
// propagation rules of plain arithmetic.
func ewma(src []float64, alpha float64) []float64 {
	out := nans(len(src))
	started := false
	prev := 0.0
	for i, v := range src {
		if !started {
			if math.IsNaN(v) {
				continue
			}
			prev = v
			out[i] = v
			started = true
			continue
		}
		prev += alpha * (v - prev)
		out[i] = prev
	}
	return out
}

// WMA computes the linearly weighted moving average: the newest value in
// the window gets weight length, the oldest weight 1.
func WMA(src []float64, length int) []float64 {
	out := nans(len(src))
	if length < 1 {
		return out
	}
	denom := float64(length) * float64(length+1) / 2
	for i := length - 1; i < len(src); i++ {
		sum := 0.0
		for j := 0; j < length; j++ {
			sum += src[i-length+1+j] * float64(j+1)
		}
		out[i] = sum / denom
	}
	return out
}
