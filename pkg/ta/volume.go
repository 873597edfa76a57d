package ta

import "math"

// VWAP computes the volume-weighted average price, cumulative from the
// start or from the last truthy anchor value when an anchor array is
// given (a nil anchor means one unbroken accumulation). Bars with NaN
// price or volume contribute nothing; while the accumulated volume is
// zero the output is NaN.
func VWAP(src, volume, anchor []float64) ([]float64, error) {
	if len(volume) == 0 {
		return nil, ErrVolumeRequired
	}
	if err := sameLen(src, volume); err != nil {
		return nil, err
	}
	if anchor != nil {
		if err := sameLen(src, anchor); err != nil {
			return nil, err
		}
	}
	out := nans(len(src))
	var sumPV, sumV float64
	for i := range src {
		if anchor != nil && truthy(anchor[i]) {
			sumPV, sumV = 0, 0
		}
		if !math.IsNaN(src[i]) && !math.IsNaN(volume[i]) {
			sumPV += src[i] * volume[i]
			sumV += volume[i]
		}
		if sumV > 0 {
			out[i] = sumPV / sumV
		}
	}
	return out, nil
}

// MFI computes the Money Flow Index: an RSI-like oscillator over raw
// money flow, the typical price times volume, split by the direction of
// the typical price change and summed over a trailing window. Index 0
// has no price change and the first window completes at index length,
// so outputs start there. A zero negative flow saturates at 100, a zero
// positive flow at 0.
func MFI(high, low, close, volume []float64, length int) ([]float64, error) {
	if len(volume) == 0 {
		return nil, ErrVolumeRequired
	}
	if err := sameLen(high, low, close, volume); err != nil {
		return nil, err
	}
	n := len(close)
	out := nans(n)
	if n < 2 || length < 1 {
		return out, nil
	}
	posFlow := nans(n)
	negFlow := nans(n)
	prevTP := (high[0] + low[0] + close[0]) / 3
	for i := 1; i < n; i++ {
		tp := (high[i] + low[i] + close[i]) / 3
		flow := tp * volume[i]
		switch {
		case math.IsNaN(flow) || math.IsNaN(prevTP):
			posFlow[i], negFlow[i] = math.NaN(), math.NaN()
		case tp > prevTP:
			posFlow[i], negFlow[i] = flow, 0
		case tp < prevTP:
			posFlow[i], negFlow[i] = 0, flow
		default:
			posFlow[i], negFlow[i] = 0, 0
		}
		prevTP = tp
	}
	for i := length; i < n; i++ {
		var pos, neg float64
		bad := false
		for j := i - length + 1; j <= i; j++ {
			if math.IsNaN(posFlow[j]) {
				bad = true
				break
			}
			pos += posFlow[j]
			neg += negFlow[j]
		}
		switch {
		case bad:
		case neg == 0:
			out[i] = 100
		case pos == 0:
			out[i] = 0
		default:
			out[i] = 100 - 100/(1+pos/neg)
		}
	}
	return out, nil
}
