package ta

import "math"

// SAR computes the parabolic stop-and-reverse. The dot trails the trend
// and accelerates toward price: each bar it moves a fraction af of the
// distance to the extreme point, af starting at start, growing by inc on
// every new extreme, capped at max. It is clamped to the prior two bars'
// range and reverses when price touches it, restarting from the old
// extreme with af reset.
//
// Index 0 is NaN; the initial trend comes from the first two closes.
func SAR(high, low, close []float64, start, inc, max float64) ([]float64, error) {
	if err := sameLen(high, low, close); err != nil {
		return nil, err
	}
	n := len(high)
	out := nans(n)
	if n < 2 {
		return out, nil
	}
	isUp := close[1] >= close[0]
	var sar, ep float64
	if isUp {
		sar = low[0]
		ep = high[1]
	} else {
		sar = high[0]
		ep = low[1]
	}
	af := start
	out[1] = sar
	for i := 2; i < n; i++ {
		sar += af * (ep - sar)
		if isUp {
			sar = math.Min(sar, math.Min(low[i-1], low[i-2]))
			if low[i] < sar {
				isUp = false
				sar = ep
				ep = low[i]
				af = start
			} else if high[i] > ep {
				ep = high[i]
				af = math.Min(af+inc, max)
			}
		} else {
			sar = math.Max(sar, math.Max(high[i-1], high[i-2]))
			if high[i] > sar {
				isUp = true
				sar = ep
				ep = high[i]
				af = start
			} else if low[i] < ep {
				ep = low[i]
				af = math.Min(af+inc, max)
			}
		}
		out[i] = sar
	}
	return out, nil
}
