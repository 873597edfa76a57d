package ta

import "math"

// Supertrend computes the supertrend line and its direction. Bands sit
// factor ATRs away from the hl2 midpoint and are sticky: while a trend
// holds, the active band only tightens toward price, never retreats,
// unless the previous close already broke through it. The direction
// starts at 1 (up) and flips when the close crosses the active band;
// the line tracks the lower band in an uptrend and the upper band in a
// downtrend.
func Supertrend(high, low, close []float64, factor float64, atrLength int) (line, dir []float64, err error) {
	atr, err := ATR(high, low, close, atrLength)
	if err != nil {
		return nil, nil, err
	}
	n := len(close)
	line, dir = nans(n), nans(n)
	upper, lower := math.NaN(), math.NaN()
	trend := 1.0
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) {
			continue
		}
		mid := (high[i] + low[i]) / 2
		bu := mid + factor*atr[i]
		bl := mid - factor*atr[i]
		if math.IsNaN(upper) {
			upper, lower = bu, bl
		} else {
			if bu < upper || close[i-1] > upper {
				upper = bu
			}
			if bl > lower || close[i-1] < lower {
				lower = bl
			}
		}
		if trend == 1 {
			if close[i] < lower {
				trend = -1
			}
		} else {
			if close[i] > upper {
				trend = 1
			}
		}
		if trend == 1 {
			line[i] = lower
		} else {
			line[i] = upper
		}
		dir[i] = trend
	}
	return line, dir, nil
}
