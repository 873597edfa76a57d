package ta

import "math"

// RSI computes the Relative Strength Index over Wilder-smoothed gains and
// losses of bar-to-bar changes. Index 0 is always NaN because no change
// exists there. When the smoothed loss is zero the output saturates at
// 100; when the smoothed gain is zero it saturates at 0.
func RSI(src []float64, length int) []float64 {
	n := len(src)
	out := nans(n)
	if n < 2 || length < 1 {
		return out
	}
	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		d := src[i] - src[i-1]
		switch {
		case math.IsNaN(d):
			gains[i-1] = math.NaN()
			losses[i-1] = math.NaN()
		case d > 0:
			gains[i-1] = d
		case d < 0:
			losses[i-1] = -d
		}
	}
	avgGain := RMA(gains, length)
	avgLoss := RMA(losses, length)
	for i := 1; i < n; i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case l == 0:
			out[i] = 100
		case g == 0:
			out[i] = 0
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// MACD computes the Moving Average Convergence Divergence line
// (fast EMA minus slow EMA), its signal EMA, and the histogram
// (line minus signal).
func MACD(src []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(src, fast)
	slowEMA := EMA(src, slow)
	line = make([]float64, len(src))
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EMA(line, signal)
	hist = make([]float64, len(src))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// TR computes the true range: the high-low span stretched to cover any
// gap from the previous close. The first bar has no previous close and
// uses its own high-low span.
func TR(high, low, close []float64) ([]float64, error) {
	if err := sameLen(high, low, close); err != nil {
		return nil, err
	}
	n := len(high)
	out := nans(n)
	if n == 0 {
		return out, nil
	}
	out[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out, nil
}

// ATR computes the average true range: Wilder-smoothed TR.
func ATR(high, low, close []float64, length int) ([]float64, error) {
	tr, err := TR(high, low, close)
	if err != nil {
		return nil, err
	}
	return RMA(tr, length), nil
}

// DMI computes the Directional Movement Index: +DI and -DI smoothed over
// diLength, and the ADX, a further adxLength smoothing of the directional
// index. All three are NaN at index 0; bars where the smoothed true range
// is zero yield NaN.
func DMI(high, low, close []float64, diLength, adxLength int) (plusDI, minusDI, adx []float64, err error) {
	if err := sameLen(high, low, close); err != nil {
		return nil, nil, nil, err
	}
	n := len(high)
	plusDI, minusDI, adx = nans(n), nans(n), nans(n)
	if n < 2 || diLength < 1 || adxLength < 1 {
		return plusDI, minusDI, adx, nil
	}
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	tr := make([]float64, n-1)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}
	smPlus := RMA(plusDM, diLength)
	smMinus := RMA(minusDM, diLength)
	smTR := RMA(tr, diLength)
	dx := nans(n - 1)
	for i := 0; i < n-1; i++ {
		if math.IsNaN(smTR[i]) || smTR[i] == 0 {
			continue
		}
		p := 100 * smPlus[i] / smTR[i]
		m := 100 * smMinus[i] / smTR[i]
		plusDI[i+1] = p
		minusDI[i+1] = m
		if p+m > 0 {
			dx[i] = 100 * math.Abs(p-m) / (p + m)
		}
	}
	smDX := RMA(dx, adxLength)
	for i := 0; i < n-1; i++ {
		adx[i+1] = smDX[i]
	}
	return plusDI, minusDI, adx, nil
}
