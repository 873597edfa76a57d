package ta

// IchimokuResult holds the five Ichimoku Kinko Hyo lines, each aligned
// with the input bars.
type IchimokuResult struct {
	Tenkan  []float64 // conversion line: midpoint of the conversion window
	Kijun   []float64 // base line: midpoint of the base window
	SenkouA []float64 // leading span A: (tenkan+kijun)/2 shifted forward
	SenkouB []float64 // leading span B: spanB-window midpoint shifted forward
	Chikou  []float64 // lagging span: close shifted backward
}

// Ichimoku computes the Ichimoku lines. Senkou spans are plotted
// displacement bars ahead of the bar that produced them, so their first
// displacement entries are NaN on top of the window warmup; the chikou
// span is the close pulled displacement bars back, so its last
// displacement entries are NaN.
func Ichimoku(high, low, close []float64, conversion, base, spanB, displacement int) (IchimokuResult, error) {
	if err := sameLen(high, low, close); err != nil {
		return IchimokuResult{}, err
	}
	n := len(high)
	mid := func(length int) []float64 {
		hh := Highest(high, length)
		ll := Lowest(low, length)
		out := make([]float64, n)
		for i := range out {
			out[i] = (hh[i] + ll[i]) / 2
		}
		return out
	}
	res := IchimokuResult{
		Tenkan:  mid(conversion),
		Kijun:   mid(base),
		SenkouA: nans(n),
		SenkouB: nans(n),
		Chikou:  nans(n),
	}
	spanBMid := mid(spanB)
	for i := 0; i < n; i++ {
		j := i - displacement
		if j >= 0 && j < n {
			res.SenkouA[i] = (res.Tenkan[j] + res.Kijun[j]) / 2
			res.SenkouB[i] = spanBMid[j]
		}
		k := i + displacement
		if k >= 0 && k < n {
			res.Chikou[i] = close[k]
		}
	}
	return res, nil
}
