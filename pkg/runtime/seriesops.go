package runtime

import (
	"fmt"
	"math"
	"time"

	"github.com/mohamedkhairy/pineseries/pkg/series"
	"github.com/mohamedkhairy/pineseries/pkg/ta"
)

// The wrappers below mount pkg/ta onto the Series graph through
// series.Transform, so indicator outputs stay lazy and version-coherent
// with the bar data: appending or amending a bar is enough for the next
// read to recompute. Multi-output indicators expose one node per output;
// each node recomputes independently against its own cache.

// nansLike builds an all-NaN column matching the transform input length.
// Transform callbacks cannot return errors; the only ta errors reachable
// here are length mismatches, which cannot happen for columns drawn from
// one BarData, so this is a terminal safety net.
func nansLike(cols [][]float64) []float64 {
	n := 0
	if len(cols) > 0 {
		n = len(cols[0])
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// lift1 wraps a single-source array function.
func lift1(src *series.Series, fn func([]float64) []float64) *series.Series {
	return series.Transform(src.Data(), func(cols [][]float64) []float64 {
		return fn(cols[0])
	}, src)
}

// SMA returns the lazy simple moving average of src.
func (c *Context) SMA(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.SMA(v, length) })
}

// EMA returns the lazy exponential moving average of src.
func (c *Context) EMA(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.EMA(v, length) })
}

// RMA returns the lazy Wilder moving average of src.
func (c *Context) RMA(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.RMA(v, length) })
}

// WMA returns the lazy weighted moving average of src.
func (c *Context) WMA(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.WMA(v, length) })
}

// Variance returns the lazy windowed population variance of src.
func (c *Context) Variance(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Variance(v, length) })
}

// Stdev returns the lazy windowed population standard deviation of src.
func (c *Context) Stdev(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Stdev(v, length) })
}

// Highest returns the lazy windowed maximum of src.
func (c *Context) Highest(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Highest(v, length) })
}

// Lowest returns the lazy windowed minimum of src.
func (c *Context) Lowest(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Lowest(v, length) })
}

// Median returns the lazy windowed median of src.
func (c *Context) Median(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Median(v, length) })
}

// Mode returns the lazy windowed mode of src.
func (c *Context) Mode(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.Mode(v, length) })
}

// PercentileLinear returns the lazy interpolated windowed percentile.
func (c *Context) PercentileLinear(src *series.Series, length int, p float64) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.PercentileLinear(v, length, p) })
}

// PercentileNearestRank returns the lazy nearest-rank windowed percentile.
func (c *Context) PercentileNearestRank(src *series.Series, length int, p float64) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.PercentileNearestRank(v, length, p) })
}

// RCI returns the lazy rank correlation index of src.
func (c *Context) RCI(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.RCI(v, length) })
}

// RSI returns the lazy relative strength index of src.
func (c *Context) RSI(src *series.Series, length int) *series.Series {
	return lift1(src, func(v []float64) []float64 { return ta.RSI(v, length) })
}

// Correlation returns the lazy windowed Pearson correlation of two
// series, which must share one bar data.
func (c *Context) Correlation(a, b *series.Series, length int) (*series.Series, error) {
	if a.Data() != b.Data() {
		return nil, fmt.Errorf("correlation: %w", ErrMixedBarData)
	}
	return series.Transform(a.Data(), func(cols [][]float64) []float64 {
		out, err := ta.Correlation(cols[0], cols[1], length)
		if err != nil {
			return nansLike(cols)
		}
		return out
	}, a, b), nil
}

// Crossover returns a lazy 1/0 series marking a crossing above b.
func (c *Context) Crossover(a, b *series.Series) (*series.Series, error) {
	return c.crossSeries("crossover", a, b, ta.Crossover)
}

// Crossunder returns a lazy 1/0 series marking a crossing below b.
func (c *Context) Crossunder(a, b *series.Series) (*series.Series, error) {
	return c.crossSeries("crossunder", a, b, ta.Crossunder)
}

func (c *Context) crossSeries(name string, a, b *series.Series, fn func(a, b []float64) ([]float64, error)) (*series.Series, error) {
	if a.Data() != b.Data() {
		return nil, fmt.Errorf("%s: %w", name, ErrMixedBarData)
	}
	return series.Transform(a.Data(), func(cols [][]float64) []float64 {
		out, err := fn(cols[0], cols[1])
		if err != nil {
			return nansLike(cols)
		}
		return out
	}, a, b), nil
}

// BB returns the lazy Bollinger Band triple for src.
func (c *Context) BB(src *series.Series, length int, mult float64) (basis, upper, lower *series.Series) {
	pick := func(idx int) *series.Series {
		return lift1(src, func(v []float64) []float64 {
			b, u, l := ta.BB(v, length, mult)
			switch idx {
			case 0:
				return b
			case 1:
				return u
			default:
				return l
			}
		})
	}
	return pick(0), pick(1), pick(2)
}

// MACD returns the lazy MACD line, signal and histogram for src.
func (c *Context) MACD(src *series.Series, fast, slow, signal int) (line, sig, hist *series.Series) {
	pick := func(idx int) *series.Series {
		return lift1(src, func(v []float64) []float64 {
			l, s, h := ta.MACD(v, fast, slow, signal)
			switch idx {
			case 0:
				return l
			case 1:
				return s
			default:
				return h
			}
		})
	}
	return pick(0), pick(1), pick(2)
}

// ohlc lifts an indicator over the context's high/low/close columns.
func (c *Context) ohlc(fn func(h, l, cl []float64) []float64) *series.Series {
	return series.Transform(c.data, func(cols [][]float64) []float64 {
		return fn(cols[0], cols[1], cols[2])
	}, c.High(), c.Low(), c.Close())
}

// TR returns the lazy true range of the context's bars.
func (c *Context) TR() *series.Series {
	return c.ohlc(func(h, l, cl []float64) []float64 {
		out, err := ta.TR(h, l, cl)
		if err != nil {
			return nansLike([][]float64{h})
		}
		return out
	})
}

// ATR returns the lazy average true range of the context's bars.
func (c *Context) ATR(length int) *series.Series {
	return c.ohlc(func(h, l, cl []float64) []float64 {
		out, err := ta.ATR(h, l, cl, length)
		if err != nil {
			return nansLike([][]float64{h})
		}
		return out
	})
}

// DMI returns the lazy +DI, -DI and ADX of the context's bars.
func (c *Context) DMI(diLength, adxLength int) (plusDI, minusDI, adx *series.Series) {
	pick := func(idx int) *series.Series {
		return c.ohlc(func(h, l, cl []float64) []float64 {
			p, m, x, err := ta.DMI(h, l, cl, diLength, adxLength)
			if err != nil {
				return nansLike([][]float64{h})
			}
			switch idx {
			case 0:
				return p
			case 1:
				return m
			default:
				return x
			}
		})
	}
	return pick(0), pick(1), pick(2)
}

// Supertrend returns the lazy supertrend line and direction of the
// context's bars.
func (c *Context) Supertrend(factor float64, atrLength int) (line, dir *series.Series) {
	pick := func(idx int) *series.Series {
		return c.ohlc(func(h, l, cl []float64) []float64 {
			st, d, err := ta.Supertrend(h, l, cl, factor, atrLength)
			if err != nil {
				return nansLike([][]float64{h})
			}
			if idx == 0 {
				return st
			}
			return d
		})
	}
	return pick(0), pick(1)
}

// SAR returns the lazy parabolic stop-and-reverse of the context's bars.
func (c *Context) SAR(start, inc, max float64) *series.Series {
	return c.ohlc(func(h, l, cl []float64) []float64 {
		out, err := ta.SAR(h, l, cl, start, inc, max)
		if err != nil {
			return nansLike([][]float64{h})
		}
		return out
	})
}

// ZigZag returns the lazy zigzag pivot values and leg directions of the
// context's bars.
func (c *Context) ZigZag(deviation float64, backstep int) (values, direction *series.Series) {
	pick := func(idx int) *series.Series {
		return series.Transform(c.data, func(cols [][]float64) []float64 {
			v, d, err := ta.ZigZag(cols[0], cols[1], deviation, backstep)
			if err != nil {
				return nansLike(cols)
			}
			if idx == 0 {
				return v
			}
			return d
		}, c.High(), c.Low())
	}
	return pick(0), pick(1)
}

// IchimokuSeries bundles the five lazy Ichimoku lines.
type IchimokuSeries struct {
	Tenkan  *series.Series
	Kijun   *series.Series
	SenkouA *series.Series
	SenkouB *series.Series
	Chikou  *series.Series
}

// Ichimoku returns the lazy Ichimoku lines of the context's bars.
func (c *Context) Ichimoku(conversion, base, spanB, displacement int) IchimokuSeries {
	pick := func(idx int) *series.Series {
		return c.ohlc(func(h, l, cl []float64) []float64 {
			res, err := ta.Ichimoku(h, l, cl, conversion, base, spanB, displacement)
			if err != nil {
				return nansLike([][]float64{h})
			}
			switch idx {
			case 0:
				return res.Tenkan
			case 1:
				return res.Kijun
			case 2:
				return res.SenkouA
			case 3:
				return res.SenkouB
			default:
				return res.Chikou
			}
		})
	}
	return IchimokuSeries{
		Tenkan:  pick(0),
		Kijun:   pick(1),
		SenkouA: pick(2),
		SenkouB: pick(3),
		Chikou:  pick(4),
	}
}

// PivotSeries bundles the lazy pivot level series.
type PivotSeries struct {
	P, R1, S1, R2, S2, R3, S3, R4, S4, R5, S5 *series.Series
}

// Pivots returns lazy pivot levels segmented by the anchor series, which
// must be bound to the context's bar data. Woodie with developing is
// rejected up front.
func (c *Context) Pivots(anchor *series.Series, kind ta.PivotKind, developing bool) (*PivotSeries, error) {
	if kind == ta.PivotWoodie && developing {
		return nil, ta.ErrWoodieDeveloping
	}
	if anchor == nil {
		return nil, fmt.Errorf("pivots: anchor series is required")
	}
	if anchor.Data() != c.data {
		return nil, fmt.Errorf("pivots: %w", ErrMixedBarData)
	}
	pick := func(idx int) *series.Series {
		return series.Transform(c.data, func(cols [][]float64) []float64 {
			lv, err := ta.Pivots(cols[0], cols[1], cols[2], cols[3], cols[4], kind, developing)
			if err != nil {
				return nansLike(cols)
			}
			switch idx {
			case 0:
				return lv.P
			case 1:
				return lv.R1
			case 2:
				return lv.S1
			case 3:
				return lv.R2
			case 4:
				return lv.S2
			case 5:
				return lv.R3
			case 6:
				return lv.S3
			case 7:
				return lv.R4
			case 8:
				return lv.S4
			case 9:
				return lv.R5
			default:
				return lv.S5
			}
		}, c.Open(), c.High(), c.Low(), c.Close(), anchor)
	}
	return &PivotSeries{
		P: pick(0), R1: pick(1), S1: pick(2), R2: pick(3), S2: pick(4),
		R3: pick(5), S3: pick(6), R4: pick(7), S4: pick(8), R5: pick(9), S5: pick(10),
	}, nil
}

// VWAP returns the lazy volume-weighted average price. src defaults to
// the typical price when nil; a nil anchor means one unbroken
// accumulation. Fails fast when the bar data carries no volume.
func (c *Context) VWAP(src, anchor *series.Series) (*series.Series, error) {
	if !c.data.HasVolume() {
		return nil, fmt.Errorf("vwap: %w", ErrVolumeRequired)
	}
	if src == nil {
		src = c.HLC3()
	}
	if src.Data() != c.data {
		return nil, fmt.Errorf("vwap: %w", ErrMixedBarData)
	}
	operands := []*series.Series{src, c.Volume()}
	if anchor != nil {
		if anchor.Data() != c.data {
			return nil, fmt.Errorf("vwap: %w", ErrMixedBarData)
		}
		operands = append(operands, anchor)
	}
	hasAnchor := anchor != nil
	return series.Transform(c.data, func(cols [][]float64) []float64 {
		var anchorCol []float64
		if hasAnchor {
			anchorCol = cols[2]
		}
		out, err := ta.VWAP(cols[0], cols[1], anchorCol)
		if err != nil {
			return nansLike(cols)
		}
		return out
	}, operands...), nil
}

// MFI returns the lazy money flow index. Fails fast when the bar data
// carries no volume.
func (c *Context) MFI(length int) (*series.Series, error) {
	if !c.data.HasVolume() {
		return nil, fmt.Errorf("mfi: %w", ErrVolumeRequired)
	}
	return series.Transform(c.data, func(cols [][]float64) []float64 {
		out, err := ta.MFI(cols[0], cols[1], cols[2], cols[3], length)
		if err != nil {
			return nansLike(cols)
		}
		return out
	}, c.High(), c.Low(), c.Close(), c.Volume()), nil
}

// AnchorPeriod returns a 1/0 series marking bars that open a new period
// of the given duration, measured on the bar open times. The first bar
// always anchors. Useful as the anchor input of VWAP and Pivots.
func (c *Context) AnchorPeriod(period time.Duration) *series.Series {
	ms := period.Milliseconds()
	return series.FromExtractor(c.data, func(b series.Bar, i int, bars []series.Bar) float64 {
		if ms <= 0 {
			return 0
		}
		if i == 0 {
			return 1
		}
		if b.Time.UnixMilli()/ms != bars[i-1].Time.UnixMilli()/ms {
			return 1
		}
		return 0
	})
}
