package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/mohamedkhairy/pineseries/pkg/series"
	"github.com/mohamedkhairy/pineseries/pkg/ta"
)

func trendingData() *series.BarData {
	return testData(
		[5]float64{10, 12, 9, 11, 100},
		[5]float64{11, 13, 10, 12, 150},
		[5]float64{12, 14, 11, 13, 120},
		[5]float64{13, 15, 12, 14, 180},
		[5]float64{14, 16, 13, 15, 90},
		[5]float64{15, 17, 14, 16, 110},
	)
}

func TestSeriesOps_MatchArrayAlgorithms(t *testing.T) {
	d := trendingData()
	c := New(d)
	close := c.Close()
	closeVals := close.ToArray()

	wantValues(t, "sma", c.SMA(close, 3), ta.SMA(closeVals, 3))
	wantValues(t, "ema", c.EMA(close, 3), ta.EMA(closeVals, 3))
	wantValues(t, "rma", c.RMA(close, 3), ta.RMA(closeVals, 3))
	wantValues(t, "wma", c.WMA(close, 3), ta.WMA(closeVals, 3))
	wantValues(t, "stdev", c.Stdev(close, 3), ta.Stdev(closeVals, 3))
	wantValues(t, "rsi", c.RSI(close, 3), ta.RSI(closeVals, 3))
	wantValues(t, "highest", c.Highest(close, 3), ta.Highest(closeVals, 3))
	wantValues(t, "median", c.Median(close, 3), ta.Median(closeVals, 3))
	wantValues(t, "rci", c.RCI(close, 4), ta.RCI(closeVals, 4))

	highVals := c.High().ToArray()
	lowVals := c.Low().ToArray()
	wantTR, err := ta.TR(highVals, lowVals, closeVals)
	if err != nil {
		t.Fatalf("tr: %v", err)
	}
	wantValues(t, "tr", c.TR(), wantTR)

	wantATR, _ := ta.ATR(highVals, lowVals, closeVals, 3)
	wantValues(t, "atr", c.ATR(3), wantATR)

	wantSAR, _ := ta.SAR(highVals, lowVals, closeVals, 0.02, 0.02, 0.2)
	wantValues(t, "sar", c.SAR(0.02, 0.02, 0.2), wantSAR)
}

func TestSeriesOps_MultiOutput(t *testing.T) {
	d := trendingData()
	c := New(d)
	close := c.Close()
	closeVals := close.ToArray()

	line, sig, hist := c.MACD(close, 2, 4, 3)
	wl, ws, wh := ta.MACD(closeVals, 2, 4, 3)
	wantValues(t, "macd line", line, wl)
	wantValues(t, "macd signal", sig, ws)
	wantValues(t, "macd hist", hist, wh)

	basis, upper, lower := c.BB(close, 3, 2)
	wb, wu, wlo := ta.BB(closeVals, 3, 2)
	wantValues(t, "bb basis", basis, wb)
	wantValues(t, "bb upper", upper, wu)
	wantValues(t, "bb lower", lower, wlo)

	highVals := c.High().ToArray()
	lowVals := c.Low().ToArray()
	p, m, x, err := ta.DMI(highVals, lowVals, closeVals, 3, 3)
	if err != nil {
		t.Fatalf("dmi: %v", err)
	}
	gp, gm, gx := c.DMI(3, 3)
	wantValues(t, "+di", gp, p)
	wantValues(t, "-di", gm, m)
	wantValues(t, "adx", gx, x)

	st, dir := c.Supertrend(2, 3)
	wst, wdir, _ := ta.Supertrend(highVals, lowVals, closeVals, 2, 3)
	wantValues(t, "supertrend", st, wst)
	wantValues(t, "supertrend dir", dir, wdir)

	zv, zd := c.ZigZag(5, 1)
	wzv, wzd, _ := ta.ZigZag(highVals, lowVals, 5, 1)
	wantValues(t, "zigzag values", zv, wzv)
	wantValues(t, "zigzag direction", zd, wzd)

	ich := c.Ichimoku(2, 3, 4, 2)
	wich, _ := ta.Ichimoku(highVals, lowVals, closeVals, 2, 3, 4, 2)
	wantValues(t, "tenkan", ich.Tenkan, wich.Tenkan)
	wantValues(t, "kijun", ich.Kijun, wich.Kijun)
	wantValues(t, "senkouA", ich.SenkouA, wich.SenkouA)
	wantValues(t, "senkouB", ich.SenkouB, wich.SenkouB)
	wantValues(t, "chikou", ich.Chikou, wich.Chikou)
}

func TestSeriesOps_RecomputeOnAppend(t *testing.T) {
	d := trendingData()
	c := New(d)
	sma := c.SMA(c.Close(), 3)

	before := sma.ToArray()
	if len(before) != 6 {
		t.Fatalf("initial length = %d", len(before))
	}

	d.Append(series.NewBarWithVolume(t0.Add(6*time.Minute), 16, 18, 15, 17, 130))
	after := sma.ToArray()
	if len(after) != 7 {
		t.Fatalf("post-append length = %d, want 7", len(after))
	}
	if !eqOrBothNaN(after[6], (15.0+16+17)/3) {
		t.Errorf("sma tail = %v, want %v", after[6], (15.0+16+17)/3)
	}
}

func TestSeriesOps_RecomputeOnReplaceLast(t *testing.T) {
	d := trendingData()
	c := New(d)
	st, dir := c.Supertrend(2, 3)
	st.ToArray()
	dir.ToArray()

	// Amending the developing bar must flow into the next read.
	d.ReplaceLast(series.NewBarWithVolume(t0.Add(5*time.Minute), 15, 17, 3, 4, 110))
	highVals := c.High().ToArray()
	lowVals := c.Low().ToArray()
	closeVals := c.Close().ToArray()
	wst, wdir, _ := ta.Supertrend(highVals, lowVals, closeVals, 2, 3)
	wantValues(t, "supertrend", st, wst)
	wantValues(t, "supertrend dir", dir, wdir)
}

func TestVWAP_WrapsVolumeAndAnchor(t *testing.T) {
	d := trendingData()
	c := New(d)
	v, err := c.VWAP(c.Close(), nil)
	if err != nil {
		t.Fatalf("vwap: %v", err)
	}
	want, _ := ta.VWAP(c.Close().ToArray(), c.Volume().ToArray(), nil)
	wantValues(t, "vwap", v, want)

	// nil src falls back to the typical price.
	v2, err := c.VWAP(nil, nil)
	if err != nil {
		t.Fatalf("vwap: %v", err)
	}
	want2, _ := ta.VWAP(c.HLC3().ToArray(), c.Volume().ToArray(), nil)
	wantValues(t, "vwap hlc3", v2, want2)

	anchor := c.AnchorPeriod(2 * time.Minute)
	v3, err := c.VWAP(c.Close(), anchor)
	if err != nil {
		t.Fatalf("vwap: %v", err)
	}
	want3, _ := ta.VWAP(c.Close().ToArray(), c.Volume().ToArray(), anchor.ToArray())
	wantValues(t, "anchored vwap", v3, want3)
}

func TestVWAP_RequiresVolume(t *testing.T) {
	d := testDataNoVolume([4]float64{10, 12, 9, 11})
	c := New(d)
	if _, err := c.VWAP(nil, nil); !errors.Is(err, ErrVolumeRequired) {
		t.Fatalf("err = %v, want ErrVolumeRequired", err)
	}
	if _, err := c.MFI(14); !errors.Is(err, ErrVolumeRequired) {
		t.Fatalf("err = %v, want ErrVolumeRequired", err)
	}
}

func TestMFI_MatchesArrayAlgorithm(t *testing.T) {
	d := trendingData()
	c := New(d)
	m, err := c.MFI(3)
	if err != nil {
		t.Fatalf("mfi: %v", err)
	}
	want, _ := ta.MFI(c.High().ToArray(), c.Low().ToArray(), c.Close().ToArray(), c.Volume().ToArray(), 3)
	wantValues(t, "mfi", m, want)
}

func TestPivots_WrapperValidation(t *testing.T) {
	d := trendingData()
	c := New(d)
	anchor := c.AnchorPeriod(2 * time.Minute)

	if _, err := c.Pivots(anchor, ta.PivotWoodie, true); !errors.Is(err, ta.ErrWoodieDeveloping) {
		t.Fatalf("err = %v, want ErrWoodieDeveloping", err)
	}
	if _, err := c.Pivots(nil, ta.PivotClassic, false); err == nil {
		t.Fatal("nil anchor should be rejected")
	}
	other := New(trendingData())
	if _, err := c.Pivots(other.Close(), ta.PivotClassic, false); !errors.Is(err, ErrMixedBarData) {
		t.Fatalf("err = %v, want ErrMixedBarData", err)
	}

	ps, err := c.Pivots(anchor, ta.PivotTraditional, false)
	if err != nil {
		t.Fatalf("pivots: %v", err)
	}
	lv, _ := ta.Pivots(c.Open().ToArray(), c.High().ToArray(), c.Low().ToArray(), c.Close().ToArray(), anchor.ToArray(), ta.PivotTraditional, false)
	wantValues(t, "p", ps.P, lv.P)
	wantValues(t, "r1", ps.R1, lv.R1)
	wantValues(t, "s3", ps.S3, lv.S3)
	wantValues(t, "r5", ps.R5, lv.R5)
}

func TestCross_RejectsMixedData(t *testing.T) {
	a := New(trendingData())
	b := New(trendingData())
	if _, err := a.Crossover(a.Close(), b.Close()); !errors.Is(err, ErrMixedBarData) {
		t.Fatalf("err = %v, want ErrMixedBarData", err)
	}
	if _, err := a.Correlation(a.Close(), b.Close(), 3); !errors.Is(err, ErrMixedBarData) {
		t.Fatalf("err = %v, want ErrMixedBarData", err)
	}
}

func TestCross_MatchesArrayAlgorithm(t *testing.T) {
	d := trendingData()
	c := New(d)
	fast := c.EMA(c.Close(), 2)
	slow := c.EMA(c.Close(), 4)
	over, err := c.Crossover(fast, slow)
	if err != nil {
		t.Fatalf("crossover: %v", err)
	}
	want, _ := ta.Crossover(fast.ToArray(), slow.ToArray())
	wantValues(t, "crossover", over, want)
}

func TestAnchorPeriod(t *testing.T) {
	d := testData(
		[5]float64{10, 12, 9, 11, 100},  // 09:30
		[5]float64{11, 13, 10, 12, 150}, // 09:31
		[5]float64{12, 14, 11, 13, 120}, // 09:32
		[5]float64{13, 15, 12, 14, 180}, // 09:33
	)
	c := New(d)
	anchor := c.AnchorPeriod(2 * time.Minute)
	wantValues(t, "anchor", anchor, []float64{1, 0, 1, 0})
}
