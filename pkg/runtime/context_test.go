package runtime

import (
	"math"
	"testing"
	"time"

	"github.com/mohamedkhairy/pineseries/pkg/series"
)

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// testData builds a bar store with volume, one bar per minute.
func testData(rows ...[5]float64) *series.BarData {
	d := series.NewBarData()
	for i, r := range rows {
		d.Append(series.NewBarWithVolume(t0.Add(time.Duration(i)*time.Minute), r[0], r[1], r[2], r[3], r[4]))
	}
	return d
}

// testDataNoVolume builds a bar store whose bars carry no volume.
func testDataNoVolume(rows ...[4]float64) *series.BarData {
	d := series.NewBarData()
	for i, r := range rows {
		d.Append(series.NewBar(t0.Add(time.Duration(i)*time.Minute), r[0], r[1], r[2], r[3]))
	}
	return d
}

func eqOrBothNaN(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= 1e-9
}

func wantValues(t *testing.T, name string, s *series.Series, want []float64) {
	t.Helper()
	got := s.ToArray()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if !eqOrBothNaN(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestContext_FieldSeries(t *testing.T) {
	d := testData(
		[5]float64{10, 12, 9, 11, 100},
		[5]float64{11, 13, 10, 12, 200},
	)
	c := New(d)
	wantValues(t, "open", c.Open(), []float64{10, 11})
	wantValues(t, "high", c.High(), []float64{12, 13})
	wantValues(t, "low", c.Low(), []float64{9, 10})
	wantValues(t, "close", c.Close(), []float64{11, 12})
	wantValues(t, "volume", c.Volume(), []float64{100, 200})
	wantValues(t, "hl2", c.HL2(), []float64{10.5, 11.5})
	wantValues(t, "hlc3", c.HLC3(), []float64{32.0 / 3, 35.0 / 3})
	wantValues(t, "ohlc4", c.OHLC4(), []float64{10.5, 11.5})
}

func TestContext_FieldSeriesAreCached(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	if c.Close() != c.Close() {
		t.Fatal("field series should be one node per field")
	}
}

func TestContext_ResetKeepsInputsDropsPlots(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	if err := c.SetInput("len", 21); err != nil {
		t.Fatalf("set input: %v", err)
	}
	got := c.InputInt("len", 14)
	if got != 21 {
		t.Fatalf("input = %d, want override 21", got)
	}
	c.Plot("price", c.Close(), PlotOptions{})
	c.HLine("zero", 0, HLineOptions{})
	c.NewLabel(Point{Time: t0.UnixMilli(), Price: 11}, "hi")

	c.Reset()

	if n := len(c.Plots()); n != 0 {
		t.Errorf("plots after reset = %d, want 0", n)
	}
	if n := len(c.HLines()); n != 0 {
		t.Errorf("hlines after reset = %d, want 0", n)
	}
	if n := len(c.Drawings()); n != 0 {
		t.Errorf("drawings after reset = %d, want 0", n)
	}
	if got := c.InputInt("len", 14); got != 21 {
		t.Errorf("input after reset = %d, want 21", got)
	}
	if n := len(c.Inputs()); n != 1 {
		t.Errorf("declarations after reset = %d, want 1", n)
	}
}

func TestContext_DisposeMakesRegistrationNoOp(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	c.Dispose()
	if !c.Disposed() {
		t.Fatal("context should report disposed")
	}
	c.Plot("price", c.Close(), PlotOptions{})
	if n := len(c.Plots()); n != 0 {
		t.Errorf("plot on disposed context registered, count = %d", n)
	}
	if l := c.NewLine(Point{}, Point{}); l != nil {
		t.Error("drawing on disposed context should be nil")
	}
	if got := c.InputFloat("x", 3.5); got != 3.5 {
		t.Errorf("disposed input = %v, want the passed default", got)
	}
	if n := len(c.Inputs()); n != 0 {
		t.Errorf("disposed context stored %d declarations", n)
	}
	if err := c.SetInput("x", 1.0); err == nil {
		t.Error("SetInput on disposed context should error")
	}
}
