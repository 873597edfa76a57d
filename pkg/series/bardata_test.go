package series

import (
	"math"
	"testing"
	"time"
)

func testBars(closes ...float64) []Bar {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = NewBarWithVolume(
			start.Add(time.Duration(i)*time.Minute),
			c, c+1, c-1, c,
			1000,
		)
	}
	return bars
}

func TestBarData_VersionBumpOnMutation(t *testing.T) {
	d := NewBarData(testBars(1, 2, 3)...)
	if d.Version() != 0 {
		t.Fatalf("Expected initial version 0, got %d", d.Version())
	}

	d.Append(testBars(4)[0])
	if d.Version() != 1 {
		t.Errorf("Expected version 1 after append, got %d", d.Version())
	}

	d.Set(0, testBars(9)[0])
	if d.Version() != 2 {
		t.Errorf("Expected version 2 after set, got %d", d.Version())
	}

	d.ReplaceLast(testBars(5)[0])
	if d.Version() != 3 {
		t.Errorf("Expected version 3 after replaceLast, got %d", d.Version())
	}

	if _, ok := d.RemoveLast(); !ok {
		t.Error("Expected removeLast to succeed on non-empty data")
	}
	if d.Version() != 4 {
		t.Errorf("Expected version 4 after removeLast, got %d", d.Version())
	}

	d.ReplaceAll(testBars(7, 8))
	if d.Version() != 5 {
		t.Errorf("Expected version 5 after replaceAll, got %d", d.Version())
	}

	d.Invalidate()
	if d.Version() != 6 {
		t.Errorf("Expected version 6 after invalidate, got %d", d.Version())
	}
}

func TestBarData_ReadsDoNotBumpVersion(t *testing.T) {
	d := NewBarData(testBars(1, 2, 3)...)

	_ = d.Len()
	_, _ = d.At(1)
	_ = d.Bars()
	_ = d.HasVolume()

	if d.Version() != 0 {
		t.Errorf("Expected version 0 after reads, got %d", d.Version())
	}
}

func TestBarData_SetOutOfRangeIsNoOp(t *testing.T) {
	d := NewBarData(testBars(1, 2, 3)...)

	d.Set(-1, testBars(9)[0])
	d.Set(3, testBars(9)[0])
	d.Set(100, testBars(9)[0])

	if d.Version() != 0 {
		t.Errorf("Expected version 0 after out-of-range sets, got %d", d.Version())
	}
	bar, _ := d.At(0)
	if bar.Close != 1 {
		t.Errorf("Expected data unchanged, got close %f", bar.Close)
	}
}

func TestBarData_RemoveLastOnEmpty(t *testing.T) {
	d := NewBarData()

	bar, ok := d.RemoveLast()
	if ok {
		t.Errorf("Expected removeLast on empty to report false, got bar %+v", bar)
	}
	if d.Version() != 0 {
		t.Errorf("Expected version 0 after empty removeLast, got %d", d.Version())
	}
}

func TestBarData_ReplaceLastOnEmpty(t *testing.T) {
	d := NewBarData()

	d.ReplaceLast(testBars(1)[0])

	if d.Len() != 0 {
		t.Errorf("Expected empty data, got len %d", d.Len())
	}
	if d.Version() != 0 {
		t.Errorf("Expected version 0, got %d", d.Version())
	}
}

func TestBarData_RemoveLastReturnsBar(t *testing.T) {
	d := NewBarData(testBars(1, 2, 3)...)

	bar, ok := d.RemoveLast()
	if !ok {
		t.Fatal("Expected removeLast to succeed")
	}
	if bar.Close != 3 {
		t.Errorf("Expected removed close 3, got %f", bar.Close)
	}
	if d.Len() != 2 {
		t.Errorf("Expected 2 bars left, got %d", d.Len())
	}
}

func TestBarData_HasVolumeTracking(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	noVol := NewBar(start, 1, 2, 0, 1)
	withVol := NewBarWithVolume(start.Add(time.Minute), 1, 2, 0, 1, 500)

	d := NewBarData(noVol)
	if d.HasVolume() {
		t.Error("Expected no volume for volume-less bars")
	}

	d.Append(withVol)
	if !d.HasVolume() {
		t.Error("Expected volume after appending a bar with volume")
	}

	d.RemoveLast()
	if d.HasVolume() {
		t.Error("Expected no volume after removing the only bar with volume")
	}

	d.Set(0, withVol)
	if !d.HasVolume() {
		t.Error("Expected volume after replacing bar 0 with a volume bar")
	}

	d.ReplaceAll([]Bar{noVol})
	if d.HasVolume() {
		t.Error("Expected no volume after replaceAll with volume-less bars")
	}
}

func TestBarData_BarsReturnsCopy(t *testing.T) {
	d := NewBarData(testBars(1, 2, 3)...)

	bars := d.Bars()
	bars[0].Close = 999

	got, _ := d.At(0)
	if got.Close != 1 {
		t.Errorf("Expected internal bars unchanged, got close %f", got.Close)
	}
}

func TestBar_FieldAccess(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	bar := NewBarWithVolume(ts, 10, 12, 9, 11, 5000)

	cases := []struct {
		field string
		want  float64
	}{
		{FieldOpen, 10},
		{FieldHigh, 12},
		{FieldLow, 9},
		{FieldClose, 11},
		{FieldVolume, 5000},
		{FieldTime, float64(ts.UnixMilli())},
	}
	for _, tc := range cases {
		if got := bar.Field(tc.field); got != tc.want {
			t.Errorf("Field(%q) = %f, want %f", tc.field, got, tc.want)
		}
	}

	if !math.IsNaN(bar.Field("nonsense")) {
		t.Error("Expected NaN for unknown field")
	}
	if !math.IsNaN(NewBar(ts, 1, 2, 0, 1).Field(FieldVolume)) {
		t.Error("Expected NaN volume for bar built without volume")
	}
}
