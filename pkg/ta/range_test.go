package ta

import "testing"

func TestHighestLowest(t *testing.T) {
	src := []float64{3, 1, 4, 1, 5}
	assertSeries(t, "highest", Highest(src, 2), []float64{nan(), 3, 4, 4, 5})
	assertSeries(t, "lowest", Lowest(src, 2), []float64{nan(), 1, 1, 1, 1})
	assertSeries(t, "highest3", Highest(src, 3), []float64{nan(), nan(), 4, 4, 5})
}

func TestHighestLowest_NaNPoisonsWindow(t *testing.T) {
	src := []float64{3, nan(), 4}
	assertSeries(t, "highest", Highest(src, 2), []float64{nan(), nan(), nan()})
	assertSeries(t, "lowest", Lowest(src, 2), []float64{nan(), nan(), nan()})
}

func TestMedian(t *testing.T) {
	assertSeries(t, "odd", Median([]float64{5, 1, 3}, 3), []float64{nan(), nan(), 3})
	assertSeries(t, "even", Median([]float64{1, 2, 3, 4}, 4), []float64{nan(), nan(), nan(), 2.5})
}

func TestMedian_FiltersNaN(t *testing.T) {
	// NaN entries are dropped from the window, not poisoning it.
	got := Median([]float64{1, nan(), 3}, 3)
	assertSeries(t, "median", got, []float64{nan(), nan(), 2})

	empty := Median([]float64{nan(), nan()}, 2)
	assertSeries(t, "median", empty, []float64{nan(), nan()})
}

func TestMode_TiesPickSmallest(t *testing.T) {
	got := Mode([]float64{2, 1, 2, 3, 3}, 5)
	assertSeries(t, "mode", got, []float64{nan(), nan(), nan(), nan(), 2})

	got = Mode([]float64{1, 3, 3}, 3)
	assertSeries(t, "mode", got, []float64{nan(), nan(), 3})
}

func TestPercentileLinear(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{100, 4},
	}
	for _, c := range cases {
		got := PercentileLinear(src, 4, c.p)
		if !approx(got[3], c.want) {
			t.Errorf("percentile(%v) = %v, want %v", c.p, got[3], c.want)
		}
	}
}

func TestPercentileLinear_NaNPoisonsWindow(t *testing.T) {
	got := PercentileLinear([]float64{1, nan(), 3}, 3, 50)
	assertSeries(t, "percentile", got, []float64{nan(), nan(), nan()})
}

func TestPercentileNearestRank(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{1, 1},
		{50, 2},
		{75, 3},
		{100, 4},
	}
	for _, c := range cases {
		got := PercentileNearestRank(src, 4, c.p)
		if !approx(got[3], c.want) {
			t.Errorf("nearest rank(%v) = %v, want %v", c.p, got[3], c.want)
		}
	}
}

func TestPercentileNearestRank_FiltersNaN(t *testing.T) {
	got := PercentileNearestRank([]float64{1, nan(), 3}, 3, 100)
	assertSeries(t, "nearest rank", got, []float64{nan(), nan(), 3})
}
