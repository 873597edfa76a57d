package ta

import (
	"errors"
	"testing"
)

func TestVarianceAndStdev(t *testing.T) {
	// Classic population-variance example: mean 5, variance 4.
	src := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	v := Variance(src, 8)
	if !approx(v[7], 4) {
		t.Errorf("variance = %v, want 4", v[7])
	}
	s := Stdev(src, 8)
	if !approx(s[7], 2) {
		t.Errorf("stdev = %v, want 2", s[7])
	}
	for i := 0; i < 7; i++ {
		if !approx(v[i], nan()) {
			t.Errorf("variance[%d] = %v, want NaN", i, v[i])
		}
	}
}

func TestBB(t *testing.T) {
	src := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	basis, upper, lower := BB(src, 8, 2)
	if !approx(basis[7], 5) || !approx(upper[7], 9) || !approx(lower[7], 1) {
		t.Errorf("bb = (%v, %v, %v), want (5, 9, 1)", basis[7], upper[7], lower[7])
	}
	if !approx(upper[0], nan()) {
		t.Errorf("bb upper[0] = %v, want NaN", upper[0])
	}
}

func TestCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	up, err := Correlation(a, []float64{2, 4, 6, 8}, 4)
	if err != nil {
		t.Fatalf("correlation: %v", err)
	}
	if !approx(up[3], 1) {
		t.Errorf("correlation = %v, want 1", up[3])
	}
	down, _ := Correlation(a, []float64{8, 6, 4, 2}, 4)
	if !approx(down[3], -1) {
		t.Errorf("correlation = %v, want -1", down[3])
	}
	flat, _ := Correlation(a, []float64{5, 5, 5, 5}, 4)
	if !approx(flat[3], nan()) {
		t.Errorf("constant input should yield NaN, got %v", flat[3])
	}
}

func TestCorrelation_LengthMismatch(t *testing.T) {
	_, err := Correlation([]float64{1, 2, 3}, []float64{1, 2}, 2)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestRCI(t *testing.T) {
	up := RCI([]float64{1, 2, 3, 4, 5}, 5)
	if !approx(up[4], 100) {
		t.Errorf("ascending rci = %v, want 100", up[4])
	}
	down := RCI([]float64{5, 4, 3, 2, 1}, 5)
	if !approx(down[4], -100) {
		t.Errorf("descending rci = %v, want -100", down[4])
	}
}

func TestRCI_TiesGetAverageRanks(t *testing.T) {
	// Value ranks with the tie averaged: [1, 2.5, 2.5, 4] against time
	// ranks [1,2,3,4] gives 4.5/sqrt(5*4.5)*100.
	got := RCI([]float64{1, 2, 2, 3}, 4)
	want := 94.86832980505138
	if !approx(got[3], want) {
		t.Errorf("rci = %v, want %v", got[3], want)
	}
}

func TestRCI_FlatWindowIsNaN(t *testing.T) {
	got := RCI([]float64{7, 7, 7}, 3)
	assertSeries(t, "rci", got, []float64{nan(), nan(), nan()})
}
