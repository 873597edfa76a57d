package ta

import "math"

// Crossover marks bars where a moves from at-or-below b to strictly
// above it: 1 on a cross, 0 otherwise, NaN when any of the four values
// involved is NaN. Index 0 has no previous bar and is NaN.
func Crossover(a, b []float64) ([]float64, error) {
	return cross(a, b, func(pa, pb, ca, cb float64) bool {
		return pa <= pb && ca > cb
	})
}

// Crossunder marks bars where a moves from at-or-above b to strictly
// below it, with the same NaN rules as Crossover.
func Crossunder(a, b []float64) ([]float64, error) {
	return cross(a, b, func(pa, pb, ca, cb float64) bool {
		return pa >= pb && ca < cb
	})
}

func cross(a, b []float64, hit func(pa, pb, ca, cb float64) bool) ([]float64, error) {
	if err := sameLen(a, b); err != nil {
		return nil, err
	}
	out := nans(len(a))
	for i := 1; i < len(a); i++ {
		pa, pb, ca, cb := a[i-1], b[i-1], a[i], b[i]
		if math.IsNaN(pa) || math.IsNaN(pb) || math.IsNaN(ca) || math.IsNaN(cb) {
			continue
		}
		if hit(pa, pb, ca, cb) {
			out[i] = 1
		} else {
			out[i] = 0
		}
	}
	return out, nil
}
