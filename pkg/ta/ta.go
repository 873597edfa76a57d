// Package ta implements the array-level indicator algorithms: windowed
// aggregates and recursive smoothers over plain float64 slices, aligned
// index-for-index with the input.
//
// Conventions shared by every function:
//   - Outputs have the same length as the inputs. NaN marks "not yet
//     available" (insufficient trailing window) or "undefined" (zero-range
//     division); it propagates silently and is never an error.
//   - A windowed value at index i covers the trailing window
//     [i-length+1, i]; indices below length-1 are NaN.
//   - Errors are returned only for malformed call contracts: input arrays
//     of different lengths, missing required context (volume), or invalid
//     configuration (Woodie pivots in developing mode). Missing data is
//     quiet; broken calls are loud.
//   - Functions are pure; no state survives a call.
package ta

import (
	"fmt"
	"math"
)

// nans returns a slice of n NaNs, the starting point of every output.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// truthy treats a float as a boolean series value: non-zero and non-NaN.
func truthy(v float64) bool {
	return !math.IsNaN(v) && v != 0
}

// sameLen validates that all arrays share one length.
func sameLen(arrays ...[]float64) error {
	if len(arrays) == 0 {
		return nil
	}
	n := len(arrays[0])
	for _, a := range arrays[1:] {
		if len(a) != n {
			return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(a))
		}
	}
	return nil
}

// windowHasNaN reports whether src[from..to] contains a NaN.
func windowHasNaN(src []float64, from, to int) bool {
	for j := from; j <= to; j++ {
		if math.IsNaN(src[j]) {
			return true
		}
	}
	return false
}
