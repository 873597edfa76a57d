package ta

import "math"

// ZigZag finds swing pivots: alternating highs and lows where price
// reversed by at least deviation percent, with at least backstep bars
// between a candidate pivot and its confirmation.
//
// values carries pivot prices at pivot indices and NaN elsewhere. The
// newest candidate pivot is included even though a deeper extreme may
// still replace it; that entry repaints until the opposite reversal
// confirms it. direction labels each bar with the slope of the confirmed
// leg covering it, +1 rising into a high pivot and -1 falling into a low
// pivot; bars up to and including the first confirmed pivot, where no
// leg exists yet, are NaN. After the last confirmed pivot, direction
// carries the current unconfirmed leg.
func ZigZag(high, low []float64, deviation float64, backstep int) (values, direction []float64, err error) {
	if err := sameLen(high, low); err != nil {
		return nil, nil, err
	}
	n := len(high)
	values, direction = nans(n), nans(n)
	if n == 0 {
		return values, direction, nil
	}
	if backstep < 0 {
		backstep = 0
	}
	dev := deviation / 100

	type pivot struct {
		idx    int
		val    float64
		isHigh bool
	}
	var pivots []pivot

	// trend 0 = no pivot confirmed yet, +1 = rising leg seeking a high,
	// -1 = falling leg seeking a low.
	trend := 0
	hiIdx, loIdx := 0, 0
	hiVal, loVal := high[0], low[0]
	candIdx := 0
	candVal := math.NaN()

	// reseed picks the deepest extreme of the new leg between the
	// confirmed pivot and the confirming bar.
	reseed := func(from, to int, wantHigh bool) {
		if from > to {
			from = to
		}
		candIdx = from
		if wantHigh {
			candVal = high[from]
			for j := from + 1; j <= to; j++ {
				if high[j] > candVal {
					candIdx, candVal = j, high[j]
				}
			}
		} else {
			candVal = low[from]
			for j := from + 1; j <= to; j++ {
				if low[j] < candVal {
					candIdx, candVal = j, low[j]
				}
			}
		}
	}

	for i := 1; i < n; i++ {
		switch trend {
		case 0:
			if high[i] > hiVal {
				hiIdx, hiVal = i, high[i]
			}
			if low[i] < loVal {
				loIdx, loVal = i, low[i]
			}
			if low[i] <= hiVal*(1-dev) && i-hiIdx >= backstep {
				pivots = append(pivots, pivot{hiIdx, hiVal, true})
				trend = -1
				reseed(hiIdx+1, i, false)
			} else if high[i] >= loVal*(1+dev) && i-loIdx >= backstep {
				pivots = append(pivots, pivot{loIdx, loVal, false})
				trend = 1
				reseed(loIdx+1, i, true)
			}
		case 1:
			if high[i] > candVal {
				candIdx, candVal = i, high[i]
			}
			if low[i] <= candVal*(1-dev) && i-candIdx >= backstep {
				pivots = append(pivots, pivot{candIdx, candVal, true})
				trend = -1
				reseed(candIdx+1, i, false)
			}
		case -1:
			if low[i] < candVal {
				candIdx, candVal = i, low[i]
			}
			if high[i] >= candVal*(1+dev) && i-candIdx >= backstep {
				pivots = append(pivots, pivot{candIdx, candVal, false})
				trend = 1
				reseed(candIdx+1, i, true)
			}
		}
	}

	for _, p := range pivots {
		values[p.idx] = p.val
	}
	// Trailing candidate: emitted for continuity, still repaintable.
	if trend != 0 && !math.IsNaN(candVal) {
		values[candIdx] = candVal
	}

	// Leg directions between consecutive confirmed pivots; the bar at a
	// pivot index belongs to the leg that ends there.
	for k := 1; k < len(pivots); k++ {
		d := -1.0
		if pivots[k].isHigh {
			d = 1.0
		}
		for j := pivots[k-1].idx + 1; j <= pivots[k].idx; j++ {
			direction[j] = d
		}
	}
	if len(pivots) > 0 && trend != 0 {
		last := pivots[len(pivots)-1]
		for j := last.idx + 1; j < n; j++ {
			direction[j] = float64(trend)
		}
	}
	return values, direction, nil
}
