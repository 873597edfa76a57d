package ta

import (
	"fmt"
	"math"
	"strings"
)

// PivotKind selects the pivot point formula.
type PivotKind int

const (
	PivotTraditional PivotKind = iota
	PivotFibonacci
	PivotWoodie
	PivotClassic
	PivotDM
	PivotCamarilla
)

func (k PivotKind) String() string {
	switch k {
	case PivotTraditional:
		return "traditional"
	case PivotFibonacci:
		return "fibonacci"
	case PivotWoodie:
		return "woodie"
	case PivotClassic:
		return "classic"
	case PivotDM:
		return "dm"
	case PivotCamarilla:
		return "camarilla"
	default:
		return fmt.Sprintf("pivotkind(%d)", int(k))
	}
}

// ParsePivotKind maps a config string onto a PivotKind.
func ParsePivotKind(s string) (PivotKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "traditional":
		return PivotTraditional, nil
	case "fibonacci":
		return PivotFibonacci, nil
	case "woodie":
		return PivotWoodie, nil
	case "classic":
		return PivotClassic, nil
	case "dm", "demark":
		return PivotDM, nil
	case "camarilla":
		return PivotCamarilla, nil
	default:
		return 0, fmt.Errorf("unknown pivot kind %q", s)
	}
}

// PivotLevels holds the pivot point and up to five resistance and support
// levels per bar. Slots a formula does not define stay NaN: DM produces
// only P, R1 and S1, Woodie stops at R4/S4.
type PivotLevels struct {
	P  []float64
	R1 []float64
	S1 []float64
	R2 []float64
	S2 []float64
	R3 []float64
	S3 []float64
	R4 []float64
	S4 []float64
	R5 []float64
	S5 []float64
}

func newPivotLevels(n int) *PivotLevels {
	return &PivotLevels{
		P: nans(n), R1: nans(n), S1: nans(n), R2: nans(n), S2: nans(n),
		R3: nans(n), S3: nans(n), R4: nans(n), S4: nans(n), R5: nans(n), S5: nans(n),
	}
}

func (l *PivotLevels) set(i int, row [11]float64) {
	l.P[i], l.R1[i], l.S1[i] = row[0], row[1], row[2]
	l.R2[i], l.S2[i] = row[3], row[4]
	l.R3[i], l.S3[i] = row[5], row[6]
	l.R4[i], l.S4[i] = row[7], row[8]
	l.R5[i], l.S5[i] = row[9], row[10]
}

// pivotBasis is the OHLC aggregate of one anchor-to-anchor segment.
type pivotBasis struct {
	open, high, low, close float64
}

// Pivots computes pivot point levels segmented by the anchor array: a
// truthy anchor value starts a new period. In the default mode each bar
// shows the levels derived from the previous completed period, so the
// first segment has no levels at all. In developing mode the levels
// follow the running aggregate of the period being formed. Bars before
// the first anchor belong to no period and stay NaN. Woodie reads the
// open of the period the levels apply to, which is why it rejects
// developing mode.
func Pivots(open, high, low, close, anchor []float64, kind PivotKind, developing bool) (*PivotLevels, error) {
	if kind == PivotWoodie && developing {
		return nil, ErrWoodieDeveloping
	}
	if err := sameLen(open, high, low, close, anchor); err != nil {
		return nil, err
	}
	n := len(open)
	lv := newPivotLevels(n)
	var prev, cur pivotBasis
	hasPrev := false
	inSegment := false
	for i := 0; i < n; i++ {
		if truthy(anchor[i]) {
			if inSegment {
				prev = cur
				hasPrev = true
			}
			cur = pivotBasis{open[i], high[i], low[i], close[i]}
			inSegment = true
		} else if inSegment {
			cur.high = math.Max(cur.high, high[i])
			cur.low = math.Min(cur.low, low[i])
			cur.close = close[i]
		} else {
			continue
		}
		if developing {
			lv.set(i, pivotRow(kind, cur, cur.open))
		} else if hasPrev {
			lv.set(i, pivotRow(kind, prev, cur.open))
		}
	}
	return lv, nil
}

// pivotRow evaluates one formula against a period basis. curOpen is the
// open of the period the levels are plotted on; only Woodie uses it.
func pivotRow(kind PivotKind, b pivotBasis, curOpen float64) [11]float64 {
	row := [11]float64{}
	for i := range row {
		row[i] = math.NaN()
	}
	h, l, c := b.high, b.low, b.close
	rng := h - l
	switch kind {
	case PivotTraditional:
		p := (h + l + c) / 3
		row[0] = p
		row[1], row[2] = 2*p-l, 2*p-h
		row[3], row[4] = p+rng, p-rng
		row[5], row[6] = 2*p+(h-2*l), 2*p-(2*h-l)
		row[7], row[8] = 3*p+(h-3*l), 3*p-(3*h-l)
		row[9], row[10] = 4*p+(h-4*l), 4*p-(4*h-l)
	case PivotFibonacci:
		p := (h + l + c) / 3
		row[0] = p
		row[1], row[2] = p+0.382*rng, p-0.382*rng
		row[3], row[4] = p+0.618*rng, p-0.618*rng
		row[5], row[6] = p+rng, p-rng
		row[7], row[8] = p+1.272*rng, p-1.272*rng
		row[9], row[10] = p+1.618*rng, p-1.618*rng
	case PivotWoodie:
		p := (h + l + 2*curOpen) / 4
		row[0] = p
		row[1], row[2] = 2*p-l, 2*p-h
		row[3], row[4] = p+rng, p-rng
		r3 := h + 2*(p-l)
		s3 := l - 2*(h-p)
		row[5], row[6] = r3, s3
		row[7], row[8] = r3+rng, s3-rng
	case PivotClassic:
		p := (h + l + c) / 3
		row[0] = p
		row[1], row[2] = 2*p-l, 2*p-h
		row[3], row[4] = p+rng, p-rng
		row[5], row[6] = p+2*rng, p-2*rng
		row[7], row[8] = p+3*rng, p-3*rng
		row[9], row[10] = p+4*rng, p-4*rng
	case PivotDM:
		var x float64
		switch {
		case c < b.open:
			x = h + 2*l + c
		case c > b.open:
			x = 2*h + l + c
		default:
			x = h + l + 2*c
		}
		row[0] = x / 4
		row[1], row[2] = x/2-l, x/2-h
	case PivotCamarilla:
		row[0] = (h + l + c) / 3
		row[1], row[2] = c+rng*1.1/12, c-rng*1.1/12
		row[3], row[4] = c+rng*1.1/6, c-rng*1.1/6
		row[5], row[6] = c+rng*1.1/4, c-rng*1.1/4
		row[7], row[8] = c+rng*1.1/2, c-rng*1.1/2
		if l != 0 {
			r5 := h / l * c
			row[9], row[10] = r5, 2*c-r5
		}
	}
	return row
}
