package series

import (
	"math"
	"time"
)

// Field names understood by FromField.
const (
	FieldTime   = "time"
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// Bar is a single OHLCV sample, the atomic unit of the input stream.
// A bar stored in a BarData is immutable; mutations replace it wholesale.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64 // NaN when the feed supplies no volume
}

// NewBar creates a bar without volume.
func NewBar(t time.Time, open, high, low, close float64) Bar {
	return Bar{
		Time:   t,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: math.NaN(),
	}
}

// NewBarWithVolume creates a bar carrying a volume figure.
func NewBarWithVolume(t time.Time, open, high, low, close, volume float64) Bar {
	return Bar{
		Time:   t,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// HasVolume reports whether the bar carries a volume figure.
func (b Bar) HasVolume() bool {
	return !math.IsNaN(b.Volume)
}

// Field returns the named scalar of the bar. Time is exposed as Unix
// milliseconds. Unknown field names yield NaN, never an error.
func (b Bar) Field(name string) float64 {
	switch name {
	case FieldTime:
		return float64(b.Time.UnixMilli())
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldClose:
		return b.Close
	case FieldVolume:
		return b.Volume
	default:
		return math.NaN()
	}
}
