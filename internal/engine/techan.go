package engine

import (
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/pineseries/pkg/series"
)

// ToTimeSeries converts bar history into a techan.TimeSeries so callers
// can run techan analysis or strategies against the same feed. Volume-less
// bars carry a zero volume because big.Decimal has no NaN.
func ToTimeSeries(d *series.BarData, interval time.Duration) *techan.TimeSeries {
	ts := techan.NewTimeSeries()
	for _, b := range d.Bars() {
		period := techan.NewTimePeriod(b.Time, interval)
		candle := techan.NewCandle(period)
		candle.OpenPrice = big.NewDecimal(b.Open)
		candle.MaxPrice = big.NewDecimal(b.High)
		candle.MinPrice = big.NewDecimal(b.Low)
		candle.ClosePrice = big.NewDecimal(b.Close)
		if b.HasVolume() {
			candle.Volume = big.NewDecimal(b.Volume)
		}
		ts.AddCandle(candle)
	}
	return ts
}

// TimeSeries converts one symbol's history for techan consumers. The
// conversion copies; later bar events do not mutate the returned series.
func (e *Engine) TimeSeries(symbol string, interval time.Duration) (*techan.TimeSeries, error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return ToTimeSeries(st.data, interval), nil
}
