package feed

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/mohamedkhairy/pineseries/internal/models"
)

// ErrTickOutOfOrder is returned for ticks older than the live bar.
var ErrTickOutOfOrder = errors.New("tick is older than the live bar")

// Aggregator folds ticks into fixed-interval developing bars, one live bar
// per symbol. The first tick of an interval opens a new bar and finalizes
// the previous one; further ticks extend the live bar. Volume stays NaN
// until a tick carries size, so volume-less feeds produce volume-less bars.
//
// Process is meant to be called from one goroutine per feed; callbacks run
// on that goroutine, bar-final before the update that triggered it.
type Aggregator struct {
	interval time.Duration
	live     map[string]*models.Candle
	onUpdate func(candle models.Candle, isNew bool)
	onFinal  func(candle models.Candle)
	mu       sync.RWMutex
}

// NewAggregator creates an aggregator with the given bar interval.
func NewAggregator(interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Aggregator{
		interval: interval,
		live:     make(map[string]*models.Candle),
	}
}

// SetOnBarUpdate sets the callback fired after every processed tick with a
// copy of the live bar. isNew is true when the tick opened the bar.
func (a *Aggregator) SetOnBarUpdate(fn func(candle models.Candle, isNew bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = fn
}

// SetOnBarFinal sets the callback fired when a bar's interval ends.
func (a *Aggregator) SetOnBarFinal(fn func(candle models.Candle)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFinal = fn
}

// Process folds one tick. Ticks older than the live bar are rejected.
func (a *Aggregator) Process(tick *models.Tick) error {
	if err := tick.Validate(); err != nil {
		return err
	}
	bucket := tick.Timestamp.Truncate(a.interval)

	a.mu.Lock()
	cur := a.live[tick.Symbol]
	var final *models.Candle
	isNew := false

	switch {
	case cur == nil || bucket.After(cur.Timestamp):
		if cur != nil {
			done := *cur
			final = &done
		}
		cur = &models.Candle{
			Symbol:    tick.Symbol,
			Timestamp: bucket,
			Open:      tick.Price,
			High:      tick.Price,
			Low:       tick.Price,
			Close:     tick.Price,
			Volume:    math.NaN(),
		}
		if tick.Size > 0 {
			cur.Volume = float64(tick.Size)
		}
		a.live[tick.Symbol] = cur
		isNew = true

	case bucket.Before(cur.Timestamp):
		a.mu.Unlock()
		return ErrTickOutOfOrder

	default:
		if tick.Price > cur.High {
			cur.High = tick.Price
		}
		if tick.Price < cur.Low {
			cur.Low = tick.Price
		}
		cur.Close = tick.Price
		if tick.Size > 0 {
			if math.IsNaN(cur.Volume) {
				cur.Volume = float64(tick.Size)
			} else {
				cur.Volume += float64(tick.Size)
			}
		}
	}

	snapshot := *cur
	onUpdate := a.onUpdate
	onFinal := a.onFinal
	a.mu.Unlock()

	if final != nil && onFinal != nil {
		onFinal(*final)
	}
	if onUpdate != nil {
		onUpdate(snapshot, isNew)
	}
	return nil
}

// Live returns a copy of the developing bar for a symbol.
func (a *Aggregator) Live(symbol string) (models.Candle, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cur, ok := a.live[symbol]
	if !ok {
		return models.Candle{}, false
	}
	return *cur, true
}

// Flush finalizes every live bar. Call when the feed ends (replay
// exhaustion, shutdown) so the last developing bars are not lost.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	finals := make([]models.Candle, 0, len(a.live))
	for _, cur := range a.live {
		finals = append(finals, *cur)
	}
	a.live = make(map[string]*models.Candle)
	onFinal := a.onFinal
	a.mu.Unlock()

	if onFinal == nil {
		return
	}
	for _, c := range finals {
		onFinal(c)
	}
}
