package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/pineseries/internal/models"
)

// Replay replays candles from a CSV file as ticks. Each candle becomes
// four ticks in open/high/low/close order so an aggregator folding them
// reconstructs the original bar exactly; the candle's volume rides on the
// close tick. The tick channel closes when the file is exhausted, which is
// how backtest consumers detect end of data.
type Replay struct {
	path       string
	candles    []models.Candle
	connected  bool
	subscribed map[string]bool
	tickChan   chan *models.Tick
	mu         sync.RWMutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewReplay creates a replay provider for the given CSV file.
func NewReplay(path string) *Replay {
	return &Replay{
		path:       path,
		subscribed: make(map[string]bool),
		tickChan:   make(chan *models.Tick, 256),
	}
}

// Connect loads the replay file.
func (r *Replay) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return ErrAlreadyConnected
	}
	candles, err := LoadCSV(r.path)
	if err != nil {
		return fmt.Errorf("failed to load replay file: %w", err)
	}
	r.candles = candles
	r.connected = true
	return nil
}

// Subscribe implements Provider. Candles for symbols outside the
// subscription are skipped.
func (r *Replay) Subscribe(ctx context.Context, symbols []string) (<-chan *models.Tick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return nil, ErrNotConnected
	}
	for _, symbol := range symbols {
		if symbol == "" {
			return nil, ErrInvalidSymbol
		}
		r.subscribed[symbol] = true
	}

	if r.cancel == nil {
		ctx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		r.wg.Add(1)
		go r.emit(ctx)
	}

	return r.tickChan, nil
}

// Unsubscribe implements Provider.
func (r *Replay) Unsubscribe(ctx context.Context, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return ErrNotConnected
	}
	for _, symbol := range symbols {
		delete(r.subscribed, symbol)
	}
	return nil
}

// Close implements Provider.
func (r *Replay) Close() error {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return nil
	}
	r.connected = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.closeOnce.Do(func() { close(r.tickChan) })
	return nil
}

// IsConnected implements Provider.
func (r *Replay) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// Name implements Provider.
func (r *Replay) Name() string {
	return "replay"
}

func (r *Replay) emit(ctx context.Context) {
	defer r.wg.Done()
	defer r.closeOnce.Do(func() { close(r.tickChan) })

	r.mu.RLock()
	candles := r.candles
	subscribed := make(map[string]bool, len(r.subscribed))
	for s := range r.subscribed {
		subscribed[s] = true
	}
	r.mu.RUnlock()

	for _, c := range candles {
		if !subscribed[c.Symbol] {
			continue
		}
		for _, tick := range explode(c) {
			select {
			case r.tickChan <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}

// explode turns a candle into four ticks whose fold reproduces it: the
// open arrives first, the close last, so first/max/min/last recover
// open/high/low/close. Volume rides on the close tick; a NaN volume
// yields zero-size ticks, which the aggregator reads as no volume data.
func explode(c models.Candle) []*models.Tick {
	var closeSize int64
	if !math.IsNaN(c.Volume) {
		closeSize = int64(c.Volume)
	}
	return []*models.Tick{
		{Symbol: c.Symbol, Price: c.Open, Timestamp: c.Timestamp},
		{Symbol: c.Symbol, Price: c.High, Timestamp: c.Timestamp},
		{Symbol: c.Symbol, Price: c.Low, Timestamp: c.Timestamp},
		{Symbol: c.Symbol, Price: c.Close, Size: closeSize, Timestamp: c.Timestamp},
	}
}

// LoadCSV reads candles from a CSV file. The header must name symbol,
// timestamp, open, high, low and close columns; a volume column is
// optional and an empty cell means no volume (NaN). Timestamps are
// RFC3339 or unix milliseconds.
func LoadCSV(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "timestamp", "open", "high", "low", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}
	volCol, hasVol := col["volume"]

	candles := make([]models.Candle, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		ts, err := parseTimestamp(row[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, rowNum+2, err)
		}
		c := models.Candle{
			Symbol:    strings.TrimSpace(row[col["symbol"]]),
			Timestamp: ts,
			Volume:    math.NaN(),
		}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col[f.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad %s: %w", path, rowNum+2, f.name, err)
			}
			*f.dst = v
		}
		if hasVol {
			cell := strings.TrimSpace(row[volCol])
			if cell != "" {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%s row %d: bad volume: %w", path, rowNum+2, err)
				}
				c.Volume = v
			}
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, rowNum+2, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q (want RFC3339 or unix milliseconds)", s)
}
