// Package models holds the wire-level types shared by the feed, engine,
// API and stream layers: ticks, candles and the JSON frames that cross
// process boundaries. Not-available values travel as NaN inside the
// process and as null on the wire.
package models

import (
	"encoding/json"
	"math"
	"time"
)

// Tick is a single trade print from a market data feed.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate validates a Tick.
func (t *Tick) Validate() error {
	if t.Symbol == "" {
		return ErrInvalidSymbol
	}
	if t.Price <= 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return ErrInvalidPrice
	}
	if t.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// Candle is one finished OHLCV row, the unit of replay files and CLI input.
// Volume may be NaN when the source carries none.
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate validates a Candle.
func (c *Candle) Validate() error {
	if c.Symbol == "" {
		return ErrInvalidSymbol
	}
	if c.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if c.High < c.Low {
		return ErrInvalidCandle
	}
	if !math.IsNaN(c.Volume) && c.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// TickFrame is the inbound JSON message shape of the websocket feed.
type TickFrame struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Size   int64   `json:"size"`
	TimeMs int64   `json:"time"` // unix milliseconds
}

// Validate validates a TickFrame.
func (f *TickFrame) Validate() error {
	if f.Type != "tick" {
		return ErrUnknownFrame
	}
	if f.Symbol == "" {
		return ErrInvalidSymbol
	}
	if f.Price <= 0 || math.IsNaN(f.Price) || math.IsInf(f.Price, 0) {
		return ErrInvalidPrice
	}
	if f.TimeMs <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// Tick converts the frame into a Tick.
func (f *TickFrame) Tick() *Tick {
	return &Tick{
		Symbol:    f.Symbol,
		Price:     f.Price,
		Size:      f.Size,
		Timestamp: time.UnixMilli(f.TimeMs).UTC(),
	}
}

// SubscribeFrame is the outbound subscription request of the websocket feed.
type SubscribeFrame struct {
	Action  string   `json:"action"` // "subscribe" or "unsubscribe"
	Symbols []string `json:"symbols"`
}

// CandleFrame is the outbound JSON shape of a candle. Volume goes
// through NullFloat because a NaN volume must leave as null, not break
// the encoder.
type CandleFrame struct {
	Symbol string    `json:"symbol"`
	TimeMs int64     `json:"time"` // unix milliseconds
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume NullFloat `json:"volume"`
}

// Frame converts the candle for JSON transport.
func (c *Candle) Frame() CandleFrame {
	return CandleFrame{
		Symbol: c.Symbol,
		TimeMs: c.Timestamp.UnixMilli(),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: NullFloat(c.Volume),
	}
}

// PlotSnapshot is one recalculation's worth of plot values for a symbol,
// broadcast to stream subscribers after every bar event.
type PlotSnapshot struct {
	Type   string               `json:"type"` // "snapshot"
	Symbol string               `json:"symbol"`
	TimeMs int64                `json:"time"` // bar time, unix milliseconds
	Values map[string]NullFloat `json:"values"`
}

// NullFloat is a float64 that encodes NaN (and infinities) as JSON null,
// matching how not-available values leave the engine.
type NullFloat float64

// MarshalJSON implements json.Marshaler.
func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes back to NaN.
func (f *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}

// NullFloats converts a raw values column for JSON transport.
func NullFloats(src []float64) []NullFloat {
	out := make([]NullFloat, len(src))
	for i, v := range src {
		out[i] = NullFloat(v)
	}
	return out
}
