// Package engine owns per-symbol computation state: bar history, a
// runtime context and the compiled indicator bindings, recomputed on
// every bar event coming off the feed.
package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mohamedkhairy/pineseries/internal/catalog"
	"github.com/mohamedkhairy/pineseries/internal/config"
	"github.com/mohamedkhairy/pineseries/internal/models"
	"github.com/mohamedkhairy/pineseries/pkg/logger"
	"github.com/mohamedkhairy/pineseries/pkg/runtime"
	"github.com/mohamedkhairy/pineseries/pkg/series"
)

var (
	// ErrUnknownSymbol is returned for symbols the engine has no state for.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUnknownPlot is returned for plot ids no binding declares.
	ErrUnknownPlot = errors.New("unknown plot")
)

// PlotInfo describes one declared plot with its display hints flattened
// for the wire.
type PlotInfo struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
	Style string `json:"style,omitempty"`
}

// symbolState is everything the engine tracks for one symbol. Series
// evaluation mutates lazy caches, so reads and writes both go through mu.
type symbolState struct {
	mu   sync.Mutex
	data *series.BarData
	rctx *runtime.Context
	snap models.PlotSnapshot
}

// Engine reacts to bar events by updating per-symbol history and
// recomputing the bound indicator set. One goroutine feeds bar events;
// API and stream layers read concurrently.
type Engine struct {
	cfg        config.EngineConfig
	bindings   []catalog.Binding
	symbols    map[string]*symbolState
	onSnapshot func(models.PlotSnapshot)
	mu         sync.RWMutex
}

// New creates an engine computing the given bindings for every symbol
// the feed delivers.
func New(cfg config.EngineConfig, bindings []catalog.Binding) *Engine {
	return &Engine{
		cfg:      cfg,
		bindings: bindings,
		symbols:  make(map[string]*symbolState),
	}
}

// SetOnSnapshot sets the callback fired after every recalculation with
// the fresh plot snapshot. Used by the stream hub.
func (e *Engine) SetOnSnapshot(fn func(models.PlotSnapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSnapshot = fn
}

// OnBarUpdate applies one bar event: a new bar appends to the symbol's
// history, an amended bar replaces the developing one, and either way the
// indicator set recomputes. Wire this to the aggregator.
func (e *Engine) OnBarUpdate(c models.Candle, isNew bool) {
	st := e.state(c.Symbol)

	st.mu.Lock()
	bar := series.NewBarWithVolume(c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
	kind := "amend"
	if isNew || st.data.Len() == 0 {
		st.data.Append(bar)
		kind = "append"
		e.trim(st)
	} else {
		st.data.ReplaceLast(bar)
	}
	snap := e.recalculate(c.Symbol, st)
	st.mu.Unlock()

	logger.BarsIngested.WithLabelValues(c.Symbol, kind).Inc()

	e.mu.RLock()
	onSnapshot := e.onSnapshot
	e.mu.RUnlock()
	if onSnapshot != nil {
		onSnapshot(snap)
	}
}

// OnBarFinal records that a bar closed. The final print already reached
// history through OnBarUpdate, so this only logs.
func (e *Engine) OnBarFinal(c models.Candle) {
	logger.Debug("bar closed",
		logger.String("symbol", c.Symbol),
		logger.Time("bar", c.Timestamp),
		logger.Float64("close", c.Close),
	)
}

// Symbols returns the symbols with state, sorted.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.symbols))
	for s := range e.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the latest plot snapshot for a symbol.
func (e *Engine) Snapshot(symbol string) (models.PlotSnapshot, error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return models.PlotSnapshot{}, ErrUnknownSymbol
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snap, nil
}

// Plots returns the plot declarations for a symbol in declaration order.
func (e *Engine) Plots(symbol string) ([]PlotInfo, error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	decls := st.rctx.Plots()
	out := make([]PlotInfo, len(decls))
	for i, d := range decls {
		out[i] = PlotInfo{
			ID:    d.ID,
			Title: d.Options.Title,
			Color: d.Options.Color,
			Width: d.Options.Width,
			Style: d.Options.Style,
		}
	}
	return out, nil
}

// PlotValues returns the full bar times and values of one plot.
func (e *Engine) PlotValues(symbol, plotID string) (times []int64, values []float64, err error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return nil, nil, ErrUnknownSymbol
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, decl := range st.rctx.Plots() {
		if decl.ID != plotID {
			continue
		}
		src := decl.Series.ToArray()
		values = make([]float64, len(src))
		copy(values, src)
		bars := st.data.Bars()
		times = make([]int64, len(bars))
		for i, b := range bars {
			times[i] = b.Time.UnixMilli()
		}
		return times, values, nil
	}
	return nil, nil, ErrUnknownPlot
}

// History returns the symbol's bar history as candles.
func (e *Engine) History(symbol string) ([]models.Candle, error) {
	st, ok := e.lookup(symbol)
	if !ok {
		return nil, ErrUnknownSymbol
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	bars := st.data.Bars()
	out := make([]models.Candle, len(bars))
	for i, b := range bars {
		out[i] = models.Candle{
			Symbol:    symbol,
			Timestamp: b.Time,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return out, nil
}

func (e *Engine) lookup(symbol string) (*symbolState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.symbols[symbol]
	return st, ok
}

func (e *Engine) state(symbol string) *symbolState {
	e.mu.RLock()
	st, ok := e.symbols[symbol]
	e.mu.RUnlock()
	if ok {
		return st
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.symbols[symbol]; ok {
		return st
	}
	data := series.NewBarData()
	opts := []runtime.Option{}
	if e.cfg.MinTick > 0 {
		opts = append(opts, runtime.WithMinTick(e.cfg.MinTick))
	}
	st = &symbolState{
		data: data,
		rctx: runtime.New(data, opts...),
	}
	e.symbols[symbol] = st
	logger.Info("tracking symbol", logger.String("symbol", symbol))
	return st
}

// trim drops the oldest bars once history exceeds the configured cap.
// Caller holds st.mu.
func (e *Engine) trim(st *symbolState) {
	if e.cfg.MaxBars <= 0 || st.data.Len() <= e.cfg.MaxBars {
		return
	}
	bars := st.data.Bars()
	st.data.ReplaceAll(bars[len(bars)-e.cfg.MaxBars:])
}

// recalculate re-runs the bindings and captures a snapshot of every
// plot's last value. Caller holds st.mu.
func (e *Engine) recalculate(symbol string, st *symbolState) models.PlotSnapshot {
	start := time.Now()

	st.rctx.Reset()
	for _, b := range e.bindings {
		if err := b.Apply(st.rctx); err != nil {
			logger.Warn("indicator binding failed",
				logger.String("symbol", symbol),
				logger.String("indicator", b.ID),
				logger.ErrorField(err),
			)
			logger.ErrorsTotal.WithLabelValues("engine", "binding").Inc()
		}
	}

	values := make(map[string]models.NullFloat)
	for _, decl := range st.rctx.Plots() {
		values[decl.ID] = models.NullFloat(decl.Series.Last())
	}

	var timeMs int64
	if last, ok := st.data.At(st.data.Len() - 1); ok {
		timeMs = last.Time.UnixMilli()
	}
	st.snap = models.PlotSnapshot{
		Type:   "snapshot",
		Symbol: symbol,
		TimeMs: timeMs,
		Values: values,
	}

	logger.Recalculations.WithLabelValues(symbol).Inc()
	logger.RecalcDuration.WithLabelValues(symbol).Observe(time.Since(start).Seconds())
	return st.snap
}
