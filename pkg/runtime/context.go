// Package runtime hosts the per-script execution context: declared inputs,
// plot and hline declarations, drawing objects, and lazy Series wrappers
// around the pkg/ta algorithms. A Context belongs to exactly one caller;
// nothing in this package is global.
package runtime

import (
	"errors"
	"sync"

	"github.com/mohamedkhairy/pineseries/pkg/series"
	"github.com/mohamedkhairy/pineseries/pkg/ta"
)

var (
	// ErrVolumeRequired is the pkg/ta sentinel, re-exported so callers
	// can match it without importing both packages.
	ErrVolumeRequired = ta.ErrVolumeRequired

	// ErrMixedBarData is returned when a wrapper receives series bound
	// to different bar data; their versions cannot stay coherent.
	ErrMixedBarData = errors.New("series belong to different bar data")

	// ErrDisposed is returned by operations that cannot degrade quietly
	// on a disposed context.
	ErrDisposed = errors.New("context is disposed")
)

const defaultDrawingCap = 50

// Option configures a Context at construction.
type Option func(*Context)

// WithMinTick sets the instrument's minimum price increment, used by the
// formatting helpers. Defaults to 0.01.
func WithMinTick(tick float64) Option {
	return func(c *Context) {
		if tick > 0 {
			c.minTick = tick
		}
	}
}

// WithDrawingCap overrides the per-kind drawing object cap.
func WithDrawingCap(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.drawingCap = n
		}
	}
}

// Context carries everything one script run accumulates. Inputs survive
// Reset; plots, hlines and drawings are per-recalculation state. The
// Context serializes its own registries, but the underlying BarData keeps
// the single-writer contract of pkg/series.
type Context struct {
	mu   sync.RWMutex
	data *series.BarData

	disposed bool
	minTick  float64

	inputs     map[string]*Input
	inputOrder []string
	overrides  map[string]interface{}

	plots      map[string]int // id -> index into plotOrder
	plotOrder  []PlotDecl
	hlines     map[string]int
	hlineOrder []HLineDecl

	drawingCap int
	drawings   []Drawing

	fields map[string]*series.Series
}

// New creates a Context bound to one bar store.
func New(data *series.BarData, opts ...Option) *Context {
	c := &Context{
		data:       data,
		minTick:    0.01,
		inputs:     make(map[string]*Input),
		overrides:  make(map[string]interface{}),
		plots:      make(map[string]int),
		hlines:     make(map[string]int),
		drawingCap: defaultDrawingCap,
		fields:     make(map[string]*series.Series),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Data exposes the bar store the context is bound to.
func (c *Context) Data() *series.BarData { return c.data }

// MinTick reports the configured minimum price increment.
func (c *Context) MinTick() float64 { return c.minTick }

// Reset clears the per-recalculation state: plot and hline declarations
// and drawing objects. Input declarations and host overrides persist, so
// a recalculation sees the same parameterization.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.plots = make(map[string]int)
	c.plotOrder = c.plotOrder[:0]
	c.hlines = make(map[string]int)
	c.hlineOrder = c.hlineOrder[:0]
	c.drawings = c.drawings[:0]
}

// Dispose retires the context: every later registration is a quiet no-op
// and accumulated declarations are released. Reading methods keep working
// on empty state.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.plots = make(map[string]int)
	c.plotOrder = nil
	c.hlines = make(map[string]int)
	c.hlineOrder = nil
	c.drawings = nil
	c.inputs = make(map[string]*Input)
	c.inputOrder = nil
	c.overrides = make(map[string]interface{})
}

// Disposed reports whether Dispose has been called.
func (c *Context) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

// field returns the lazily built, cached field series for the context's
// bar data.
func (c *Context) field(f string) *series.Series {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.fields[f]; ok {
		return s
	}
	s := series.FromField(c.data, f)
	c.fields[f] = s
	return s
}

// Open returns the open-price series.
func (c *Context) Open() *series.Series { return c.field(series.FieldOpen) }

// High returns the high-price series.
func (c *Context) High() *series.Series { return c.field(series.FieldHigh) }

// Low returns the low-price series.
func (c *Context) Low() *series.Series { return c.field(series.FieldLow) }

// Close returns the close-price series.
func (c *Context) Close() *series.Series { return c.field(series.FieldClose) }

// Volume returns the volume series; bars without volume read NaN.
func (c *Context) Volume() *series.Series { return c.field(series.FieldVolume) }

// Time returns the bar open times as unix milliseconds.
func (c *Context) Time() *series.Series { return c.field(series.FieldTime) }

// HL2 returns the bar midpoint series (high+low)/2.
func (c *Context) HL2() *series.Series {
	return series.FromExtractor(c.data, func(b series.Bar, _ int, _ []series.Bar) float64 {
		return (b.High + b.Low) / 2
	})
}

// HLC3 returns the typical price series (high+low+close)/3.
func (c *Context) HLC3() *series.Series {
	return series.FromExtractor(c.data, func(b series.Bar, _ int, _ []series.Bar) float64 {
		return (b.High + b.Low + b.Close) / 3
	})
}

// OHLC4 returns the bar average series (open+high+low+close)/4.
func (c *Context) OHLC4() *series.Series {
	return series.FromExtractor(c.data, func(b series.Bar, _ int, _ []series.Bar) float64 {
		return (b.Open + b.High + b.Low + b.Close) / 4
	})
}
