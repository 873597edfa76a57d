package runtime

import "github.com/mohamedkhairy/pineseries/pkg/series"

// PlotOptions carries display hints for a plot declaration. The engine
// never interprets them; they ride along to whatever host renders plots.
type PlotOptions struct {
	Title string
	Color string
	Width int
	Style string // "line", "histogram", "circles", ...
}

// PlotDecl is one declared plot: an id, the series to render and options.
type PlotDecl struct {
	ID      string
	Series  *series.Series
	Options PlotOptions
}

// HLineOptions carries display hints for a horizontal line.
type HLineOptions struct {
	Title string
	Color string
	Style string
}

// HLineDecl is one declared horizontal reference line.
type HLineDecl struct {
	ID      string
	Value   float64
	Options HLineOptions
}

// Plot declares a rendered series. Declaring the same id again within a
// recalculation replaces the earlier declaration in place, keeping its
// position in the plot order.
func (c *Context) Plot(id string, s *series.Series, opts PlotOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if i, ok := c.plots[id]; ok {
		c.plotOrder[i] = PlotDecl{ID: id, Series: s, Options: opts}
		return
	}
	c.plots[id] = len(c.plotOrder)
	c.plotOrder = append(c.plotOrder, PlotDecl{ID: id, Series: s, Options: opts})
}

// HLine declares a horizontal line, idempotent per id like Plot.
func (c *Context) HLine(id string, value float64, opts HLineOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if i, ok := c.hlines[id]; ok {
		c.hlineOrder[i] = HLineDecl{ID: id, Value: value, Options: opts}
		return
	}
	c.hlines[id] = len(c.hlineOrder)
	c.hlineOrder = append(c.hlineOrder, HLineDecl{ID: id, Value: value, Options: opts})
}

// Plots returns the declarations in declaration order. The slice is a
// copy; the declarations inside are shared and must not be mutated.
func (c *Context) Plots() []PlotDecl {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PlotDecl, len(c.plotOrder))
	copy(out, c.plotOrder)
	return out
}

// HLines returns the horizontal-line declarations in declaration order.
func (c *Context) HLines() []HLineDecl {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HLineDecl, len(c.hlineOrder))
	copy(out, c.hlineOrder)
	return out
}
