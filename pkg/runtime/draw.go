package runtime

import "github.com/google/uuid"

// DrawingKind tags the concrete type of a drawing object.
type DrawingKind string

const (
	DrawingLine     DrawingKind = "line"
	DrawingBox      DrawingKind = "box"
	DrawingLabel    DrawingKind = "label"
	DrawingPolyline DrawingKind = "polyline"
)

// Point anchors a drawing in chart space: bar open time in unix
// milliseconds and a price.
type Point struct {
	Time  int64
	Price float64
}

// Drawing is any chart object tracked by a Context.
type Drawing interface {
	ID() string
	Kind() DrawingKind
}

// Line is a two-point segment.
type Line struct {
	id         string
	Start, End Point
	Color      string
	Width      int
}

func (l *Line) ID() string        { return l.id }
func (l *Line) Kind() DrawingKind { return DrawingLine }

// Box is an axis-aligned rectangle between two corners.
type Box struct {
	id                   string
	TopLeft, BottomRight Point
	Border, Background   string
}

func (b *Box) ID() string        { return b.id }
func (b *Box) Kind() DrawingKind { return DrawingBox }

// Label is a text marker anchored at one point.
type Label struct {
	id    string
	At    Point
	Text  string
	Color string
}

func (l *Label) ID() string        { return l.id }
func (l *Label) Kind() DrawingKind { return DrawingLabel }

// Polyline is an open multi-segment path.
type Polyline struct {
	id     string
	Points []Point
	Color  string
	Width  int
}

func (p *Polyline) ID() string        { return p.id }
func (p *Polyline) Kind() DrawingKind { return DrawingPolyline }

// track appends a drawing, evicting the oldest one once the cap is hit,
// the way chart platforms bound per-script object counts.
func (c *Context) track(d Drawing) {
	if len(c.drawings) >= c.drawingCap {
		copy(c.drawings, c.drawings[1:])
		c.drawings[len(c.drawings)-1] = nil
		c.drawings = c.drawings[:len(c.drawings)-1]
	}
	c.drawings = append(c.drawings, d)
}

// NewLine creates and tracks a line. Returns nil on a disposed context.
func (c *Context) NewLine(start, end Point) *Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	l := &Line{id: uuid.NewString(), Start: start, End: end, Width: 1}
	c.track(l)
	return l
}

// NewBox creates and tracks a box. Returns nil on a disposed context.
func (c *Context) NewBox(topLeft, bottomRight Point) *Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	b := &Box{id: uuid.NewString(), TopLeft: topLeft, BottomRight: bottomRight}
	c.track(b)
	return b
}

// NewLabel creates and tracks a label. Returns nil on a disposed context.
func (c *Context) NewLabel(at Point, text string) *Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	l := &Label{id: uuid.NewString(), At: at, Text: text}
	c.track(l)
	return l
}

// NewPolyline creates and tracks a polyline over a copy of points.
// Returns nil on a disposed context.
func (c *Context) NewPolyline(points ...Point) *Polyline {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	p := &Polyline{id: uuid.NewString(), Points: pts, Width: 1}
	c.track(p)
	return p
}

// DeleteDrawing removes a drawing by id.
func (c *Context) DeleteDrawing(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.drawings {
		if d.ID() == id {
			c.drawings = append(c.drawings[:i], c.drawings[i+1:]...)
			return true
		}
	}
	return false
}

// Drawings returns the tracked drawings, oldest first.
func (c *Context) Drawings() []Drawing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Drawing, len(c.drawings))
	copy(out, c.drawings)
	return out
}
