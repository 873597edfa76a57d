package series

// BarData owns an ordered sequence of bars and a monotonic version counter.
// Every successful mutation bumps the version by exactly one; reads never
// touch it. Series caches key on the version, so a bump is the only thing
// that invalidates the Series graph built on this data.
//
// BarData is single-writer: one producer mutates, any number of Series
// read. Hosts with multiple writer goroutines must serialize mutations
// themselves.
type BarData struct {
	bars     []Bar
	version  uint64
	volCount int
}

// NewBarData creates a store seeded with the given bars at version 0.
func NewBarData(bars ...Bar) *BarData {
	d := &BarData{bars: make([]Bar, len(bars))}
	copy(d.bars, bars)
	for _, b := range d.bars {
		if b.HasVolume() {
			d.volCount++
		}
	}
	return d
}

// Version returns the current mutation counter.
func (d *BarData) Version() uint64 {
	return d.version
}

// Len returns the number of stored bars.
func (d *BarData) Len() int {
	return len(d.bars)
}

// At returns the bar at index i, or (Bar{}, false) out of range.
func (d *BarData) At(i int) (Bar, bool) {
	if i < 0 || i >= len(d.bars) {
		return Bar{}, false
	}
	return d.bars[i], true
}

// Bars returns a copy of the stored bars.
func (d *BarData) Bars() []Bar {
	out := make([]Bar, len(d.bars))
	copy(out, d.bars)
	return out
}

// HasVolume reports whether any stored bar carries a volume figure.
// Maintained incrementally across mutations, not rescanned.
func (d *BarData) HasVolume() bool {
	return d.volCount > 0
}

// Append adds a bar at the end and bumps the version.
func (d *BarData) Append(bar Bar) {
	d.bars = append(d.bars, bar)
	if bar.HasVolume() {
		d.volCount++
	}
	d.version++
}

// RemoveLast removes and returns the last bar. On empty data it is a
// no-op returning (Bar{}, false) and does not bump the version.
func (d *BarData) RemoveLast() (Bar, bool) {
	n := len(d.bars)
	if n == 0 {
		return Bar{}, false
	}
	bar := d.bars[n-1]
	d.bars = d.bars[:n-1]
	if bar.HasVolume() {
		d.volCount--
	}
	d.version++
	return bar, true
}

// Set replaces the bar at index i. Indices outside [0, Len()) are silently
// ignored without a version bump, so invalid input cannot trigger cache
// storms downstream.
func (d *BarData) Set(i int, bar Bar) {
	if i < 0 || i >= len(d.bars) {
		return
	}
	if d.bars[i].HasVolume() {
		d.volCount--
	}
	d.bars[i] = bar
	if bar.HasVolume() {
		d.volCount++
	}
	d.version++
}

// ReplaceLast replaces the most recent bar. Equivalent to Set(Len()-1, bar);
// a no-op on empty data. This is the update path for a developing bar fed
// by live ticks.
func (d *BarData) ReplaceLast(bar Bar) {
	d.Set(len(d.bars)-1, bar)
}

// ReplaceAll swaps the entire bar sequence. Always bumps the version, even
// when the new sequence is empty or equal to the old one.
func (d *BarData) ReplaceAll(bars []Bar) {
	d.bars = make([]Bar, len(bars))
	copy(d.bars, bars)
	d.volCount = 0
	for _, b := range d.bars {
		if b.HasVolume() {
			d.volCount++
		}
	}
	d.version++
}

// Invalidate bumps the version without changing data. Escape hatch for
// callers that mutate bars through side channels the versioning cannot see.
func (d *BarData) Invalidate() {
	d.version++
}
