package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundToMinTick snaps a price to the nearest multiple of minTick.
// Non-positive ticks and NaN prices pass through unchanged.
func RoundToMinTick(price, minTick float64) float64 {
	if minTick <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}
	return math.Round(price/minTick) * minTick
}

// FormatPrice renders a price with the decimal precision implied by
// minTick; NaN renders as "na", the way charts print missing values.
func FormatPrice(price, minTick float64) string {
	if math.IsNaN(price) {
		return "na"
	}
	return strconv.FormatFloat(RoundToMinTick(price, minTick), 'f', tickDecimals(minTick), 64)
}

// FormatPercent renders a ratio as a fixed two-decimal percentage.
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "na"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// RoundToMinTick snaps a price to the context's configured tick.
func (c *Context) RoundToMinTick(price float64) float64 {
	return RoundToMinTick(price, c.minTick)
}

// FormatPrice renders a price with the context's configured tick.
func (c *Context) FormatPrice(price float64) string {
	return FormatPrice(price, c.minTick)
}

// tickDecimals counts the decimal places needed to show one tick.
func tickDecimals(minTick float64) int {
	if minTick <= 0 || minTick >= 1 {
		return 0
	}
	s := strconv.FormatFloat(minTick, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
