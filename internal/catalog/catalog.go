// Package catalog loads YAML indicator-set definitions and compiles them
// into bindings that declare plots on a runtime context. The catalog is
// how a deployment picks which indicators run per symbol without code
// changes.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mohamedkhairy/pineseries/pkg/runtime"
	"github.com/mohamedkhairy/pineseries/pkg/series"
	"github.com/mohamedkhairy/pineseries/pkg/ta"
)

// Entry is one indicator definition in a set.
type Entry struct {
	ID     string                 `yaml:"id"`
	Kind   string                 `yaml:"kind"`
	Title  string                 `yaml:"title"`
	Source string                 `yaml:"source"` // open/high/low/close/hl2/hlc3/ohlc4, default close
	Params map[string]interface{} `yaml:"params"`
}

// Set is a named collection of indicator entries.
type Set struct {
	Name       string  `yaml:"name"`
	Indicators []Entry `yaml:"indicators"`
}

// Binding is a compiled entry: Apply declares the entry's series and plots
// on a context. Apply may fail at wiring time, e.g. VWAP on a volume-less
// feed.
type Binding struct {
	ID    string
	Kind  string
	Apply func(c *runtime.Context) error
}

// kinds every loader accepts. Multi-output kinds plot one id per output,
// suffixed from the entry id.
var kinds = map[string]bool{
	"sma": true, "ema": true, "rma": true, "wma": true,
	"stdev": true, "variance": true, "bb": true,
	"highest": true, "lowest": true, "median": true, "mode": true,
	"percentile_linear": true, "percentile_nearest": true,
	"rci": true, "rsi": true, "macd": true,
	"tr": true, "atr": true, "dmi": true,
	"supertrend": true, "sar": true, "zigzag": true,
	"ichimoku": true, "pivots": true, "vwap": true, "mfi": true,
}

var sources = map[string]bool{
	"": true, "open": true, "high": true, "low": true, "close": true,
	"hl2": true, "hlc3": true, "ohlc4": true,
}

// Load reads and validates a catalog file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates catalog YAML.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks ids, kinds and sources. Parameter ranges are checked by
// Compile, which resolves them.
func (s *Set) Validate() error {
	if len(s.Indicators) == 0 {
		return errors.New("catalog defines no indicators")
	}
	seen := make(map[string]bool, len(s.Indicators))
	for i, e := range s.Indicators {
		if e.ID == "" {
			return fmt.Errorf("indicator %d: missing id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("indicator %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
		if !kinds[e.Kind] {
			return fmt.Errorf("indicator %q: unknown kind %q", e.ID, e.Kind)
		}
		if !sources[strings.ToLower(e.Source)] {
			return fmt.Errorf("indicator %q: unknown source %q", e.ID, e.Source)
		}
	}
	return nil
}

// Compile resolves every entry's parameters and returns the bindings in
// catalog order.
func (s *Set) Compile() ([]Binding, error) {
	bindings := make([]Binding, 0, len(s.Indicators))
	for _, e := range s.Indicators {
		b, err := compile(e)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// Default returns the built-in set used when no catalog file is configured.
func Default() *Set {
	return &Set{
		Name: "default",
		Indicators: []Entry{
			{ID: "sma20", Kind: "sma", Params: map[string]interface{}{"length": 20}},
			{ID: "ema50", Kind: "ema", Params: map[string]interface{}{"length": 50}},
			{ID: "rsi14", Kind: "rsi", Params: map[string]interface{}{"length": 14}},
			{ID: "bb", Kind: "bb", Params: map[string]interface{}{"length": 20, "mult": 2.0}},
			{ID: "macd", Kind: "macd"},
			{ID: "atr14", Kind: "atr", Params: map[string]interface{}{"length": 14}},
		},
	}
}

func compile(e Entry) (Binding, error) {
	p := params{id: e.ID, m: e.Params}
	source := strings.ToLower(e.Source)

	var apply func(c *runtime.Context) error
	var err error

	switch e.Kind {
	case "sma", "ema", "rma", "wma", "stdev", "variance",
		"highest", "lowest", "median", "mode", "rci", "rsi":
		apply, err = compileSingle(e, p, source)

	case "percentile_linear", "percentile_nearest":
		apply, err = compilePercentile(e, p, source)

	case "bb":
		apply, err = compileBB(e, p, source)

	case "macd":
		apply, err = compileMACD(e, p, source)

	case "tr":
		apply = func(c *runtime.Context) error {
			c.Plot(e.ID, c.TR(), runtime.PlotOptions{Title: plotTitle(e, "")})
			return nil
		}

	case "atr", "mfi":
		apply, err = compileLengthOnly(e, p)

	case "dmi":
		apply, err = compileDMI(e, p)

	case "supertrend":
		apply, err = compileSupertrend(e, p)

	case "sar":
		apply, err = compileSAR(e, p)

	case "zigzag":
		apply, err = compileZigZag(e, p)

	case "ichimoku":
		apply, err = compileIchimoku(e, p)

	case "pivots":
		apply, err = compilePivots(e, p)

	case "vwap":
		apply, err = compileVWAP(e, p, source)

	default:
		return Binding{}, fmt.Errorf("indicator %q: unknown kind %q", e.ID, e.Kind)
	}
	if err != nil {
		return Binding{}, err
	}
	return Binding{ID: e.ID, Kind: e.Kind, Apply: apply}, nil
}

func compileSingle(e Entry, p params, source string) (func(*runtime.Context) error, error) {
	length, err := p.intVal("length", 14, 1)
	if err != nil {
		return nil, err
	}
	kind := e.Kind
	return func(c *runtime.Context) error {
		src := sourceSeries(c, source)
		var out *series.Series
		switch kind {
		case "sma":
			out = c.SMA(src, length)
		case "ema":
			out = c.EMA(src, length)
		case "rma":
			out = c.RMA(src, length)
		case "wma":
			out = c.WMA(src, length)
		case "stdev":
			out = c.Stdev(src, length)
		case "variance":
			out = c.Variance(src, length)
		case "highest":
			out = c.Highest(src, length)
		case "lowest":
			out = c.Lowest(src, length)
		case "median":
			out = c.Median(src, length)
		case "mode":
			out = c.Mode(src, length)
		case "rci":
			out = c.RCI(src, length)
		case "rsi":
			out = c.RSI(src, length)
		}
		c.Plot(e.ID, out, runtime.PlotOptions{Title: plotTitle(e, "")})
		return nil
	}, nil
}

func compilePercentile(e Entry, p params, source string) (func(*runtime.Context) error, error) {
	length, err := p.intVal("length", 14, 1)
	if err != nil {
		return nil, err
	}
	pct, err := p.floatRange("percentile", 50, 0, 100)
	if err != nil {
		return nil, err
	}
	nearest := e.Kind == "percentile_nearest"
	return func(c *runtime.Context) error {
		src := sourceSeries(c, source)
		var out *series.Series
		if nearest {
			out = c.PercentileNearestRank(src, length, pct)
		} else {
			out = c.PercentileLinear(src, length, pct)
		}
		c.Plot(e.ID, out, runtime.PlotOptions{Title: plotTitle(e, "")})
		return nil
	}, nil
}

func compileBB(e Entry, p params, source string) (func(*runtime.Context) error, error) {
	length, err := p.intVal("length", 20, 1)
	if err != nil {
		return nil, err
	}
	mult, err := p.floatVal("mult", 2.0, 0)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		basis, upper, lower := c.BB(sourceSeries(c, source), length, mult)
		c.Plot(e.ID+"_basis", basis, runtime.PlotOptions{Title: plotTitle(e, "basis")})
		c.Plot(e.ID+"_upper", upper, runtime.PlotOptions{Title: plotTitle(e, "upper")})
		c.Plot(e.ID+"_lower", lower, runtime.PlotOptions{Title: plotTitle(e, "lower")})
		return nil
	}, nil
}

func compileMACD(e Entry, p params, source string) (func(*runtime.Context) error, error) {
	fast, err := p.intVal("fast", 12, 1)
	if err != nil {
		return nil, err
	}
	slow, err := p.intVal("slow", 26, 1)
	if err != nil {
		return nil, err
	}
	signal, err := p.intVal("signal", 9, 1)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		line, sig, hist := c.MACD(sourceSeries(c, source), fast, slow, signal)
		c.Plot(e.ID+"_line", line, runtime.PlotOptions{Title: plotTitle(e, "line")})
		c.Plot(e.ID+"_signal", sig, runtime.PlotOptions{Title: plotTitle(e, "signal")})
		c.Plot(e.ID+"_hist", hist, runtime.PlotOptions{Title: plotTitle(e, "hist")})
		return nil
	}, nil
}

func compileLengthOnly(e Entry, p params) (func(*runtime.Context) error, error) {
	length, err := p.intVal("length", 14, 1)
	if err != nil {
		return nil, err
	}
	kind := e.Kind
	return func(c *runtime.Context) error {
		var out *series.Series
		if kind == "atr" {
			out = c.ATR(length)
		} else {
			mfi, err := c.MFI(length)
			if err != nil {
				return fmt.Errorf("indicator %q: %w", e.ID, err)
			}
			out = mfi
		}
		c.Plot(e.ID, out, runtime.PlotOptions{Title: plotTitle(e, "")})
		return nil
	}, nil
}

func compileDMI(e Entry, p params) (func(*runtime.Context) error, error) {
	diLength, err := p.intVal("di_length", 14, 1)
	if err != nil {
		return nil, err
	}
	adxLength, err := p.intVal("adx_length", 14, 1)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		plus, minus, adx := c.DMI(diLength, adxLength)
		c.Plot(e.ID+"_plus", plus, runtime.PlotOptions{Title: plotTitle(e, "+DI")})
		c.Plot(e.ID+"_minus", minus, runtime.PlotOptions{Title: plotTitle(e, "-DI")})
		c.Plot(e.ID+"_adx", adx, runtime.PlotOptions{Title: plotTitle(e, "ADX")})
		return nil
	}, nil
}

func compileSupertrend(e Entry, p params) (func(*runtime.Context) error, error) {
	factor, err := p.floatVal("factor", 3.0, 0)
	if err != nil {
		return nil, err
	}
	atrLength, err := p.intVal("atr_length", 10, 1)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		line, dir := c.Supertrend(factor, atrLength)
		c.Plot(e.ID, line, runtime.PlotOptions{Title: plotTitle(e, "")})
		c.Plot(e.ID+"_dir", dir, runtime.PlotOptions{Title: plotTitle(e, "dir")})
		return nil
	}, nil
}

func compileSAR(e Entry, p params) (func(*runtime.Context) error, error) {
	start, err := p.floatVal("start", 0.02, 0)
	if err != nil {
		return nil, err
	}
	inc, err := p.floatVal("inc", 0.02, 0)
	if err != nil {
		return nil, err
	}
	max, err := p.floatVal("max", 0.2, 0)
	if err != nil {
		return nil, err
	}
	if max < start {
		return nil, fmt.Errorf("indicator %q: max must be >= start", e.ID)
	}
	return func(c *runtime.Context) error {
		c.Plot(e.ID, c.SAR(start, inc, max), runtime.PlotOptions{Title: plotTitle(e, "")})
		return nil
	}, nil
}

func compileZigZag(e Entry, p params) (func(*runtime.Context) error, error) {
	deviation, err := p.floatVal("deviation", 5.0, 0)
	if err != nil {
		return nil, err
	}
	backstep, err := p.intVal("backstep", 2, 0)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		values, dir := c.ZigZag(deviation, backstep)
		c.Plot(e.ID, values, runtime.PlotOptions{Title: plotTitle(e, "")})
		c.Plot(e.ID+"_dir", dir, runtime.PlotOptions{Title: plotTitle(e, "dir")})
		return nil
	}, nil
}

func compileIchimoku(e Entry, p params) (func(*runtime.Context) error, error) {
	conversion, err := p.intVal("conversion", 9, 1)
	if err != nil {
		return nil, err
	}
	base, err := p.intVal("base", 26, 1)
	if err != nil {
		return nil, err
	}
	spanB, err := p.intVal("span_b", 52, 1)
	if err != nil {
		return nil, err
	}
	displacement, err := p.intVal("displacement", 26, 0)
	if err != nil {
		return nil, err
	}
	return func(c *runtime.Context) error {
		ich := c.Ichimoku(conversion, base, spanB, displacement)
		c.Plot(e.ID+"_tenkan", ich.Tenkan, runtime.PlotOptions{Title: plotTitle(e, "tenkan")})
		c.Plot(e.ID+"_kijun", ich.Kijun, runtime.PlotOptions{Title: plotTitle(e, "kijun")})
		c.Plot(e.ID+"_senkou_a", ich.SenkouA, runtime.PlotOptions{Title: plotTitle(e, "senkou A")})
		c.Plot(e.ID+"_senkou_b", ich.SenkouB, runtime.PlotOptions{Title: plotTitle(e, "senkou B")})
		c.Plot(e.ID+"_chikou", ich.Chikou, runtime.PlotOptions{Title: plotTitle(e, "chikou")})
		return nil
	}, nil
}

var pivotSuffixes = []string{"p", "r1", "s1", "r2", "s2", "r3", "s3", "r4", "s4", "r5", "s5"}

func compilePivots(e Entry, p params) (func(*runtime.Context) error, error) {
	kindStr, err := p.strVal("kind", "traditional")
	if err != nil {
		return nil, err
	}
	kind, err := ta.ParsePivotKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("indicator %q: %w", e.ID, err)
	}
	developing, err := p.boolVal("developing", false)
	if err != nil {
		return nil, err
	}
	if kind == ta.PivotWoodie && developing {
		return nil, fmt.Errorf("indicator %q: %w", e.ID, ta.ErrWoodieDeveloping)
	}
	anchorStr, err := p.strVal("anchor", "1d")
	if err != nil {
		return nil, err
	}
	anchor, err := parsePeriod(anchorStr)
	if err != nil {
		return nil, fmt.Errorf("indicator %q: %w", e.ID, err)
	}
	return func(c *runtime.Context) error {
		ps, err := c.Pivots(c.AnchorPeriod(anchor), kind, developing)
		if err != nil {
			return fmt.Errorf("indicator %q: %w", e.ID, err)
		}
		levels := []*series.Series{ps.P, ps.R1, ps.S1, ps.R2, ps.S2, ps.R3, ps.S3, ps.R4, ps.S4, ps.R5, ps.S5}
		for i, suffix := range pivotSuffixes {
			c.Plot(e.ID+"_"+suffix, levels[i], runtime.PlotOptions{Title: plotTitle(e, strings.ToUpper(suffix))})
		}
		return nil
	}, nil
}

func compileVWAP(e Entry, p params, source string) (func(*runtime.Context) error, error) {
	anchorStr, err := p.strVal("anchor", "")
	if err != nil {
		return nil, err
	}
	var anchor time.Duration
	if anchorStr != "" {
		anchor, err = parsePeriod(anchorStr)
		if err != nil {
			return nil, fmt.Errorf("indicator %q: %w", e.ID, err)
		}
	}
	return func(c *runtime.Context) error {
		var src *series.Series // nil lets the wrapper default to hlc3
		if source != "" {
			src = sourceSeries(c, source)
		}
		var anchorSeries *series.Series
		if anchor > 0 {
			anchorSeries = c.AnchorPeriod(anchor)
		}
		out, err := c.VWAP(src, anchorSeries)
		if err != nil {
			return fmt.Errorf("indicator %q: %w", e.ID, err)
		}
		c.Plot(e.ID, out, runtime.PlotOptions{Title: plotTitle(e, "")})
		return nil
	}, nil
}

func sourceSeries(c *runtime.Context, source string) *series.Series {
	switch source {
	case "open":
		return c.Open()
	case "high":
		return c.High()
	case "low":
		return c.Low()
	case "hl2":
		return c.HL2()
	case "hlc3":
		return c.HLC3()
	case "ohlc4":
		return c.OHLC4()
	default:
		return c.Close()
	}
}

func plotTitle(e Entry, suffix string) string {
	title := e.Title
	if title == "" {
		title = e.ID
	}
	if suffix == "" {
		return title
	}
	return title + " " + suffix
}

// parsePeriod parses a duration with day and week units on top of the
// standard ones, e.g. "1d", "1w", "4h".
func parsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.ParseFloat(n, 64)
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("bad period %q", s)
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}
	if n, ok := strings.CutSuffix(s, "w"); ok {
		weeks, err := strconv.ParseFloat(n, 64)
		if err != nil || weeks <= 0 {
			return 0, fmt.Errorf("bad period %q", s)
		}
		return time.Duration(weeks * 7 * 24 * float64(time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad period %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("period %q must be positive", s)
	}
	return d, nil
}

// params wraps the raw YAML parameter map with typed, range-checked getters.
type params struct {
	id string
	m  map[string]interface{}
}

func (p params) intVal(key string, def, min int) (int, error) {
	v, ok := p.m[key]
	if !ok {
		return def, nil
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("indicator %q: %s must be an integer, got %v", p.id, key, t)
		}
		n = int(t)
	default:
		return 0, fmt.Errorf("indicator %q: %s must be an integer, got %T", p.id, key, v)
	}
	if n < min {
		return 0, fmt.Errorf("indicator %q: %s must be >= %d, got %d", p.id, key, min, n)
	}
	return n, nil
}

func (p params) floatVal(key string, def, min float64) (float64, error) {
	v, ok := p.m[key]
	if !ok {
		return def, nil
	}
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	default:
		return 0, fmt.Errorf("indicator %q: %s must be a number, got %T", p.id, key, v)
	}
	if f <= min {
		return 0, fmt.Errorf("indicator %q: %s must be > %v, got %v", p.id, key, min, f)
	}
	return f, nil
}

func (p params) floatRange(key string, def, lo, hi float64) (float64, error) {
	v, ok := p.m[key]
	if !ok {
		return def, nil
	}
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	default:
		return 0, fmt.Errorf("indicator %q: %s must be a number, got %T", p.id, key, v)
	}
	if f < lo || f > hi {
		return 0, fmt.Errorf("indicator %q: %s must be in [%v, %v], got %v", p.id, key, lo, hi, f)
	}
	return f, nil
}

func (p params) boolVal(key string, def bool) (bool, error) {
	v, ok := p.m[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("indicator %q: %s must be a boolean, got %T", p.id, key, v)
	}
	return b, nil
}

func (p params) strVal(key string, def string) (string, error) {
	v, ok := p.m[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("indicator %q: %s must be a string, got %T", p.id, key, v)
	}
	return s, nil
}
