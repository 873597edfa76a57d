package series

import "math"

// opKind tags a node in the compute graph. Nodes hold operand references
// plus a tag instead of opaque closures so that evaluation order, cache
// scope and Materialize are auditable, and so that deep operator chains
// never grow the call stack.
type opKind uint8

const (
	opExtract opKind = iota
	opConst
	opArray
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opNeg
	opGt
	opGte
	opLt
	opLte
	opEq
	opNeq
	opAnd
	opOr
	opNot
	opOffset
	opTransform
)

// Extractor computes one scalar per bar. It must be pure and must treat
// the bars slice as read-only.
type Extractor func(bar Bar, index int, bars []Bar) float64

// TransformFunc computes a whole output column from operand columns. It
// must be pure; the engine pads or truncates its result to the bar count,
// filling with NaN.
type TransformFunc func(cols [][]float64) []float64

// Series is one node of a lazy compute graph over a BarData. Values are
// computed on demand, cached, and keyed to the BarData version: while the
// data does not mutate, ToArray returns the identical slice with no
// recomputation; after any mutation the next read recomputes.
//
// Combinators never fail. Every edge case — division by zero, history
// offset out of range, operand column too short — degrades to NaN, keeping
// composed pipelines total.
type Series struct {
	data     *BarData
	kind     opKind
	operands []*Series

	// op payloads, one of which is set depending on kind
	shift     int
	constant  float64
	snapshot  []float64
	extract   Extractor
	transform TransformFunc

	cache      []float64
	cachedVers uint64
	cacheValid bool
}

// Operand is a value usable on either side of a combinator: a fixed scalar
// or another Series. The choice is resolved once when the node is built,
// not per element.
type Operand interface {
	operandNode(d *BarData) *Series
}

// Num is a scalar operand.
type Num float64

func (n Num) operandNode(d *BarData) *Series {
	return Constant(d, float64(n))
}

func (s *Series) operandNode(_ *BarData) *Series {
	return s
}

// FromField creates a Series reading the named bar field (open, high, low,
// close, volume, time). Unknown names produce all-NaN values, not errors.
func FromField(d *BarData, field string) *Series {
	return &Series{
		data: d,
		kind: opExtract,
		extract: func(bar Bar, _ int, _ []Bar) float64 {
			return bar.Field(field)
		},
	}
}

// FromExtractor creates a Series computed by fn for every bar.
func FromExtractor(d *BarData, fn Extractor) *Series {
	return &Series{data: d, kind: opExtract, extract: fn}
}

// Constant creates a Series holding the same value at every bar index.
func Constant(d *BarData, value float64) *Series {
	return &Series{data: d, kind: opConst, constant: value}
}

// FromArray creates an array-backed Series. Indices past the end of values
// read NaN; the array is copied, not aliased.
func FromArray(d *BarData, values []float64) *Series {
	snap := make([]float64, len(values))
	copy(snap, values)
	return &Series{data: d, kind: opArray, snapshot: snap}
}

// Transform lifts a whole-array function onto the graph: the node evaluates
// fn over its operands' computed columns each time the data version moves.
// All operands must be built over d.
func Transform(d *BarData, fn TransformFunc, operands ...*Series) *Series {
	ops := make([]*Series, len(operands))
	copy(ops, operands)
	return &Series{data: d, kind: opTransform, transform: fn, operands: ops}
}

func (s *Series) binary(kind opKind, o Operand) *Series {
	return &Series{
		data:     s.data,
		kind:     kind,
		operands: []*Series{s, o.operandNode(s.data)},
	}
}

func (s *Series) unary(kind opKind) *Series {
	return &Series{data: s.data, kind: kind, operands: []*Series{s}}
}

// Add returns s + o per bar.
func (s *Series) Add(o Operand) *Series { return s.binary(opAdd, o) }

// Sub returns s - o per bar.
func (s *Series) Sub(o Operand) *Series { return s.binary(opSub, o) }

// Mul returns s * o per bar.
func (s *Series) Mul(o Operand) *Series { return s.binary(opMul, o) }

// Div returns s / o per bar; division by zero yields NaN.
func (s *Series) Div(o Operand) *Series { return s.binary(opDiv, o) }

// Mod returns the floating-point remainder of s / o; modulo by zero yields NaN.
func (s *Series) Mod(o Operand) *Series { return s.binary(opMod, o) }

// Neg returns -s per bar.
func (s *Series) Neg() *Series { return s.unary(opNeg) }

// Gt returns 1 where s > o, 0 where not, NaN where either side is NaN.
func (s *Series) Gt(o Operand) *Series { return s.binary(opGt, o) }

// Gte returns 1 where s >= o, 0 where not, NaN where either side is NaN.
func (s *Series) Gte(o Operand) *Series { return s.binary(opGte, o) }

// Lt returns 1 where s < o, 0 where not, NaN where either side is NaN.
func (s *Series) Lt(o Operand) *Series { return s.binary(opLt, o) }

// Lte returns 1 where s <= o, 0 where not, NaN where either side is NaN.
func (s *Series) Lte(o Operand) *Series { return s.binary(opLte, o) }

// Eq returns 1 where s == o, 0 where not, NaN where either side is NaN.
func (s *Series) Eq(o Operand) *Series { return s.binary(opEq, o) }

// Neq returns 1 where s != o, 0 where not, NaN where either side is NaN.
func (s *Series) Neq(o Operand) *Series { return s.binary(opNeq, o) }

// And returns 1 where both sides are truthy (non-zero), 0 where not, NaN
// where either side is NaN.
func (s *Series) And(o Operand) *Series { return s.binary(opAnd, o) }

// Or returns 1 where either side is truthy (non-zero), 0 where not, NaN
// where either side is NaN.
func (s *Series) Or(o Operand) *Series { return s.binary(opOr, o) }

// Not returns 1 where s is zero, 0 where non-zero, NaN where s is NaN.
func (s *Series) Not() *Series { return s.unary(opNot) }

// Offset returns the series shifted by k bars: index i reads index i-k of
// s. Indices before k (or past the end for negative k, which references
// the future) read NaN — out-of-range history is never an error.
func (s *Series) Offset(k int) *Series {
	return &Series{data: s.data, kind: opOffset, shift: k, operands: []*Series{s}}
}

// ToArray returns the per-bar values, recomputing only if the data version
// moved since the last computation. For a fixed version the identical slice
// is returned every call; treat it as read-only.
func (s *Series) ToArray() []float64 {
	if s.cacheValid && s.cachedVers == s.data.version {
		return s.cache
	}
	s.eval()
	return s.cache
}

// Get returns the value at bar index i, NaN out of range.
func (s *Series) Get(i int) float64 {
	arr := s.ToArray()
	if i < 0 || i >= len(arr) {
		return math.NaN()
	}
	return arr[i]
}

// Last returns the value at the most recent bar, NaN on empty data.
func (s *Series) Last() float64 {
	arr := s.ToArray()
	if len(arr) == 0 {
		return math.NaN()
	}
	return arr[len(arr)-1]
}

// Len returns the current bar count of the underlying data.
func (s *Series) Len() int {
	return s.data.Len()
}

// Data returns the BarData the series is built over.
func (s *Series) Data() *BarData {
	return s.data
}

// Materialize snapshots the current values into a flat array-backed Series.
// Composition on the result costs O(1) per combinator regardless of how deep
// the original chain was. Indices past the captured length read NaN until
// re-materialized.
func (s *Series) Materialize() *Series {
	return FromArray(s.data, s.ToArray())
}

// Invalidate discards the cache of this node and its whole operand subgraph.
// Escape hatch paired with BarData.Invalidate for side-channel mutations.
func (s *Series) Invalidate() {
	stack := []*Series{s}
	seen := map[*Series]struct{}{}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		n.cacheValid = false
		n.cache = nil
		stack = append(stack, n.operands...)
	}
}

// eval recomputes this node and any stale nodes beneath it in dependency
// order, using an explicit stack so chain depth never grows the call stack.
// Each node caches against its own data's version, so shared subtrees are
// computed once.
func (s *Series) eval() {
	type frame struct {
		node     *Series
		expanded bool
	}
	stack := []frame{{node: s}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if n.cacheValid && n.cachedVers == n.data.version {
			continue
		}
		if !f.expanded {
			stack = append(stack, frame{node: n, expanded: true})
			for _, op := range n.operands {
				stack = append(stack, frame{node: op})
			}
			continue
		}
		n.compute()
	}
}

// compute fills the cache of a node whose operands are already computed.
func (n *Series) compute() {
	bars := n.data.bars
	out := make([]float64, len(bars))

	switch n.kind {
	case opExtract:
		for i, b := range bars {
			out[i] = n.extract(b, i, bars)
		}
	case opConst:
		for i := range out {
			out[i] = n.constant
		}
	case opArray:
		for i := range out {
			if i < len(n.snapshot) {
				out[i] = n.snapshot[i]
			} else {
				out[i] = math.NaN()
			}
		}
	case opOffset:
		src := n.operands[0].cache
		for i := range out {
			j := i - n.shift
			if j < 0 || j >= len(src) {
				out[i] = math.NaN()
			} else {
				out[i] = src[j]
			}
		}
	case opTransform:
		cols := make([][]float64, len(n.operands))
		for i, op := range n.operands {
			cols[i] = op.cache
		}
		res := n.transform(cols)
		for i := range out {
			if i < len(res) {
				out[i] = res[i]
			} else {
				out[i] = math.NaN()
			}
		}
	case opNeg:
		src := n.operands[0].cache
		for i := range out {
			out[i] = -colAt(src, i)
		}
	case opNot:
		src := n.operands[0].cache
		for i := range out {
			v := colAt(src, i)
			if math.IsNaN(v) {
				out[i] = math.NaN()
			} else if v == 0 {
				out[i] = 1
			} else {
				out[i] = 0
			}
		}
	default:
		a := n.operands[0].cache
		b := n.operands[1].cache
		for i := range out {
			out[i] = applyBinary(n.kind, colAt(a, i), colAt(b, i))
		}
	}

	n.cache = out
	n.cachedVers = n.data.version
	n.cacheValid = true
}

// colAt reads a computed column with NaN padding past its end. Operand
// columns can be shorter than the bar count when graphs mix data stores.
func colAt(col []float64, i int) float64 {
	if i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

func applyBinary(kind opKind, a, b float64) float64 {
	switch kind {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		if b == 0 {
			return math.NaN()
		}
		return a / b
	case opMod:
		// math.Mod already yields NaN for a zero divisor
		return math.Mod(a, b)
	}

	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}

	truthy := func(ok bool) float64 {
		if ok {
			return 1
		}
		return 0
	}
	switch kind {
	case opGt:
		return truthy(a > b)
	case opGte:
		return truthy(a >= b)
	case opLt:
		return truthy(a < b)
	case opLte:
		return truthy(a <= b)
	case opEq:
		return truthy(a == b)
	case opNeq:
		return truthy(a != b)
	case opAnd:
		return truthy(a != 0 && b != 0)
	case opOr:
		return truthy(a != 0 || b != 0)
	}
	return math.NaN()
}
