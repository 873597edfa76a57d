package runtime

// InputType tags the declared type of a script input.
type InputType int

const (
	InputTypeFloat InputType = iota
	InputTypeInt
	InputTypeBool
	InputTypeString
)

func (t InputType) String() string {
	switch t {
	case InputTypeFloat:
		return "float"
	case InputTypeInt:
		return "int"
	case InputTypeBool:
		return "bool"
	case InputTypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Input is one declared script parameter. Declarations are idempotent
// per id: the first call fixes the metadata and default, later calls with
// the same id return the stored declaration's current value.
type Input struct {
	ID      string
	Type    InputType
	Title   string
	Default interface{}
}

// InputOption annotates a declaration.
type InputOption func(*Input)

// WithTitle sets a display title for an input.
func WithTitle(title string) InputOption {
	return func(in *Input) { in.Title = title }
}

// declareInput registers an input once and resolves its current value,
// applying any host override with loose numeric coercion.
func (c *Context) declareInput(id string, typ InputType, def interface{}, opts ...InputOption) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return def
	}
	in, ok := c.inputs[id]
	if !ok {
		in = &Input{ID: id, Type: typ, Default: def}
		for _, opt := range opts {
			opt(in)
		}
		c.inputs[id] = in
		c.inputOrder = append(c.inputOrder, id)
	}
	if ov, ok := c.overrides[id]; ok {
		if v, ok := coerce(ov, in.Type); ok {
			return v
		}
	}
	return in.Default
}

// InputFloat declares a float input and returns its effective value.
func (c *Context) InputFloat(id string, def float64, opts ...InputOption) float64 {
	v := c.declareInput(id, InputTypeFloat, def, opts...)
	return v.(float64)
}

// InputInt declares an int input and returns its effective value.
func (c *Context) InputInt(id string, def int, opts ...InputOption) int {
	v := c.declareInput(id, InputTypeInt, def, opts...)
	return v.(int)
}

// InputBool declares a bool input and returns its effective value.
func (c *Context) InputBool(id string, def bool, opts ...InputOption) bool {
	v := c.declareInput(id, InputTypeBool, def, opts...)
	return v.(bool)
}

// InputString declares a string input and returns its effective value.
func (c *Context) InputString(id string, def string, opts ...InputOption) string {
	v := c.declareInput(id, InputTypeString, def, opts...)
	return v.(string)
}

// SetInput stores a host override for an input id. Overrides survive
// Reset and may be stored before the input is declared; a value that
// cannot coerce to the declared type is ignored at read time.
func (c *Context) SetInput(id string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.overrides[id] = value
	return nil
}

// ClearInput removes a host override.
func (c *Context) ClearInput(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.overrides, id)
}

// Inputs returns the declarations in declaration order.
func (c *Context) Inputs() []Input {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Input, 0, len(c.inputOrder))
	for _, id := range c.inputOrder {
		out = append(out, *c.inputs[id])
	}
	return out
}

// coerce converts an override to the declared input type. Numeric types
// coerce into each other; everything else must match exactly.
func coerce(v interface{}, typ InputType) (interface{}, bool) {
	switch typ {
	case InputTypeFloat:
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		}
	case InputTypeInt:
		switch x := v.(type) {
		case int:
			return x, true
		case int64:
			return int(x), true
		case float64:
			if x == float64(int(x)) {
				return int(x), true
			}
		}
	case InputTypeBool:
		if x, ok := v.(bool); ok {
			return x, true
		}
	case InputTypeString:
		if x, ok := v.(string); ok {
			return x, true
		}
	}
	return nil, false
}
