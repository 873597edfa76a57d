package runtime

import "testing"

func TestInput_DeclarationIsIdempotent(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	first := c.InputFloat("mult", 2.0, WithTitle("Multiplier"))
	second := c.InputFloat("mult", 99.0, WithTitle("ignored"))
	if first != 2.0 || second != 2.0 {
		t.Fatalf("values = %v, %v; the first declaration wins", first, second)
	}
	ins := c.Inputs()
	if len(ins) != 1 {
		t.Fatalf("declarations = %d, want 1", len(ins))
	}
	if ins[0].Title != "Multiplier" {
		t.Errorf("title = %q, want the first declaration's", ins[0].Title)
	}
}

func TestInput_OverrideBeforeDeclaration(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	if err := c.SetInput("len", 30); err != nil {
		t.Fatalf("set input: %v", err)
	}
	if got := c.InputInt("len", 14); got != 30 {
		t.Fatalf("input = %d, want 30", got)
	}
}

func TestInput_NumericCoercion(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	c.SetInput("factor", 3)      // int into a float input
	c.SetInput("length", 21.0)   // whole float into an int input
	c.SetInput("smooth", "bad")  // junk into an int input
	if got := c.InputFloat("factor", 1.5); got != 3.0 {
		t.Errorf("factor = %v, want 3", got)
	}
	if got := c.InputInt("length", 14); got != 21 {
		t.Errorf("length = %d, want 21", got)
	}
	if got := c.InputInt("smooth", 5); got != 5 {
		t.Errorf("smooth = %d, want the default when the override cannot coerce", got)
	}
}

func TestInput_FractionalFloatDoesNotCoerceToInt(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	c.SetInput("len", 14.5)
	if got := c.InputInt("len", 9); got != 9 {
		t.Fatalf("len = %d, want the default", got)
	}
}

func TestInput_ClearRestoresDefault(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	c.SetInput("on", false)
	if got := c.InputBool("on", true); got {
		t.Fatal("override should apply")
	}
	c.ClearInput("on")
	if got := c.InputBool("on", true); !got {
		t.Fatal("default should apply after clear")
	}
}

func TestInput_TypesRoundTrip(t *testing.T) {
	c := New(testData([5]float64{10, 12, 9, 11, 100}))
	if got := c.InputString("source", "close"); got != "close" {
		t.Errorf("string default = %q", got)
	}
	c.SetInput("source", "hl2")
	if got := c.InputString("source", "close"); got != "hl2" {
		t.Errorf("string override = %q", got)
	}
	ins := c.Inputs()
	if len(ins) != 1 || ins[0].Type != InputTypeString {
		t.Fatalf("declaration = %+v", ins)
	}
}
