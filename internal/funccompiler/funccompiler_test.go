package funccompiler

import "testing"

func TestParseHeaderDyadicWithResult(t *testing.T) {
	h, err := ParseHeader("∇Z←A PLUS B;T")
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "PLUS" || h.RetName != "Z" || h.LeftArg != "A" || h.RightArg != "B" {
		t.Fatalf("got %+v", h)
	}
	if len(h.Locals) != 1 || h.Locals[0] != "T" {
		t.Fatalf("got locals %v", h.Locals)
	}
	// locals first, then right, then left, then return.
	if h.Frame["T"] != 0 || h.Frame["B"] != 1 || h.Frame["A"] != 2 || h.Frame["Z"] != 3 {
		t.Fatalf("got frame %+v", h.Frame)
	}
}

func TestParseHeaderMonadicNiladic(t *testing.T) {
	h, err := ParseHeader("∇FOO")
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "FOO" || h.Arity() != "niladic" {
		t.Fatalf("got %+v", h)
	}

	h2, err := ParseHeader("∇Z←BAR B")
	if err != nil {
		t.Fatal(err)
	}
	if h2.Name != "BAR" || h2.RightArg != "B" || h2.Arity() != "monadic" {
		t.Fatalf("got %+v", h2)
	}
}

func TestCompileSimpleFunction(t *testing.T) {
	obj, err := Compile("∇Z←DOUBLE B", []string{"Z←B+B"})
	if err != nil {
		t.Fatal(err)
	}
	if len(obj.LineOffsets) != 1 || obj.LineOffsets[0] != 0 {
		t.Fatalf("got offsets %v", obj.LineOffsets)
	}
	if len(obj.Code) == 0 {
		t.Fatal("expected non-empty bytecode")
	}
}

func TestCompileWithLabelBranch(t *testing.T) {
	obj, err := Compile("∇LOOP", []string{"L1:", "→L1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(obj.LineOffsets) != 2 {
		t.Fatalf("got %v", obj.LineOffsets)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	obj, err := Compile("∇Z←A PLUS B", []string{"Z←A+B"})
	if err != nil {
		t.Fatal(err)
	}
	data := obj.Marshal()
	got := Unmarshal(data)
	if got.Header.Name != "PLUS" || got.Header.LeftArg != "A" || got.Header.RightArg != "B" {
		t.Fatalf("got %+v", got.Header)
	}
	if len(got.Code) != len(obj.Code) {
		t.Fatalf("code length mismatch: %d vs %d", len(got.Code), len(obj.Code))
	}
}
