package format

import (
	"strings"
	"testing"

	"github.com/sigfpe8/toy-apl/internal/arrayfn"
)

func TestNumberHighMinus(t *testing.T) {
	if got := Number(-3.5, 10); got != "¯3.5" {
		t.Fatalf("got %q", got)
	}
	if got := Number(3, 10); got != "3" {
		t.Fatalf("got %q", got)
	}
}

func TestNumberExponential(t *testing.T) {
	got := Number(123456789.0, 4)
	if !strings.Contains(got, "E") {
		t.Fatalf("expected exponential form, got %q", got)
	}
}

func TestMonadicVector(t *testing.T) {
	v := arrayfn.Vector([]float64{1, 22, 333})
	lines := Monadic(v, 10)
	if len(lines) != 1 {
		t.Fatalf("expected one row, got %v", lines)
	}
	if !strings.Contains(lines[0], "333") {
		t.Fatalf("got %q", lines[0])
	}
}

func TestMonadicMatrix(t *testing.T) {
	m := arrayfn.Value{Kind: arrayfn.KindNumber, Shape: []int{2, 2}, Nums: []float64{1, 2, 3, 4}}
	lines := Monadic(m, 10)
	if len(lines) != 2 {
		t.Fatalf("expected two rows, got %v", lines)
	}
}

func TestDyadicFixedDecimals(t *testing.T) {
	v := arrayfn.Vector([]float64{3.14159, 2.71828})
	lines := Dyadic([]float64{8, 2}, v)
	if len(lines) != 1 {
		t.Fatalf("got %v", lines)
	}
	if !strings.Contains(lines[0], "3.14") {
		t.Fatalf("got %q", lines[0])
	}
}
