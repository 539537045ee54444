package vm

import (
	"testing"

	"github.com/sigfpe8/toy-apl/internal/funccompiler"
	"github.com/sigfpe8/toy-apl/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(1 << 20)
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	ws.SetOrigin(1)
	return ws
}

func TestEvalSimpleArithmeticRightToLeft(t *testing.T) {
	ws := newTestWorkspace(t)
	v, ok, err := EvalLine(ws, "2×3+4")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok {
		t.Fatal("expected a result")
	}
	if v.ScalarNum() != 14 {
		t.Fatalf("got %v, want 14", v.ScalarNum())
	}
}

func TestEvalMonadicChain(t *testing.T) {
	ws := newTestWorkspace(t)
	v, ok, err := EvalLine(ws, "−⍴2 2 2⍴⍳8")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok {
		t.Fatal("expected a result")
	}
	if len(v.Nums) != 3 || v.Nums[0] != -2 {
		t.Fatalf("got %v", v.Nums)
	}
}

func TestEvalAssignAndLookup(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, _, err := EvalLine(ws, "X←10 20 30"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	v, ok, err := EvalLine(ws, "+/X")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok || v.ScalarNum() != 60 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
}

func TestEvalIndexedGetAndSet(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, _, err := EvalLine(ws, "X←10 20 30"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, _, err := EvalLine(ws, "X[2]←99"); err != nil {
		t.Fatalf("indexed assign: %v", err)
	}
	v, ok, err := EvalLine(ws, "X[2]")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok || v.ScalarNum() != 99 {
		t.Fatalf("got %v", v)
	}
}

func TestRunFunctionMonadic(t *testing.T) {
	ws := newTestWorkspace(t)
	obj, err := funccompiler.Compile("∇Z←DOUBLE B", []string{"Z←B+B"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := StoreFunction(ws, obj); err != nil {
		t.Fatalf("StoreFunction: %v", err)
	}
	v, ok, err := EvalLine(ws, "DOUBLE 21")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok || v.ScalarNum() != 42 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
}

func TestRunFunctionDyadicWithBranch(t *testing.T) {
	ws := newTestWorkspace(t)
	obj, err := funccompiler.Compile("∇Z←A MAXOF B", []string{
		"→(A<B)/L1",
		"Z←A",
		"→0",
		"L1:Z←B",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := StoreFunction(ws, obj); err != nil {
		t.Fatalf("StoreFunction: %v", err)
	}
	v, ok, err := EvalLine(ws, "3 MAXOF 7")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if !ok || v.ScalarNum() != 7 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
}
