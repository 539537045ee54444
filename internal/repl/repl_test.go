package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sigfpe8/toy-apl/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(1 << 20)
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	return ws
}

func TestREPLEvalAndPrint(t *testing.T) {
	ws := newTestWorkspace(t)
	var out, errOut bytes.Buffer
	r := New(ws, &out, &errOut, false)

	code := r.Run(strings.NewReader("2+3\n)off\n"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr=%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "5") {
		t.Fatalf("output %q missing 5", out.String())
	}
}

func TestREPLOriginCommand(t *testing.T) {
	ws := newTestWorkspace(t)
	var out, errOut bytes.Buffer
	r := New(ws, &out, &errOut, false)

	code := r.Run(strings.NewReader(")origin 0\n)origin\n)off\n"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr=%s", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) != "0" {
		t.Fatalf("got output %q", out.String())
	}
}

func TestREPLFunctionDefinitionAndCall(t *testing.T) {
	ws := newTestWorkspace(t)
	var out, errOut bytes.Buffer
	r := New(ws, &out, &errOut, false)

	session := "∇Z←DOUBLE B\nZ←B+B\n∇\nDOUBLE 21\n)off\n"
	code := r.Run(strings.NewReader(session))
	if code != 0 {
		t.Fatalf("exit code %d, stderr=%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "42") {
		t.Fatalf("output %q missing 42", out.String())
	}
}

func TestREPLVarsAndFns(t *testing.T) {
	ws := newTestWorkspace(t)
	var out, errOut bytes.Buffer
	r := New(ws, &out, &errOut, false)

	session := "X←10 20 30\n)vars\n)off\n"
	code := r.Run(strings.NewReader(session))
	if code != 0 {
		t.Fatalf("exit code %d, stderr=%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "X") {
		t.Fatalf("output %q missing X", out.String())
	}
}
