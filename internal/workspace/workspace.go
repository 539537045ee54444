// Package workspace ties together the arena, heap, descriptor pool,
// name table and stacks of internal/memory into the single value the
// rest of the interpreter is passed explicitly (spec §9's "Interpreter"
// value replacing ambient global state).
package workspace

import (
	"github.com/google/uuid"

	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/memory"
)

// Workspace is a self-contained universe of named variables and
// user-defined functions, backed by one memory.Arena (spec §1/§3.4).
type Workspace struct {
	Arena    *memory.Arena
	Size     int
	Recovery aplerrors.Stack
}

// New allocates a fresh workspace of the requested size and assigns it
// a random default id, matching `⎕wsid` needing *some* value before the
// user sets one with `)wsid` (SPEC_FULL §B).
func New(size int) (*Workspace, error) {
	a, err := memory.New(size)
	if err != nil {
		return nil, err
	}
	a.EnsureBuckets()
	w := &Workspace{Arena: a, Size: size}
	w.SetWsid(defaultWsid())
	return w, nil
}

func defaultWsid() string {
	id := uuid.New().String()
	return "WS-" + id[:8]
}

// Clear reinitializes the workspace in place, preserving user settings
// (origin, print precision, tolerance, debug flag, workspace id) as
// `)clear` requires (spec §6.2).
func (w *Workspace) Clear() error {
	origin, pp, ct, dbg, wsid := w.Origin(), w.PP(), w.CT(), w.Dbg(), w.Wsid()
	a, err := memory.New(w.Size)
	if err != nil {
		return err
	}
	a.EnsureBuckets()
	w.Arena = a
	w.SetOrigin(origin)
	w.SetPP(pp)
	w.SetCT(ct)
	w.SetDbg(dbg)
	w.SetWsid(wsid)
	w.Recovery = aplerrors.Stack{}
	return nil
}

func (w *Workspace) Origin() int       { return int(w.Arena.Header.Origin) }
func (w *Workspace) PP() int           { return int(w.Arena.Header.PP) }
func (w *Workspace) CT() float64       { return w.Arena.Header.CT }
func (w *Workspace) Dbg() bool         { return w.Arena.Header.Dbg != 0 }

func (w *Workspace) SetOrigin(v int) error {
	if v != 0 && v != 1 {
		return aplerrors.Eval(aplerrors.Domain, "⎕io must be 0 or 1")
	}
	w.Arena.Header.Origin = int32(v)
	return nil
}

func (w *Workspace) SetPP(v int) error {
	if v < 1 || v > 16 {
		return aplerrors.Eval(aplerrors.Domain, "⎕pp must be in 1..16")
	}
	w.Arena.Header.PP = int32(v)
	return nil
}

func (w *Workspace) SetCT(v float64) error {
	w.Arena.Header.CT = v
	return nil
}

func (w *Workspace) SetDbg(on bool) {
	if on {
		w.Arena.Header.Dbg = 1
	} else {
		w.Arena.Header.Dbg = 0
	}
}

func (w *Workspace) Wsid() string {
	h := &w.Arena.Header
	return string(h.Wsid[:h.WsidLen])
}

// SetWsid sets the workspace id; an id longer than the 31-byte limit of
// spec §6.2's `)wsid` command is a domain error and leaves the id as it was.
func (w *Workspace) SetWsid(s string) error {
	if len(s) > 31 {
		return aplerrors.Eval(aplerrors.Domain, "⎕wsid must be at most 31 bytes")
	}
	h := &w.Arena.Header
	h.WsidLen = uint8(len(s))
	copy(h.Wsid[:], s)
	return nil
}
