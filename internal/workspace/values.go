package workspace

import (
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/memory"
)

// ElemSize returns the per-element storage size for an array of type t
// (spec §3.1: "a descriptor's element type across the array is
// homogeneous"). Numbers are IEEE float64; characters are stored as
// 4-byte code points so indexing math is uniform across both types.
func ElemSize(t memory.DType) uint32 {
	switch t {
	case memory.TChar:
		return 4
	default:
		return 8
	}
}

// ReadElem / WriteElem access one element of an array payload, whether
// it currently lives on the heap or the temp-array stack — both are
// just byte offsets into the same arena.
func (w *Workspace) ReadElem(t memory.DType, off uint32, i int) (num float64, ch rune) {
	sz := ElemSize(t)
	at := off + uint32(i)*sz
	a := w.Arena
	if t == memory.TChar {
		return 0, a.Rune(at)
	}
	return a.F64(at), 0
}

// WriteElem is ReadElem's counterpart, used by the array engine and
// indexed assignment (spec §4.11 "Indexed get/set").
func (w *Workspace) WriteElem(t memory.DType, off uint32, i int, num float64, ch rune) {
	sz := ElemSize(t)
	at := off + uint32(i)*sz
	a := w.Arena
	if t == memory.TChar {
		a.PutRune(at, ch)
		return
	}
	a.PutF64(at, num)
}

// Lookup resolves a name in the current workspace (spec §4.4), returning
// *undefined-variable* semantics as ok=false rather than an error: the
// caller (internal/vm) decides whether "undefined" is itself an error.
func (w *Workspace) Lookup(name string) (memory.Desc, bool) {
	e, ok := w.Arena.Lookup(name)
	if !ok || e.ODesc == 0 {
		return memory.Desc{}, false
	}
	return w.Arena.LoadDesc(e.ODesc), true
}

// LookupEntry exposes the raw name-table entry, used by the compiler to
// tell variables from functions via the cached type (spec §4.4) without
// dereferencing the descriptor.
func (w *Workspace) LookupEntry(name string) (memory.NameEntry, bool) {
	return w.Arena.Lookup(name)
}

// Bind installs d under name, freeing any previously owned heap block
// and descriptor slot first (spec §4.4's `set`). Scalar payloads are
// stored inline in the descriptor; array payloads passed in must
// already point at a heap block the caller allocated for this bind
// (use CopyToHeap to promote a temp-stack payload first).
func (w *Workspace) Bind(name string, d memory.Desc) error {
	e, ok := w.Arena.Lookup(name)
	if !ok {
		var err error
		e, err = w.Arena.Add(name)
		if err != nil {
			return err
		}
	}
	if e.ODesc != 0 {
		old := w.Arena.LoadDesc(e.ODesc)
		if old.Rank >= 1 {
			w.Arena.HeapFree(old.Payload)
		}
		w.Arena.DescFree(e.ODesc)
	}
	off, err := w.Arena.DescAlloc()
	if err != nil {
		return err
	}
	w.Arena.StoreDesc(off, d)
	w.Arena.SetType(e.Off, d.Type)
	w.Arena.SetODesc(e.Off, off)
	return nil
}

// CopyToHeap copies an array payload (typically living on the
// temp-array stack) into a freshly allocated heap block and returns a
// descriptor pointing at the copy. This is the one mandatory copy of
// spec §4.5/§9: "assigning an intermediate to a name must copy its
// payload into a freshly allocated heap block" because the temp stack
// is reset after every top-level expression.
func (w *Workspace) CopyToHeap(d memory.Desc, ownerHint uint32) (memory.Desc, error) {
	if d.Rank == 0 {
		return d, nil
	}
	sz := ElemSize(d.Type) * uint32(d.NElem())
	if sz == 0 {
		sz = 8
	}
	off, err := w.Arena.HeapAlloc(sz, ownerHint)
	if err != nil {
		return memory.Desc{}, err
	}
	copy(w.Arena.Buf[off:off+sz], w.Arena.Buf[d.Payload:d.Payload+sz])
	nd := d
	nd.Payload = off
	return nd, nil
}

// Erase undefines names, freeing their storage but keeping the name
// entry allocated (spec §3.3: "`)erase` nulls out `odesc` but keeps the
// entry"). Unknown names are silently skipped, matching `)erase`'s
// best-effort REPL behaviour.
func (w *Workspace) Erase(names []string) {
	for _, n := range names {
		e, ok := w.Arena.Lookup(n)
		if !ok || e.ODesc == 0 {
			continue
		}
		old := w.Arena.LoadDesc(e.ODesc)
		if old.Rank >= 1 {
			w.Arena.HeapFree(old.Payload)
		}
		w.Arena.DescFree(e.ODesc)
		w.Arena.SetODesc(e.Off, 0)
		w.Arena.SetType(e.Off, memory.TUndefined)
	}
}

// Vars / Fns list currently-defined names for `)vars`/`)fns` (spec §6.2).
func (w *Workspace) Vars() []string {
	var out []string
	for _, e := range w.Arena.Names() {
		if e.ODesc != 0 && !e.Type.IsFunction() {
			out = append(out, e.Name)
		}
	}
	return out
}

func (w *Workspace) Fns() []string {
	var out []string
	for _, e := range w.Arena.Names() {
		if e.ODesc != 0 && e.Type.IsFunction() {
			out = append(out, e.Name)
		}
	}
	return out
}

// ValidIndex validates an index-origin-relative index against a
// shape extent, returning *invalid-index* on failure (spec §8.3).
func (w *Workspace) ValidIndex(idx, extent int) error {
	origin := w.Origin()
	if idx < origin || idx >= origin+extent {
		return aplerrors.Eval(aplerrors.InvalidIndex, "index %d out of range", idx)
	}
	return nil
}
