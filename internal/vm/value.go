// Package vm implements the evaluator core of spec §4.11 (C11): parsing
// and applying the right-to-left APL expression grammar against a
// workspace, including user-defined function calls, branching, system
// variable/function dispatch and indexed get/set.
package vm

import (
	"encoding/binary"

	"github.com/sigfpe8/toy-apl/internal/arrayfn"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/funccompiler"
	"github.com/sigfpe8/toy-apl/internal/memory"
	"github.com/sigfpe8/toy-apl/internal/workspace"
)

// functionDType reports the descriptor type a compiled function's
// header binds as (spec §4.10 step 5: a function's name-table entry
// caches its arity so the compiler can tell variables from functions
// without loading the object itself).
func functionDType(h *funccompiler.Header) memory.DType {
	switch {
	case h.LeftArg != "":
		return memory.TDyadic
	case h.RightArg != "":
		return memory.TMonadic
	default:
		return memory.TNiladic
	}
}

// StoreFunction marshals a compiled function object into one heap
// block, length-prefixed so LoadFunction can size its read back out,
// and binds it under the function's name (spec §4.10 step 5).
func StoreFunction(ws *workspace.Workspace, obj *funccompiler.Object) error {
	data := obj.Marshal()
	blob := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(blob, uint32(len(data)))
	copy(blob[4:], data)
	off, err := ws.Arena.HeapAlloc(uint32(len(blob)), 0)
	if err != nil {
		return err
	}
	copy(ws.Arena.Buf[off:off+uint32(len(blob))], blob)
	d := memory.Desc{Type: functionDType(obj.Header), Rank: 0, Payload: off}
	return ws.Bind(obj.Header.Name, d)
}

// LoadFunction reads a function object back out of its heap block.
func LoadFunction(ws *workspace.Workspace, name string) (*funccompiler.Object, error) {
	entry, ok := ws.LookupEntry(name)
	if !ok || !entry.Type.IsFunction() || entry.ODesc == 0 {
		return nil, aplerrors.Eval(aplerrors.FunctionNotDefined, "%s", name)
	}
	d := ws.Arena.LoadDesc(entry.ODesc)
	n := binary.LittleEndian.Uint32(ws.Arena.Buf[d.Payload:])
	data := ws.Arena.Buf[d.Payload+4 : d.Payload+4+n]
	return funccompiler.Unmarshal(data), nil
}

// valueToDesc commits a Go-level arrayfn.Value into the workspace's
// temp-array stack (scalars are stored inline, needing no allocation)
// and returns a descriptor pointing at it, the bridge spec §4.5
// describes between computed results and the byte-offset arena.
func valueToDesc(ws *workspace.Workspace, v arrayfn.Value) (memory.Desc, error) {
	d := memory.Desc{Rank: v.Rank()}
	for i, s := range v.Shape {
		d.Shape[i] = int32(s)
	}
	if v.Kind == arrayfn.KindChar {
		d.Type = memory.TChar
	} else {
		d.Type = memory.TNumber
	}
	if v.IsScalar() {
		if v.Kind == arrayfn.KindChar {
			d.Char = v.Chars[0]
		} else {
			d.Num = v.Nums[0]
		}
		return d, nil
	}
	n := v.NElem()
	sz := workspace.ElemSize(d.Type) * uint32(n)
	if sz == 0 {
		sz = 8
	}
	off, err := ws.Arena.TempAlloc(sz)
	if err != nil {
		return memory.Desc{}, err
	}
	for i := 0; i < n; i++ {
		if v.Kind == arrayfn.KindChar {
			ws.WriteElem(d.Type, off, i, 0, v.Chars[i])
		} else {
			ws.WriteElem(d.Type, off, i, v.Nums[i], 0)
		}
	}
	d.Payload = off
	return d, nil
}

// descToValue is valueToDesc's inverse, reading a descriptor's payload
// (wherever it lives: temp stack, heap, or inline) back into a Go value
// the array engine can operate on.
func descToValue(ws *workspace.Workspace, d memory.Desc) arrayfn.Value {
	kind := arrayfn.KindNumber
	if d.Type == memory.TChar {
		kind = arrayfn.KindChar
	}
	shape := make([]int, d.Rank)
	for i := 0; i < d.Rank; i++ {
		shape[i] = int(d.Shape[i])
	}
	if d.Rank == 0 {
		if kind == arrayfn.KindChar {
			return arrayfn.CharScalar(d.Char)
		}
		return arrayfn.Scalar(d.Num)
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	v := arrayfn.Value{Kind: kind, Shape: shape}
	if kind == arrayfn.KindChar {
		chars := make([]rune, n)
		for i := range chars {
			_, chars[i] = ws.ReadElem(d.Type, d.Payload, i)
		}
		v.Chars = chars
	} else {
		nums := make([]float64, n)
		for i := range nums {
			nums[i], _ = ws.ReadElem(d.Type, d.Payload, i)
		}
		v.Nums = nums
	}
	return v
}

// push / pop exercise the real operand stack (C6) on top of the
// temp-array stack (C5) backing each pushed array's payload.
func push(ws *workspace.Workspace, v arrayfn.Value) error {
	d, err := valueToDesc(ws, v)
	if err != nil {
		return err
	}
	off, err := ws.Arena.OpPush()
	if err != nil {
		return err
	}
	ws.Arena.StoreDesc(off, d)
	return nil
}

func pop(ws *workspace.Workspace) (arrayfn.Value, error) {
	off := ws.Arena.OpPop()
	d := ws.Arena.LoadDesc(off)
	return descToValue(ws, d), nil
}
