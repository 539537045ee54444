// Package arrayfn implements the array engine of spec §4.12 (C12): the
// scalar, structural, reduction, scan, inner/outer product, take/drop,
// rotate, transpose, reshape and indexing primitives that give the
// language its character.
//
// Grounding note: the surrounding packages keep every value in the
// workspace arena as byte offsets (spec §3–§4.6). This package instead
// works on Value, a plain Go value type (shape + flat element slice),
// the way the teacher's own VM (internal/vm/value.go, since deleted as
// unwired) represents runtime values as ordinary Go structs rather than
// raw bytes. internal/vm is the seam: it marshals a memory.Desc's
// payload into a Value before calling into this package and marshals
// the Value back into temp-array-stack bytes afterwards (spec §4.5),
// so the byte-offset model and arena invariants of §8.1 are preserved
// at the boundary even though the array engine itself computes in
// ordinary Go slices — exactly the level of abstraction idiomatic Go
// array/tensor code operates at.
package arrayfn

import (
	"fmt"

	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
)

// Kind is a Value's element kind (spec §3.1: type is homogeneous across
// an array).
type Kind int

const (
	KindNumber Kind = iota
	KindChar
)

// Value is a rank-N array: Shape has one entry per axis; Nums or Chars
// (never both) holds NElem() elements in row-major order. A scalar has
// an empty Shape and exactly one element.
type Value struct {
	Kind  Kind
	Shape []int
	Nums  []float64
	Chars []rune
}

func Scalar(n float64) Value     { return Value{Kind: KindNumber, Nums: []float64{n}} }
func CharScalar(r rune) Value    { return Value{Kind: KindChar, Chars: []rune{r}} }
func BoolScalar(b bool) Value {
	if b {
		return Scalar(1)
	}
	return Scalar(0)
}

func Vector(nums []float64) Value { return Value{Kind: KindNumber, Shape: []int{len(nums)}, Nums: nums} }
func CharVector(s []rune) Value   { return Value{Kind: KindChar, Shape: []int{len(s)}, Chars: s} }

func CharVectorFromString(s string) Value { return CharVector([]rune(s)) }

func (v Value) Rank() int { return len(v.Shape) }

func (v Value) NElem() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	if v.Rank() == 0 {
		return 1
	}
	return n
}

func (v Value) IsScalar() bool { return v.Rank() == 0 }

// scalarElemNum returns v's first element as a number, or 0 when v is
// a character value; scalarElemChar is its character counterpart.
func (v Value) scalarElemNum() float64 {
	if v.Kind == KindNumber {
		return v.Nums[0]
	}
	return 0
}
func (v Value) scalarElemChar() rune {
	if v.Kind == KindChar {
		return v.Chars[0]
	}
	return 0
}

// ScalarNum and ScalarChar expose a value's single element to callers
// outside the package (internal/vm, assembling indexed get/set and
// ⎕-function arguments) without requiring the caller to branch on Kind.
func (v Value) ScalarNum() float64 { return v.scalarElemNum() }
func (v Value) ScalarChar() rune   { return v.scalarElemChar() }

// Clone returns a deep copy, used whenever a primitive must not alias
// its operand's backing slice with its result.
func (v Value) Clone() Value {
	nv := Value{Kind: v.Kind, Shape: append([]int(nil), v.Shape...)}
	if v.Kind == KindNumber {
		nv.Nums = append([]float64(nil), v.Nums...)
	} else {
		nv.Chars = append([]rune(nil), v.Chars...)
	}
	return nv
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// errNotConformable / errRank / errDomain / errLength wrap the spec's conformability
// failures (§4.12.2, §8.3) in ready-to-return *errors.InterpError values.
func errNotConformable(a, b []int) error {
	return aplerrors.Eval(aplerrors.NotConformable, "shapes %v and %v do not conform", a, b)
}
func errRank(msg string) error  { return aplerrors.Eval(aplerrors.Rank, "%s", msg) }
func errDomain(msg string) error { return aplerrors.Eval(aplerrors.Domain, "%s", msg) }
func errLength(msg string) error { return aplerrors.Eval(aplerrors.Length, "%s", msg) }

func (v Value) String() string {
	return fmt.Sprintf("Value{kind=%v shape=%v}", v.Kind, v.Shape)
}
