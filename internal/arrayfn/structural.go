package arrayfn

import "sort"

// Iota implements monadic `⍳` (spec §4.12.4): origin..origin+n-1 as a
// vector, or an index-generator array when n is a vector of two or more
// dimensions. A right argument of rank>1 is a rank error.
func Iota(origin int, n Value) (Value, error) {
	if n.Rank() > 1 {
		return Value{}, errRank("⍳ right argument must be scalar or vector")
	}
	dims := toInts(n)
	total := 1
	for _, d := range dims {
		if d < 0 {
			return Value{}, errDomain("⍳ dimensions must be non-negative")
		}
		total *= d
	}
	if len(dims) <= 1 {
		count := total
		out := make([]float64, count)
		for i := range out {
			out[i] = float64(origin + i)
		}
		return Vector(out), nil
	}
	out := make([]float64, total*len(dims))
	idx := make([]int, len(dims))
	for i := 0; i < total; i++ {
		for j, v := range idx {
			out[i*len(dims)+j] = float64(origin + v)
		}
		for j := len(dims) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < dims[j] {
				break
			}
			idx[j] = 0
		}
	}
	shape := append(append([]int(nil), dims...), len(dims))
	return Value{Kind: KindNumber, Shape: shape, Nums: out}, nil
}

func toInts(v Value) []int {
	if v.IsScalar() {
		return []int{int(v.scalarElemNum())}
	}
	out := make([]int, len(v.Nums))
	for i, n := range v.Nums {
		out[i] = int(n)
	}
	return out
}

// Shape implements shape-of (monadic `⍴`); Reshape below implements
// dyadic `⍴` (spec §4.12.4).
func Shape(v Value) Value {
	out := make([]float64, len(v.Shape))
	for i, s := range v.Shape {
		out[i] = float64(s)
	}
	return Vector(out)
}

func Reshape(shape Value, v Value) (Value, error) {
	dims := toInts(shape)
	total := 1
	for _, d := range dims {
		if d < 0 {
			return Value{}, errDomain("⍴ dimensions must be non-negative")
		}
		total *= d
	}
	src := flatten(v)
	if len(src.nums) == 0 && len(src.chars) == 0 {
		return Value{}, errDomain("⍴ right argument has no elements to cycle")
	}
	out := Value{Kind: v.Kind, Shape: append([]int(nil), dims...)}
	if v.Kind == KindNumber {
		nums := make([]float64, total)
		for i := range nums {
			nums[i] = src.nums[i%len(src.nums)]
		}
		out.Nums = nums
	} else {
		chars := make([]rune, total)
		for i := range chars {
			chars[i] = src.chars[i%len(src.chars)]
		}
		out.Chars = chars
	}
	return out, nil
}

type flatValues struct {
	nums  []float64
	chars []rune
}

func flatten(v Value) flatValues {
	if v.Kind == KindNumber {
		return flatValues{nums: v.Nums}
	}
	return flatValues{chars: v.Chars}
}

// lastAxisLen returns the extent of shape's last axis, or 1 for a
// scalar.
func lastAxisLen(shape []int) int {
	if len(shape) == 0 {
		return 1
	}
	return shape[len(shape)-1]
}

// --- rank>1 iteration helpers shared by the axis-qualified primitives
// (rotate/reverse/catenate/compress/expand, spec §4.11's "[axis]" form).
// Arrays are row-major; strides follow the usual C-order convention.

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func linearIndex(idx, strides []int) int {
	pos := 0
	for i, s := range strides {
		pos += idx[i] * s
	}
	return pos
}

// incIndex advances idx (row-major, last axis fastest) in place and
// reports whether it is still within shape; false once every
// combination has been produced.
func incIndex(idx, shape []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

func removeAt(s []int, axis int) []int {
	out := make([]int, 0, len(s)-1)
	for i, x := range s {
		if i != axis {
			out = append(out, x)
		}
	}
	return out
}

// insertAt returns a copy of s with val inserted at position axis,
// used to rebuild a full-rank index from an "other axes" index plus
// the axis-dimension coordinate.
func insertAt(s []int, axis, val int) []int {
	out := make([]int, len(s)+1)
	copy(out, s[:axis])
	out[axis] = val
	copy(out[axis+1:], s[axis:])
	return out
}

func floorModInt(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func ceilFloat(v float64) float64 {
	i := float64(int(v))
	if i < v {
		return i + 1
	}
	return i
}

// ResolveAxis turns an axis-bracket value into a 0-based axis index,
// following the original interpreter's axis resolution (eval.c's
// EvlExpr main loop and the VALIDATE_AXIS macro in apl.h): an integer
// axis is taken literally after subtracting ⎕io; a non-integer axis
// requests lamination (catenate's axis-insertion form only); omitting
// the bracket (axisVal == nil) defaults to axis 0 when firstAxis is
// set (⊖, ⍪) or the last axis otherwise (⌽, `,`). An axis bracket
// applied to a scalar operand is always invalid, matching the
// original's "ISSCALAR + explicit axis → EE_AXIS" rule.
func ResolveAxis(axisVal *Value, rank int, origin int, firstAxis bool) (axis int, laminate bool, err error) {
	if axisVal == nil {
		if rank == 0 {
			return 0, false, nil
		}
		if firstAxis {
			return 0, false, nil
		}
		return rank - 1, false, nil
	}
	if rank == 0 {
		return 0, false, errDomain("[axis] cannot be applied to a scalar operand")
	}
	v := axisVal.scalarElemNum()
	iv := int(v)
	if float64(iv) == v {
		axis = iv - origin
		if axis < 0 || axis >= rank {
			return 0, false, errDomain("invalid axis")
		}
		return axis, false, nil
	}
	return int(ceilFloat(v)) - origin, true, nil
}

// Take implements `↑` (spec §4.12.5): |n| elements along the last axis,
// padding with zero/blank when n exceeds the extent, anchored at the
// start (n>0) or end (n<0).
func Take(n Value, v Value) (Value, error) {
	if v.Rank() > 1 {
		return Value{}, errRank("↑ on rank>1 not supported")
	}
	count := int(n.scalarElemNum())
	src := flatten(v)
	size := v.NElem()
	abs := count
	if abs < 0 {
		abs = -abs
	}
	out := Value{Kind: v.Kind, Shape: []int{abs}}
	pad := func(i int) (float64, rune) {
		if i < 0 || i >= size {
			return 0, ' '
		}
		if v.Kind == KindNumber {
			return src.nums[i], 0
		}
		return 0, src.chars[i]
	}
	start := 0
	if count < 0 {
		start = size - abs
	}
	if v.Kind == KindNumber {
		nums := make([]float64, abs)
		for i := 0; i < abs; i++ {
			nums[i], _ = pad(start + i)
		}
		out.Nums = nums
	} else {
		chars := make([]rune, abs)
		for i := 0; i < abs; i++ {
			_, chars[i] = pad(start + i)
		}
		out.Chars = chars
	}
	return out, nil
}

// Drop implements `↓`: removes |n| elements from the start (n>0) or end
// (n<0) of the last axis.
func Drop(n Value, v Value) (Value, error) {
	if v.Rank() > 1 {
		return Value{}, errRank("↓ on rank>1 not supported")
	}
	count := int(n.scalarElemNum())
	size := v.NElem()
	var lo, hi int
	if count >= 0 {
		lo, hi = minInt(count, size), size
	} else {
		lo, hi = 0, maxInt(size+count, 0)
	}
	return slice1D(v, lo, hi), nil
}

func slice1D(v Value, lo, hi int) Value {
	if hi < lo {
		hi = lo
	}
	out := Value{Kind: v.Kind, Shape: []int{hi - lo}}
	if v.Kind == KindNumber {
		out.Nums = append([]float64(nil), v.Nums[lo:hi]...)
	} else {
		out.Chars = append([]rune(nil), v.Chars[lo:hi]...)
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Catenate implements `,` (spec §4.12.5/§4.12.9): same-rank arrays join
// along the last axis, a scalar operand broadcasts across every axis
// but the join axis, and mismatched non-scalar ranks fall back to
// flat concatenation of both operands' ravels — the simple vector
// model spec.md's own examples exercise.
func Catenate(a, b Value) (Value, error) {
	if a.Kind != b.Kind {
		return Value{}, errDomain(", requires matching element types")
	}
	if a.Rank() == b.Rank() || a.IsScalar() || b.IsScalar() {
		rank := a.Rank()
		if b.Rank() > rank {
			rank = b.Rank()
		}
		axis := rank - 1
		if axis < 0 {
			axis = 0
		}
		return CatenateAlongAxis(a, b, axis, false)
	}
	out := Value{Kind: a.Kind, Shape: []int{a.NElem() + b.NElem()}}
	if a.Kind == KindNumber {
		out.Nums = append(append([]float64(nil), a.Nums...), b.Nums...)
	} else {
		out.Chars = append(append([]rune(nil), a.Chars...), b.Chars...)
	}
	return out, nil
}

// CatenateAlongAxis is the axis-qualified `,[axis]`/`⍪[axis]` form
// (also the engine behind the no-bracket Catenate above): operands
// must agree in shape on every axis but axis, with a lone scalar
// broadcasting to fill that role (grounded on eval.c's FunCatenate and
// its ExtendArray/ExtendScalar helpers). laminate requests the `,[0.5]`
// style axis (a non-integer axis value) that stacks both operands
// along a brand-new axis instead of joining along an existing one.
func CatenateAlongAxis(a, b Value, axis int, laminate bool) (Value, error) {
	if a.Kind != b.Kind {
		return Value{}, errDomain(", requires matching element types")
	}
	if laminate {
		return laminateAlongAxis(a, b, axis)
	}
	if a.IsScalar() && !b.IsScalar() {
		a = broadcastScalar(a, b.Shape, axis)
	} else if b.IsScalar() && !a.IsScalar() {
		b = broadcastScalar(b, a.Shape, axis)
	} else if a.IsScalar() && b.IsScalar() {
		a = Value{Kind: a.Kind, Shape: []int{1}, Nums: a.Nums, Chars: a.Chars}
		b = Value{Kind: b.Kind, Shape: []int{1}, Nums: b.Nums, Chars: b.Chars}
		axis = 0
	}
	if a.Rank() != b.Rank() {
		return Value{}, errRank(", operands must have the same rank")
	}
	rank := a.Rank()
	if axis < 0 || axis >= rank {
		return Value{}, errDomain("invalid catenation axis")
	}
	for i := 0; i < rank; i++ {
		if i != axis && a.Shape[i] != b.Shape[i] {
			return Value{}, errLength(", shapes differ outside the join axis")
		}
	}
	outShape := append([]int(nil), a.Shape...)
	outShape[axis] = a.Shape[axis] + b.Shape[axis]
	out := Value{Kind: a.Kind, Shape: outShape}
	total := product(outShape)
	if a.Kind == KindNumber {
		out.Nums = make([]float64, total)
	} else {
		out.Chars = make([]rune, total)
	}
	outStrides := stridesOf(outShape)
	aStrides := stridesOf(a.Shape)
	bStrides := stridesOf(b.Shape)

	if product(a.Shape) > 0 {
		idx := make([]int, rank)
		for {
			srcPos := linearIndex(idx, aStrides)
			outPos := linearIndex(idx, outStrides)
			if a.Kind == KindNumber {
				out.Nums[outPos] = a.Nums[srcPos]
			} else {
				out.Chars[outPos] = a.Chars[srcPos]
			}
			if !incIndex(idx, a.Shape) {
				break
			}
		}
	}
	if product(b.Shape) > 0 {
		idx := make([]int, rank)
		for {
			srcPos := linearIndex(idx, bStrides)
			dst := append([]int(nil), idx...)
			dst[axis] += a.Shape[axis]
			outPos := linearIndex(dst, outStrides)
			if b.Kind == KindNumber {
				out.Nums[outPos] = b.Nums[srcPos]
			} else {
				out.Chars[outPos] = b.Chars[srcPos]
			}
			if !incIndex(idx, b.Shape) {
				break
			}
		}
	}
	return out, nil
}

func broadcastScalar(s Value, otherShape []int, axis int) Value {
	shape := append([]int(nil), otherShape...)
	shape[axis] = 1
	n := product(shape)
	out := Value{Kind: s.Kind, Shape: shape}
	if s.Kind == KindNumber {
		nums := make([]float64, n)
		for i := range nums {
			nums[i] = s.scalarElemNum()
		}
		out.Nums = nums
	} else {
		chars := make([]rune, n)
		for i := range chars {
			chars[i] = s.scalarElemChar()
		}
		out.Chars = chars
	}
	return out
}

// laminateAlongAxis implements the "non-integer axis" form of `,`:
// insert a brand-new length-2 axis at position axis, stacking a then b
// (eval.c: AXIS_LAMINATE forces both operands through ExtendArray
// before the ordinary join, which for equal shapes means inserting a
// size-1 dimension on both and joining into size 2).
func laminateAlongAxis(a, b Value, axis int) (Value, error) {
	if a.IsScalar() && b.IsScalar() {
		if a.Kind == KindNumber {
			return Vector([]float64{a.scalarElemNum(), b.scalarElemNum()}), nil
		}
		return CharVector([]rune{a.scalarElemChar(), b.scalarElemChar()}), nil
	}
	if !sameShape(a.Shape, b.Shape) {
		return Value{}, errLength(", lamination requires identical shapes")
	}
	rank := a.Rank()
	if axis < 0 || axis > rank {
		return Value{}, errDomain("invalid lamination axis")
	}
	outShape := make([]int, 0, rank+1)
	outShape = append(outShape, a.Shape[:axis]...)
	outShape = append(outShape, 2)
	outShape = append(outShape, a.Shape[axis:]...)
	total := product(outShape)
	out := Value{Kind: a.Kind, Shape: outShape}
	if a.Kind == KindNumber {
		out.Nums = make([]float64, total)
	} else {
		out.Chars = make([]rune, total)
	}
	if total == 0 {
		return out, nil
	}
	outStrides := stridesOf(outShape)
	srcStrides := stridesOf(a.Shape)
	idx := make([]int, rank)
	for {
		srcPos := linearIndex(idx, srcStrides)
		for lam, operand := range [2]Value{a, b} {
			dst := make([]int, 0, rank+1)
			dst = append(dst, idx[:axis]...)
			dst = append(dst, lam)
			dst = append(dst, idx[axis:]...)
			outPos := linearIndex(dst, outStrides)
			if a.Kind == KindNumber {
				out.Nums[outPos] = operand.Nums[srcPos]
			} else {
				out.Chars[outPos] = operand.Chars[srcPos]
			}
		}
		if !incIndex(idx, a.Shape) {
			break
		}
	}
	return out, nil
}

func Ravel(v Value) Value {
	out := v.Clone()
	out.Shape = []int{v.NElem()}
	return out
}

// Reverse implements monadic `⌽`/`⊖` with no axis bracket: ⌽ defaults
// to the last axis, ⊖ to the first (spec §4.12.5); callers pick which
// default by calling this (⌽) or wrapping ReverseAlongAxis with axis 0
// (⊖, see internal/vm/ops.go).
func Reverse(v Value) Value {
	axis := v.Rank() - 1
	if axis < 0 {
		return v.Clone()
	}
	out, _ := ReverseAlongAxis(v, axis)
	return out
}

// ReverseAlongAxis implements the axis-qualified `⌽[axis]`/`⊖[axis]`
// form for an array of any rank: flip the elements along axis, every
// other index held fixed.
func ReverseAlongAxis(src Value, axis int) (Value, error) {
	if src.Rank() == 0 {
		return src.Clone(), nil
	}
	if axis < 0 || axis >= src.Rank() {
		return Value{}, errDomain("invalid reversal axis")
	}
	axisLen := src.Shape[axis]
	otherShape := removeAt(src.Shape, axis)
	out := src.Clone()
	if axisLen == 0 || product(otherShape) == 0 {
		return out, nil
	}
	strides := stridesOf(src.Shape)
	otherIdx := make([]int, len(otherShape))
	for {
		for a := 0; a < axisLen; a++ {
			srcPos := linearIndex(insertAt(otherIdx, axis, a), strides)
			dstPos := linearIndex(insertAt(otherIdx, axis, axisLen-1-a), strides)
			if src.Kind == KindNumber {
				out.Nums[dstPos] = src.Nums[srcPos]
			} else {
				out.Chars[dstPos] = src.Chars[srcPos]
			}
		}
		if !incIndex(otherIdx, otherShape) {
			break
		}
	}
	return out, nil
}

// Rotate implements dyadic `⌽` with no axis bracket: rotate left by n
// along the last axis (spec §4.12.5); `⊖`'s no-bracket default (first
// axis) is RotateAlongAxis called with axis 0, see internal/vm/ops.go.
// Negative n rotates right; n may be an array matching the source
// shape with the rotation axis removed, giving a per-row rotation
// amount (spec §4.12.5's "A⌽B" generalization, grounded on eval.c's
// FunRotate/CreateRotateIndex).
func Rotate(n Value, v Value) (Value, error) {
	axis := v.Rank() - 1
	if axis < 0 {
		return v, nil
	}
	return RotateAlongAxis(n, v, axis)
}

// RotateAlongAxis implements the axis-qualified `⌽[axis]`/`⊖[axis]`
// dyadic form (eval.c's FunRotate/CreateRotateIndex/GetRotateIndex):
// src[..., i, ...] moves to src[..., (i-shift) mod len, ...] along
// axis, where shift is either a uniform scalar or an array giving one
// shift per combination of the other axes.
func RotateAlongAxis(rot, src Value, axis int) (Value, error) {
	rank := src.Rank()
	if rank == 0 {
		return Value{}, errRank("[axis] rotation requires an array operand")
	}
	if axis < 0 || axis >= rank {
		return Value{}, errDomain("invalid rotation axis")
	}
	axisLen := src.Shape[axis]
	otherShape := removeAt(src.Shape, axis)
	uniform := rot.IsScalar()
	if !uniform && (rot.Rank() != len(otherShape) || !sameShape(rot.Shape, otherShape)) {
		return Value{}, errRank("rotation amount shape must match the source shape without the rotation axis")
	}
	out := src.Clone()
	if axisLen == 0 || product(otherShape) == 0 {
		return out, nil
	}
	strides := stridesOf(src.Shape)
	otherStrides := stridesOf(otherShape)
	otherIdx := make([]int, len(otherShape))
	for {
		shift := 0
		if uniform {
			shift = int(rot.scalarElemNum())
		} else {
			shift = int(rot.Nums[linearIndex(otherIdx, otherStrides)])
		}
		for a := 0; a < axisLen; a++ {
			srcPos := linearIndex(insertAt(otherIdx, axis, a), strides)
			dstA := floorModInt(a-shift, axisLen)
			dstPos := linearIndex(insertAt(otherIdx, axis, dstA), strides)
			if src.Kind == KindNumber {
				out.Nums[dstPos] = src.Nums[srcPos]
			} else {
				out.Chars[dstPos] = src.Chars[srcPos]
			}
		}
		if !incIndex(otherIdx, otherShape) {
			break
		}
	}
	return out, nil
}

// Compress implements `/` applied to a boolean left operand with no
// axis bracket: keep elements of v whose matching boolean in mask is
// non-zero, along the last axis (spec §4.12.6).
func Compress(mask Value, v Value) (Value, error) {
	axis := v.Rank() - 1
	if axis < 0 {
		axis = 0
		if v.Kind == KindChar {
			v = CharVector([]rune{v.scalarElemChar()})
		} else {
			v = Vector([]float64{v.scalarElemNum()})
		}
	}
	return CompressAlongAxis(mask, v, axis)
}

// CompressAlongAxis implements the axis-qualified `/[axis]` form for
// rank>1 arrays: mask's length must equal v's extent along axis.
func CompressAlongAxis(mask, v Value, axis int) (Value, error) {
	rank := v.Rank()
	if rank == 0 {
		return Value{}, errRank("/ requires an array operand for [axis] compression")
	}
	if axis < 0 || axis >= rank {
		return Value{}, errDomain("invalid compression axis")
	}
	if mask.NElem() != v.Shape[axis] {
		return Value{}, errLength("/ boolean length must match the axis extent")
	}
	var idxs []int
	for i, m := range mask.Nums {
		if m != 0 {
			idxs = append(idxs, i)
		}
	}
	outShape := append([]int(nil), v.Shape...)
	outShape[axis] = len(idxs)
	out := Value{Kind: v.Kind, Shape: outShape}
	total := product(outShape)
	if v.Kind == KindNumber {
		out.Nums = make([]float64, total)
	} else {
		out.Chars = make([]rune, total)
	}
	if total == 0 {
		return out, nil
	}
	outStrides := stridesOf(outShape)
	srcStrides := stridesOf(v.Shape)
	idx := make([]int, rank)
	for {
		srcIdx := append([]int(nil), idx...)
		srcIdx[axis] = idxs[idx[axis]]
		srcPos := linearIndex(srcIdx, srcStrides)
		outPos := linearIndex(idx, outStrides)
		if v.Kind == KindNumber {
			out.Nums[outPos] = v.Nums[srcPos]
		} else {
			out.Chars[outPos] = v.Chars[srcPos]
		}
		if !incIndex(idx, outShape) {
			break
		}
	}
	return out, nil
}

// Expand implements `\` applied to a boolean left operand with no
// axis bracket: the inverse of Compress along the last axis, inserting
// fill elements where mask is zero (spec §4.12.6).
func Expand(mask Value, v Value) (Value, error) {
	axis := v.Rank() - 1
	if axis < 0 {
		axis = 0
		if v.Kind == KindChar {
			v = CharVector([]rune{v.scalarElemChar()})
		} else {
			v = Vector([]float64{v.scalarElemNum()})
		}
	}
	return ExpandAlongAxis(mask, v, axis)
}

// ExpandAlongAxis implements the axis-qualified `\[axis]` form for
// rank>1 arrays: the number of non-zero mask entries must equal v's
// extent along axis; zero entries insert a 0/blank fill.
func ExpandAlongAxis(mask, v Value, axis int) (Value, error) {
	rank := v.Rank()
	if rank == 0 {
		return Value{}, errRank("\\ requires an array operand for [axis] expansion")
	}
	if axis < 0 || axis >= rank {
		return Value{}, errDomain("invalid expansion axis")
	}
	want := 0
	for _, m := range mask.Nums {
		if m != 0 {
			want++
		}
	}
	if want != v.Shape[axis] {
		return Value{}, errLength("\\ boolean count must match the axis extent")
	}
	outShape := append([]int(nil), v.Shape...)
	outShape[axis] = len(mask.Nums)
	out := Value{Kind: v.Kind, Shape: outShape}
	total := product(outShape)
	if v.Kind == KindNumber {
		out.Nums = make([]float64, total)
	} else {
		out.Chars = make([]rune, total)
		for i := range out.Chars {
			out.Chars[i] = ' '
		}
	}
	otherShape := removeAt(v.Shape, axis)
	if total == 0 || product(otherShape) == 0 {
		return out, nil
	}
	outStrides := stridesOf(outShape)
	srcStrides := stridesOf(v.Shape)
	otherIdx := make([]int, len(otherShape))
	for {
		src := 0
		for a := 0; a < outShape[axis]; a++ {
			outPos := linearIndex(insertAt(otherIdx, axis, a), outStrides)
			if mask.Nums[a] != 0 {
				srcPos := linearIndex(insertAt(otherIdx, axis, src), srcStrides)
				if v.Kind == KindNumber {
					out.Nums[outPos] = v.Nums[srcPos]
				} else {
					out.Chars[outPos] = v.Chars[srcPos]
				}
				src++
			}
		}
		if !incIndex(otherIdx, otherShape) {
			break
		}
	}
	return out, nil
}

// Transpose implements monadic `⍉` for rank<=2: identity for vectors,
// matrix transpose for matrices (spec §4.12.9).
func Transpose(v Value) (Value, error) {
	if v.Rank() <= 1 {
		return v.Clone(), nil
	}
	if v.Rank() != 2 {
		return Value{}, errRank("⍉ supports rank 0..2")
	}
	rows, cols := v.Shape[0], v.Shape[1]
	out := Value{Kind: v.Kind, Shape: []int{cols, rows}}
	if v.Kind == KindNumber {
		nums := make([]float64, rows*cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				nums[c*rows+r] = v.Nums[r*cols+c]
			}
		}
		out.Nums = nums
	} else {
		chars := make([]rune, rows*cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				chars[c*rows+r] = v.Chars[r*cols+c]
			}
		}
		out.Chars = chars
	}
	return out, nil
}

// GradeUp / GradeDown implement `⍋ ⍒` on vectors (spec §4.12.8): a
// stable permutation of origin-relative indices that would sort v.
func GradeUp(origin int, v Value) (Value, error) { return grade(origin, v, false) }
func GradeDown(origin int, v Value) (Value, error) { return grade(origin, v, true) }

func grade(origin int, v Value, desc bool) (Value, error) {
	if v.Rank() > 1 {
		return Value{}, errRank("⍋/⍒ require rank<=1")
	}
	n := v.NElem()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	less := func(i, j int) bool {
		if v.Kind == KindChar {
			if desc {
				return v.Chars[idx[i]] > v.Chars[idx[j]]
			}
			return v.Chars[idx[i]] < v.Chars[idx[j]]
		}
		if desc {
			return v.Nums[idx[i]] > v.Nums[idx[j]]
		}
		return v.Nums[idx[i]] < v.Nums[idx[j]]
	}
	sort.SliceStable(idx, less)
	out := make([]float64, n)
	for i, j := range idx {
		out[i] = float64(origin + j)
	}
	return Vector(out), nil
}

// IndexOf implements dyadic `⍳`: for each element of b, the
// origin-relative position of its first match in a, or origin+len(a)
// if absent (spec §4.12.7).
func IndexOf(origin int, a, b Value) (Value, error) {
	find := func(numX float64, chX rune, isChar bool) float64 {
		for i := 0; i < a.NElem(); i++ {
			if isChar {
				if a.Kind == KindChar && a.Chars[i] == chX {
					return float64(origin + i)
				}
			} else if a.Kind == KindNumber && a.Nums[i] == numX {
				return float64(origin + i)
			}
		}
		return float64(origin + a.NElem())
	}
	if b.IsScalar() {
		if b.Kind == KindChar {
			return Scalar(find(0, b.scalarElemChar(), true)), nil
		}
		return Scalar(find(b.scalarElemNum(), 0, false)), nil
	}
	out := make([]float64, b.NElem())
	for i := range out {
		if b.Kind == KindChar {
			out[i] = find(0, b.Chars[i], true)
		} else {
			out[i] = find(b.Nums[i], 0, false)
		}
	}
	return Vector(out), nil
}

// Membership implements `∈`: a boolean array the shape of a, one per
// element, true if that element occurs anywhere in b (spec §4.12.7).
func Membership(a, b Value) (Value, error) {
	contains := func(numX float64, chX rune, isChar bool) bool {
		for i := 0; i < b.NElem(); i++ {
			if isChar {
				if b.Kind == KindChar && b.Chars[i] == chX {
					return true
				}
			} else if b.Kind == KindNumber && b.Nums[i] == numX {
				return true
			}
		}
		return false
	}
	out := Value{Kind: KindNumber, Shape: append([]int(nil), a.Shape...)}
	nums := make([]float64, a.NElem())
	for i := range nums {
		if a.Kind == KindChar {
			nums[i] = boolOf(contains(0, a.Chars[i], true))
		} else {
			nums[i] = boolOf(contains(a.Nums[i], 0, false))
		}
	}
	out.Nums = nums
	return out, nil
}

// Decode implements dyadic `⊥` (spec §4.12.10): positional-notation
// decode of w under radices b, right-to-left (lowest-order digit last).
func Decode(b, w Value) (Value, error) {
	radices := toFloats(b)
	digits := toFloats(w)
	if len(radices) != len(digits) && len(radices) != 1 {
		return Value{}, errLength("⊥ radix/digit length mismatch")
	}
	total := 0.0
	mult := 1.0
	for i := len(digits) - 1; i >= 0; i-- {
		total += digits[i] * mult
		r := radices[0]
		if len(radices) == len(digits) {
			r = radices[i]
		}
		mult *= r
	}
	return Scalar(total), nil
}

// Encode implements dyadic `⊤`: decompose w into digits under radices b.
func Encode(b, w Value) (Value, error) {
	radices := toFloats(b)
	n := float64(w.scalarElemNum())
	out := make([]float64, len(radices))
	for i := len(radices) - 1; i >= 0; i-- {
		r := radices[i]
		if r == 0 {
			out[i] = n
			n = 0
			continue
		}
		out[i] = floorMod(n, r)
		n = (n - out[i]) / r
	}
	return Vector(out), nil
}

func floorMod(a, b float64) float64 {
	m := a - b*float64(int(a/b))
	if m < 0 {
		m += b
	}
	return m
}

func toFloats(v Value) []float64 {
	if v.IsScalar() {
		return []float64{v.scalarElemNum()}
	}
	return v.Nums
}
