package vm

import (
	"github.com/sigfpe8/toy-apl/internal/arrayfn"
	"github.com/sigfpe8/toy-apl/internal/bytecode"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/format"
)

// dyadicFn / monadicFn bind every primitive glyph (spec §4.12.3)
// to its arrayfn implementation, closing over the workspace's current
// ⎕ct/⎕io so a primitive's behaviour tracks live settings (spec §3.4).
func (e *Evaluator) dyadicFn(op bytecode.Op) (arrayfn.DyadicFn, bool) {
	ct := e.ws.CT()
	origin := e.ws.Origin()
	switch op {
	case bytecode.OpPlus:
		return arrayfn.Add, true
	case bytecode.OpMinus:
		return arrayfn.Subtract, true
	case bytecode.OpTimes:
		return arrayfn.Multiply, true
	case bytecode.OpDivide:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Divide(ct, a, b) }, true
	case bytecode.OpCeil:
		return arrayfn.Max, true
	case bytecode.OpFloor:
		return arrayfn.Min, true
	case bytecode.OpPower:
		return arrayfn.Power, true
	case bytecode.OpLog:
		return arrayfn.Log, true
	case bytecode.OpResidue:
		return arrayfn.Residue, true
	case bytecode.OpFactorial:
		return arrayfn.BinomialCoefficient, true
	case bytecode.OpCircle:
		return arrayfn.Circle, true
	case bytecode.OpAnd:
		return arrayfn.And, true
	case bytecode.OpOr:
		return arrayfn.Or, true
	case bytecode.OpNand:
		return arrayfn.Nand, true
	case bytecode.OpNor:
		return arrayfn.Nor, true
	case bytecode.OpLess:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Less(ct, a, b) }, true
	case bytecode.OpLE:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.LessEqual(ct, a, b) }, true
	case bytecode.OpEqual:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Equal(ct, a, b) }, true
	case bytecode.OpNE:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.NotEqual(ct, a, b) }, true
	case bytecode.OpGE:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.GreaterEqual(ct, a, b) }, true
	case bytecode.OpGreater:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Greater(ct, a, b) }, true
	case bytecode.OpRho:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Reshape(a, b) }, true
	case bytecode.OpTake:
		return arrayfn.Take, true
	case bytecode.OpDrop:
		return arrayfn.Drop, true
	case bytecode.OpComma:
		return arrayfn.Catenate, true
	case bytecode.OpRotate:
		return arrayfn.Rotate, true
	case bytecode.OpIota:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.IndexOf(origin, a, b) }, true
	case bytecode.OpMember:
		return arrayfn.Membership, true
	case bytecode.OpDecode:
		return arrayfn.Decode, true
	case bytecode.OpEncode:
		return arrayfn.Encode, true
	case bytecode.OpMatDivide:
		return arrayfn.MatrixDivide, true
	case bytecode.OpRotateF:
		// ⊖ with no [axis] bracket rotates along the first axis (eval.c's
		// FunRotate default-axis rule for the "bar" variant); ⌽ above
		// shares the same engine with a last-axis default.
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.RotateAlongAxis(a, b, 0) }, true
	case bytecode.OpCommaBar:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) { return arrayfn.CatenateAlongAxis(a, b, 0, false) }, true
	case bytecode.OpFormat:
		return func(a, b arrayfn.Value) (arrayfn.Value, error) {
			return linesToValue(format.Dyadic(formatWidths(a), b)), nil
		}, true
	}
	return nil, false
}

// formatWidths flattens ⍕'s left operand (a scalar, 2-vector, or
// 2×ncols vector per spec §4.13.2) into the []float64 internal/format
// expects.
func formatWidths(l arrayfn.Value) []float64 {
	if l.IsScalar() {
		return []float64{l.ScalarNum()}
	}
	return l.Nums
}

// linesToValue turns internal/format's row-per-line output into a
// character value: a single line becomes a plain character vector, two
// or more become a char matrix padded to the widest row with blanks
// (spec §4.13.2, "rows of a matrix are printed one per line").
func linesToValue(lines []string) arrayfn.Value {
	if len(lines) <= 1 {
		s := ""
		if len(lines) == 1 {
			s = lines[0]
		}
		return arrayfn.CharVectorFromString(s)
	}
	rows := make([][]rune, len(lines))
	width := 0
	for i, l := range lines {
		rows[i] = []rune(l)
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	chars := make([]rune, 0, len(lines)*width)
	for _, r := range rows {
		chars = append(chars, r...)
		for i := len(r); i < width; i++ {
			chars = append(chars, ' ')
		}
	}
	return arrayfn.Value{Kind: arrayfn.KindChar, Shape: []int{len(lines), width}, Chars: chars}
}

func (e *Evaluator) monadicFn(op bytecode.Op) (func(arrayfn.Value) (arrayfn.Value, error), bool) {
	ct := e.ws.CT()
	origin := e.ws.Origin()
	switch op {
	case bytecode.OpPlus:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return a, nil }, true
	case bytecode.OpMinus:
		return arrayfn.Negate, true
	case bytecode.OpTimes:
		return arrayfn.Signum, true
	case bytecode.OpDivide:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Reciprocal(ct, a) }, true
	case bytecode.OpCeil:
		return arrayfn.Ceiling, true
	case bytecode.OpFloor:
		return arrayfn.Floor, true
	case bytecode.OpPower:
		return arrayfn.Exp, true
	case bytecode.OpLog:
		return arrayfn.Ln, true
	case bytecode.OpFactorial:
		return arrayfn.Factorial, true
	case bytecode.OpCircle:
		return arrayfn.PiTimes, true
	case bytecode.OpNot:
		return arrayfn.Not, true
	case bytecode.OpRho:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Shape(a), nil }, true
	case bytecode.OpIota:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Iota(origin, a) }, true
	case bytecode.OpComma:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Ravel(a), nil }, true
	case bytecode.OpRotate:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.Reverse(a), nil }, true
	case bytecode.OpTranspose:
		return arrayfn.Transpose, true
	case bytecode.OpGradeUp:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.GradeUp(origin, a) }, true
	case bytecode.OpGradeDown:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.GradeDown(origin, a) }, true
	case bytecode.OpQuestion:
		return func(a arrayfn.Value) (arrayfn.Value, error) {
			n := int(a.Nums[0])
			return arrayfn.Roll(origin, n)
		}, true
	case bytecode.OpRotateF:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return arrayfn.ReverseAlongAxis(a, 0) }, true
	case bytecode.OpFormat:
		return func(a arrayfn.Value) (arrayfn.Value, error) {
			return linesToValue(format.Monadic(a, e.ws.PP())), nil
		}, true
	case bytecode.OpExecute:
		return func(a arrayfn.Value) (arrayfn.Value, error) { return e.Execute(a) }, true
	}
	return nil, false
}

// isCallableOp reports whether op is a primitive glyph the evaluator
// can apply as a function, as opposed to a structural primitive-range
// op (←, ⎕, ∇, ∘, .) that opcodes.go packs into the same numeric range
// but that parseExpr's loop must never mistake for a callable.
func isCallableOp(op bytecode.Op) bool {
	switch op {
	case bytecode.OpPlus, bytecode.OpMinus, bytecode.OpTimes, bytecode.OpDivide,
		bytecode.OpCeil, bytecode.OpFloor, bytecode.OpPower, bytecode.OpLog,
		bytecode.OpResidue, bytecode.OpFactorial, bytecode.OpCircle,
		bytecode.OpAnd, bytecode.OpOr, bytecode.OpNand, bytecode.OpNor,
		bytecode.OpLess, bytecode.OpEqual, bytecode.OpGreater, bytecode.OpLE,
		bytecode.OpNE, bytecode.OpGE, bytecode.OpNot, bytecode.OpQuestion,
		bytecode.OpComma, bytecode.OpCommaBar, bytecode.OpIota, bytecode.OpRho,
		bytecode.OpTake, bytecode.OpDrop, bytecode.OpRotate, bytecode.OpRotateF,
		bytecode.OpTranspose, bytecode.OpGradeUp, bytecode.OpGradeDown,
		bytecode.OpDecode, bytecode.OpEncode, bytecode.OpMatDivide,
		bytecode.OpMember, bytecode.OpExecute, bytecode.OpFormat:
		return true
	}
	return false
}

var errBadFunction = func(op bytecode.Op) error {
	return aplerrors.Eval(aplerrors.BadFunction, "operator %v not supported in this position", op)
}
