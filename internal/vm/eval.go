package vm

import (
	"fmt"
	"os"
	"time"

	"github.com/kr/pretty"

	"github.com/sigfpe8/toy-apl/internal/arrayfn"
	"github.com/sigfpe8/toy-apl/internal/bytecode"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/funccompiler"
	"github.com/sigfpe8/toy-apl/internal/lexer"
	"github.com/sigfpe8/toy-apl/internal/token"
	"github.com/sigfpe8/toy-apl/internal/workspace"
)

// aplVersion is ⎕ver's 3-element [major minor patch] vector, the shape
// the original interpreter's VarGetSys(SYS_VER) returns rather than a
// version string.
var aplVersion = [3]float64{1, 0, 0}

// Evaluator interprets one compiled bytecode stream (spec §4.11). A
// fresh Evaluator is created per top-level line or per function
// invocation; frame holds the callee's locals/args/return slots, nil at
// top level where every name is global.
type Evaluator struct {
	ws    *workspace.Workspace
	code  []byte
	lits  []float64
	pos   int
	frame []arrayfn.Value
	have  []bool

	// lineOffsets/branchTo support → branching inside a function body;
	// both are nil at top level, where → is a no-op (spec §4.11/§9).
	lineOffsets []int
	branchTo    int // set by a →N inside a function; -1 means no branch pending
}

const noBranch = -1

func newEvaluator(ws *workspace.Workspace, code []byte, lits []float64) *Evaluator {
	return &Evaluator{ws: ws, code: code, lits: lits, branchTo: noBranch}
}

// EvalLine tokenizes, compiles and evaluates one top-level REPL/file
// line. ok reports whether a value resulted (assignments and branches
// produce none to print).
func EvalLine(ws *workspace.Workspace, line string) (arrayfn.Value, bool, error) {
	buf := bytecode.NewBuffer(0)
	if err := compileTop(line, buf); err != nil {
		return arrayfn.Value{}, false, err
	}
	e := newEvaluator(ws, buf.Code, buf.Lits)
	return e.evalStatementList()
}

func (e *Evaluator) trace(label string, v arrayfn.Value) {
	if !e.ws.Dbg() {
		return
	}
	fmt.Printf("⎕dbg %s: %# v\n", label, pretty.Formatter(v))
}

// evalStatementList evaluates diamond-separated statements. Only the
// last one's value (if any) is returned, matching `eval-expression-list`
// printing only the final statement's result at top level (spec §4.11).
func (e *Evaluator) evalStatementList() (arrayfn.Value, bool, error) {
	var last arrayfn.Value
	haveLast := false
	for {
		v, ok, err := e.evalStatement()
		if err != nil {
			return arrayfn.Value{}, false, err
		}
		if e.branchTo != noBranch {
			return arrayfn.Value{}, false, nil
		}
		if ok {
			last, haveLast = v, true
		} else {
			haveLast = false
		}
		op := e.peekOp()
		if op == bytecode.OpDiamond {
			e.pos++
			continue
		}
		break
	}
	e.trace("result", last)
	return last, haveLast, nil
}

// evalStatement evaluates one statement, recognising a trailing
// assignment and the branch arrow as special forms that suppress the
// printed result (spec §4.11).
func (e *Evaluator) evalStatement() (arrayfn.Value, bool, error) {
	if e.peekOp() == bytecode.OpBranch {
		e.pos++
		return e.doBranch(nil)
	}
	v, err := e.parseExpr()
	if err != nil {
		return arrayfn.Value{}, false, err
	}
	if e.peekOp() == bytecode.OpBranch {
		e.pos++
		return e.doBranch(&v)
	}
	if e.peekOp() == bytecode.OpAssign {
		e.pos++
		return e.doAssign(v)
	}
	return v, true, nil
}

// doBranch implements `→` (spec §4.11/§9): a bare → exits the function
// (target line 0 by convention); →N jumps to line N; at top level
// branching is simply a no-op that ends the statement list.
func (e *Evaluator) doBranch(target *arrayfn.Value) (arrayfn.Value, bool, error) {
	// A conditional branch (→(cond)/LABEL) compresses its target down to
	// an empty vector when cond is false: spec §4.11 treats that as "do
	// not branch", not as an error.
	if target != nil && target.NElem() == 0 {
		return arrayfn.Value{}, false, nil
	}
	line := 0
	if target != nil {
		if target.NElem() != 1 {
			return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.Domain, "→ target must be a scalar line number")
		}
		line = int(target.Nums[0])
	}
	if e.lineOffsets == nil {
		return arrayfn.Value{}, false, nil
	}
	e.branchTo = line
	return arrayfn.Value{}, false, nil
}

func (e *Evaluator) doAssign(v arrayfn.Value) (arrayfn.Value, bool, error) {
	op := e.peekOp()
	if op == bytecode.OpRBracket {
		e.pos++
		return e.doIndexedAssign(v)
	}
	if op == bytecode.OpVarSys {
		e.pos++
		idx := int(e.readU32())
		return v, false, e.writeSysVar(idx, v)
	}
	if op != bytecode.OpVarName && op != bytecode.OpVarIdx {
		return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.SyntaxError, "← requires a name on its left")
	}
	e.pos++
	if op == bytecode.OpVarIdx {
		slot := int(e.readI32())
		e.frame[slot] = v
		e.have[slot] = true
		return v, false, nil
	}
	name := e.readName()
	return v, false, e.bindGlobal(name, v)
}

func (e *Evaluator) bindGlobal(name string, v arrayfn.Value) error {
	d, err := valueToDesc(e.ws, v)
	if err != nil {
		return err
	}
	d, err = e.ws.CopyToHeap(d, 0)
	if err != nil {
		return err
	}
	return e.ws.Bind(name, d)
}

func (e *Evaluator) doIndexedAssign(v arrayfn.Value) (arrayfn.Value, bool, error) {
	idx, err := e.parseExpr()
	if err != nil {
		return arrayfn.Value{}, false, err
	}
	if e.peekOp() != bytecode.OpLBracket {
		return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.SyntaxError, "unmatched index bracket")
	}
	e.pos++
	op := e.peekOp()
	if op != bytecode.OpVarName && op != bytecode.OpVarIdx {
		return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.SyntaxError, "indexed assignment requires a name")
	}
	e.pos++
	var cur arrayfn.Value
	var writeBack func(arrayfn.Value) error
	if op == bytecode.OpVarIdx {
		slot := int(e.readI32())
		cur = e.frame[slot]
		writeBack = func(nv arrayfn.Value) error { e.frame[slot] = nv; return nil }
	} else {
		name := e.readName()
		d, ok := e.ws.Lookup(name)
		if !ok {
			return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.UndefinedVariable, "%s", name)
		}
		cur = descToValue(e.ws, d)
		writeBack = func(nv arrayfn.Value) error { return e.bindGlobal(name, nv) }
	}
	i := int(idx.ScalarNum()) - e.ws.Origin()
	if i < 0 || i >= cur.NElem() {
		return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.InvalidIndex, "index out of range")
	}
	if cur.Kind == arrayfn.KindChar {
		cur.Chars[i] = v.ScalarChar()
	} else {
		cur.Nums[i] = v.ScalarNum()
	}
	if err := writeBack(cur); err != nil {
		return arrayfn.Value{}, false, err
	}
	return v, false, nil
}

// RunFunction executes a compiled function object with the given
// arguments, implementing the niladic/monadic/dyadic call protocol of
// spec §4.11. left may be nil for monadic/niladic calls.
func RunFunction(ws *workspace.Workspace, obj *funccompiler.Object, left, right *arrayfn.Value) (arrayfn.Value, bool, error) {
	mark := aplerrors.Mark{OpStackTop: ws.Arena.OpMark(), TempBase: ws.Arena.TempMark()}
	if err := ws.Recovery.Push(mark); err != nil {
		return arrayfn.Value{}, false, err
	}
	defer ws.Recovery.Pop()

	frame := make([]arrayfn.Value, obj.Header.FrameSize())
	have := make([]bool, obj.Header.FrameSize())
	if right != nil && obj.Header.RightArg != "" {
		slot := obj.Header.Frame[obj.Header.RightArg]
		frame[slot], have[slot] = *right, true
	}
	if left != nil && obj.Header.LeftArg != "" {
		slot := obj.Header.Frame[obj.Header.LeftArg]
		frame[slot], have[slot] = *left, true
	}

	e := newEvaluator(ws, obj.Code, obj.Lits)
	e.frame = frame
	e.have = have
	e.lineOffsets = obj.LineOffsets

	for {
		_, _, err := e.evalStatementList()
		if err != nil {
			return arrayfn.Value{}, false, err
		}
		if e.branchTo == noBranch {
			if e.peekOp() == bytecode.OpEnd {
				break
			}
			if e.peekOp() == bytecode.OpNL {
				e.pos++
				continue
			}
			break
		}
		if e.branchTo == 0 || e.branchTo > len(e.lineOffsets) {
			break // → with no target, or past the last line: exit the function
		}
		e.pos = e.lineOffsets[e.branchTo-1]
		e.branchTo = noBranch
	}

	if obj.Header.RetName == "" {
		return arrayfn.Value{}, false, nil
	}
	slot := obj.Header.Frame[obj.Header.RetName]
	if !have[slot] {
		return arrayfn.Value{}, false, aplerrors.Eval(aplerrors.NoReturnValue, "%s did not assign a result", obj.Header.Name)
	}
	return frame[slot], true, nil
}

// --- token stream primitives ---

func (e *Evaluator) peekOp() bytecode.Op {
	if e.pos >= len(e.code) {
		return bytecode.OpEnd
	}
	return bytecode.Op(e.code[e.pos])
}

func (e *Evaluator) readU32() uint32 {
	v := uint32(e.code[e.pos]) | uint32(e.code[e.pos+1])<<8 | uint32(e.code[e.pos+2])<<16 | uint32(e.code[e.pos+3])<<24
	e.pos += 4
	return v
}
func (e *Evaluator) readI32() int32 { return int32(e.readU32()) }

func (e *Evaluator) readName() string {
	n := int(e.code[e.pos])
	e.pos++
	s := string(e.code[e.pos : e.pos+n])
	e.pos += n
	return s
}

// isOperandStart reports whether the token at the current position can
// begin a standalone operand, as opposed to continuing a monadic
// function chain (spec §4.11's lookahead rule, see internal/vm's
// doc comments on how buffer reversal turns this into forward lookahead).
func (e *Evaluator) isOperandStart() bool {
	switch e.peekOp() {
	case bytecode.OpEnd, bytecode.OpNL, bytecode.OpDiamond, bytecode.OpLParen,
		bytecode.OpAssign, bytecode.OpBranch, bytecode.OpLBracket, bytecode.OpAxisSep:
		return false
	}
	if isCallableOp(e.peekOp()) || e.peekIsFunctionName() {
		return false
	}
	return true
}

// peekIsFunctionName reports whether the current VARNAME token names a
// user-defined function rather than a data variable, without consuming
// it.
func (e *Evaluator) peekIsFunctionName() bool {
	if e.peekOp() != bytecode.OpVarName {
		return false
	}
	save := e.pos
	e.pos++
	name := e.readName()
	e.pos = save
	entry, ok := e.ws.LookupEntry(name)
	return ok && entry.Type.IsFunction()
}

// parseExpr parses one full right-to-left sub-expression terminated by
// END/NL/DIAMOND/←/→/a closing bracket it does not own (spec §4.11).
func (e *Evaluator) parseExpr() (arrayfn.Value, error) {
	right, err := e.parseAtom()
	if err != nil {
		return arrayfn.Value{}, err
	}
	for {
		op := e.peekOp()
		switch {
		case op == bytecode.OpSlash || op == bytecode.OpBackslash:
			e.pos++
			// `/` and `\` are both a reduce/scan operator (when followed
			// by the function they apply, spec §4.12.9) and a dyadic
			// compress/expand function (when followed by a mask value,
			// spec §4.12.6) — the same forward-token-after-consuming-the-
			// glyph position serves both, disambiguated by what kind of
			// token comes next.
			if isCallableOp(e.peekOp()) || e.peekIsFunctionName() {
				fn, err := e.consumeCallableAsDyadic()
				if err != nil {
					return arrayfn.Value{}, err
				}
				if op == bytecode.OpSlash {
					right, err = arrayfn.Reduce(fn, right)
				} else {
					right, err = arrayfn.Scan(fn, right)
				}
				if err != nil {
					return arrayfn.Value{}, err
				}
				continue
			}
			mask, err := e.parseAtom()
			if err != nil {
				return arrayfn.Value{}, err
			}
			if op == bytecode.OpSlash {
				right, err = arrayfn.Compress(mask, right)
			} else {
				right, err = arrayfn.Expand(mask, right)
			}
			if err != nil {
				return arrayfn.Value{}, err
			}
			continue
		case op == bytecode.OpRBracket:
			// `[axis]` before a primitive (spec §4.11/§4.12: ⌽[axis],
			// ⊖[axis], ,[axis], ⍪[axis], /[axis], \[axis]). The reversed
			// buffer puts the axis bracket's closing glyph first:
			// RBRACKET axisExpr LBRACKET <primitive>, mirroring the
			// NAME[idx] indexed-read form but appearing after an operand
			// already sits in `right` rather than at the start of an atom
			// (grounded on eval.c's EvlExpr main loop).
			e.pos++
			axisVal, err := e.parseExpr()
			if err != nil {
				return arrayfn.Value{}, err
			}
			if e.peekOp() != bytecode.OpLBracket {
				return arrayfn.Value{}, aplerrors.Eval(aplerrors.SyntaxError, "missing [ in axis specification")
			}
			e.pos++
			r, err := e.applyAxisOp(axisVal, right)
			if err != nil {
				return arrayfn.Value{}, err
			}
			right = r
			continue
		case isCallableOp(op) || e.peekIsFunctionName():
			r, err := e.applyCallable(right)
			if err != nil {
				return arrayfn.Value{}, err
			}
			right = r
			continue
		}
		return right, nil
	}
}

// applyCallable consumes the function token at the current position and
// decides monadic vs. dyadic by checking whether an operand follows.
func (e *Evaluator) applyCallable(right arrayfn.Value) (arrayfn.Value, error) {
	if e.peekOp() == bytecode.OpVarName {
		return e.applyUserFunction(right, nil)
	}
	op := e.peekOp()
	e.pos++
	if !e.isOperandStart() {
		fn, ok := e.monadicFn(op)
		if !ok {
			return arrayfn.Value{}, errBadFunction(op)
		}
		return fn(right)
	}
	left, err := e.parseAtom()
	if err != nil {
		return arrayfn.Value{}, err
	}
	fn, ok := e.dyadicFn(op)
	if !ok {
		return arrayfn.Value{}, errBadFunction(op)
	}
	return fn(left, right)
}

func (e *Evaluator) applyUserFunction(right arrayfn.Value, left *arrayfn.Value) (arrayfn.Value, error) {
	name := e.readName() // consumes the VARNAME token itself
	obj, err := e.loadFunction(name)
	if err != nil {
		return arrayfn.Value{}, err
	}
	if left == nil && obj.Header.LeftArg != "" && e.isOperandStart() {
		l, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		left = &l
	}
	v, _, err := RunFunction(e.ws, obj, left, &right)
	return v, err
}

func (e *Evaluator) loadFunction(name string) (*funccompiler.Object, error) {
	return LoadFunction(e.ws, name)
}

// applyLeadingUserFunction handles a user-defined function encountered
// where parseAtom expects a plain operand: its own right argument has
// not been parsed yet, unlike applyUserFunction's case where the main
// loop already accumulated one.
func (e *Evaluator) applyLeadingUserFunction() (arrayfn.Value, error) {
	name := e.readName()
	obj, err := e.loadFunction(name)
	if err != nil {
		return arrayfn.Value{}, err
	}
	right, err := e.parseAtom()
	if err != nil {
		return arrayfn.Value{}, err
	}
	var left *arrayfn.Value
	if obj.Header.LeftArg != "" && e.isOperandStart() {
		l, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		left = &l
	}
	v, _, err := RunFunction(e.ws, obj, left, &right)
	return v, err
}

// consumeCallableAsDyadic reads the primitive glyph that follows a `/`
// or `\` and returns it bound as a DyadicFn for Reduce/Scan.
func (e *Evaluator) consumeCallableAsDyadic() (arrayfn.DyadicFn, error) {
	op := e.peekOp()
	if !isCallableOp(op) {
		return nil, aplerrors.Eval(aplerrors.BadFunction, "/ and \\ require a primitive function operand")
	}
	e.pos++
	fn, ok := e.dyadicFn(op)
	if !ok {
		return nil, errBadFunction(op)
	}
	return fn, nil
}

// applyAxisOp consumes the primitive glyph following a parsed
// `[axis]` bracket and dispatches to the axis-aware arrayfn primitive.
// ⌽/⊖ and `,`/⍪ share one implementation each in internal/arrayfn,
// differing only in which axis `[axis]`'s absence would default to
// (applyAxisOp never sees that case — the bracket was always given here);
// the op itself only decides the monadic/dyadic legality of a [axis]
// form, per eval.c's per-primitive axis rules.
func (e *Evaluator) applyAxisOp(axisVal arrayfn.Value, right arrayfn.Value) (arrayfn.Value, error) {
	origin := e.ws.Origin()
	op := e.peekOp()
	e.pos++
	switch op {
	case bytecode.OpRotate, bytecode.OpRotateF:
		firstAxis := op == bytecode.OpRotateF
		axis, laminate, err := arrayfn.ResolveAxis(&axisVal, right.Rank(), origin, firstAxis)
		if err != nil {
			return arrayfn.Value{}, err
		}
		if laminate {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.InvalidAxis, "⌽/⊖ do not accept a non-integer [axis]")
		}
		if !e.isOperandStart() {
			return arrayfn.ReverseAlongAxis(right, axis)
		}
		left, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		return arrayfn.RotateAlongAxis(left, right, axis)
	case bytecode.OpComma, bytecode.OpCommaBar:
		firstAxis := op == bytecode.OpCommaBar
		if !e.isOperandStart() {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.SyntaxError, ", has no monadic [axis] form")
		}
		left, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		rank := left.Rank()
		if right.Rank() > rank {
			rank = right.Rank()
		}
		axis, laminate, err := arrayfn.ResolveAxis(&axisVal, rank, origin, firstAxis)
		if err != nil {
			return arrayfn.Value{}, err
		}
		return arrayfn.CatenateAlongAxis(left, right, axis, laminate)
	case bytecode.OpSlash, bytecode.OpBackslash:
		if isCallableOp(e.peekOp()) || e.peekIsFunctionName() {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.NotImplemented, "reduce/scan do not support [axis]")
		}
		mask, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		axis, laminate, err := arrayfn.ResolveAxis(&axisVal, right.Rank(), origin, false)
		if err != nil {
			return arrayfn.Value{}, err
		}
		if laminate {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.InvalidAxis, "/ and \\ do not accept a non-integer [axis]")
		}
		if op == bytecode.OpSlash {
			return arrayfn.CompressAlongAxis(mask, right, axis)
		}
		return arrayfn.ExpandAlongAxis(mask, right, axis)
	}
	return arrayfn.Value{}, aplerrors.Eval(aplerrors.SyntaxError, "[axis] is not valid before this function")
}

// parseAtom parses one irreducible operand: a literal, a name, a
// system variable/function, a parenthesized sub-expression, or a
// leading monadic function chain with no preceding value.
func (e *Evaluator) parseAtom() (arrayfn.Value, error) {
	op := e.peekOp()
	switch op {
	case bytecode.OpNum:
		e.pos++
		idx := e.readU32()
		return arrayfn.Scalar(e.lits[idx]), nil
	case bytecode.OpArr:
		e.pos++
		n := e.readU32()
		first := e.readU32()
		nums := append([]float64(nil), e.lits[first:first+n]...)
		return arrayfn.Vector(nums), nil
	case bytecode.OpChr:
		e.pos++
		r := rune(e.readU32())
		return arrayfn.CharScalar(r), nil
	case bytecode.OpStr:
		e.pos++
		n := int(e.code[e.pos])
		e.pos++
		s := string(e.code[e.pos : e.pos+n])
		e.pos += n
		return arrayfn.CharVectorFromString(s), nil
	case bytecode.OpVarIdx:
		e.pos++
		slot := int(e.readI32())
		if !e.have[slot] {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.UndefinedVariable, "undefined local")
		}
		return e.frame[slot], nil
	case bytecode.OpVarName:
		if e.peekIsFunctionName() {
			return e.applyLeadingUserFunction()
		}
		e.pos++
		name := e.readName()
		d, ok := e.ws.Lookup(name)
		if !ok {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.UndefinedVariable, "%s", name)
		}
		return descToValue(e.ws, d), nil
	case bytecode.OpVarSys:
		e.pos++
		idx := int(e.readU32())
		return e.readSysVar(idx)
	case bytecode.OpSysFun1:
		e.pos++
		idx := int(e.readU32())
		arg, err := e.parseAtom()
		if err != nil {
			return arrayfn.Value{}, err
		}
		return e.callSysFunc(idx, arg)
	case bytecode.OpRParen:
		e.pos++ // buffer is reversed: RParen opens the group when scanning forward
		v, err := e.parseExpr()
		if err != nil {
			return arrayfn.Value{}, err
		}
		if e.peekOp() != bytecode.OpLParen {
			return arrayfn.Value{}, aplerrors.Eval(aplerrors.UnmatchedParen, "missing (")
		}
		e.pos++
		return v, nil
	case bytecode.OpRBracket:
		return e.parseIndexRead()
	default:
		if isCallableOp(op) {
			e.pos++
			arg, err := e.parseAtom()
			if err != nil {
				return arrayfn.Value{}, err
			}
			fn, ok := e.monadicFn(op)
			if !ok {
				return arrayfn.Value{}, errBadFunction(op)
			}
			return fn(arg)
		}
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.SyntaxError, "unexpected token %v", op)
	}
}

// parseIndexRead parses `NAME[idx]`, whose buffer form (reversed) is
// RBRACKET idx LBRACKET NAME (spec §4.11 "Indexed get").
func (e *Evaluator) parseIndexRead() (arrayfn.Value, error) {
	e.pos++ // consume RBracket (the reversed "open" marker)
	idx, err := e.parseExpr()
	if err != nil {
		return arrayfn.Value{}, err
	}
	if e.peekOp() != bytecode.OpLBracket {
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.UnmatchedBrackets, "missing [")
	}
	e.pos++
	base, err := e.parseAtom()
	if err != nil {
		return arrayfn.Value{}, err
	}
	i := int(idx.ScalarNum()) - e.ws.Origin()
	if i < 0 || i >= base.NElem() {
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.InvalidIndex, "index out of range")
	}
	if base.Kind == arrayfn.KindChar {
		return arrayfn.CharScalar(base.Chars[i]), nil
	}
	return arrayfn.Scalar(base.Nums[i]), nil
}

func (e *Evaluator) readSysVar(idx int) (arrayfn.Value, error) {
	name, ok := token.SysNameByIndex(token.SysVar, idx)
	if !ok {
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.BadSystemName, "unknown system variable index %d", idx)
	}
	switch name {
	case "io":
		return arrayfn.Scalar(float64(e.ws.Origin())), nil
	case "ct":
		return arrayfn.Scalar(e.ws.CT()), nil
	case "pp":
		return arrayfn.Scalar(float64(e.ws.PP())), nil
	case "ver":
		return arrayfn.Vector([]float64{aplVersion[0], aplVersion[1], aplVersion[2]}), nil
	case "wsid":
		return arrayfn.CharVectorFromString(e.ws.Wsid()), nil
	case "dbg":
		if e.ws.Dbg() {
			return arrayfn.Scalar(1), nil
		}
		return arrayfn.Scalar(0), nil
	case "pid":
		return arrayfn.Scalar(float64(os.Getpid())), nil
	case "a":
		return arrayfn.CharVectorFromString("ABCDEFGHIJKLMNOPQRSTUVWXYZ"), nil
	case "d":
		return arrayfn.CharVectorFromString("0123456789"), nil
	case "ts":
		return sysTimestamp(), nil
	default:
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.BadSystemName, "unreadable system variable %s", name)
	}
}

// sysTimestamp builds ⎕ts's 7-element vector — year, month, day, hour,
// minute, second, microsecond — matching VarGetSys(SYS_TS) in the
// original interpreter.
func sysTimestamp() arrayfn.Value {
	now := time.Now()
	return arrayfn.Vector([]float64{
		float64(now.Year()),
		float64(now.Month()),
		float64(now.Day()),
		float64(now.Hour()),
		float64(now.Minute()),
		float64(now.Second()),
		float64(now.Nanosecond() / 1000),
	})
}

func (e *Evaluator) writeSysVar(idx int, v arrayfn.Value) error {
	name, ok := token.SysNameByIndex(token.SysVar, idx)
	if !ok {
		return aplerrors.Eval(aplerrors.BadSystemName, "unknown system variable index %d", idx)
	}
	switch name {
	case "io":
		return e.ws.SetOrigin(int(v.ScalarNum()))
	case "ct":
		return e.ws.SetCT(v.ScalarNum())
	case "pp":
		return e.ws.SetPP(int(v.ScalarNum()))
	case "wsid":
		return e.ws.SetWsid(string(v.Chars))
	case "dbg":
		e.ws.SetDbg(v.ScalarNum() != 0)
		return nil
	default:
		return aplerrors.Eval(aplerrors.ReadOnlySystemVar, "⎕%s is not settable", name)
	}
}

func (e *Evaluator) callSysFunc(idx int, arg arrayfn.Value) (arrayfn.Value, error) {
	name, ok := token.SysNameByIndex(token.SysFunc, idx)
	if !ok {
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.BadSystemName, "unknown system function index %d", idx)
	}
	switch name {
	case "ident":
		return arrayfn.Identity(int(arg.ScalarNum()))
	case "rref":
		return arrayfn.RREF(arg)
	case "lu":
		return arrayfn.LU(arg)
	default:
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.NotImplemented, "⎕%s", name)
	}
}

// Execute implements monadic `⍎` (spec §4.11): treat a character-vector
// argument as a line of source text and run it through a nested
// lexer/compile/evaluate pass in this evaluator's own workspace, the
// same re-entrant recovery-point protocol RunFunction uses for a
// user-defined function call.
func (e *Evaluator) Execute(arg arrayfn.Value) (arrayfn.Value, error) {
	if arg.Kind != arrayfn.KindChar {
		return arrayfn.Value{}, aplerrors.Eval(aplerrors.Domain, "⍎ requires a character vector")
	}
	mark := aplerrors.Mark{OpStackTop: e.ws.Arena.OpMark(), TempBase: e.ws.Arena.TempMark()}
	if err := e.ws.Recovery.Push(mark); err != nil {
		return arrayfn.Value{}, err
	}
	defer e.ws.Recovery.Pop()

	v, ok, err := EvalLine(e.ws, string(arg.Chars))
	if err != nil {
		return arrayfn.Value{}, err
	}
	if !ok {
		return arrayfn.Value{}, nil
	}
	return v, nil
}

// topResolver is the NameResolver for top-level lines: every name is
// global, so neither a local frame slot nor a label ever resolves.
type topResolver struct{}

func (topResolver) Resolve(string) (int, bool)      { return 0, false }
func (topResolver) ResolveLabel(string) (int, bool) { return 0, false }

func compileTop(line string, buf *bytecode.Buffer) error {
	return lexer.CompileLine(line, 0, buf, topResolver{})
}
