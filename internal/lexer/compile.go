// Package lexer implements the UTF-8 codec (C7) and the lexer/expression
// compiler (C9) of spec §4.7/§4.9: it turns a source line into a
// sequence of raw tokens and then emits them as reverse-order bytecode
// into a bytecode.Buffer, so that a left-to-right scan of the buffer by
// the evaluator reproduces APL's right-to-left evaluation order.
package lexer

import (
	"github.com/sigfpe8/toy-apl/internal/bytecode"
	aplerrors "github.com/sigfpe8/toy-apl/internal/errors"
	"github.com/sigfpe8/toy-apl/internal/token"
)

// NameResolver lets the function compiler (C10) override how a plain
// name token is emitted: as a frame-relative VARINX for a local/arg/
// return/label, or left to the default VARNAM global-name form. A nil
// Resolve always falls through to VARNAM (used outside function bodies,
// where every name is a global).
type NameResolver interface {
	Resolve(name string) (slot int, isLocal bool)
	ResolveLabel(name string) (line int, ok bool)
}

// CompileLine tokenizes and emits one line of source. Tokens are
// prepended to buf in document order, which — because Buffer.Prepend
// always inserts before what is already there — leaves the line's
// bytecode in the reverse of source order: the rightmost token ends up
// first in the buffer, exactly the order the evaluator wants to read in
// a single left-to-right pass (spec §4.9/§4.11).
func CompileLine(line string, lineNo int, buf *bytecode.Buffer, resolve NameResolver) error {
	toks, err := Tokenize(line, lineNo)
	if err != nil {
		return err
	}
	for _, t := range toks {
		if err := emitToken(t, buf, resolve); err != nil {
			return err
		}
	}
	return nil
}

func emitToken(t Tok, buf *bytecode.Buffer, resolve NameResolver) error {
	switch t.Kind {
	case KNum:
		idx, err := buf.AddLiteral(t.Num)
		if err != nil {
			return err
		}
		buf.Prepend(u32bytes(uint32(idx))...)
		buf.PrependOp(bytecode.OpNum)
	case KArr:
		first := -1
		for _, n := range t.Nums {
			idx, err := buf.AddLiteral(n)
			if err != nil {
				return err
			}
			if first == -1 {
				first = idx
			}
		}
		bs := append(u32bytes(uint32(len(t.Nums))), u32bytes(uint32(first))...)
		buf.Prepend(bs...)
		buf.PrependOp(bytecode.OpArr)
	case KChr:
		buf.Prepend(u32bytes(uint32(t.Chr))...)
		buf.PrependOp(bytecode.OpChr)
	case KStr:
		bs := append([]byte{byte(len(t.Str))}, []byte(t.Str)...)
		buf.Prepend(bs...)
		buf.PrependOp(bytecode.OpStr)
	case KSysName:
		e, _ := token.LookupSysName(t.Str)
		if e.Kind == token.SysFunc {
			buf.Prepend(u32bytes(uint32(e.Index))...)
			buf.PrependOp(bytecode.OpSysFun1)
		} else {
			buf.Prepend(u32bytes(uint32(e.Index))...)
			buf.PrependOp(bytecode.OpVarSys)
		}
	case KName:
		if resolve != nil {
			if line, ok := resolve.ResolveLabel(t.Str); ok {
				idx, err := buf.AddLiteral(float64(line))
				if err != nil {
					return err
				}
				buf.Prepend(u32bytes(uint32(idx))...)
				buf.PrependOp(bytecode.OpNum)
				return nil
			}
			if slot, isLocal := resolve.Resolve(t.Str); isLocal {
				buf.Prepend(i32bytes(int32(slot))...)
				buf.PrependOp(bytecode.OpVarIdx)
				return nil
			}
		}
		bs := append([]byte{byte(len(t.Str))}, []byte(t.Str)...)
		buf.Prepend(bs...)
		buf.PrependOp(bytecode.OpVarName)
	case KGlyph:
		buf.PrependOp(t.Op)
	case KLParen:
		buf.PrependOp(bytecode.OpLParen)
	case KRParen:
		buf.PrependOp(bytecode.OpRParen)
	case KLBracket:
		buf.PrependOp(bytecode.OpLBracket)
	case KRBracket:
		buf.PrependOp(bytecode.OpRBracket)
	case KAxisSep:
		buf.PrependOp(bytecode.OpAxisSep)
	case KDiamond:
		buf.PrependOp(bytecode.OpDiamond)
	case KBranchArrow:
		buf.PrependOp(bytecode.OpBranch)
	default:
		return aplerrors.Lex(aplerrors.BadToken, "internal: unhandled token kind %v", t.Kind).WithLine(t.Line, t.Col)
	}
	return nil
}

func u32bytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
func i32bytes(v int32) []byte { return u32bytes(uint32(v)) }

// endsInBranch reports whether toks' last non-trivial token is a
// branch arrow, in which case the line terminator stays `→` instead of
// an explicit NL (spec §4.10 step 3).
func endsInBranch(toks []Tok) bool {
	if len(toks) == 0 {
		return false
	}
	return toks[len(toks)-1].Kind == KBranchArrow
}

// CompileFunctionLine compiles one line of a function body, appending a
// trailing NL unless the line's last token is a branch arrow (which
// already serves as the line terminator), per spec §4.10 step 3.
func CompileFunctionLine(line string, lineNo int, buf *bytecode.Buffer, resolve NameResolver) error {
	toks, err := Tokenize(line, lineNo)
	if err != nil {
		return err
	}
	if !endsInBranch(toks) {
		buf.PrependOp(bytecode.OpNL)
	}
	for _, t := range toks {
		if err := emitToken(t, buf, resolve); err != nil {
			return err
		}
	}
	return nil
}
