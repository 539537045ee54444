package lexer

import "github.com/sigfpe8/toy-apl/internal/bytecode"

// Kind classifies a raw token before it is resolved against a name
// table and emitted as bytecode (spec §4.9).
type Kind int

const (
	KNum Kind = iota
	KArr
	KChr
	KStr
	KName
	KSysName
	KGlyph // a primitive operator/function glyph, already resolved to its Op
	KLParen
	KRParen
	KLBracket
	KRBracket
	KAxisSep
	KDiamond
	KBranchArrow
)

// Tok is one lexical unit. Num/Nums hold literal values; Str holds
// decoded string/name text; Op holds the resolved primitive for KGlyph.
type Tok struct {
	Kind Kind
	Num  float64
	Nums []float64
	Chr  rune
	Str  string
	Op   bytecode.Op
	Line int
	Col  int
}
