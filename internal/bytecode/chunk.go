package bytecode

import "errors"

// ErrCodeFull / ErrTooManyLiterals mirror spec §4.9's lexical errors:
// the bytecode region (filling high to low) collided with the literal
// region (filling low to high) inside the scratch buffer.
var (
	ErrCodeFull         = errors.New("code-full")
	ErrTooManyLiterals  = errors.New("too-many-literals")
)

// Buffer is the lexer/compiler scratch layout of spec §4.9:
//
//	[ source | align | line-offset table | literals → ←  bytecode ]
//
// Literals (float64 constants) grow upward from Lits[0]; the bytecode
// stream grows downward by prepending: tokens are emitted in source
// order and each one is prepended, so once compilation of a line
// finishes, Code holds it right to left (rightmost token first).
type Buffer struct {
	Lits []float64
	Code []byte
	cap  int // literal-table capacity, 0 = unbounded (tests / REPL use)
}

// NewBuffer creates an empty scratch buffer. cap bounds the literal
// table the way a fixed-size arena scratch region would; pass 0 for no
// bound (internal/vm's EvalLine does this for every top-level line,
// including a nested ⍎, which re-enters EvalLine).
func NewBuffer(litCap int) *Buffer {
	return &Buffer{cap: litCap}
}

// AddLiteral appends a literal and returns its index, or
// ErrTooManyLiterals if the buffer's capacity is exceeded.
func (b *Buffer) AddLiteral(v float64) (int, error) {
	if b.cap > 0 && len(b.Lits) >= b.cap {
		return 0, ErrTooManyLiterals
	}
	b.Lits = append(b.Lits, v)
	return len(b.Lits) - 1, nil
}

// Prepend inserts bytes at the front of Code, implementing the
// reverse-order emission of spec §4.9: the lexer emits tokens left to
// right and prepends each one's bytes, so the final buffer reads the
// line right to left.
func (b *Buffer) Prepend(bs ...byte) {
	b.Code = append(append([]byte{}, bs...), b.Code...)
}

// PrependOp is a convenience wrapper for the common single-opcode case.
func (b *Buffer) PrependOp(op Op) { b.Prepend(byte(op)) }

// Len returns the number of bytes currently in Code.
func (b *Buffer) Len() int { return len(b.Code) }
