package memory

import "fmt"

// ErrArrayOverflow / ErrStackOverflow correspond to spec §7's
// array-overflow / stack-overflow evaluation errors.
var (
	ErrArrayOverflow = fmt.Errorf("array-overflow")
	ErrStackOverflow = fmt.Errorf("stack-overflow")
)

// TempAlloc bumps the temp-array stack downward by size bytes (aligned
// to 8) and returns the offset of the newly reserved region (spec §4.5).
// All intermediate array payloads live here; the region is reset to its
// base after every top-level expression, so nothing here is ever freed
// individually.
func (a *Arena) TempAlloc(size uint32) (uint32, error) {
	sz := align8(size)
	newBase := a.Header.TempBase - sz
	if newBase < a.Header.DescTop {
		return 0, ErrArrayOverflow
	}
	a.Header.TempBase = newBase
	return newBase, nil
}

// TempMark / TempReset save and restore the temp-array stack's base,
// used to discard everything allocated since a top-level expression
// began (spec §4.5, §9).
func (a *Arena) TempMark() uint32        { return a.Header.TempBase }
func (a *Arena) TempReset(mark uint32)   { a.Header.TempBase = mark }

// OpPush reserves room for one descriptor on the operand stack and
// returns its offset (spec §4.6: push pre-decrements).
func (a *Arena) OpPush() (uint32, error) {
	newTop := a.Header.OpStackTop - descriptorSize
	if newTop < a.Header.HeapTop {
		return 0, ErrStackOverflow
	}
	a.Header.OpStackTop = newTop
	return newTop, nil
}

// OpPop releases the topmost descriptor slot (post-increment).
func (a *Arena) OpPop() uint32 {
	off := a.Header.OpStackTop
	a.Header.OpStackTop += descriptorSize
	return off
}

// OpTop returns the offset of the topmost descriptor without popping.
func (a *Arena) OpTop() uint32 { return a.Header.OpStackTop }

// OpDepth reports how many descriptors are currently on the operand stack.
func (a *Arena) OpDepth() int {
	return int((a.Header.OpStackBase - a.Header.OpStackTop) / descriptorSize)
}

// OpMark / OpReset save and restore the operand stack's top, used by
// the recovery-point stack (spec §7/§9) to unwind after an error.
func (a *Arena) OpMark() uint32      { return a.Header.OpStackTop }
func (a *Arena) OpReset(mark uint32) { a.Header.OpStackTop = mark }
