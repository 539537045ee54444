package memory

import "fmt"

// ErrHeapFull is returned when the heap's bump pointer would collide
// with the operand stack (spec §4.2).
var ErrHeapFull = fmt.Errorf("heap-full")

// heap block header: 8 bytes, immediately before the payload offset
// returned by Alloc.
//
//	+0 uint32 length  total bytes including this header, multiple of 8
//	+4 uint32 follow  owner descriptor offset (in use) or next free block (free), or `none`
const blockHeaderSize = 8

func (a *Arena) blockLength(hdrOff uint32) uint32 { return a.u32(hdrOff) }
func (a *Arena) blockFollow(hdrOff uint32) uint32 { return a.u32(hdrOff + 4) }
func (a *Arena) setBlockLength(hdrOff, v uint32)  { a.putU32(hdrOff, v) }
func (a *Arena) setBlockFollow(hdrOff, v uint32)  { a.putU32(hdrOff+4, v) }

func align8(n uint32) uint32 { return (n + 7) &^ 7 }

// HeapAlloc returns the offset of a payload of at least size bytes,
// owned by the descriptor at ownerOff. Strategy: first-fit over the
// free list, splitting when the residual is large enough to host
// another block (spec §4.2); otherwise bump HeapTop. Fails with
// ErrHeapFull when the bump would collide with the operand stack.
func (a *Arena) HeapAlloc(size uint32, ownerOff uint32) (uint32, error) {
	total := align8(size) + blockHeaderSize
	total = align8(total)

	// first-fit over the free list
	var prevHdr uint32 = none
	cur := a.Header.FreeListHead
	for cur != none {
		length := a.blockLength(cur)
		if length >= total {
			residual := length - total
			if residual >= minBlockSize {
				a.setBlockLength(cur, total)
				newFreeHdr := cur + total
				a.setBlockLength(newFreeHdr, residual)
				a.setBlockFollow(newFreeHdr, a.blockFollow(cur))
				a.unlinkFree(prevHdr, cur, newFreeHdr)
			} else {
				a.unlinkFree(prevHdr, cur, a.blockFollow(cur))
			}
			a.setBlockFollow(cur, ownerOff)
			return cur + blockHeaderSize, nil
		}
		prevHdr = cur
		cur = a.blockFollow(cur)
	}

	// bump top-of-heap
	newTop := a.Header.HeapTop + total
	if newTop > a.Header.OpStackTop {
		return 0, ErrHeapFull
	}
	hdr := a.Header.HeapTop
	a.setBlockLength(hdr, total)
	a.setBlockFollow(hdr, ownerOff)
	a.Header.HeapTop = newTop
	return hdr + blockHeaderSize, nil
}

func (a *Arena) unlinkFree(prevHdr, cur, next uint32) {
	if prevHdr == none {
		a.Header.FreeListHead = next
	} else {
		a.setBlockFollow(prevHdr, next)
	}
}

// HeapFree returns the block at payload offset `off` to the free list,
// coalescing with adjacent free neighbours and retracting HeapTop when
// the freed block sits at the top of the heap (spec §4.2).
func (a *Arena) HeapFree(off uint32) {
	hdr := off - blockHeaderSize
	length := a.blockLength(hdr)

	if hdr+length == a.Header.HeapTop {
		a.Header.HeapTop = hdr
		// a free block may now be exposed at the new top; retract through it too
		a.retractThroughFree()
		return
	}

	// try to coalesce with a free block immediately following
	next := hdr + length
	if next < a.Header.HeapTop && a.isFreeBlock(next) {
		nextLen := a.blockLength(next)
		a.removeFreeByOffset(next)
		length += nextLen
		a.setBlockLength(hdr, length)
	}
	// try to coalesce with a free block immediately preceding
	if predHdr, predLen, ok := a.findFreeEndingAt(hdr); ok {
		a.removeFreeByOffset(predHdr)
		a.setBlockLength(predHdr, predLen+length)
		hdr = predHdr
		length = predLen + length
	}

	a.setBlockFollow(hdr, a.Header.FreeListHead)
	a.Header.FreeListHead = hdr
}

// retractThroughFree keeps shrinking HeapTop while the new top happens
// to coincide with a free block already on the list.
func (a *Arena) retractThroughFree() {
	for {
		predHdr, predLen, ok := a.findFreeEndingAt(a.Header.HeapTop)
		if !ok {
			return
		}
		a.removeFreeByOffset(predHdr)
		a.Header.HeapTop = predHdr
		_ = predLen
	}
}

func (a *Arena) isFreeBlock(blockHdr uint32) bool {
	cur := a.Header.FreeListHead
	for cur != none {
		if cur == blockHdr {
			return true
		}
		cur = a.blockFollow(cur)
	}
	return false
}

// findFreeEndingAt scans the free list for a block whose end coincides
// with target, returning its header offset and length.
func (a *Arena) findFreeEndingAt(target uint32) (uint32, uint32, bool) {
	cur := a.Header.FreeListHead
	for cur != none {
		length := a.blockLength(cur)
		if cur+length == target {
			return cur, length, true
		}
		cur = a.blockFollow(cur)
	}
	return 0, 0, false
}

func (a *Arena) removeFreeByOffset(target uint32) {
	var prev uint32 = none
	cur := a.Header.FreeListHead
	for cur != none {
		if cur == target {
			a.unlinkFree(prev, cur, a.blockFollow(cur))
			return
		}
		prev = cur
		cur = a.blockFollow(cur)
	}
}

// HeapStats reports free-list statistics for `)heap` (spec §6.2).
type HeapStats struct {
	Blocks             int
	Min, Max, TotalLen uint32
	InUseBytes         uint32
	TopOfHeap          uint32
}

func (a *Arena) HeapStats() HeapStats {
	var st HeapStats
	cur := a.Header.FreeListHead
	for cur != none {
		length := a.blockLength(cur)
		st.Blocks++
		st.TotalLen += length
		if st.Min == 0 || length < st.Min {
			st.Min = length
		}
		if length > st.Max {
			st.Max = length
		}
		cur = a.blockFollow(cur)
	}
	st.TopOfHeap = a.Header.HeapTop
	st.InUseBytes = (a.Header.HeapTop - a.Header.HeapBase) - st.TotalLen
	return st
}
