// Package memory implements the workspace arena: a single contiguous
// byte buffer partitioned into a name table, a heap with free-list
// coalescing, an operand stack, a descriptor pool, a temp-array stack
// and a REPL/compile scratch buffer. Every cross-reference inside the
// arena is a byte offset, never a pointer, so the whole buffer can be
// written to disk and reloaded at a different address (spec §3.4/§4.1).
package memory

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Magic identifies a workspace image file (spec §3.4/§6.4).
const Magic uint32 = 0x41504C31 // "APL1"

// Version is bumped whenever the on-disk layout changes incompatibly.
const Version uint32 = 1

// MaxRank bounds array rank in the default memory model (spec §3.1).
const MaxRank = 14

// none is the free-list / owner sentinel meaning "no offset".
const none uint32 = 0xFFFFFFFF

// Default region sizes for a 1 MiB arena (spec §4.1).
const (
	DefaultSize    = 1 << 20
	MaxSize        = 2 << 30
	headerSize     = 128
	minNameTable   = 4 * 1024
	minReplBuffer  = 8 * 1024
	bucketCount    = 32 // power of two, spec §4.4
	minBlockSize   = 128
	descriptorSize = 80 // type+rank+pad+shape[14]int32+payload(8), 8-aligned
)

// Header sits at offset 0 of the arena and is the only fixed-position
// structure. Everything else is located relative to fields here.
type Header struct {
	Magic   uint32
	Version uint32

	// Region boundaries, all offsets from the arena base.
	NameBase, NameEnd       uint32 // name table: bump-allocated upward
	HeapBase, HeapTop       uint32 // heap: bump-allocated upward
	OpStackBase, OpStackTop uint32 // operand stack: bump-allocated downward, shares the gap with the heap
	DescBase, DescTop       uint32 // descriptor pool: bump-allocated upward
	TempBase, TempTop       uint32 // temp-array stack: bump-allocated downward, shares the gap with the descriptor pool
	ReplBase, ReplEnd       uint32 // REPL/compile scratch buffer

	FreeListHead uint32 // offset of first free heap block, or `none`
	DescFreeHead uint32 // offset of first free descriptor slot, or `none`

	// Persisted user settings (spec §3.4).
	Origin    int32   // index origin, 0 or 1
	PP        int32   // print precision, 1..16
	CT        float64 // comparison tolerance
	Dbg       int32   // ⎕dbg flag
	WsidLen   uint8
	Wsid      [31]byte
}

func (h *Header) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.NameBase)
	binary.LittleEndian.PutUint32(buf[12:], h.NameEnd)
	binary.LittleEndian.PutUint32(buf[16:], h.HeapBase)
	binary.LittleEndian.PutUint32(buf[20:], h.HeapTop)
	binary.LittleEndian.PutUint32(buf[24:], h.OpStackBase)
	binary.LittleEndian.PutUint32(buf[28:], h.OpStackTop)
	binary.LittleEndian.PutUint32(buf[32:], h.DescBase)
	binary.LittleEndian.PutUint32(buf[36:], h.DescTop)
	binary.LittleEndian.PutUint32(buf[40:], h.TempBase)
	binary.LittleEndian.PutUint32(buf[44:], h.TempTop)
	binary.LittleEndian.PutUint32(buf[48:], h.ReplBase)
	binary.LittleEndian.PutUint32(buf[52:], h.ReplEnd)
	binary.LittleEndian.PutUint32(buf[56:], h.FreeListHead)
	binary.LittleEndian.PutUint32(buf[60:], h.DescFreeHead)
	binary.LittleEndian.PutUint32(buf[64:], uint32(h.Origin))
	binary.LittleEndian.PutUint32(buf[68:], uint32(h.PP))
	binary.LittleEndian.PutUint64(buf[72:], math.Float64bits(h.CT))
	binary.LittleEndian.PutUint32(buf[80:], uint32(h.Dbg))
	buf[84] = h.WsidLen
	copy(buf[85:85+31], h.Wsid[:])
}

func (h *Header) decode(buf []byte) {
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	h.NameBase = binary.LittleEndian.Uint32(buf[8:])
	h.NameEnd = binary.LittleEndian.Uint32(buf[12:])
	h.HeapBase = binary.LittleEndian.Uint32(buf[16:])
	h.HeapTop = binary.LittleEndian.Uint32(buf[20:])
	h.OpStackBase = binary.LittleEndian.Uint32(buf[24:])
	h.OpStackTop = binary.LittleEndian.Uint32(buf[28:])
	h.DescBase = binary.LittleEndian.Uint32(buf[32:])
	h.DescTop = binary.LittleEndian.Uint32(buf[36:])
	h.TempBase = binary.LittleEndian.Uint32(buf[40:])
	h.TempTop = binary.LittleEndian.Uint32(buf[44:])
	h.ReplBase = binary.LittleEndian.Uint32(buf[48:])
	h.ReplEnd = binary.LittleEndian.Uint32(buf[52:])
	h.FreeListHead = binary.LittleEndian.Uint32(buf[56:])
	h.DescFreeHead = binary.LittleEndian.Uint32(buf[60:])
	h.Origin = int32(binary.LittleEndian.Uint32(buf[64:]))
	h.PP = int32(binary.LittleEndian.Uint32(buf[68:]))
	h.CT = math.Float64frombits(binary.LittleEndian.Uint64(buf[72:]))
	h.Dbg = int32(binary.LittleEndian.Uint32(buf[80:]))
	h.WsidLen = buf[84]
	copy(h.Wsid[:], buf[85:85+31])
}

// Arena is the workspace's single contiguous allocation.
type Arena struct {
	Buf    []byte
	Header Header
}

// New carves a fresh arena of the given total size following the
// region layout of spec §3.4:
//
//	[ header | name table | heap ↑↓ operand stack |
//	  descriptor pool ↑↓ temp-array stack | REPL/compile buffer ]
func New(size int) (*Arena, error) {
	if size < 64*1024 {
		return nil, fmt.Errorf("memory: arena size %d too small", size)
	}
	if size > MaxSize {
		return nil, fmt.Errorf("memory: arena size %d exceeds max %d", size, MaxSize)
	}
	a := &Arena{Buf: make([]byte, size)}

	remaining := size - headerSize
	nameSize := remaining / 8
	if nameSize < minNameTable {
		nameSize = minNameTable
	}
	replSize := remaining / 16
	if replSize < minReplBuffer {
		replSize = minReplBuffer
	}
	remaining -= nameSize + replSize
	if remaining < 4096 {
		return nil, fmt.Errorf("memory: arena size %d leaves no room for heap/descriptors", size)
	}
	heapOpRegion := remaining * 2 / 3
	descTempRegion := remaining - heapOpRegion

	h := &a.Header
	h.Magic = Magic
	h.Version = Version
	h.NameBase = headerSize
	h.NameEnd = h.NameBase
	h.HeapBase = h.NameBase + uint32(nameSize)
	h.HeapTop = h.HeapBase
	h.OpStackBase = h.HeapBase + uint32(heapOpRegion)
	h.OpStackTop = h.OpStackBase
	h.DescBase = h.OpStackBase
	h.DescTop = h.DescBase
	h.TempBase = h.DescBase + uint32(descTempRegion)
	h.TempTop = h.TempBase
	h.ReplBase = h.TempBase
	h.ReplEnd = h.ReplBase + uint32(replSize)
	h.FreeListHead = none
	h.DescFreeHead = none
	h.Origin = 1
	h.PP = 10
	h.CT = 1e-13
	h.Dbg = 0

	if int(h.ReplEnd) != size {
		// absorb rounding remainder into the REPL buffer
		h.ReplEnd = uint32(size)
	}
	return a, nil
}

// Image serializes the arena up to the top of its highest used region
// (spec §6.4). The returned slice shares no memory with the arena.
func (a *Arena) Image() []byte {
	top := a.Header.ReplEnd
	if a.Header.TempBase > top {
		top = a.Header.TempBase
	}
	out := make([]byte, top)
	a.Header.encode(out[:headerSize])
	copy(out[headerSize:], a.Buf[headerSize:top])
	return out
}

// LoadImage rebuilds an Arena from bytes written by Image. The arena's
// backing buffer is re-allocated to the original total size recorded by
// New (callers pass the same size they saved with); positions inside
// the image are offsets, so they need no relocation.
func LoadImage(data []byte, totalSize int) (*Arena, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("memory: image too short")
	}
	var h Header
	h.decode(data[:headerSize])
	if h.Magic != Magic {
		return nil, fmt.Errorf("memory: bad magic %x", h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("memory: unsupported image version %d", h.Version)
	}
	if totalSize < len(data) {
		totalSize = len(data)
	}
	a := &Arena{Buf: make([]byte, totalSize), Header: h}
	copy(a.Buf, data)
	return a, nil
}

// u32 / putU32 are small helpers used throughout the package to read and
// write offsets and lengths in the arena's byte buffer.
func (a *Arena) u32(off uint32) uint32 { return binary.LittleEndian.Uint32(a.Buf[off:]) }
func (a *Arena) putU32(off uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.Buf[off:], v)
}
func (a *Arena) f64(off uint32) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(a.Buf[off:]))
}
func (a *Arena) putF64(off uint32, v float64) {
	binary.LittleEndian.PutUint64(a.Buf[off:], math.Float64bits(v))
}

// U32 / PutU32 / F64 / PutF64 / Rune / PutRune are the exported forms of
// the helpers above, used by other packages to read and write array
// element payloads directly out of the arena (spec §3.1/§3.2: elements
// are contiguous, homogeneous, and addressed purely by byte offset).
func (a *Arena) U32(off uint32) uint32          { return a.u32(off) }
func (a *Arena) PutU32(off uint32, v uint32)    { a.putU32(off, v) }
func (a *Arena) F64(off uint32) float64         { return a.f64(off) }
func (a *Arena) PutF64(off uint32, v float64)   { a.putF64(off, v) }
func (a *Arena) Rune(off uint32) rune           { return rune(a.u32(off)) }
func (a *Arena) PutRune(off uint32, r rune)     { a.putU32(off, uint32(r)) }
