package memory

import "fmt"

// ErrNameTableFull is returned when appending a name entry would
// overrun the heap base (spec §4.4).
var ErrNameTableFull = fmt.Errorf("name-table-full")

// Name entry layout, allocation-only (spec §3.3):
//
//	+0 byte    len     UTF-8 byte length of the name
//	+1 byte    type    cached DType, mirrors the owned descriptor
//	+2 uint16  unused
//	+4 uint32  odesc   offset of the descriptor, or 0 if undefined
//	+8 uint32  next    offset of next entry in this hash bucket, or `none`
//	+12        name    inline UTF-8 bytes, then padding to a multiple of 4
const nameEntryHeader = 12

// hashBucketsOffset is where the bucketCount-entry hash table starts,
// immediately after the header's reserved space inside the name region.
func (a *Arena) hashBucketsOffset() uint32 { return a.Header.NameBase }
func (a *Arena) hashBucketsSize() uint32   { return bucketCount * 4 }
func (a *Arena) namesDataBase() uint32     { return a.Header.NameBase + a.hashBucketsSize() }

// EnsureBuckets zero-initializes the hash bucket table and advances
// NameEnd past it; called once right after New().
func (a *Arena) EnsureBuckets() {
	base := a.hashBucketsOffset()
	for i := uint32(0); i < bucketCount; i++ {
		a.putU32(base+i*4, none)
	}
	if a.Header.NameEnd < a.namesDataBase() {
		a.Header.NameEnd = a.namesDataBase()
	}
}

// hash sums the UTF-8 bytes of name and masks to bucketCount (spec §4.4).
func hash(name string) uint32 {
	var s uint32
	for i := 0; i < len(name); i++ {
		s += uint32(name[i])
	}
	return s & (bucketCount - 1)
}

func (a *Arena) bucketHead(bucket uint32) uint32 {
	return a.u32(a.hashBucketsOffset() + bucket*4)
}
func (a *Arena) setBucketHead(bucket, off uint32) {
	a.putU32(a.hashBucketsOffset()+bucket*4, off)
}

// NameEntry is an in-memory view of a name-table entry.
type NameEntry struct {
	Off   uint32
	Len   byte
	Type  DType
	ODesc uint32
	Next  uint32
	Name  string
}

func (a *Arena) loadEntry(off uint32) NameEntry {
	l := a.Buf[off]
	t := DType(a.Buf[off+1])
	od := a.u32(off + 4)
	next := a.u32(off + 8)
	name := string(a.Buf[off+nameEntryHeader : off+nameEntryHeader+uint32(l)])
	return NameEntry{Off: off, Len: l, Type: t, ODesc: od, Next: next, Name: name}
}

// Lookup returns the entry for name, or ok==false if undefined.
func (a *Arena) Lookup(name string) (NameEntry, bool) {
	b := hash(name)
	cur := a.bucketHead(b)
	for cur != none {
		e := a.loadEntry(cur)
		if e.Name == name {
			return e, true
		}
		cur = e.Next
	}
	return NameEntry{}, false
}

// Add appends a new, initially-undefined name entry and links it into
// its hash bucket (spec §4.4). Fails with ErrNameTableFull if the
// table would overrun the heap base.
func (a *Arena) Add(name string) (NameEntry, error) {
	entryLen := align4(uint32(nameEntryHeader + len(name)))
	newEnd := a.Header.NameEnd + entryLen
	if newEnd > a.Header.HeapBase {
		return NameEntry{}, ErrNameTableFull
	}
	off := a.Header.NameEnd
	a.Buf[off] = byte(len(name))
	a.Buf[off+1] = byte(TUndefined)
	a.putU32(off+2, 0)
	a.putU32(off+4, 0)
	b := hash(name)
	a.putU32(off+8, a.bucketHead(b))
	copy(a.Buf[off+nameEntryHeader:], name)
	a.setBucketHead(b, off)
	a.Header.NameEnd = newEnd
	return a.loadEntry(off), nil
}

func align4(n uint32) uint32 { return (n + 3) &^ 3 }

// SetType / SetODesc update the mutable fields of an existing entry in place.
func (a *Arena) SetType(off uint32, t DType)    { a.Buf[off+1] = byte(t) }
func (a *Arena) SetODesc(off uint32, odesc uint32) { a.putU32(off+4, odesc) }

// Names returns every entry currently in the table, in bucket/chain order.
func (a *Arena) Names() []NameEntry {
	var out []NameEntry
	for b := uint32(0); b < bucketCount; b++ {
		cur := a.bucketHead(b)
		for cur != none {
			e := a.loadEntry(cur)
			out = append(out, e)
			cur = e.Next
		}
	}
	return out
}
