package memory

import "testing"

func newTestArena(t *testing.T) *Arena {
	t.Helper()
	a, err := New(DefaultSize)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.EnsureBuckets()
	return a
}

func TestHeapAllocFreeRoundTrip(t *testing.T) {
	a := newTestArena(t)

	off1, err := a.HeapAlloc(64, 0)
	if err != nil {
		t.Fatalf("alloc 1: %v", err)
	}
	off2, err := a.HeapAlloc(64, 0)
	if err != nil {
		t.Fatalf("alloc 2: %v", err)
	}
	if off1 == off2 {
		t.Fatalf("expected distinct offsets")
	}

	top := a.Header.HeapTop
	a.HeapFree(off2)
	if a.Header.HeapTop != top-align8(64+blockHeaderSize) {
		t.Fatalf("freeing the top block should retract HeapTop, got top=%d", a.Header.HeapTop)
	}

	a.HeapFree(off1)
	if a.Header.HeapTop != a.Header.HeapBase {
		t.Fatalf("heap should be fully reclaimed, top=%d base=%d", a.Header.HeapTop, a.Header.HeapBase)
	}
}

func TestHeapCoalescesAdjacentFreeBlocks(t *testing.T) {
	a := newTestArena(t)
	o1, _ := a.HeapAlloc(256, 0)
	o2, _ := a.HeapAlloc(256, 0)
	o3, _ := a.HeapAlloc(256, 0)

	a.HeapFree(o1)
	a.HeapFree(o3)
	a.HeapFree(o2) // o3 already retracted HeapTop; o2 is now the top block, so HeapTop retracts through the free o1 too

	if a.Header.FreeListHead != none {
		t.Fatalf("expected the coalesced range to retract to HeapTop, free list head=%d", a.Header.FreeListHead)
	}
	if a.Header.HeapTop != a.Header.HeapBase {
		t.Fatalf("expected heap fully reclaimed, top=%d base=%d", a.Header.HeapTop, a.Header.HeapBase)
	}
}

func TestHeapFullWhenCollidingWithOperandStack(t *testing.T) {
	a, err := New(64 * 1024)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.EnsureBuckets()

	var lastErr error
	for i := 0; i < 100000; i++ {
		if _, err := a.HeapAlloc(32, 0); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr != ErrHeapFull {
		t.Fatalf("expected ErrHeapFull, got %v", lastErr)
	}
}

func TestNameTableAddLookup(t *testing.T) {
	a := newTestArena(t)

	if _, ok := a.Lookup("X"); ok {
		t.Fatalf("X should be undefined initially")
	}
	e, err := a.Add("X")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	a.SetType(e.Off, TNumber)
	a.SetODesc(e.Off, 123)

	got, ok := a.Lookup("X")
	if !ok {
		t.Fatalf("X should be defined")
	}
	if got.Type != TNumber || got.ODesc != 123 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestDescriptorPoolAllocFreeReuse(t *testing.T) {
	a := newTestArena(t)

	off, err := a.DescAlloc()
	if err != nil {
		t.Fatalf("DescAlloc: %v", err)
	}
	d := Desc{Type: TNumber, Rank: 0, Num: 42}
	a.StoreDesc(off, d)

	got := a.LoadDesc(off)
	if got.Type != TNumber || got.Num != 42 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	a.DescFree(off)
	off2, err := a.DescAlloc()
	if err != nil {
		t.Fatalf("DescAlloc after free: %v", err)
	}
	if off2 != off {
		t.Fatalf("expected free-list reuse, got new=%d old=%d", off2, off)
	}
}

func TestOperandStackPushPop(t *testing.T) {
	a := newTestArena(t)
	if a.OpDepth() != 0 {
		t.Fatalf("expected empty stack")
	}
	off, err := a.OpPush()
	if err != nil {
		t.Fatalf("OpPush: %v", err)
	}
	a.StoreDesc(off, Desc{Type: TNumber, Num: 7})
	if a.OpDepth() != 1 {
		t.Fatalf("expected depth 1, got %d", a.OpDepth())
	}
	popped := a.OpPop()
	if a.LoadDesc(popped).Num != 7 {
		t.Fatalf("unexpected popped value")
	}
	if a.OpDepth() != 0 {
		t.Fatalf("expected depth 0 after pop")
	}
}

func TestTempStackMarkReset(t *testing.T) {
	a := newTestArena(t)
	mark := a.TempMark()
	_, err := a.TempAlloc(128)
	if err != nil {
		t.Fatalf("TempAlloc: %v", err)
	}
	if a.TempMark() == mark {
		t.Fatalf("expected temp stack to move")
	}
	a.TempReset(mark)
	if a.TempMark() != mark {
		t.Fatalf("expected temp stack reset to mark")
	}
}

func TestArenaImageRoundTrip(t *testing.T) {
	a := newTestArena(t)
	e, _ := a.Add("FOO")
	a.SetType(e.Off, TNumber)
	off, _ := a.HeapAlloc(8, e.Off)
	a.putF64(off, 3.5)
	a.SetODesc(e.Off, off)

	img := a.Image()
	b, err := LoadImage(img, len(a.Buf))
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	got, ok := b.Lookup("FOO")
	if !ok {
		t.Fatalf("FOO missing after reload")
	}
	if b.f64(got.ODesc) != 3.5 {
		t.Fatalf("payload mismatch after reload")
	}
}
