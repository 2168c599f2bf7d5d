package types

import "testing"

func TestArrayStartForTickFloorsNegativeTicks(t *testing.T) {
	spacing := uint16(64)
	width := int32(TickArraySize) * int32(spacing)

	if got := ArrayStartForTick(width-1, spacing); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ArrayStartForTick(-1, spacing); got != -width {
		t.Errorf("expected %d, got %d", -width, got)
	}
	if got := ArrayStartForTick(-width, spacing); got != -width {
		t.Errorf("expected %d, got %d", -width, got)
	}
}

func TestTickArrayOffsetRoundTrip(t *testing.T) {
	spacing := uint16(64)
	ta, err := NewTickArray(0, spacing)
	if err != nil {
		t.Fatal(err)
	}
	tick := int32(3 * 64)
	off, ok := ta.OffsetFor(tick, spacing)
	if !ok {
		t.Fatal("expected usable tick to resolve an offset")
	}
	if off != 3 {
		t.Errorf("expected offset 3, got %d", off)
	}
	if _, ok := ta.OffsetFor(tick+1, spacing); ok {
		t.Error("expected non-aligned tick to be unusable")
	}
}

func TestUninitializedTickArrayNeverYieldsNextTick(t *testing.T) {
	arr := &UninitializedTickArray{Start: 0}
	_, found, err := arr.GetNextInitTickIndex(0, 64, true)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected uninitialized array to never report a found tick")
	}
	tick, err := arr.GetTick(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if tick.Initialized {
		t.Error("expected default tick to be uninitialized")
	}
}

func TestInitializedTickArrayGetNextInitTickIndexDirectional(t *testing.T) {
	spacing := uint16(64)
	ta, err := NewTickArray(0, spacing)
	if err != nil {
		t.Fatal(err)
	}
	ta.Ticks[5].Initialized = true
	ta.Ticks[40].Initialized = true
	arr := &InitializedTickArray{Array: ta}

	idx, found, err := arr.GetNextInitTickIndex(0, spacing, false)
	if err != nil {
		t.Fatal(err)
	}
	if !found || idx != 5*64 {
		t.Errorf("expected to find tick at %d walking right, got %d found=%v", 5*64, idx, found)
	}

	idx, found, err = arr.GetNextInitTickIndex(int32(TickArraySize-1)*64, spacing, true)
	if err != nil {
		t.Fatal(err)
	}
	if !found || idx != 40*64 {
		t.Errorf("expected to find tick at %d walking left, got %d found=%v", 40*64, idx, found)
	}
}
