package types

import "testing"

func TestComputeCandidateStartTicksATOB(t *testing.T) {
	spacing := uint16(64)
	width := int32(TickArraySize) * int32(spacing)
	starts := ComputeCandidateStartTicks(width+1, spacing, true)
	if len(starts) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(starts))
	}
	if starts[0] != width || starts[1] != 0 || starts[2] != -width {
		t.Errorf("unexpected candidates: %v", starts)
	}
}

func TestBuildSwapTickSequenceFillsGapsWithPlaceholders(t *testing.T) {
	spacing := uint16(64)
	seq, err := BuildSwapTickSequence(0, spacing, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 3 {
		t.Fatalf("expected 3 placeholder arrays, got %d", seq.Len())
	}
}

func TestBuildSwapTickSequencePrefersSuppliedArray(t *testing.T) {
	spacing := uint16(64)
	ta, err := NewTickArray(0, spacing)
	if err != nil {
		t.Fatal(err)
	}
	ta.Ticks[10].Initialized = true

	seq, err := BuildSwapTickSequence(5*64, spacing, false, []*TickArray{ta})
	if err != nil {
		t.Fatal(err)
	}
	_, tickIdx, err := seq.GetNextInitializedTickIndex(5*64, spacing, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tickIdx != 10*64 {
		t.Errorf("expected to find supplied array's initialized tick at %d, got %d", 10*64, tickIdx)
	}
}
