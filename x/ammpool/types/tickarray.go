package types

// TickArray is a dense container of TickArraySize ticks, lazily
// allocated by start_tick_index (spec.md §3). start_tick_index must be
// a multiple of TickArraySize*tick_spacing.
type TickArray struct {
	StartTickIndex int32
	Ticks          [TickArraySize]Tick
}

// NewTickArray builds an empty (all-default) tick array at startTick,
// validating that startTick is a legal array boundary for spacing.
func NewTickArray(startTick int32, spacing uint16) (*TickArray, error) {
	width := int32(TickArraySize) * int32(spacing)
	if width == 0 || startTick%width != 0 {
		return nil, ErrInvalidStartTick
	}
	ta := &TickArray{StartTickIndex: startTick}
	for i := range ta.Ticks {
		ta.Ticks[i] = DefaultTick()
	}
	return ta, nil
}

// ArrayStartForTick returns the start_tick_index of the array that
// would contain tick at the given spacing: floor(t/(88*spacing)) * 88*spacing.
func ArrayStartForTick(tick int32, spacing uint16) int32 {
	width := int32(TickArraySize) * int32(spacing)
	// Go's integer division truncates toward zero; floor-divide manually
	// so negative ticks land in the array to their left, not their right.
	q := tick / width
	if tick%width != 0 && (tick < 0) != (width < 0) {
		q--
	}
	return q * width
}

// OffsetFor exposes offset for callers outside the package that need
// direct Ticks[] access (e.g. the keeper's liquidity-modify path,
// which must mutate both boundary ticks of a position in one pass).
func (ta *TickArray) OffsetFor(tickIndex int32, spacing uint16) (int, bool) {
	return ta.offset(tickIndex, spacing)
}

func (ta *TickArray) offset(tickIndex int32, spacing uint16) (int, bool) {
	if !IsUsableTick(tickIndex, spacing) {
		return 0, false
	}
	width := int32(TickArraySize) * int32(spacing)
	if tickIndex < ta.StartTickIndex || tickIndex >= ta.StartTickIndex+width {
		return 0, false
	}
	return int((tickIndex - ta.StartTickIndex) / int32(spacing)), true
}

// TickArrayType is the sum-type replacement for the source's
// runtime-polymorphic tick-array wrapper (spec.md §9): Initialized
// wraps a real TickArray, Uninitialized behaves as if every tick in it
// were DefaultTick() and never yields a next-initialized tick.
type TickArrayType interface {
	StartTick() int32
	GetTick(tickIndex int32, spacing uint16) (Tick, error)
	UpdateTick(tickIndex int32, spacing uint16, update TickUpdate) error
	GetNextInitTickIndex(from int32, spacing uint16, aToB bool) (int32, bool, error)
	InSearchRange(tick int32, spacing uint16, shifted bool) bool
}

// InitializedTickArray wraps a concrete, previously-allocated TickArray.
type InitializedTickArray struct {
	Array *TickArray
}

func (a *InitializedTickArray) StartTick() int32 { return a.Array.StartTickIndex }

func (a *InitializedTickArray) GetTick(tickIndex int32, spacing uint16) (Tick, error) {
	off, ok := a.Array.offset(tickIndex, spacing)
	if !ok {
		return Tick{}, ErrTickNotFound
	}
	return a.Array.Ticks[off], nil
}

func (a *InitializedTickArray) UpdateTick(tickIndex int32, spacing uint16, update TickUpdate) error {
	off, ok := a.Array.offset(tickIndex, spacing)
	if !ok {
		return ErrTickNotFound
	}
	a.Array.Ticks[off].Update(update)
	return nil
}

// GetNextInitTickIndex performs a linear scan of the 88 slots. For
// a_to_b (price decreasing) the scan starts at `from` inclusive and
// walks left; for !a_to_b it starts exclusive of `from` and walks
// right (spec.md §4.2).
func (a *InitializedTickArray) GetNextInitTickIndex(from int32, spacing uint16, aToB bool) (int32, bool, error) {
	width := int32(TickArraySize) * int32(spacing)
	start := a.Array.StartTickIndex
	if from < start || from >= start+width {
		return 0, false, ErrInvalidTickArraySequence
	}
	startOffset := int((from - start) / int32(spacing))

	if aToB {
		for off := startOffset; off >= 0; off-- {
			if a.Array.Ticks[off].Initialized {
				return start + int32(off)*int32(spacing), true, nil
			}
		}
		return 0, false, nil
	}
	for off := startOffset + 1; off < TickArraySize; off++ {
		if a.Array.Ticks[off].Initialized {
			return start + int32(off)*int32(spacing), true, nil
		}
	}
	return 0, false, nil
}

// InSearchRange reports whether tick falls within this array's
// responsibility, optionally shifted by one spacing (used when
// !a_to_b, since the lower bound of responsibility is exclusive there).
func (a *InitializedTickArray) InSearchRange(tick int32, spacing uint16, shifted bool) bool {
	width := int32(TickArraySize) * int32(spacing)
	lower := a.Array.StartTickIndex
	upper := lower + width
	if shifted {
		lower += int32(spacing)
		upper += int32(spacing)
	}
	return tick >= lower && tick < upper
}

// UninitializedTickArray stands in for a start_tick_index the swap
// sequencer needs but that has never been allocated on-chain. It
// behaves as if every tick in its range were DefaultTick(): always
// "found" but never initialized, and it never produces a next
// initialized tick.
type UninitializedTickArray struct {
	Start int32
}

func (a *UninitializedTickArray) StartTick() int32 { return a.Start }

func (a *UninitializedTickArray) GetTick(tickIndex int32, spacing uint16) (Tick, error) {
	width := int32(TickArraySize) * int32(spacing)
	if !IsUsableTick(tickIndex, spacing) || tickIndex < a.Start || tickIndex >= a.Start+width {
		return Tick{}, ErrTickNotFound
	}
	return DefaultTick(), nil
}

func (a *UninitializedTickArray) UpdateTick(int32, uint16, TickUpdate) error {
	return ErrTickNotFound
}

func (a *UninitializedTickArray) GetNextInitTickIndex(int32, uint16, bool) (int32, bool, error) {
	return 0, false, nil
}

func (a *UninitializedTickArray) InSearchRange(tick int32, spacing uint16, shifted bool) bool {
	width := int32(TickArraySize) * int32(spacing)
	lower := a.Start
	upper := lower + width
	if shifted {
		lower += int32(spacing)
		upper += int32(spacing)
	}
	return tick >= lower && tick < upper
}
