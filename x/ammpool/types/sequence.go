package types

// This file implements C3: the sparse tick-array sequencer described
// in spec.md §4.3. Given the pool's current tick and swap direction, it
// computes up to three candidate start_tick_index values, matches
// supplied (possibly partial, possibly unordered) tick arrays against
// them, and fills any gap with an UninitializedTickArray placeholder.

// ComputeCandidateStartTicks returns the 1-3 start_tick_index values a
// swap may traverse, in FIFO traversal order, per spec.md §4.3.
func ComputeCandidateStartTicks(currentTick int32, spacing uint16, aToB bool) []int32 {
	width := int32(TickArraySize) * int32(spacing)
	base := ArrayStartForTick(currentTick, spacing)

	if aToB {
		return []int32{base, base - width, base - 2*width}
	}

	offsets := []int32{0, 1, 2}
	if currentTick+int32(spacing) >= base+width {
		offsets = []int32{1, 2, 3}
	}
	starts := make([]int32, len(offsets))
	for i, o := range offsets {
		starts[i] = base + o*width
	}
	return starts
}

// SwapTickSequence is a FIFO of 1-3 tick arrays a swap step may
// traverse, addressed by position rather than by start_tick_index.
type SwapTickSequence struct {
	arrays []TickArrayType
}

// BuildSwapTickSequence dedups `supplied` by start tick, matches them
// against the computed candidate start ticks in order, and substitutes
// an UninitializedTickArray for any candidate with no supplied array.
// Fails ErrInvalidTickArraySequence if the first candidate cannot be
// satisfied by either a supplied array or a legal placeholder.
func BuildSwapTickSequence(currentTick int32, spacing uint16, aToB bool, supplied []*TickArray) (*SwapTickSequence, error) {
	candidates := ComputeCandidateStartTicks(currentTick, spacing, aToB)

	byStart := make(map[int32]*TickArray, len(supplied))
	for _, arr := range supplied {
		if arr == nil {
			continue
		}
		byStart[arr.StartTickIndex] = arr // dedup: last write wins, matching a map-backed dedup
	}

	seq := &SwapTickSequence{arrays: make([]TickArrayType, 0, len(candidates))}
	for i, start := range candidates {
		if arr, ok := byStart[start]; ok {
			seq.arrays = append(seq.arrays, &InitializedTickArray{Array: arr})
			continue
		}
		width := int32(TickArraySize) * int32(spacing)
		if start%width != 0 {
			if i == 0 {
				return nil, ErrInvalidTickArraySequence
			}
			continue
		}
		seq.arrays = append(seq.arrays, &UninitializedTickArray{Start: start})
	}

	if len(seq.arrays) == 0 {
		return nil, ErrInvalidTickArraySequence
	}
	return seq, nil
}

// Len returns the number of arrays in the sequence (1-3).
func (s *SwapTickSequence) Len() int { return len(s.arrays) }

func (s *SwapTickSequence) arrayAt(idx int) (TickArrayType, error) {
	if idx < 0 || idx >= len(s.arrays) {
		return nil, ErrInvalidTickArraySequence
	}
	return s.arrays[idx], nil
}

// GetTick reads a tick from the array at arrayIdx.
func (s *SwapTickSequence) GetTick(arrayIdx int, tickIndex int32, spacing uint16) (Tick, error) {
	arr, err := s.arrayAt(arrayIdx)
	if err != nil {
		return Tick{}, err
	}
	return arr.GetTick(tickIndex, spacing)
}

// UpdateTick writes a tick into the array at arrayIdx.
func (s *SwapTickSequence) UpdateTick(arrayIdx int, tickIndex int32, spacing uint16, update TickUpdate) error {
	arr, err := s.arrayAt(arrayIdx)
	if err != nil {
		return err
	}
	return arr.UpdateTick(tickIndex, spacing, update)
}

// GetNextInitializedTickIndex walks forward through the sequence
// starting at arrayIdx until it finds the next initialized tick at or
// past `from` in the direction of travel, advancing arrayIdx as
// arrays are exhausted. It returns the array index the tick was found
// in and the tick index itself.
func (s *SwapTickSequence) GetNextInitializedTickIndex(from int32, spacing uint16, aToB bool, arrayIdx int) (int, int32, error) {
	for arrayIdx < len(s.arrays) {
		arr := s.arrays[arrayIdx]
		tickIdx, found, err := arr.GetNextInitTickIndex(from, spacing, aToB)
		if err != nil {
			return 0, 0, err
		}
		if found {
			return arrayIdx, tickIdx, nil
		}

		// Exhausted this array without finding an initialized tick;
		// fall back to its edge so the caller can still clamp against
		// the price-space boundary, unless another array follows.
		width := int32(TickArraySize) * int32(spacing)
		if arrayIdx == len(s.arrays)-1 {
			if aToB {
				return arrayIdx, arr.StartTick(), nil
			}
			return arrayIdx, arr.StartTick() + width - int32(spacing), nil
		}
		arrayIdx++
		if aToB {
			from = arr.StartTick() - int32(spacing)
		} else {
			from = arr.StartTick() + width
			// the !a_to_b scan is exclusive of `from`, so check the next
			// array's first slot here before scanning past it.
			if t, err := s.arrays[arrayIdx].GetTick(from, spacing); err == nil && t.Initialized {
				return arrayIdx, from, nil
			}
		}
	}
	return 0, 0, ErrInvalidTickArraySequence
}
