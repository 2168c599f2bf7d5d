package types

import "math/big"

// RewardGrowth is a per-reward-slot growth-outside accumulator, Q64.64.
type RewardGrowth = big.Int

// Tick is a single discrete price level, addressable only at multiples
// of a pool's tick_spacing (spec.md §3).
type Tick struct {
	Initialized bool

	// LiquidityNet is the signed delta applied to pool.liquidity when
	// price crosses this tick moving upward (i128).
	LiquidityNet *big.Int

	// LiquidityGross is the total of |liquidity_net| contributed by
	// every position referencing this tick as a boundary (u128).
	LiquidityGross *big.Int

	FeeGrowthOutsideA *big.Int
	FeeGrowthOutsideB *big.Int

	RewardGrowthsOutside [NumRewards]*big.Int
}

// DefaultTick returns the zero-value Tick used for uninitialized slots
// and for the UninitializedTickArray placeholder (spec.md §4.3, §9).
func DefaultTick() Tick {
	t := Tick{
		LiquidityNet:      big.NewInt(0),
		LiquidityGross:    big.NewInt(0),
		FeeGrowthOutsideA: big.NewInt(0),
		FeeGrowthOutsideB: big.NewInt(0),
	}
	for i := range t.RewardGrowthsOutside {
		t.RewardGrowthsOutside[i] = big.NewInt(0)
	}
	return t
}

// TickUpdate is the full replacement payload for Tick.Update.
type TickUpdate struct {
	Initialized          bool
	LiquidityNet         *big.Int
	LiquidityGross       *big.Int
	FeeGrowthOutsideA    *big.Int
	FeeGrowthOutsideB    *big.Int
	RewardGrowthsOutside [NumRewards]*big.Int
}

// Update atomically replaces every field of the tick, per spec.md §4.2.
func (t *Tick) Update(u TickUpdate) {
	t.Initialized = u.Initialized
	t.LiquidityNet = u.LiquidityNet
	t.LiquidityGross = u.LiquidityGross
	t.FeeGrowthOutsideA = u.FeeGrowthOutsideA
	t.FeeGrowthOutsideB = u.FeeGrowthOutsideB
	t.RewardGrowthsOutside = u.RewardGrowthsOutside
}

// CrossUpdate returns the TickUpdate produced by crossing this tick:
// fee-growth-outside and reward-growth-outside flip relative to the
// pool's current global accumulators (spec.md §4.6 step 6).
func (t *Tick) CrossUpdate(feeGrowthGlobalA, feeGrowthGlobalB *big.Int, rewardGrowthsGlobal [NumRewards]*big.Int) TickUpdate {
	u := TickUpdate{
		Initialized:       t.Initialized,
		LiquidityNet:      t.LiquidityNet,
		LiquidityGross:    t.LiquidityGross,
		FeeGrowthOutsideA: new(big.Int).Sub(feeGrowthGlobalA, t.FeeGrowthOutsideA),
		FeeGrowthOutsideB: new(big.Int).Sub(feeGrowthGlobalB, t.FeeGrowthOutsideB),
	}
	for i := range u.RewardGrowthsOutside {
		outside := t.RewardGrowthsOutside[i]
		if outside == nil {
			outside = big.NewInt(0)
		}
		global := rewardGrowthsGlobal[i]
		if global == nil {
			global = big.NewInt(0)
		}
		u.RewardGrowthsOutside[i] = new(big.Int).Sub(global, outside)
	}
	return u
}

// IsUsableTick reports whether tick is addressable at the given spacing:
// it must be a multiple of spacing and lie within [MinTick, MaxTick].
func IsUsableTick(tick int32, spacing uint16) bool {
	if spacing == 0 {
		return false
	}
	if tick < MinTick || tick > MaxTick {
		return false
	}
	return tick%int32(spacing) == 0
}
