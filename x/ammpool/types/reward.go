package types

import "math/big"

// RewardInfo is one of a pool's fixed NumRewards emission slots
// (spec.md §4.5).
type RewardInfo struct {
	Token               string
	Authority           string
	EmissionsPerSecondX64 *big.Int
	GrowthGlobalX64       *big.Int
	Initialized           bool
}

// IsRewardInitialized reports whether a slot has ever been configured.
func (r *RewardInfo) IsRewardInitialized() bool {
	return r != nil && r.Initialized
}

// NextAMMRewardInfos advances every reward slot's growth_global_x64 by
// the emissions accrued since reward_last_updated_ts, per spec.md §4.5.
// It must be called before any pool state change that depends on
// active liquidity (spec.md §5's ordering guarantee). Returns the
// updated slots and the new watermark; callers commit both atomically.
func NextAMMRewardInfos(rewards [NumRewards]*RewardInfo, liquidity *big.Int, lastUpdatedTs, now int64) ([NumRewards]*RewardInfo, int64) {
	var out [NumRewards]*RewardInfo
	for i, r := range rewards {
		if r == nil || !r.Initialized {
			out[i] = r
			continue
		}
		next := &RewardInfo{
			Token:                 r.Token,
			Authority:             r.Authority,
			EmissionsPerSecondX64: r.EmissionsPerSecondX64,
			GrowthGlobalX64:       new(big.Int).Set(r.GrowthGlobalX64),
			Initialized:           true,
		}
		if liquidity.Sign() > 0 && now > lastUpdatedTs {
			dt := big.NewInt(now - lastUpdatedTs)
			accrued := new(big.Int).Mul(dt, r.EmissionsPerSecondX64)
			accrued.Quo(accrued, liquidity)
			next.GrowthGlobalX64.Add(next.GrowthGlobalX64, accrued)
		}
		out[i] = next
	}
	if now > lastUpdatedTs {
		lastUpdatedTs = now
	}
	return out, lastUpdatedTs
}

// RewardGrowthsInside computes the per-slot reward growth accrued
// strictly inside [tickLower, tickUpper] at the current tick, mirroring
// the fee-growth-inside computation used by the swap executor and
// position accrual (spec.md §4.4/§4.6): inside = global - below - above.
func RewardGrowthsInside(
	currentTick, tickLower, tickUpper int32,
	globalGrowth [NumRewards]*big.Int,
	lowerOutside, upperOutside [NumRewards]*big.Int,
) [NumRewards]*big.Int {
	var inside [NumRewards]*big.Int
	for i := 0; i < NumRewards; i++ {
		global := zeroIfNil(globalGrowth[i])
		below := zeroIfNil(lowerOutside[i])
		above := zeroIfNil(upperOutside[i])
		if currentTick < tickLower {
			below = new(big.Int).Sub(global, below)
		}
		if currentTick >= tickUpper {
			above = new(big.Int).Sub(global, above)
		}
		inside[i] = new(big.Int).Sub(new(big.Int).Sub(global, below), above)
	}
	return inside
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// FeeGrowthsInside computes fee-growth-inside for both sides the same
// way RewardGrowthsInside does, per Orca-style accounting used
// throughout C4/C6.
func FeeGrowthsInside(
	currentTick, tickLower, tickUpper int32,
	feeGrowthGlobalA, feeGrowthGlobalB *big.Int,
	lowerOutsideA, lowerOutsideB, upperOutsideA, upperOutsideB *big.Int,
) (insideA, insideB *big.Int) {
	belowA, belowB := zeroIfNil(lowerOutsideA), zeroIfNil(lowerOutsideB)
	aboveA, aboveB := zeroIfNil(upperOutsideA), zeroIfNil(upperOutsideB)
	if currentTick < tickLower {
		belowA = new(big.Int).Sub(feeGrowthGlobalA, belowA)
		belowB = new(big.Int).Sub(feeGrowthGlobalB, belowB)
	}
	if currentTick >= tickUpper {
		aboveA = new(big.Int).Sub(feeGrowthGlobalA, aboveA)
		aboveB = new(big.Int).Sub(feeGrowthGlobalB, aboveB)
	}
	insideA = new(big.Int).Sub(new(big.Int).Sub(feeGrowthGlobalA, belowA), aboveA)
	insideB = new(big.Int).Sub(new(big.Int).Sub(feeGrowthGlobalB, belowB), aboveB)
	return insideA, insideB
}
