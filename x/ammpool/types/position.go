package types

import "math/big"

// Position is a per-LP range position (spec.md §3, §4.4).
type Position struct {
	Owner          string
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      *big.Int

	FeeGrowthCheckpointA *big.Int
	FeeGrowthCheckpointB *big.Int
	FeeOwedA             uint64
	FeeOwedB             uint64

	RewardGrowthCheckpoints [NumRewards]*big.Int
	RewardOwed              [NumRewards]uint64
}

// OpenPosition validates tick_lower < tick_upper, both usable at
// spacing, both within [MinTick, MaxTick], and returns a new zero
// position (spec.md §4.4).
func OpenPosition(owner string, tickLower, tickUpper int32, spacing uint16) (*Position, error) {
	if tickLower >= tickUpper {
		return nil, ErrInvalidTickRange
	}
	if !IsUsableTick(tickLower, spacing) || !IsUsableTick(tickUpper, spacing) {
		return nil, ErrInvalidTickRange
	}
	p := &Position{
		Owner:                owner,
		TickLowerIndex:       tickLower,
		TickUpperIndex:       tickUpper,
		Liquidity:            big.NewInt(0),
		FeeGrowthCheckpointA: big.NewInt(0),
		FeeGrowthCheckpointB: big.NewInt(0),
	}
	for i := range p.RewardGrowthCheckpoints {
		p.RewardGrowthCheckpoints[i] = big.NewInt(0)
	}
	return p, nil
}

// CanClose reports whether a position has no liquidity, fees, or
// rewards outstanding (spec.md §3 lifecycle: close_position precondition).
func (p *Position) CanClose() bool {
	if p.Liquidity.Sign() != 0 || p.FeeOwedA != 0 || p.FeeOwedB != 0 {
		return false
	}
	for _, r := range p.RewardOwed {
		if r != 0 {
			return false
		}
	}
	return true
}

// PositionModifyLiquidityUpdate is the result of
// NextPositionModifyLiquidityUpdate: new checkpoint/owed values the
// caller commits atomically alongside the liquidity delta.
type PositionModifyLiquidityUpdate struct {
	NextLiquidity        *big.Int
	FeeGrowthCheckpointA *big.Int
	FeeGrowthCheckpointB *big.Int
	FeeOwedA             uint64
	FeeOwedB             uint64
	RewardGrowthChecks   [NumRewards]*big.Int
	RewardOwed           [NumRewards]uint64
}

// NextPositionModifyLiquidityUpdate computes the state a position moves
// to after a liquidity delta, per spec.md §4.4:
//  1. next_liquidity = pos.liquidity +/- delta (fails on underflow).
//  2. fee_owed accrues against the PRE-update liquidity using the
//     growth-inside values supplied by the caller; the checkpoint then
//     advances to that growth-inside value. Overflow in fee_owed
//     saturates at u64::MAX (documented, not an error).
//  3. Reward-owed accrues identically per reward slot.
func NextPositionModifyLiquidityUpdate(
	pos *Position,
	liquidityDelta *big.Int,
	feeGrowthInsideA, feeGrowthInsideB *big.Int,
	rewardGrowthsInside [NumRewards]*big.Int,
) (*PositionModifyLiquidityUpdate, error) {
	nextLiquidity := new(big.Int).Add(pos.Liquidity, liquidityDelta)
	if nextLiquidity.Sign() < 0 {
		return nil, ErrLiquidityUnderflow
	}
	if nextLiquidity.Cmp(maxU128) > 0 {
		return nil, ErrLiquidityOverflow
	}

	feeOwedA := accrueSaturating(pos.FeeOwedA, pos.Liquidity, feeGrowthInsideA, pos.FeeGrowthCheckpointA)
	feeOwedB := accrueSaturating(pos.FeeOwedB, pos.Liquidity, feeGrowthInsideB, pos.FeeGrowthCheckpointB)

	u := &PositionModifyLiquidityUpdate{
		NextLiquidity:        nextLiquidity,
		FeeGrowthCheckpointA: new(big.Int).Set(feeGrowthInsideA),
		FeeGrowthCheckpointB: new(big.Int).Set(feeGrowthInsideB),
		FeeOwedA:             feeOwedA,
		FeeOwedB:             feeOwedB,
	}

	for i := 0; i < NumRewards; i++ {
		checkpoint := pos.RewardGrowthCheckpoints[i]
		if checkpoint == nil {
			checkpoint = big.NewInt(0)
		}
		inside := rewardGrowthsInside[i]
		if inside == nil {
			inside = big.NewInt(0)
		}
		u.RewardOwed[i] = accrueSaturating(pos.RewardOwed[i], pos.Liquidity, inside, checkpoint)
		u.RewardGrowthChecks[i] = new(big.Int).Set(inside)
	}

	return u, nil
}

// accrueSaturating computes owed += (growthInside - checkpoint) * preLiquidity / 2^64,
// saturating at u64::MAX rather than erroring, per spec.md §4.4 step 2.
func accrueSaturating(owed uint64, preLiquidity, growthInside, checkpoint *big.Int) uint64 {
	delta := new(big.Int).Sub(growthInside, checkpoint)
	if delta.Sign() <= 0 || preLiquidity.Sign() == 0 {
		return owed
	}
	accrued := new(big.Int).Mul(preLiquidity, delta)
	accrued.Rsh(accrued, 64)

	total := new(big.Int).Add(accrued, new(big.Int).SetUint64(owed))
	if total.Cmp(maxU64) > 0 {
		return maxU64.Uint64()
	}
	return total.Uint64()
}
