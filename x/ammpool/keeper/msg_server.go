package keeper

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/synthmarket/x/ammpool/types"
)

// This file wires the pool entry points named in spec.md §6 onto the
// keeper, the same thin orchestration role the perpetual module's
// Deposit/Withdraw play over their account keeper: parse/validate,
// call into the pure x/ammpool/types functions, persist the result,
// emit an event.

// CreatePool initializes a new pool (entry point initialize_pool).
func (k *Keeper) CreatePool(ctx sdk.Context, tokenA, tokenB, lpToken string, initialSqrtPrice *big.Int, tickSpacing uint16, feeRate, protocolFeeRate uint32) (string, error) {
	pool, err := types.NewPool(tokenA, tokenB, lpToken, initialSqrtPrice, tickSpacing, feeRate, protocolFeeRate)
	if err != nil {
		return "", err
	}
	poolID := uuid.NewString()
	pool.ResetOracleTwap(nowUnix(ctx))
	k.SetPool(ctx, poolID, pool)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"pool_initialized",
		sdk.NewAttribute("pool_id", poolID),
		sdk.NewAttribute("token_a", tokenA),
		sdk.NewAttribute("token_b", tokenB),
	))
	return poolID, nil
}

// UpdatePool applies a fee/protocol-fee config change; caller must
// have already authenticated against k.authority.
func (k *Keeper) UpdatePool(ctx sdk.Context, poolID string, feeRate, protocolFeeRate *uint32) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return fmt.Errorf("pool %s: %w", poolID, types.ErrTickNotFound)
	}
	if err := pool.UpdateFeeRates(feeRate, protocolFeeRate); err != nil {
		return err
	}
	k.SetPool(ctx, poolID, pool)
	return nil
}

// InitializeTickArray allocates a new empty tick array at startTick.
func (k *Keeper) InitializeTickArray(ctx sdk.Context, poolID string, startTick int32) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	if k.GetTickArray(ctx, poolID, startTick) != nil {
		return types.ErrAlreadyInitialized
	}
	arr, err := types.NewTickArray(startTick, pool.TickSpacing)
	if err != nil {
		return err
	}
	k.SetTickArray(ctx, poolID, arr)
	return nil
}

// InitializeReward adds a new reward emission slot to a pool.
func (k *Keeper) InitializeReward(ctx sdk.Context, poolID string, slot int, token, authority string, initialBalance uint64, emissionsPerSecondX64 *big.Int) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	if err := pool.InitializeReward(slot, token, authority, initialBalance, emissionsPerSecondX64); err != nil {
		return err
	}
	k.SetPool(ctx, poolID, pool)
	return nil
}

// SetRewardEmissions updates a reward slot's emission rate.
func (k *Keeper) SetRewardEmissions(ctx sdk.Context, poolID string, slot int, authority string, emissionsPerSecondX64 *big.Int) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	pool.AccrueRewards(nowUnix(ctx))
	if err := pool.SetRewardEmissions(slot, authority, emissionsPerSecondX64); err != nil {
		return err
	}
	k.SetPool(ctx, poolID, pool)
	return nil
}

// SetRewardAuthority transfers a reward slot's authority.
func (k *Keeper) SetRewardAuthority(ctx sdk.Context, poolID string, slot int, authority, newAuthority string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	if err := pool.SetRewardAuthority(slot, authority, newAuthority); err != nil {
		return err
	}
	k.SetPool(ctx, poolID, pool)
	return nil
}

// OpenPosition creates a new empty range position (entry point
// create_position).
func (k *Keeper) OpenPosition(ctx sdk.Context, poolID, owner string, tickLower, tickUpper int32) (string, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return "", types.ErrTickNotFound
	}
	pos, err := types.OpenPosition(owner, tickLower, tickUpper, pool.TickSpacing)
	if err != nil {
		return "", err
	}
	positionID := uuid.NewString()
	k.SetPosition(ctx, poolID, positionID, pos)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_opened",
		sdk.NewAttribute("pool_id", poolID),
		sdk.NewAttribute("position_id", positionID),
		sdk.NewAttribute("owner", owner),
	))
	return positionID, nil
}

// ModifyLiquidity applies liquidityDelta (positive to increase,
// negative to decrease) to an existing position, crediting/debiting
// the pool's running liquidity and accruing owed fees/rewards at the
// pre-update liquidity (entry points increase_liquidity/decrease_liquidity).
func (k *Keeper) ModifyLiquidity(ctx sdk.Context, poolID, positionID string, liquidityDelta *big.Int) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	pos := k.GetPosition(ctx, poolID, positionID)
	if pos == nil {
		return types.ErrTickNotFound
	}
	pool.AccrueRewards(nowUnix(ctx))

	lowerStart := types.ArrayStartForTick(pos.TickLowerIndex, pool.TickSpacing)
	upperStart := types.ArrayStartForTick(pos.TickUpperIndex, pool.TickSpacing)
	lowerArr := k.GetTickArray(ctx, poolID, lowerStart)
	upperArr := lowerArr
	if upperStart != lowerStart {
		upperArr = k.GetTickArray(ctx, poolID, upperStart)
	}
	if lowerArr == nil || upperArr == nil {
		return types.ErrTickNotFound
	}
	lowerOff, ok := lowerArr.OffsetFor(pos.TickLowerIndex, pool.TickSpacing)
	if !ok {
		return types.ErrTickNotFound
	}
	upperOff, ok := upperArr.OffsetFor(pos.TickUpperIndex, pool.TickSpacing)
	if !ok {
		return types.ErrTickNotFound
	}
	lowerTick := lowerArr.Ticks[lowerOff]
	upperTick := upperArr.Ticks[upperOff]

	var rewardGrowthsGlobal [types.NumRewards]*big.Int
	for i, r := range pool.Rewards {
		if r != nil {
			rewardGrowthsGlobal[i] = r.GrowthGlobalX64
		} else {
			rewardGrowthsGlobal[i] = big.NewInt(0)
		}
	}

	feeInsideA, feeInsideB := types.FeeGrowthsInside(pool.TickIndex, pos.TickLowerIndex, pos.TickUpperIndex,
		pool.FeeGrowthGlobalA, pool.FeeGrowthGlobalB,
		lowerTick.FeeGrowthOutsideA, lowerTick.FeeGrowthOutsideB, upperTick.FeeGrowthOutsideA, upperTick.FeeGrowthOutsideB)
	rewardInside := types.RewardGrowthsInside(pool.TickIndex, pos.TickLowerIndex, pos.TickUpperIndex,
		rewardGrowthsGlobal, lowerTick.RewardGrowthsOutside, upperTick.RewardGrowthsOutside)

	update, err := types.NextPositionModifyLiquidityUpdate(pos, liquidityDelta, feeInsideA, feeInsideB, rewardInside)
	if err != nil {
		return err
	}

	pos.Liquidity = update.NextLiquidity
	pos.FeeGrowthCheckpointA = update.FeeGrowthCheckpointA
	pos.FeeGrowthCheckpointB = update.FeeGrowthCheckpointB
	pos.FeeOwedA = update.FeeOwedA
	pos.FeeOwedB = update.FeeOwedB
	pos.RewardGrowthCheckpoints = update.RewardGrowthChecks
	pos.RewardOwed = update.RewardOwed

	if pool.TickIndex >= pos.TickLowerIndex && pool.TickIndex < pos.TickUpperIndex {
		pool.Liquidity = new(big.Int).Add(pool.Liquidity, liquidityDelta)
		if pool.Liquidity.Sign() < 0 {
			return types.ErrLiquidityUnderflow
		}
	}

	lowerNet := new(big.Int).Add(lowerTick.LiquidityNet, liquidityDelta)
	upperNet := new(big.Int).Sub(upperTick.LiquidityNet, liquidityDelta)
	lowerGross := new(big.Int).Add(lowerTick.LiquidityGross, absBigInt(liquidityDelta))
	upperGross := new(big.Int).Add(upperTick.LiquidityGross, absBigInt(liquidityDelta))

	lowerArr.Ticks[lowerOff].Update(types.TickUpdate{
		Initialized: true, LiquidityNet: lowerNet, LiquidityGross: lowerGross,
		FeeGrowthOutsideA: lowerTick.FeeGrowthOutsideA, FeeGrowthOutsideB: lowerTick.FeeGrowthOutsideB,
		RewardGrowthsOutside: lowerTick.RewardGrowthsOutside,
	})
	upperArr.Ticks[upperOff].Update(types.TickUpdate{
		Initialized: true, LiquidityNet: upperNet, LiquidityGross: upperGross,
		FeeGrowthOutsideA: upperTick.FeeGrowthOutsideA, FeeGrowthOutsideB: upperTick.FeeGrowthOutsideB,
		RewardGrowthsOutside: upperTick.RewardGrowthsOutside,
	})
	k.SetPosition(ctx, poolID, positionID, pos)
	k.SetTickArray(ctx, poolID, lowerArr)
	k.SetTickArray(ctx, poolID, upperArr)
	k.SetPool(ctx, poolID, pool)
	return nil
}

// ClosePosition removes a fully-drained position (entry point close_position).
func (k *Keeper) ClosePosition(ctx sdk.Context, poolID, positionID string) error {
	pos := k.GetPosition(ctx, poolID, positionID)
	if pos == nil {
		return types.ErrTickNotFound
	}
	if !pos.CanClose() {
		return types.ErrPositionNotEmpty
	}
	k.DeletePosition(ctx, poolID, positionID)
	return nil
}

// CollectFees zeroes a position's owed fees and returns the amounts
// to transfer to the owner (entry point collect_fees).
func (k *Keeper) CollectFees(ctx sdk.Context, poolID, positionID string) (uint64, uint64, error) {
	pos := k.GetPosition(ctx, poolID, positionID)
	if pos == nil {
		return 0, 0, types.ErrTickNotFound
	}
	a, b := pos.FeeOwedA, pos.FeeOwedB
	pos.FeeOwedA, pos.FeeOwedB = 0, 0
	k.SetPosition(ctx, poolID, positionID, pos)
	return a, b, nil
}

// CollectReward zeroes one reward slot's owed balance for a position.
func (k *Keeper) CollectReward(ctx sdk.Context, poolID, positionID string, slot int) (uint64, error) {
	pos := k.GetPosition(ctx, poolID, positionID)
	if pos == nil {
		return 0, types.ErrTickNotFound
	}
	if slot < 0 || slot >= types.NumRewards {
		return 0, types.ErrInvalidRewardIndex
	}
	owed := pos.RewardOwed[slot]
	pos.RewardOwed[slot] = 0
	k.SetPosition(ctx, poolID, positionID, pos)
	return owed, nil
}

// ExecuteSwap runs the main swap loop against a pool's tick arrays and
// persists the resulting pool/tick-array state (entry point swap).
func (k *Keeper) ExecuteSwap(ctx sdk.Context, poolID string, amountSpecified uint64, sqrtPriceLimit *big.Int, amountSpecifiedIsInput, aToB bool) (*types.PostSwapUpdate, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrTickNotFound
	}
	pool.AccrueRewards(nowUnix(ctx))

	candidates := types.ComputeCandidateStartTicks(pool.TickIndex, pool.TickSpacing, aToB)
	supplied := k.LoadTickArrays(ctx, poolID, candidates)
	sequence, err := types.BuildSwapTickSequence(pool.TickIndex, pool.TickSpacing, aToB, supplied)
	if err != nil {
		return nil, err
	}

	update, err := types.Swap(pool, sequence, amountSpecified, sqrtPriceLimit, amountSpecifiedIsInput, aToB)
	if err != nil {
		return nil, err
	}

	pool.SqrtPrice = update.NextSqrtPrice
	pool.TickIndex = update.NextTickIndex
	pool.Liquidity = update.NextLiquidity
	pool.FeeGrowthGlobalA = update.FeeGrowthGlobalA
	pool.FeeGrowthGlobalB = update.FeeGrowthGlobalB
	pool.ProtocolFeeOwedA += update.ProtocolFeeA
	pool.ProtocolFeeOwedB += update.ProtocolFeeB
	k.SetPool(ctx, poolID, pool)

	for _, arr := range supplied {
		k.SetTickArray(ctx, poolID, arr)
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"swap",
		sdk.NewAttribute("pool_id", poolID),
		sdk.NewAttribute("amount_a", fmt.Sprintf("%d", update.AmountA)),
		sdk.NewAttribute("amount_b", fmt.Sprintf("%d", update.AmountB)),
		sdk.NewAttribute("a_to_b", fmt.Sprintf("%t", aToB)),
	))
	return update, nil
}

// ResetOracleTwap reinitializes TWAP tracking to the pool's live price.
func (k *Keeper) ResetOracleTwap(ctx sdk.Context, poolID string) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	pool.ResetOracleTwap(nowUnix(ctx))
	k.SetPool(ctx, poolID, pool)
	return nil
}

// UpdateOracleTwap feeds a new oracle sample into TWAP tracking.
func (k *Keeper) UpdateOracleTwap(ctx sdk.Context, poolID string, oraclePrice *big.Int, toleranceBps uint32) error {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return types.ErrTickNotFound
	}
	if err := pool.UpdateOracleTwap(oraclePrice, nowUnix(ctx), toleranceBps); err != nil {
		return err
	}
	k.SetPool(ctx, poolID, pool)
	return nil
}

func absBigInt(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int).Neg(v)
	}
	return new(big.Int).Set(v)
}
