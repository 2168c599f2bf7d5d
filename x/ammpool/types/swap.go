package types

import "math/big"

// This file implements C6: compute_swap_step and the main swap loop
// described in spec.md §4.6, the most complex piece of the AMM engine.
// A swap advances the pool's sqrt_price tick by tick, stopping early at
// whichever of (a) the caller's sqrt_price_limit or (b) the next
// initialized tick is reached first, crossing ticks as it goes and
// accumulating fees into the pool's global fee-growth accumulators.

// SwapStepResult is the outcome of one compute_swap_step call: the
// amounts consumed/produced within the current tick's liquidity and
// the sqrt_price the step actually reached.
type SwapStepResult struct {
	AmountIn      uint64
	AmountOut     uint64
	NextSqrtPrice *big.Int
	FeeAmount     uint64
}

// computeSwapStep fills as much of amountRemaining as the liquidity
// between sqrtPriceCurrent and sqrtPriceTarget allows, charging
// feeRate (hundredths of a bp) on the input side, per spec.md §4.6.
func computeSwapStep(
	sqrtPriceCurrent, sqrtPriceTarget, liquidity *big.Int,
	amountRemaining uint64,
	feeRate uint32,
	amountSpecifiedIsInput, aToB bool,
) (*SwapStepResult, error) {
	if liquidity.Sign() == 0 {
		return &SwapStepResult{NextSqrtPrice: new(big.Int).Set(sqrtPriceCurrent)}, nil
	}

	var amountCalcRemaining uint64
	if amountSpecifiedIsInput {
		feeAmt := new(big.Int).Mul(new(big.Int).SetUint64(amountRemaining), big.NewInt(int64(feeRate)))
		feeAmt.Quo(feeAmt, big.NewInt(FeeRateMulValue))
		amountCalcRemaining = amountRemaining - feeAmt.Uint64()
	} else {
		amountCalcRemaining = amountRemaining
	}

	var maxAmount uint64
	var err error
	if aToB == amountSpecifiedIsInput {
		maxAmount, err = GetAmountDeltaA(sqrtPriceTarget, sqrtPriceCurrent, liquidity, amountSpecifiedIsInput)
	} else {
		maxAmount, err = GetAmountDeltaB(sqrtPriceCurrent, sqrtPriceTarget, liquidity, amountSpecifiedIsInput)
	}
	if err != nil {
		return nil, err
	}

	var nextPrice *big.Int
	var amountFixed uint64
	if amountCalcRemaining >= maxAmount {
		nextPrice = new(big.Int).Set(sqrtPriceTarget)
		amountFixed = maxAmount
	} else {
		nextPrice, err = GetNextSqrtPrice(sqrtPriceCurrent, liquidity, amountCalcRemaining, amountSpecifiedIsInput, aToB)
		if err != nil {
			return nil, err
		}
		amountFixed = amountCalcRemaining
	}

	result := &SwapStepResult{NextSqrtPrice: nextPrice}

	if amountSpecifiedIsInput {
		result.AmountIn = amountFixed
		if aToB {
			result.AmountOut, err = GetAmountDeltaB(nextPrice, sqrtPriceCurrent, liquidity, false)
		} else {
			result.AmountOut, err = GetAmountDeltaA(sqrtPriceCurrent, nextPrice, liquidity, false)
		}
		if err != nil {
			return nil, err
		}
		if nextPrice.Cmp(sqrtPriceTarget) == 0 {
			feeAmt := new(big.Int).Mul(new(big.Int).SetUint64(amountRemaining), big.NewInt(int64(feeRate)))
			feeAmt.Quo(feeAmt, big.NewInt(FeeRateMulValue))
			full := amountFixed + feeAmt.Uint64()
			if full < amountRemaining {
				result.FeeAmount = amountRemaining - amountFixed
			} else {
				result.FeeAmount = feeAmt.Uint64()
			}
		} else {
			result.FeeAmount = amountRemaining - amountFixed
		}
	} else {
		result.AmountOut = amountFixed
		if aToB {
			result.AmountIn, err = GetAmountDeltaA(nextPrice, sqrtPriceCurrent, liquidity, true)
		} else {
			result.AmountIn, err = GetAmountDeltaB(sqrtPriceCurrent, nextPrice, liquidity, true)
		}
		if err != nil {
			return nil, err
		}
		feeAmt := new(big.Int).Mul(new(big.Int).SetUint64(result.AmountIn), big.NewInt(int64(feeRate)))
		feeAmt.Quo(feeAmt, big.NewInt(int64(FeeRateMulValue)-int64(feeRate)))
		result.FeeAmount = feeAmt.Uint64()
	}

	return result, nil
}

// PostSwapUpdate is the full set of mutations a completed swap commits
// to the pool: the new price/tick/liquidity, updated fee-growth
// globals, protocol-fee accrual, and the tick crossings (applied to
// the supplied sequence's backing arrays as a side effect).
type PostSwapUpdate struct {
	AmountA          uint64
	AmountB          uint64
	NextSqrtPrice    *big.Int
	NextTickIndex    int32
	NextLiquidity    *big.Int
	FeeGrowthGlobalA *big.Int
	FeeGrowthGlobalB *big.Int
	ProtocolFeeA     uint64
	ProtocolFeeB     uint64
}

// Swap executes the main loop from spec.md §4.6: repeatedly calls
// computeSwapStep between the current price and the next initialized
// tick (or the caller's limit, whichever is nearer), crosses any tick
// reached (flipping its liquidity_net into the running liquidity and
// updating its fee/reward-growth-outside snapshot), and accumulates
// fees into the global growth accumulators until amountSpecified is
// exhausted or sqrtPriceLimit is reached.
func Swap(
	pool *Pool,
	sequence *SwapTickSequence,
	amountSpecified uint64,
	sqrtPriceLimit *big.Int,
	amountSpecifiedIsInput bool,
	aToB bool,
) (*PostSwapUpdate, error) {
	if amountSpecified == 0 {
		return nil, ErrZeroTradableAmount
	}
	if aToB {
		if sqrtPriceLimit.Cmp(pool.SqrtPrice) > 0 || sqrtPriceLimit.Cmp(MinSqrtPrice) < 0 {
			return nil, ErrInvalidSqrtPriceLimitDir
		}
	} else {
		if sqrtPriceLimit.Cmp(pool.SqrtPrice) < 0 || sqrtPriceLimit.Cmp(MaxSqrtPrice) > 0 {
			return nil, ErrInvalidSqrtPriceLimitDir
		}
	}

	curSqrtPrice := new(big.Int).Set(pool.SqrtPrice)
	curTick := pool.TickIndex
	curLiquidity := new(big.Int).Set(pool.Liquidity)
	feeGrowthGlobalA := new(big.Int).Set(pool.FeeGrowthGlobalA)
	feeGrowthGlobalB := new(big.Int).Set(pool.FeeGrowthGlobalB)

	var totalA, totalB uint64
	var protocolFeeA, protocolFeeB uint64

	remaining := amountSpecified
	arrayIdx := 0

	for remaining > 0 && curSqrtPrice.Cmp(sqrtPriceLimit) != 0 {
		nextArrayIdx, nextTick, err := sequence.GetNextInitializedTickIndex(curTick, pool.TickSpacing, aToB, arrayIdx)
		if err != nil {
			return nil, err
		}
		arrayIdx = nextArrayIdx

		nextTickSqrtPrice, err := SqrtPriceFromTickIndex(nextTick)
		if err != nil {
			return nil, err
		}

		targetSqrtPrice := nextTickSqrtPrice
		if aToB {
			if targetSqrtPrice.Cmp(sqrtPriceLimit) < 0 {
				targetSqrtPrice = sqrtPriceLimit
			}
		} else {
			if targetSqrtPrice.Cmp(sqrtPriceLimit) > 0 {
				targetSqrtPrice = sqrtPriceLimit
			}
		}

		step, err := computeSwapStep(curSqrtPrice, targetSqrtPrice, curLiquidity, remaining, pool.FeeRate, amountSpecifiedIsInput, aToB)
		if err != nil {
			return nil, err
		}

		if amountSpecifiedIsInput {
			consumed := step.AmountIn + step.FeeAmount
			if consumed > remaining {
				consumed = remaining
			}
			remaining -= consumed
		} else {
			if step.AmountOut > remaining {
				step.AmountOut = remaining
			}
			remaining -= step.AmountOut
		}

		if aToB {
			totalA += step.AmountIn
			totalB += step.AmountOut
		} else {
			totalB += step.AmountIn
			totalA += step.AmountOut
		}

		if step.FeeAmount > 0 && curLiquidity.Sign() > 0 {
			protocolCut := new(big.Int).Mul(new(big.Int).SetUint64(step.FeeAmount), big.NewInt(int64(pool.ProtocolFeeRate)))
			protocolCut.Quo(protocolCut, big.NewInt(ProtocolFeeRateMulValue))
			lpFee := step.FeeAmount - protocolCut.Uint64()

			growth := new(big.Int).Lsh(new(big.Int).SetUint64(lpFee), 64)
			growth.Quo(growth, curLiquidity)
			if aToB {
				feeGrowthGlobalA.Add(feeGrowthGlobalA, growth)
				protocolFeeA += protocolCut.Uint64()
			} else {
				feeGrowthGlobalB.Add(feeGrowthGlobalB, growth)
				protocolFeeB += protocolCut.Uint64()
			}
		}

		curSqrtPrice = step.NextSqrtPrice

		if curSqrtPrice.Cmp(nextTickSqrtPrice) == 0 {
			pool.AccrueRewards(pool.RewardLastUpdatedTs)
			var rewardGrowths [NumRewards]*big.Int
			for i, r := range pool.Rewards {
				if r != nil {
					rewardGrowths[i] = r.GrowthGlobalX64
				} else {
					rewardGrowths[i] = big.NewInt(0)
				}
			}
			tick, err := sequence.GetTick(arrayIdx, nextTick, pool.TickSpacing)
			if err != nil {
				return nil, err
			}
			update := tick.CrossUpdate(feeGrowthGlobalA, feeGrowthGlobalB, rewardGrowths)
			if err := sequence.UpdateTick(arrayIdx, nextTick, pool.TickSpacing, update); err != nil {
				return nil, err
			}

			liquidityNet := tick.LiquidityNet
			if aToB {
				liquidityNet = new(big.Int).Neg(liquidityNet)
			}
			curLiquidity = new(big.Int).Add(curLiquidity, liquidityNet)
			if curLiquidity.Sign() < 0 {
				return nil, ErrLiquidityUnderflow
			}

			if aToB {
				curTick = nextTick - 1
			} else {
				curTick = nextTick
			}
		} else {
			curTick = TickIndexFromSqrtPrice(curSqrtPrice)
		}
	}

	return &PostSwapUpdate{
		AmountA:          totalA,
		AmountB:          totalB,
		NextSqrtPrice:    curSqrtPrice,
		NextTickIndex:    curTick,
		NextLiquidity:    curLiquidity,
		FeeGrowthGlobalA: feeGrowthGlobalA,
		FeeGrowthGlobalB: feeGrowthGlobalB,
		ProtocolFeeA:     protocolFeeA,
		ProtocolFeeB:     protocolFeeB,
	}, nil
}
