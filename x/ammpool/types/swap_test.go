package types

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

// sqrtPriceX64 converts a human-readable sqrt-price ratio into the
// Q64.64 fixed-point representation used by computeSwapStep, letting
// test scenarios be written in ordinary decimal terms rather than
// raw fixed-point integers.
func sqrtPriceX64(sqrtPrice string) *big.Int {
	d, err := decimal.NewFromString(sqrtPrice)
	if err != nil {
		panic(err)
	}
	q64 := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64), 0)
	return d.Mul(q64).BigInt()
}

func TestComputeSwapStepFullyConsumesWithinLiquidity(t *testing.T) {
	current := sqrtPriceX64("1")
	target := sqrtPriceX64("1.1")
	liquidity := big.NewInt(1_000_000_000)

	step, err := computeSwapStep(current, target, liquidity, 1000, 1000, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if step.AmountIn+step.FeeAmount > 1000 {
		t.Errorf("step consumed more than amountRemaining: in=%d fee=%d", step.AmountIn, step.FeeAmount)
	}
	if step.AmountOut == 0 {
		t.Error("expected nonzero amount out")
	}
}

func TestComputeSwapStepZeroLiquidityNoops(t *testing.T) {
	current := sqrtPriceX64("1")
	target := sqrtPriceX64("1.22")
	step, err := computeSwapStep(current, target, big.NewInt(0), 500, 3000, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if step.AmountIn != 0 || step.AmountOut != 0 {
		t.Errorf("expected no movement with zero liquidity, got in=%d out=%d", step.AmountIn, step.AmountOut)
	}
	if step.NextSqrtPrice.Cmp(current) != 0 {
		t.Error("expected price unchanged with zero liquidity")
	}
}

func TestComputeSwapStepFeeOnInputReducesNetInput(t *testing.T) {
	current := sqrtPriceX64("1")
	target := sqrtPriceX64("2")
	liquidity := big.NewInt(10_000_000_000)

	stepNoFee, err := computeSwapStep(current, target, liquidity, 100_000, 0, true, false)
	if err != nil {
		t.Fatal(err)
	}
	stepWithFee, err := computeSwapStep(current, target, liquidity, 100_000, 3000, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if stepWithFee.FeeAmount == 0 {
		t.Error("expected nonzero fee charged on input")
	}
	if stepWithFee.AmountOut > stepNoFee.AmountOut {
		t.Error("fee-bearing step should not outproduce the fee-free step")
	}
}
