package types

import (
	"math/big"

	"github.com/holiman/uint256"
)

// This file implements C1: all sqrt-price/tick/liquidity fixed-point
// arithmetic described in spec.md §4.1. Every price is carried as
// sqrt_price in Q64.64 (a u128 scaled by 2^64); sqrt_price(i) =
// 1.0001^(i/2) * 2^64. Intermediate products can exceed 128 bits, so
// every multiplication here widens into math/big (or, for the single
// hot mul-div path, github.com/holiman/uint256's fixed 256-bit type)
// before narrowing back down and checking the result fits its
// destination width.

// sqrtRatioConstants are Q128.128 fixed-point encodings of
// sqrt(1.0001)^(-2^k) for k = 0..19, the standard bit-decomposition
// table used to compute sqrt(1.0001^tick) without calling into
// floating point. Only the bits needed to cover [MinTick, MaxTick]
// (|tick| < 2^19) are exercised.
var sqrtRatioConstants = [20]string{
	"fffcb933bd6fad37aa2d162d1a594001",
	"fff97272373d413259a46990580e213a",
	"fff2e50f5f656932ef12357cf3c7fdcc",
	"ffe5caca7e10e4e61c3624eaa0941cd0",
	"ffcb9843d60f6159c9db58835c926644",
	"ff973b41fa98c081472e6896dfb254c0",
	"ff2ea16466c96a3843ec78b326b52861",
	"fe5dee046a99a2a811c461f1969c3053",
	"fcbe86c7900a88aedcffc83b479aa3a4",
	"f987a7253ac413176f2b074cf7815e54",
	"f3392b0822b70005940c7a398e4b70f3",
	"e7159475a2c29b7443b29c7fa6e889d9",
	"d097f3bdfd2022b8845ad8f792aa5825",
	"a9f746462d870fdf8a65dc1f90e061e5",
	"70d869a156d2a1b890bb3df62baf32f7",
	"31be135f97d08fd981231505542fcfa6",
	"09aa508b5b7a84e1c677de54f3e99bc9",
	"005d6af8dedb81196699c329225ee604",
	"00002216e584f5fa1ea926041bedfe98",
	"0000000048a170391f7dc42444e8fa2",
}

var q128 = new(big.Int).Lsh(big.NewInt(1), 128)

// SqrtPriceFromTickIndex computes sqrt_price(i) = 1.0001^(i/2) * 2^64,
// deterministically and bit-exactly, via the standard bit-decomposition
// of |i| against a precomputed table of sqrt(1.0001)^(-2^k) constants
// carried in Q128.128, then narrowed to Q64.64 by a single right shift.
func SqrtPriceFromTickIndex(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrSqrtPriceOutOfBounds
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	var ratio *big.Int
	if absTick&0x1 != 0 {
		ratio, _ = new(big.Int).SetString(sqrtRatioConstants[0], 16)
	} else {
		ratio = new(big.Int).Set(q128)
	}

	for k := 1; k < len(sqrtRatioConstants); k++ {
		if absTick&(1<<uint(k)) == 0 {
			continue
		}
		c, _ := new(big.Int).SetString(sqrtRatioConstants[k], 16)
		ratio.Mul(ratio, c)
		ratio.Rsh(ratio, 128)
	}

	if tick > 0 {
		// Invert: ratio = (2^256 - 1) / ratio, still Q128.128.
		maxU256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		ratio = new(big.Int).Quo(maxU256, ratio)
	}

	// Narrow Q128.128 -> Q64.64 with round-up on a nonzero remainder,
	// matching the rounding policy used for MAX_SQRT_PRICE/MIN_SQRT_PRICE
	// bound checks below.
	rem := new(big.Int)
	quo, rem := new(big.Int).QuoRem(ratio, new(big.Int).Lsh(big.NewInt(1), 64), rem)
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}

	if quo.Cmp(MinSqrtPrice) < 0 || quo.Cmp(MaxSqrtPrice) > 0 {
		return nil, ErrSqrtPriceOutOfBounds
	}
	return quo, nil
}

// TickIndexFromSqrtPrice is the exact inverse of SqrtPriceFromTickIndex:
// sqrt_price is strictly increasing in tick, so a binary search over
// [MinTick, MaxTick] for the greatest tick whose sqrt_price does not
// exceed p recovers i with TickIndexFromSqrtPrice(SqrtPriceFromTickIndex(i)) == i
// for every i in range (property 1, spec.md §8).
func TickIndexFromSqrtPrice(sqrtPrice *big.Int) int32 {
	lo, hi := int32(MinTick), int32(MaxTick)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		p, err := SqrtPriceFromTickIndex(mid)
		if err != nil || p.Cmp(sqrtPrice) > 0 {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo
}

// CheckedMulDiv computes floor(num1*num2/denom) in a widened 256-bit
// intermediate, failing ErrOverflow if the result exceeds a u128.
func CheckedMulDiv(num1, num2, denom *big.Int) (*big.Int, error) {
	return checkedMulDiv(num1, num2, denom, false)
}

// CheckedMulDivRoundUp is CheckedMulDiv with ceiling division.
func CheckedMulDivRoundUp(num1, num2, denom *big.Int) (*big.Int, error) {
	return checkedMulDiv(num1, num2, denom, true)
}

func checkedMulDiv(num1, num2, denom *big.Int, roundUp bool) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrOverflow
	}
	a, overflow := uint256.FromBig(num1)
	if overflow {
		return nil, ErrOverflow
	}
	b, overflow := uint256.FromBig(num2)
	if overflow {
		return nil, ErrOverflow
	}
	d, overflow := uint256.FromBig(denom)
	if overflow {
		return nil, ErrOverflow
	}

	// a*b for two u128 operands never exceeds 256 bits, so Mul (which
	// wraps mod 2^256) cannot silently truncate here.
	product := new(uint256.Int).Mul(a, b)
	quo := new(uint256.Int).Div(product, d)
	if roundUp {
		rem := new(uint256.Int).Mod(product, d)
		if !rem.IsZero() {
			quo.AddUint64(quo, 1)
		}
	}

	result := quo.ToBig()
	if result.Cmp(maxU128) > 0 {
		return nil, ErrOverflow
	}
	return result, nil
}

// GetAmountDeltaA computes the token-A amount delta between two sqrt
// prices at liquidity L: L * |p1 - p0| * 2^64 / (p0 * p1), per spec.md
// §4.1. Rounds up when roundUp is set; fails ErrTokenMaxExceeded if the
// result does not fit a u64.
func GetAmountDeltaA(p0, p1, liquidity *big.Int, roundUp bool) (uint64, error) {
	diff := absDiff(p0, p1)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return 0, nil
	}
	num := new(big.Int).Mul(liquidity, diff)
	num.Mul(num, q64)
	denom := new(big.Int).Mul(p0, p1)
	if denom.Sign() == 0 {
		return 0, ErrOverflow
	}
	quo, rem := new(big.Int).QuoRem(num, denom, new(big.Int))
	if roundUp && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if quo.Cmp(maxU64) > 0 {
		return 0, ErrTokenMaxExceeded
	}
	return quo.Uint64(), nil
}

// GetAmountDeltaB computes the token-B amount delta: L * |p1 - p0| / 2^64.
func GetAmountDeltaB(p0, p1, liquidity *big.Int, roundUp bool) (uint64, error) {
	diff := absDiff(p0, p1)
	if diff.Sign() == 0 || liquidity.Sign() == 0 {
		return 0, nil
	}
	num := new(big.Int).Mul(liquidity, diff)
	quo, rem := new(big.Int).QuoRem(num, q64, new(big.Int))
	if roundUp && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if quo.Cmp(maxU64) > 0 {
		return 0, ErrTokenMaxExceeded
	}
	return quo.Uint64(), nil
}

// GetNextSqrtPrice solves for the new sqrt_price after swapping `amount`
// of the fixed-side token against liquidity L, dispatching between the
// token-A and token-B closed forms exactly as spec.md §4.1/§4.6
// describe: the A-side formula is used when a_to_b == amountIsInput
// (the specified token is A), otherwise the B-side formula is used.
// The result is checked against [MinSqrtPrice, MaxSqrtPrice].
func GetNextSqrtPrice(sqrtPrice, liquidity *big.Int, amount uint64, amountIsInput, aToB bool) (*big.Int, error) {
	if amount == 0 {
		return new(big.Int).Set(sqrtPrice), nil
	}
	amt := new(big.Int).SetUint64(amount)

	var next *big.Int
	var err error
	if aToB == amountIsInput {
		next, err = nextSqrtPriceFromA(sqrtPrice, liquidity, amt, amountIsInput)
	} else {
		next, err = nextSqrtPriceFromB(sqrtPrice, liquidity, amt, amountIsInput)
	}
	if err != nil {
		return nil, err
	}
	if next.Cmp(MinSqrtPrice) < 0 || next.Cmp(MaxSqrtPrice) > 0 {
		return nil, ErrSqrtPriceOutOfBounds
	}
	return next, nil
}

// nextSqrtPriceFromA: p' = L*p*2^64 / (L*2^64 +/- amount*p).
// Rounds up on input (protects the pool from under-charging) and down
// on output (protects the pool from over-paying).
func nextSqrtPriceFromA(p, l, amount *big.Int, isInput bool) (*big.Int, error) {
	numerator := new(big.Int).Mul(l, p)
	numerator.Mul(numerator, q64)

	lShifted := new(big.Int).Mul(l, q64)
	delta := new(big.Int).Mul(amount, p)

	var denom *big.Int
	if isInput {
		denom = new(big.Int).Add(lShifted, delta)
	} else {
		denom = new(big.Int).Sub(lShifted, delta)
		if denom.Sign() <= 0 {
			return nil, ErrLiquidityUnderflow
		}
	}

	quo, rem := new(big.Int).QuoRem(numerator, denom, new(big.Int))
	if isInput && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo, nil
}

// nextSqrtPriceFromB: p' = p +/- amount*2^64/L.
func nextSqrtPriceFromB(p, l, amount *big.Int, isInput bool) (*big.Int, error) {
	if l.Sign() == 0 {
		return nil, ErrLiquidityZero
	}
	delta := new(big.Int).Mul(amount, q64)
	quo, rem := new(big.Int).QuoRem(delta, l, new(big.Int))
	if !isInput && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}

	if isInput {
		return new(big.Int).Add(p, quo), nil
	}
	next := new(big.Int).Sub(p, quo)
	if next.Sign() <= 0 {
		return nil, ErrSqrtPriceOutOfBounds
	}
	return next, nil
}

func absDiff(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Sub(a, b)
	}
	return new(big.Int).Sub(b, a)
}
