package types

import "math/big"

// Tick bounds. A tick i represents price 1.0001^i; sqrt_price(i) is Q64.64.
const (
	MinTick = -443636
	MaxTick = 443636

	// TickArraySize is the number of dense tick slots per TickArray.
	TickArraySize = 88

	// NumRewards is the fixed number of reward emission slots per pool.
	NumRewards = 3

	// FeeRateMulValue expresses fee_rate in hundredths of a basis point.
	FeeRateMulValue = 1_000_000

	// ProtocolFeeRateMulValue expresses protocol_fee_rate in basis points.
	ProtocolFeeRateMulValue = 10_000

	// MaxFeeRate is the upper bound for Pool.FeeRate (hundredths of a bp).
	MaxFeeRate = 30_000

	// MaxProtocolFeeRate is the upper bound for Pool.ProtocolFeeRate (bp).
	MaxProtocolFeeRate = 2_500

	// DaySeconds is used by initialize_reward's balance-safety check.
	DaySeconds = 86_400
)

// MinSqrtPrice and MaxSqrtPrice bound sqrt_price (Q64.64, u128).
var (
	MinSqrtPrice = big.NewInt(4_295_048_016)

	// MaxSqrtPrice = 2^96 - 1.
	MaxSqrtPrice = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

	// q64 is 2^64, the Q64.64 fixed-point scaling factor.
	q64 = new(big.Int).Lsh(big.NewInt(1), 64)

	// maxU64 and maxU128 bound amount/liquidity results.
	maxU64  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)
