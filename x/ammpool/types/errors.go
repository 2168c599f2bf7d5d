package types

import (
	"cosmossdk.io/errors"
)

// Module error codes for the concentrated-liquidity AMM pool engine
// (C1-C6). Every kind here corresponds 1:1 to a row of spec.md §7.
var (
	ErrAlreadyInitialized         = errors.Register("ammpool", 1, "already initialized")
	ErrNotAuthorized              = errors.Register("ammpool", 2, "not authorized")
	ErrSqrtPriceOutOfBounds       = errors.Register("ammpool", 3, "sqrt price out of bounds")
	ErrInvalidSqrtPriceLimitDir   = errors.Register("ammpool", 4, "invalid sqrt price limit direction")
	ErrZeroTradableAmount         = errors.Register("ammpool", 5, "zero tradable amount")
	ErrAmountOutBelowMinimum      = errors.Register("ammpool", 6, "amount out below minimum")
	ErrAmountInAboveMaximum       = errors.Register("ammpool", 7, "amount in above maximum")
	ErrPartialFillError           = errors.Register("ammpool", 8, "exact-out swap could not be filled without a price limit")
	ErrLiquidityZero              = errors.Register("ammpool", 9, "liquidity is zero")
	ErrLiquidityUnderflow         = errors.Register("ammpool", 10, "liquidity underflow")
	ErrLiquidityOverflow          = errors.Register("ammpool", 11, "liquidity overflow")
	ErrTokenMaxExceeded           = errors.Register("ammpool", 12, "token amount exceeds u64 max")
	ErrTokenMinSubceeded          = errors.Register("ammpool", 13, "token amount below required minimum")
	ErrTickNotFound               = errors.Register("ammpool", 14, "tick not found in array bounds")
	ErrInvalidTickArraySequence   = errors.Register("ammpool", 15, "invalid tick array sequence")
	ErrInvalidTickSpacing         = errors.Register("ammpool", 16, "invalid tick spacing")
	ErrInvalidStartTick           = errors.Register("ammpool", 17, "invalid start tick index")
	ErrRewardVaultAmountInsuffic  = errors.Register("ammpool", 18, "reward vault balance insufficient for emission rate")
	ErrInvalidRewardIndex         = errors.Register("ammpool", 19, "invalid reward index")
	ErrInvalidTickRange           = errors.Register("ammpool", 20, "invalid tick range for position")
	ErrPositionNotEmpty           = errors.Register("ammpool", 21, "position still holds liquidity, fees, or rewards")
	ErrOverflow                   = errors.Register("ammpool", 22, "arithmetic overflow")
	ErrInvalidFeeRate             = errors.Register("ammpool", 23, "invalid fee rate")
	ErrRewardTokenAlreadyInitialized = errors.Register("ammpool", 24, "reward token already initialized")
	ErrPriceBandsBreached            = errors.Register("ammpool", 25, "oracle sample widens the twap gap beyond tolerance")
)
