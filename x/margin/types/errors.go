package types

import (
	"cosmossdk.io/errors"
)

// Module error codes for margin requirement evaluation and liquidation
// (C8), per spec.md §7.
var (
	ErrPositionHealthy      = errors.Register("margin", 1, "position meets margin requirement, cannot liquidate")
	ErrPositionNotFound     = errors.Register("margin", 2, "position not found")
	ErrPriceBandsBreached   = errors.Register("margin", 3, "oracle price diverges from twap beyond tier tolerance")
	ErrNotBeingLiquidated   = errors.Register("margin", 4, "position is not in being_liquidated status")
	ErrNotBankrupt          = errors.Register("margin", 5, "position still holds sufficient collateral")
	ErrInvalidLiquidator    = errors.Register("margin", 6, "user cannot liquidate themself")
	ErrLiquidationDoesntSatisfyLimitPrice = errors.Register("margin", 7, "liquidation would execute beyond the liquidator's limit price")
)
