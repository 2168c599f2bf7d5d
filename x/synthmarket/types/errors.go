package types

import (
	"cosmossdk.io/errors"
)

// Module error codes for the collateral/debt market (C7), per spec.md §7.
var (
	ErrMarketNotFound       = errors.Register("synthmarket", 1, "market not found")
	ErrMarketExists         = errors.Register("synthmarket", 2, "market already exists")
	ErrMarketNotActive      = errors.Register("synthmarket", 3, "market status forbids this operation")
	ErrOperationPaused      = errors.Register("synthmarket", 4, "operation paused for this market")
	ErrPositionNotFound     = errors.Register("synthmarket", 5, "market position not found")
	ErrInsufficientBalance  = errors.Register("synthmarket", 6, "insufficient collateral balance")
	ErrWithdrawExceedsLimit = errors.Register("synthmarket", 7, "withdrawal exceeds max_withdrawable")
	ErrDebtCeilingBreached  = errors.Register("synthmarket", 8, "debt ceiling breached")
	ErrMaxPositionSize      = errors.Register("synthmarket", 9, "position would exceed max_position_size")
	ErrInvalidAmount        = errors.Register("synthmarket", 10, "amount must be positive")
	ErrUnauthorized         = errors.Register("synthmarket", 11, "unauthorized")
	ErrInvalidMarginConfig  = errors.Register("synthmarket", 12, "invalid margin configuration")
	ErrInvalidDebtLimit     = errors.Register("synthmarket", 13, "debt floor must not exceed debt ceiling")
	ErrAlreadyShutdown      = errors.Register("synthmarket", 14, "market already entering shutdown")
)
