package types

import "cosmossdk.io/errors"

var (
	ErrFundNotFound           = errors.Register(ModuleName, 1, "insurance fund not found")
	ErrFundExists             = errors.Register(ModuleName, 2, "insurance fund already exists")
	ErrInvalidIFRebase        = errors.Register(ModuleName, 3, "invalid insurance fund rebase")
	ErrInvalidIFUnstake       = errors.Register(ModuleName, 4, "invalid unstake request")
	ErrInvalidIFUnstakeSize   = errors.Register(ModuleName, 5, "unstake size exceeds staked shares")
	ErrInvalidIFUnstakeCancel = errors.Register(ModuleName, 6, "no open withdraw request to cancel")
	ErrWithdrawInProgress     = errors.Register(ModuleName, 7, "a withdraw request is already in progress")
	ErrWithdrawRequestTooSmall = errors.Register(ModuleName, 8, "withdraw request below minimum")
	ErrInsufficientIFShares   = errors.Register(ModuleName, 9, "insufficient insurance fund shares")
	ErrRemoveTooFast          = errors.Register(ModuleName, 10, "unstaking period has not elapsed")
	ErrMaxInsuranceExceeded   = errors.Register(ModuleName, 11, "stake would exceed fund max_insurance")
	ErrInvalidAmount          = errors.Register(ModuleName, 12, "amount must be positive")
)
