package types

import (
	"cosmossdk.io/math"
)

// ModuleName and StoreKey.
const (
	ModuleName = "insurance"
	StoreKey   = ModuleName
)

// UnstakingPeriodSecs is the default delay between request_remove_stake
// and remove_stake, per spec.md §4.9.
const UnstakingPeriodSecs = int64(7 * 24 * 60 * 60)

// InsuranceFund is a rebasing share ledger backing a synthmarket
// Market's bankruptcy draws. Shares rebase down (decimal shift) when
// the vault balance falls below total_shares, keeping share value
// bounded away from the truncation floor.
type InsuranceFund struct {
	FundID            string         `json:"fund_id"`
	MarketID          string         `json:"market_id"`
	VaultBalance      math.LegacyDec `json:"vault_balance"`
	TotalShares       math.LegacyDec `json:"total_shares"`
	SharesBase        int64          `json:"shares_base"`
	UnstakingPeriod   int64          `json:"unstaking_period"`
	MaxInsurance      math.LegacyDec `json:"max_insurance"` // zero means unbounded
	CreatedAt         int64          `json:"created_at"`
	UpdatedAt         int64          `json:"updated_at"`
}

// NewInsuranceFund creates an empty fund for a market.
func NewInsuranceFund(fundID, marketID string) *InsuranceFund {
	return &InsuranceFund{
		FundID:          fundID,
		MarketID:        marketID,
		VaultBalance:    math.LegacyZeroDec(),
		TotalShares:     math.LegacyZeroDec(),
		SharesBase:      0,
		UnstakingPeriod: UnstakingPeriodSecs,
		MaxInsurance:    math.LegacyZeroDec(),
	}
}

// Stake is one staker's position in a fund's share ledger.
type Stake struct {
	FundID                   string         `json:"fund_id"`
	Owner                    string         `json:"owner"`
	IfShares                 math.LegacyDec `json:"if_shares"`
	IfBase                   int64          `json:"if_base"`
	CostBasis                math.LegacyDec `json:"cost_basis"`
	LastWithdrawRequestShares math.LegacyDec `json:"last_withdraw_request_shares"`
	LastWithdrawRequestValue math.LegacyDec `json:"last_withdraw_request_value"`
	LastWithdrawRequestTs    int64          `json:"last_withdraw_request_ts"`
}

// NewStake creates an empty stake record for owner in fund.
func NewStake(fundID, owner string) *Stake {
	return &Stake{
		FundID:                    fundID,
		Owner:                     owner,
		IfShares:                  math.LegacyZeroDec(),
		IfBase:                    0,
		CostBasis:                 math.LegacyZeroDec(),
		LastWithdrawRequestShares: math.LegacyZeroDec(),
		LastWithdrawRequestValue:  math.LegacyZeroDec(),
	}
}

// HasOpenWithdrawRequest reports whether a request_remove_stake is
// pending cancellation or completion.
func (s *Stake) HasOpenWithdrawRequest() bool {
	return s.LastWithdrawRequestShares.IsPositive()
}
