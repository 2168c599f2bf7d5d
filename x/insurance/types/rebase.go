package types

import "cosmossdk.io/math"

var ten = math.LegacyNewDec(10)

// expoDiff finds the smallest power of ten by which total_shares must
// be divided so that total_shares <= vaultBalance, per spec.md §4.9.
func expoDiff(totalShares, vaultBalance math.LegacyDec) int64 {
	if !totalShares.IsPositive() || vaultBalance.GTE(totalShares) {
		return 0
	}
	diff := int64(0)
	shares := totalShares
	for shares.GT(vaultBalance) {
		shares = shares.Quo(ten)
		diff++
	}
	return diff
}

// ApplyRebaseToInsuranceFund shrinks total_shares by 10^expo_diff
// whenever the vault balance has fallen below total_shares, recording
// the cumulative exponent in shares_base so per-stake shares can be
// rebased lazily on next touch.
func ApplyRebaseToInsuranceFund(fund *InsuranceFund, vaultBalance math.LegacyDec) {
	fund.VaultBalance = vaultBalance
	diff := expoDiff(fund.TotalShares, vaultBalance)
	if diff == 0 {
		return
	}
	divisor := pow10(diff)
	fund.TotalShares = fund.TotalShares.Quo(divisor)
	fund.SharesBase += diff
}

// ApplyRebaseToStake brings a stake's shares up to date with any
// rebase the fund has accumulated since the stake's last touch.
func ApplyRebaseToStake(stake *Stake, fund *InsuranceFund) {
	if fund.SharesBase <= stake.IfBase {
		return
	}
	diff := fund.SharesBase - stake.IfBase
	divisor := pow10(diff)
	stake.IfShares = stake.IfShares.Quo(divisor)
	if stake.LastWithdrawRequestShares.IsPositive() {
		stake.LastWithdrawRequestShares = stake.LastWithdrawRequestShares.Quo(divisor)
	}
	stake.IfBase = fund.SharesBase
}

func pow10(n int64) math.LegacyDec {
	result := math.LegacyOneDec()
	for i := int64(0); i < n; i++ {
		result = result.Mul(ten)
	}
	return result
}

// SharesToAmount converts a share count to vault value at the fund's
// current balance and total_shares.
func SharesToAmount(shares math.LegacyDec, fund *InsuranceFund) math.LegacyDec {
	if fund.TotalShares.IsZero() {
		return math.LegacyZeroDec()
	}
	return shares.Mul(fund.VaultBalance).Quo(fund.TotalShares)
}

// AmountToShares computes n_shares for a stake of amount, per
// spec.md §4.9: amount * total_shares / vault_balance, or amount
// itself for the first staker.
func AmountToShares(amount math.LegacyDec, fund *InsuranceFund) math.LegacyDec {
	if fund.TotalShares.IsZero() || fund.VaultBalance.IsZero() {
		return amount
	}
	return amount.Mul(fund.TotalShares).Quo(fund.VaultBalance)
}
