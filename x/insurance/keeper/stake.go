package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/synthmarket/x/insurance/types"
)

// minWithdrawRequest is the WithdrawRequestTooSmall floor (spec.md §7).
var minWithdrawRequest = math.LegacyNewDec(1)

// InitializeFund creates an empty insurance fund for a market.
func (k *Keeper) InitializeFund(ctx sdk.Context, fundID, marketID string, maxInsurance math.LegacyDec) error {
	if k.GetFund(ctx, fundID) != nil {
		return types.ErrFundExists
	}
	fund := types.NewInsuranceFund(fundID, marketID)
	fund.MaxInsurance = maxInsurance
	fund.CreatedAt = ctx.BlockTime().Unix()
	fund.UpdatedAt = fund.CreatedAt
	k.SetFund(ctx, fund)
	return nil
}

// touch applies the pending rebase to both the fund and the stake,
// per spec.md §4.9's "every stake operation first applies" rule.
func (k *Keeper) touch(ctx sdk.Context, fundID, owner string, vaultBalance math.LegacyDec) (*types.InsuranceFund, *types.Stake, error) {
	fund := k.GetFund(ctx, fundID)
	if fund == nil {
		return nil, nil, types.ErrFundNotFound
	}
	types.ApplyRebaseToInsuranceFund(fund, vaultBalance)
	stake := k.GetOrCreateStake(ctx, fundID, owner)
	types.ApplyRebaseToStake(stake, fund)
	return fund, stake, nil
}

// Stake implements the stake(amount) entry point (spec.md §4.9/§6):
// rebases, then mints n_shares = amount * total_shares / vault_balance
// (or amount itself for the first staker).
func (k *Keeper) Stake(ctx sdk.Context, fundID, owner string, amount, vaultBalance math.LegacyDec) error {
	if !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	fund, stake, err := k.touch(ctx, fundID, owner, vaultBalance)
	if err != nil {
		return err
	}
	if stake.HasOpenWithdrawRequest() {
		return types.ErrWithdrawInProgress
	}
	if fund.VaultBalance.IsZero() && !fund.TotalShares.IsZero() {
		return types.ErrInvalidIFRebase
	}
	if fund.MaxInsurance.IsPositive() && fund.VaultBalance.Add(amount).GT(fund.MaxInsurance) {
		return types.ErrMaxInsuranceExceeded
	}

	nShares := types.AmountToShares(amount, fund)
	fund.TotalShares = fund.TotalShares.Add(nShares)
	fund.VaultBalance = fund.VaultBalance.Add(amount)
	fund.UpdatedAt = ctx.BlockTime().Unix()

	stake.IfShares = stake.IfShares.Add(nShares)
	stake.CostBasis = stake.CostBasis.Add(amount)

	k.SetFund(ctx, fund)
	k.SetStake(ctx, stake)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_stake",
		sdk.NewAttribute("fund_id", fundID),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("amount", amount.String()),
		sdk.NewAttribute("n_shares", nShares.String()),
	))
	return nil
}

// RequestRemoveStake implements request_remove_stake(n_shares):
// records the request and its clamped value, blocking further stakes.
func (k *Keeper) RequestRemoveStake(ctx sdk.Context, fundID, owner string, nShares, vaultBalance math.LegacyDec) error {
	fund, stake, err := k.touch(ctx, fundID, owner, vaultBalance)
	if err != nil {
		return err
	}
	if stake.HasOpenWithdrawRequest() {
		return types.ErrWithdrawInProgress
	}
	if nShares.IsNegative() || nShares.IsZero() || nShares.GT(stake.IfShares) {
		return types.ErrInvalidIFUnstakeSize
	}

	value := types.SharesToAmount(nShares, fund)
	maxValue := fund.VaultBalance.Sub(math.LegacyOneDec())
	if maxValue.IsNegative() {
		maxValue = math.LegacyZeroDec()
	}
	if value.GT(maxValue) {
		value = maxValue
	}
	if value.LT(minWithdrawRequest) {
		return types.ErrWithdrawRequestTooSmall
	}

	stake.LastWithdrawRequestShares = nShares
	stake.LastWithdrawRequestValue = value
	stake.LastWithdrawRequestTs = ctx.BlockTime().Unix()

	k.SetFund(ctx, fund)
	k.SetStake(ctx, stake)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_request_remove_stake",
		sdk.NewAttribute("fund_id", fundID),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("n_shares", nShares.String()),
		sdk.NewAttribute("value", value.String()),
	))
	return nil
}

// CancelRequestRemoveStake implements cancel_request_remove_stake:
// if fund value dropped since the request, the staker eats the
// difference as a share loss; the request fields are then cleared.
func (k *Keeper) CancelRequestRemoveStake(ctx sdk.Context, fundID, owner string, vaultBalance math.LegacyDec) error {
	fund, stake, err := k.touch(ctx, fundID, owner, vaultBalance)
	if err != nil {
		return err
	}
	if !stake.HasOpenWithdrawRequest() {
		return types.ErrInvalidIFUnstakeCancel
	}

	currentValue := types.SharesToAmount(stake.LastWithdrawRequestShares, fund)
	ifSharesLost := math.LegacyZeroDec()
	if currentValue.LT(stake.LastWithdrawRequestValue) {
		lostValue := stake.LastWithdrawRequestValue.Sub(currentValue)
		ifSharesLost = types.AmountToShares(lostValue, fund)
		if ifSharesLost.GT(stake.IfShares) {
			ifSharesLost = stake.IfShares
		}
		stake.IfShares = stake.IfShares.Sub(ifSharesLost)
		fund.TotalShares = fund.TotalShares.Sub(ifSharesLost)
	}

	stake.LastWithdrawRequestShares = math.LegacyZeroDec()
	stake.LastWithdrawRequestValue = math.LegacyZeroDec()
	stake.LastWithdrawRequestTs = 0

	k.SetFund(ctx, fund)
	k.SetStake(ctx, stake)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_cancel_request_remove_stake",
		sdk.NewAttribute("fund_id", fundID),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("shares_lost", ifSharesLost.String()),
	))
	return nil
}

// RemoveStake implements remove_stake: after the unstaking period has
// elapsed, withdraws min(shares_to_amount(request_shares), request_value)
// and resets cost_basis.
func (k *Keeper) RemoveStake(ctx sdk.Context, fundID, owner string, vaultBalance math.LegacyDec) (math.LegacyDec, error) {
	fund, stake, err := k.touch(ctx, fundID, owner, vaultBalance)
	if err != nil {
		return math.LegacyDec{}, err
	}
	if !stake.HasOpenWithdrawRequest() {
		return math.LegacyDec{}, types.ErrInvalidIFUnstake
	}
	if ctx.BlockTime().Unix()-stake.LastWithdrawRequestTs < fund.UnstakingPeriod {
		return math.LegacyDec{}, types.ErrRemoveTooFast
	}

	currentValue := types.SharesToAmount(stake.LastWithdrawRequestShares, fund)
	amount := currentValue
	if stake.LastWithdrawRequestValue.LT(amount) {
		amount = stake.LastWithdrawRequestValue
	}

	stake.IfShares = stake.IfShares.Sub(stake.LastWithdrawRequestShares)
	fund.TotalShares = fund.TotalShares.Sub(stake.LastWithdrawRequestShares)
	fund.VaultBalance = fund.VaultBalance.Sub(amount)
	fund.UpdatedAt = ctx.BlockTime().Unix()

	stake.LastWithdrawRequestShares = math.LegacyZeroDec()
	stake.LastWithdrawRequestValue = math.LegacyZeroDec()
	stake.LastWithdrawRequestTs = 0
	stake.CostBasis = math.LegacyZeroDec()

	k.SetFund(ctx, fund)
	k.SetStake(ctx, stake)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_remove_stake",
		sdk.NewAttribute("fund_id", fundID),
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("amount", amount.String()),
	))
	return amount, nil
}
