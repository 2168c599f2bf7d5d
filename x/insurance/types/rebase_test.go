package types

import (
	"testing"

	"cosmossdk.io/math"
)

func TestExpoDiffZeroWhenVaultCoversShares(t *testing.T) {
	if diff := expoDiff(math.LegacyNewDec(100), math.LegacyNewDec(200)); diff != 0 {
		t.Errorf("expected no rebase needed, got diff=%d", diff)
	}
}

func TestExpoDiffFindsSmallestPowerOfTen(t *testing.T) {
	// 10_000 shares against a vault of 50: dividing by 10^3 (to 10)
	// is the smallest shift that brings shares <= vault.
	diff := expoDiff(math.LegacyNewDec(10_000), math.LegacyNewDec(50))
	if diff != 3 {
		t.Errorf("expected diff=3, got %d", diff)
	}
}

func TestApplyRebaseToInsuranceFundShrinksSharesAndBumpsBase(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.TotalShares = math.LegacyNewDec(10_000)

	ApplyRebaseToInsuranceFund(fund, math.LegacyNewDec(50))

	if !fund.VaultBalance.Equal(math.LegacyNewDec(50)) {
		t.Errorf("expected vault_balance updated to 50, got %s", fund.VaultBalance)
	}
	if !fund.TotalShares.Equal(math.LegacyNewDec(10)) {
		t.Errorf("expected total_shares rebased to 10, got %s", fund.TotalShares)
	}
	if fund.SharesBase != 3 {
		t.Errorf("expected shares_base=3, got %d", fund.SharesBase)
	}
}

func TestApplyRebaseToInsuranceFundNoopWhenUnnecessary(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.TotalShares = math.LegacyNewDec(100)

	ApplyRebaseToInsuranceFund(fund, math.LegacyNewDec(500))

	if !fund.TotalShares.Equal(math.LegacyNewDec(100)) {
		t.Error("expected total_shares unchanged when vault already covers shares")
	}
	if fund.SharesBase != 0 {
		t.Error("expected shares_base unchanged")
	}
}

func TestApplyRebaseToStakeCatchesUpLazily(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.SharesBase = 3

	stake := NewStake("fund1", "owner1")
	stake.IfShares = math.LegacyNewDec(10_000)
	stake.IfBase = 0
	stake.LastWithdrawRequestShares = math.LegacyNewDec(2_000)

	ApplyRebaseToStake(stake, fund)

	if !stake.IfShares.Equal(math.LegacyNewDec(10)) {
		t.Errorf("expected if_shares rebased to 10, got %s", stake.IfShares)
	}
	if !stake.LastWithdrawRequestShares.Equal(math.LegacyNewDec(2)) {
		t.Errorf("expected pending withdraw shares rebased to 2, got %s", stake.LastWithdrawRequestShares)
	}
	if stake.IfBase != 3 {
		t.Errorf("expected if_base caught up to 3, got %d", stake.IfBase)
	}
}

func TestApplyRebaseToStakeNoopWhenAlreadyCurrent(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.SharesBase = 2

	stake := NewStake("fund1", "owner1")
	stake.IfShares = math.LegacyNewDec(50)
	stake.IfBase = 2

	ApplyRebaseToStake(stake, fund)

	if !stake.IfShares.Equal(math.LegacyNewDec(50)) {
		t.Error("expected if_shares unchanged when stake already matches fund base")
	}
}

func TestSharesToAmountZeroWhenNoShares(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	if got := SharesToAmount(math.LegacyNewDec(10), fund); !got.IsZero() {
		t.Errorf("expected zero amount for empty fund, got %s", got)
	}
}

func TestSharesToAmountProportionalToVault(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.TotalShares = math.LegacyNewDec(100)
	fund.VaultBalance = math.LegacyNewDec(200)

	got := SharesToAmount(math.LegacyNewDec(10), fund)
	want := math.LegacyNewDec(20)
	if !got.Equal(want) {
		t.Errorf("expected amount %s, got %s", want, got)
	}
}

func TestAmountToSharesFirstStakerGetsAmountAsShares(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	got := AmountToShares(math.LegacyNewDec(500), fund)
	if !got.Equal(math.LegacyNewDec(500)) {
		t.Errorf("expected first staker to mint 1:1, got %s", got)
	}
}

func TestAmountToSharesSubsequentStakerProportional(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.TotalShares = math.LegacyNewDec(100)
	fund.VaultBalance = math.LegacyNewDec(200)

	got := AmountToShares(math.LegacyNewDec(20), fund)
	want := math.LegacyNewDec(10)
	if !got.Equal(want) {
		t.Errorf("expected minted shares %s, got %s", want, got)
	}
}

func TestSharesToAmountAndAmountToSharesRoundTrip(t *testing.T) {
	fund := NewInsuranceFund("fund1", "market1")
	fund.TotalShares = math.LegacyNewDec(1_000)
	fund.VaultBalance = math.LegacyNewDec(1_500)

	amount := math.LegacyNewDec(300)
	shares := AmountToShares(amount, fund)
	back := SharesToAmount(shares, fund)
	if !back.Equal(amount) {
		t.Errorf("expected round trip to preserve amount, got %s want %s", back, amount)
	}
}
