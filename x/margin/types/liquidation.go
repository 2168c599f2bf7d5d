package types

import "cosmossdk.io/math"

// smallShortageThreshold is the quote-unit shortage below which
// pct_freeable accelerates to 100% in one call (spec.md §4.8).
var smallShortageThreshold = math.LegacyNewDec(50)

// PctFreeable computes the bounded fraction of margin_shortage a
// single liquidation call may free, per spec.md §4.8:
//
//	pct_freeable = min(1, slots_since_liq_start/duration + initial_pct)
//
// unless total shortage is below the small-shortage threshold, in
// which case it accelerates to 100%.
func PctFreeable(slotsSinceStart, liquidationDurationSlots int64, initialPct math.LegacyDec, totalShortage math.LegacyDec) math.LegacyDec {
	if totalShortage.LT(smallShortageThreshold) {
		return math.LegacyOneDec()
	}
	if liquidationDurationSlots <= 0 {
		return math.LegacyOneDec()
	}
	elapsedPct := math.LegacyNewDec(slotsSinceStart).QuoInt64(liquidationDurationSlots)
	pct := elapsedPct.Add(initialPct)
	if pct.GT(math.LegacyOneDec()) {
		return math.LegacyOneDec()
	}
	return pct
}

// BaseAmountToCoverMarginShortage derives, analytically, the quantity
// of base (debt) asset a liquidator must repay so that one liquidation
// transaction moves collateral exactly to requirement_with_buffer
// (spec.md §4.8). Repaying `x` debt at priceDebt frees
// `x * priceDebt * (1 + liquidatorFee + ifFee)` of liability value and
// removes `x * priceDebt` of liability from the requirement side; the
// closed form below solves for the x that exactly closes marginShortage
// under the (linear, for a fixed-weight position) margin model.
func BaseAmountToCoverMarginShortage(
	marginShortage math.LegacyDec,
	priceDebt math.LegacyDec,
	effectiveRatio math.LegacyDec,
	liquidatorFeeRatio, ifLiquidationFeeRatio math.LegacyDec,
	pctFreeable math.LegacyDec,
) math.LegacyDec {
	if priceDebt.IsZero() {
		return math.LegacyZeroDec()
	}
	// Repaying one unit of debt frees (1 - effectiveRatio) of its
	// liability-side requirement while costing the fees on top, so the
	// shortage-closing rate per unit of quote value repaid is
	// (1 - effectiveRatio + liquidatorFeeRatio + ifLiquidationFeeRatio).
	rate := math.LegacyOneDec().Sub(effectiveRatio).Add(liquidatorFeeRatio).Add(ifLiquidationFeeRatio)
	if !rate.IsPositive() {
		rate = math.LegacyOneDec()
	}
	quoteToFree := marginShortage.Mul(pctFreeable).Quo(rate)
	return quoteToFree.Quo(priceDebt)
}

// OracleDivergenceOK implements the pre-liquidation guard from
// spec.md §4.8: |oracle - twap| / twap < max_divergence(tier).
func OracleDivergenceOK(oraclePrice, twap math.LegacyDec, maxDivergenceBps int64) bool {
	if twap.IsZero() {
		return false
	}
	diff := oraclePrice.Sub(twap).Abs()
	divergence := diff.Quo(twap)
	bound := math.LegacyNewDec(maxDivergenceBps).QuoInt64(10_000)
	return divergence.LT(bound)
}

// BankruptcyResolution is the outcome of resolve_position_bankruptcy
// (spec.md §4.8): how much debt was drawn from the insurance fund, how
// much from the market's own fee pool, and how much had to be
// socialized (added to market.amm.total_social_loss).
type BankruptcyResolution struct {
	FromInsuranceFund math.LegacyDec
	FromFeePool       math.LegacyDec
	Socialized        math.LegacyDec
}

// ResolveBankruptcy implements spec.md §4.8 step-by-step: draw from
// the insurance fund up to min(debt, insurance_balance-1, remaining_quota),
// then the market fee pool up to what's available, then socialize
// whatever remains.
func ResolveBankruptcy(debt, insuranceBalance, remainingQuota, feePoolBalance math.LegacyDec) BankruptcyResolution {
	ifCap := insuranceBalance.Sub(math.LegacyOneDec())
	if ifCap.IsNegative() {
		ifCap = math.LegacyZeroDec()
	}
	ifDraw := minDec(debt, minDec(ifCap, remainingQuota))
	remaining := debt.Sub(ifDraw)

	feeDraw := minDec(remaining, feePoolBalance)
	remaining = remaining.Sub(feeDraw)

	return BankruptcyResolution{
		FromInsuranceFund: ifDraw,
		FromFeePool:       feeDraw,
		Socialized:        remaining,
	}
}

func minDec(a, b math.LegacyDec) math.LegacyDec {
	if a.LT(b) {
		return a
	}
	return b
}
