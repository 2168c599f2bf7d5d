package types

import (
	"time"

	"cosmossdk.io/math"
)

// MarginRequirementKind selects which of the two tiered ratios a
// MarginCalculation uses (spec.md §4.8).
type MarginRequirementKind int

const (
	MarginRequirementInitial MarginRequirementKind = iota
	MarginRequirementMaintenance
)

// MarginInputs is everything MarginCalculation needs: it is a pure
// function of position + market + oracle, per spec.md §4.8.
type MarginInputs struct {
	Debt              math.LegacyDec
	PriceDebt         math.LegacyDec
	Collateral        math.LegacyDec
	PriceCollateral   math.LegacyDec
	CollateralWeight  math.LegacyDec
	MarginRatio       math.LegacyDec // base ratio for the requested kind, before imf adjustment
	ImfFactor         math.LegacyDec
	LiquidationBuffer math.LegacyDec // liquidation_margin_buffer_ratio / MARGIN_PRECISION, already normalized
}

// MarginPrecision is the divisor liquidation_margin_buffer_ratio is
// expressed against (spec.md §4.8).
var MarginPrecision = math.LegacyNewDec(10_000)

// MarginCalculation is the computed result of MarginInputs, per
// spec.md §4.8: liability/collateral values, the tiered requirement
// (with an imf_factor size premium), and the liquidation-buffered
// requirement used only in liquidation context.
type MarginCalculation struct {
	LiabilityValue       math.LegacyDec
	CollateralValue      math.LegacyDec
	Requirement          math.LegacyDec
	RequirementWithBuffer math.LegacyDec
	TotalCollateral      math.LegacyDec
}

// Compute evaluates a MarginCalculation from MarginInputs. The
// imf_factor size premium scales the base ratio up as liability grows:
// effective_ratio = margin_ratio * (1 + imf_factor * sqrt(liability_value)),
// matching the standard perp-DEX size-premium shape referenced by
// spec.md §4.8's "imf_factor" note.
func Compute(in MarginInputs) MarginCalculation {
	liabilityValue := in.Debt.Mul(in.PriceDebt)
	collateralValue := in.Collateral.Mul(in.PriceCollateral).Mul(in.CollateralWeight)

	effectiveRatio := in.MarginRatio
	if in.ImfFactor.IsPositive() && liabilityValue.IsPositive() {
		sizePremium := in.ImfFactor.Mul(sqrtDec(liabilityValue))
		effectiveRatio = effectiveRatio.Mul(math.LegacyOneDec().Add(sizePremium))
	}

	requirement := liabilityValue.Mul(effectiveRatio)
	bufferedRequirement := requirement.Add(liabilityValue.Mul(in.LiquidationBuffer))

	return MarginCalculation{
		LiabilityValue:        liabilityValue,
		CollateralValue:       collateralValue,
		Requirement:           requirement,
		RequirementWithBuffer: bufferedRequirement,
		TotalCollateral:       collateralValue,
	}
}

// MeetsMarginRequirement reports total_collateral >= requirement.
func (m MarginCalculation) MeetsMarginRequirement() bool {
	return m.TotalCollateral.GTE(m.Requirement)
}

// CanExitLiquidation reports total_collateral >= requirement_with_buffer.
func (m MarginCalculation) CanExitLiquidation() bool {
	return m.TotalCollateral.GTE(m.RequirementWithBuffer)
}

// MarginShortage is max(0, requirement_with_buffer - collateral_value).
func (m MarginCalculation) MarginShortage() math.LegacyDec {
	shortage := m.RequirementWithBuffer.Sub(m.CollateralValue)
	if shortage.IsNegative() {
		return math.LegacyZeroDec()
	}
	return shortage
}

// TrackedMarketMarginShortage prorates a cross-market total shortage
// down to this market's share of total liability value.
func (m MarginCalculation) TrackedMarketMarginShortage(totalShortage, totalLiabilityValue math.LegacyDec) math.LegacyDec {
	if totalLiabilityValue.IsZero() {
		return math.LegacyZeroDec()
	}
	return totalShortage.Mul(m.LiabilityValue).Quo(totalLiabilityValue)
}

// sqrtDec computes an integer-refined Newton's-method square root of a
// LegacyDec, since cosmossdk.io/math does not expose one.
func sqrtDec(d math.LegacyDec) math.LegacyDec {
	if !d.IsPositive() {
		return math.LegacyZeroDec()
	}
	x := d
	for i := 0; i < 40; i++ {
		x = x.Add(d.Quo(x)).QuoInt64(2)
	}
	return x
}

// LiquidationStatus represents the status of a liquidation record.
type LiquidationStatus int

const (
	LiquidationStatusUnspecified LiquidationStatus = iota
	LiquidationStatusPending
	LiquidationStatusExecuted
	LiquidationStatusBankrupt
)

func (s LiquidationStatus) String() string {
	switch s {
	case LiquidationStatusPending:
		return "pending"
	case LiquidationStatusExecuted:
		return "executed"
	case LiquidationStatusBankrupt:
		return "bankrupt"
	default:
		return "unspecified"
	}
}

// Liquidation is a record of one liquidation call against a position,
// kept for audit and for computing pct_freeable pacing across calls.
type Liquidation struct {
	LiquidationID          uint32
	Owner                  string
	MarketID               string
	StartSlot              int64
	MarginShortageAtStart  math.LegacyDec
	BaseAmountCovered      math.LegacyDec
	LiquidatorFee          math.LegacyDec
	IfLiquidationFee       math.LegacyDec
	Status                 LiquidationStatus
	Timestamp              time.Time
}
