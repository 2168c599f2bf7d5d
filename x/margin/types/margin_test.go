package types

import (
	"testing"

	"cosmossdk.io/math"
)

func TestComputeMeetsRequirementWhenOvercollateralized(t *testing.T) {
	calc := Compute(MarginInputs{
		Debt:             math.LegacyNewDec(1000),
		PriceDebt:        math.LegacyOneDec(),
		Collateral:       math.LegacyNewDec(2000),
		PriceCollateral:  math.LegacyOneDec(),
		CollateralWeight: math.LegacyOneDec(),
		MarginRatio:      math.LegacyNewDecWithPrec(5, 2), // 5%
		ImfFactor:        math.LegacyZeroDec(),
	})
	if !calc.MeetsMarginRequirement() {
		t.Errorf("expected requirement met: requirement=%s total=%s", calc.Requirement, calc.TotalCollateral)
	}
}

func TestComputeFailsRequirementWhenUndercollateralized(t *testing.T) {
	calc := Compute(MarginInputs{
		Debt:             math.LegacyNewDec(1000),
		PriceDebt:        math.LegacyOneDec(),
		Collateral:       math.LegacyNewDec(20),
		PriceCollateral:  math.LegacyOneDec(),
		CollateralWeight: math.LegacyOneDec(),
		MarginRatio:      math.LegacyNewDecWithPrec(5, 2),
		ImfFactor:        math.LegacyZeroDec(),
	})
	if calc.MeetsMarginRequirement() {
		t.Error("expected requirement not met")
	}
	if !calc.MarginShortage().IsPositive() {
		t.Error("expected positive margin shortage")
	}
}

func TestComputeImfFactorIncreasesRequirementForLargePositions(t *testing.T) {
	base := MarginInputs{
		Debt:             math.LegacyNewDec(1_000_000),
		PriceDebt:        math.LegacyOneDec(),
		Collateral:       math.LegacyNewDec(2_000_000),
		PriceCollateral:  math.LegacyOneDec(),
		CollateralWeight: math.LegacyOneDec(),
		MarginRatio:      math.LegacyNewDecWithPrec(5, 2),
	}
	withoutImf := base
	withoutImf.ImfFactor = math.LegacyZeroDec()
	withImf := base
	withImf.ImfFactor = math.LegacyNewDecWithPrec(1, 3)

	calcWithout := Compute(withoutImf)
	calcWith := Compute(withImf)
	if !calcWith.Requirement.GT(calcWithout.Requirement) {
		t.Errorf("expected imf_factor to raise requirement: without=%s with=%s", calcWithout.Requirement, calcWith.Requirement)
	}
}

func TestCanExitLiquidationRequiresBuffer(t *testing.T) {
	calc := Compute(MarginInputs{
		Debt:              math.LegacyNewDec(1000),
		PriceDebt:         math.LegacyOneDec(),
		Collateral:        math.LegacyNewDec(60), // covers the bare 5% requirement (50) but not the buffered one (70)
		PriceCollateral:   math.LegacyOneDec(),
		CollateralWeight:  math.LegacyOneDec(),
		MarginRatio:       math.LegacyNewDecWithPrec(5, 2),
		ImfFactor:         math.LegacyZeroDec(),
		LiquidationBuffer: math.LegacyNewDecWithPrec(2, 2), // 2%
	})
	if !calc.MeetsMarginRequirement() {
		t.Fatal("test setup invalid: expected bare requirement to be met")
	}
	if calc.CanExitLiquidation() {
		t.Error("expected buffered requirement to still fail at this collateral level")
	}
}

func TestSqrtDecApproximatesSquareRoot(t *testing.T) {
	got := sqrtDec(math.LegacyNewDec(16))
	want := math.LegacyNewDec(4)
	diff := got.Sub(want).Abs()
	if diff.GT(math.LegacyNewDecWithPrec(1, 6)) {
		t.Errorf("sqrtDec(16) = %s, want ~4", got)
	}
}
