package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	synthtypes "github.com/openalpha/synthmarket/x/synthmarket/types"
	"github.com/openalpha/synthmarket/x/margin/types"
)

// evaluate builds the pure MarginCalculation for a position, per
// spec.md §4.8. kind selects the Initial or Maintenance ratio.
func evaluate(market *synthtypes.Market, position *synthtypes.MarketPosition, oraclePrice math.LegacyDec, kind types.MarginRequirementKind) types.MarginCalculation {
	ratio := market.Margin.InitialMarginRatio
	buffer := math.LegacyZeroDec()
	if kind == types.MarginRequirementMaintenance {
		ratio = market.Margin.MaintenanceMarginRatio
		buffer = market.Liquidation.LiquidationMarginBufferBps.Quo(types.MarginPrecision)
	}

	return types.Compute(types.MarginInputs{
		Debt:              position.DebtBalance,
		PriceDebt:         oraclePrice,
		Collateral:        position.CollateralBalance(market),
		PriceCollateral:   market.CollateralTokenTwap,
		CollateralWeight:  math.LegacyOneDec(),
		MarginRatio:       ratio,
		ImfFactor:         market.Margin.ImfFactor,
		LiquidationBuffer: buffer,
	})
}

// LiquidatePosition implements spec.md §6/§4.8's liquidate_position:
// guards on the oracle-divergence band, requires the position to be
// below maintenance margin, and frees a pct_freeable-bounded slice of
// its margin shortage by repaying debt from the liquidator's balance
// in exchange for collateral plus the liquidator's and insurance
// fund's cut.
// limitPrice, when positive, bounds the collateral-per-base-repaid
// exchange rate the liquidator will accept (spec.md:228's optional
// limit_price); zero means unbounded, matching the zero-means-
// unbounded convention used for InsuranceFund.MaxInsurance.
func (k *Keeper) LiquidatePosition(
	ctx sdk.Context,
	owner, marketID, liquidator string,
	maxBaseAmount math.LegacyDec,
	oraclePrice, oracleTwap, limitPrice math.LegacyDec,
) (math.LegacyDec, error) {
	if liquidator == owner {
		return math.LegacyDec{}, types.ErrInvalidLiquidator
	}

	market := k.marketKeeper.GetMarket(ctx, marketID)
	if market == nil {
		return math.LegacyDec{}, synthtypes.ErrMarketNotFound
	}
	position := k.marketKeeper.GetPosition(ctx, owner, marketID)
	if position == nil {
		return math.LegacyDec{}, types.ErrPositionNotFound
	}

	if !types.OracleDivergenceOK(oraclePrice, oracleTwap, market.SynthTier.MaxDivergenceBps()) {
		return math.LegacyDec{}, types.ErrPriceBandsBreached
	}

	maint := evaluate(market, position, oraclePrice, types.MarginRequirementMaintenance)
	if maint.MeetsMarginRequirement() {
		return math.LegacyDec{}, types.ErrPositionHealthy
	}

	if !position.Status.Has(synthtypes.PositionStatusBeingLiquidated) {
		position.Status |= synthtypes.PositionStatusBeingLiquidated
		position.NextLiquidationID = 0
	}

	liq := k.GetLiquidation(ctx, owner, position.NextLiquidationID)
	startSlot := ctx.BlockHeight()
	shortageAtStart := maint.MarginShortage()
	if liq == nil {
		liq = &types.Liquidation{
			LiquidationID:         position.NextLiquidationID,
			Owner:                 owner,
			MarketID:              marketID,
			StartSlot:             startSlot,
			MarginShortageAtStart: shortageAtStart,
			BaseAmountCovered:     math.LegacyZeroDec(),
			LiquidatorFee:         math.LegacyZeroDec(),
			IfLiquidationFee:      math.LegacyZeroDec(),
			Status:                types.LiquidationStatusPending,
			Timestamp:             ctx.BlockTime(),
		}
	}

	slotsSince := ctx.BlockHeight() - liq.StartSlot
	pct := types.PctFreeable(slotsSince, market.Liquidation.LiquidationDurationSlots, market.Liquidation.InitialPctToLiquidate, shortageAtStart)

	effectiveRatio := market.Margin.MaintenanceMarginRatio
	baseAmount := types.BaseAmountToCoverMarginShortage(
		maint.MarginShortage(), oraclePrice, effectiveRatio,
		market.Liquidation.LiquidatorFeeRatio, market.Liquidation.IfLiquidationFeeRatio, pct,
	)
	if baseAmount.GT(maxBaseAmount) {
		baseAmount = maxBaseAmount
	}
	if baseAmount.GT(position.DebtBalance) {
		baseAmount = position.DebtBalance
	}

	quoteValue := baseAmount.Mul(oraclePrice)
	liquidatorFee := quoteValue.Mul(market.Liquidation.LiquidatorFeeRatio)
	ifFee := quoteValue.Mul(market.Liquidation.IfLiquidationFeeRatio)
	collateralOwed := quoteValue.Add(liquidatorFee).Add(ifFee).Quo(market.CollateralTokenTwap)

	if limitPrice.IsPositive() && baseAmount.IsPositive() {
		swapPrice := collateralOwed.Quo(baseAmount)
		if swapPrice.LT(limitPrice) {
			return math.LegacyDec{}, types.ErrLiquidationDoesntSatisfyLimitPrice
		}
	}

	position.DebtBalance = position.DebtBalance.Sub(baseAmount)
	position.ScaledBalance = position.ScaledBalance.Sub(collateralOwed.Quo(market.CumulativeDepositInterest))
	position.LiquidationMarginFreed = position.LiquidationMarginFreed.Add(quoteValue)

	postMaint := evaluate(market, position, oraclePrice, types.MarginRequirementMaintenance)
	if postMaint.CanExitLiquidation() {
		position.Status &^= synthtypes.PositionStatusBeingLiquidated
		liq.Status = types.LiquidationStatusExecuted
	}

	liq.BaseAmountCovered = liq.BaseAmountCovered.Add(baseAmount)
	liq.LiquidatorFee = liq.LiquidatorFee.Add(liquidatorFee)
	liq.IfLiquidationFee = liq.IfLiquidationFee.Add(ifFee)

	if position.DebtBalance.IsPositive() && !position.CollateralBalance(market).IsPositive() {
		position.Status |= synthtypes.PositionStatusBankrupt
	}

	k.SetLiquidation(ctx, liq)
	k.marketKeeper.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_liquidated",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("liquidator", liquidator),
		sdk.NewAttribute("base_amount", baseAmount.String()),
	))

	return baseAmount, nil
}

// ResolvePositionBankruptcy implements spec.md §4.8's
// resolve_position_bankruptcy: draws from the insurance fund up to
// its quota, then the market's own fee pool, then socializes the
// remainder across the market's total_social_loss, and clears debt.
func (k *Keeper) ResolvePositionBankruptcy(ctx sdk.Context, owner, marketID string, feePoolBalance math.LegacyDec) (types.BankruptcyResolution, error) {
	market := k.marketKeeper.GetMarket(ctx, marketID)
	if market == nil {
		return types.BankruptcyResolution{}, synthtypes.ErrMarketNotFound
	}
	position := k.marketKeeper.GetPosition(ctx, owner, marketID)
	if position == nil {
		return types.BankruptcyResolution{}, types.ErrPositionNotFound
	}
	if !position.Status.Has(synthtypes.PositionStatusBankrupt) {
		return types.BankruptcyResolution{}, types.ErrNotBankrupt
	}

	insuranceBalance := k.insuranceKeeper.Balance(ctx, market.InsuranceFundID)
	resolution := types.ResolveBankruptcy(position.DebtBalance, insuranceBalance, market.InsuranceClaim.RemainingQuota, feePoolBalance)

	if resolution.FromInsuranceFund.IsPositive() {
		drawn, err := k.insuranceKeeper.Draw(ctx, market.InsuranceFundID, resolution.FromInsuranceFund)
		if err != nil {
			return types.BankruptcyResolution{}, err
		}
		resolution.FromInsuranceFund = drawn
		market.InsuranceClaim.RemainingQuota = market.InsuranceClaim.RemainingQuota.Sub(drawn)
	}

	market.TotalSocialLoss = market.TotalSocialLoss.Add(resolution.Socialized)
	position.DebtBalance = math.LegacyZeroDec()
	position.Status &^= synthtypes.PositionStatusBankrupt
	position.Status &^= synthtypes.PositionStatusBeingLiquidated

	k.marketKeeper.SetMarket(ctx, market)
	k.marketKeeper.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"position_bankruptcy_resolved",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("socialized", resolution.Socialized.String()),
	))

	return resolution, nil
}
