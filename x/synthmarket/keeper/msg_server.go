package keeper

import (
	"math/big"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	margintypes "github.com/openalpha/synthmarket/x/margin/types"
	"github.com/openalpha/synthmarket/x/synthmarket/types"
)

// This file wires the Market entry points from spec.md §6 onto the
// keeper: admin config changes, then the four user-facing collateral
// operations. Deposit, withdraw and borrow update TWAPs before touching
// balances per spec.md §5's ordering guarantee; RemoveLiquidityAndRepay
// does not update TWAPs.

// ============ Admin entry points ============

// InitializeMarket creates a market in the Initialized state,
// wrapping the pool identified by poolID (entry point initialize).
func (k *Keeper) InitializeMarket(ctx sdk.Context, marketID, poolID, collateralAsset, syntheticAsset string) error {
	if k.GetMarket(ctx, marketID) != nil {
		return types.ErrMarketExists
	}
	market := types.NewMarket(marketID, poolID, collateralAsset, syntheticAsset)
	k.SetMarket(ctx, market)
	return nil
}

// InitializeShutdown moves a market straight into Settlement and records
// expiryTs and expiryPrice; withdrawals in Settlement price collateral
// at expiryPrice.
func (k *Keeper) InitializeShutdown(ctx sdk.Context, marketID string, expiryTs int64, expiryPrice math.LegacyDec) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if market.Status == types.MarketStatusSettlement || market.Status == types.MarketStatusDelisted {
		return types.ErrAlreadyShutdown
	}
	market.ExpiryTs = expiryTs
	market.ExpiryPrice = expiryPrice
	market.Status = types.MarketStatusSettlement
	market.UpdatedAt = ctx.BlockTime()
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdatePausedOperations(ctx sdk.Context, marketID string, set types.MarketOperation) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	market.PausedOperations = set
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateDebtLimit(ctx sdk.Context, marketID string, floor, ceiling math.LegacyDec) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if floor.GT(ceiling) {
		return types.ErrInvalidDebtLimit
	}
	market.DebtFloor = floor
	market.DebtCeiling = ceiling
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateMarginConfig(ctx sdk.Context, marketID string, initial, maintenance, imf math.LegacyDec) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if maintenance.GT(initial) || maintenance.IsNegative() {
		return types.ErrInvalidMarginConfig
	}
	market.Margin = types.MarginConfig{
		InitialMarginRatio:     initial,
		MaintenanceMarginRatio: maintenance,
		ImfFactor:              imf,
	}
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateLiquidationConfig(ctx sdk.Context, marketID string, liquidatorFee, ifFee, marginBufferBps math.LegacyDec) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	market.Liquidation.LiquidatorFeeRatio = liquidatorFee
	market.Liquidation.IfLiquidationFeeRatio = ifFee
	market.Liquidation.LiquidationMarginBufferBps = marginBufferBps
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateName(ctx sdk.Context, marketID, name string) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	market.Name = name
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateStatus(ctx sdk.Context, marketID string, status types.MarketStatus) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	market.Status = status
	market.UpdatedAt = ctx.BlockTime()
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) UpdateSynthTier(ctx sdk.Context, marketID string, tier types.SynthTier) error {
	market := k.mustMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	market.SynthTier = tier
	k.SetMarket(ctx, market)
	return nil
}

func (k *Keeper) mustMarket(ctx sdk.Context, marketID string) *types.Market {
	return k.GetMarket(ctx, marketID)
}

// ============ User entry points ============

// marginCalc evaluates the Initial-tier MarginCalculation for a
// position, used by both the withdraw and borrow checks.
func marginCalc(market *types.Market, position *types.MarketPosition, oraclePrice math.LegacyDec) margintypes.MarginCalculation {
	return margintypes.Compute(margintypes.MarginInputs{
		Debt:             position.DebtBalance,
		PriceDebt:        oraclePrice,
		Collateral:       position.CollateralBalance(market),
		PriceCollateral:  market.CollateralTokenTwap,
		CollateralWeight: math.LegacyOneDec(),
		MarginRatio:      market.Margin.InitialMarginRatio,
		ImfFactor:        market.Margin.ImfFactor,
	})
}

// DepositCollateral implements deposit_collateral (spec.md §4.7).
func (k *Keeper) DepositCollateral(ctx sdk.Context, owner, marketID string, amount, oraclePrice math.LegacyDec) error {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if !market.Status.AllowsDeposit() {
		return types.ErrMarketNotActive
	}
	if market.IsOperationPaused(types.MarketOperationDeposit) {
		return types.ErrOperationPaused
	}
	if !amount.IsPositive() {
		return types.ErrInvalidAmount
	}

	market.UpdateTwap(oraclePrice, market.SyntheticTokenTwap, market.UtilizationTwap, ctx.BlockTime().Unix())

	position := k.GetOrCreatePosition(ctx, owner, marketID)
	scaledDelta := amount.Quo(market.CumulativeDepositInterest)
	position.ScaledBalance = position.ScaledBalance.Add(scaledDelta)
	position.CumulativeDeposits = position.CumulativeDeposits.Add(amount)
	position.LastActiveTs = ctx.BlockTime().Unix()

	market.CollateralBalance = market.CollateralBalance.Add(scaledDelta)
	if market.CollateralBalance.GT(market.MaxTokenDeposits) {
		return types.ErrInsufficientBalance
	}

	k.SetMarket(ctx, market)
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"deposit_collateral",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("amount", amount.String()),
	))
	return nil
}

// WithdrawCollateral implements withdraw_collateral (spec.md §4.7):
// computes max_withdrawable from the Initial margin requirement,
// caps at the user balance in reduce-only mode, and re-checks that
// the post-withdraw position still meets Initial margin.
func (k *Keeper) WithdrawCollateral(ctx sdk.Context, owner, marketID string, amount, oraclePrice math.LegacyDec, reduceOnly bool) error {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if !market.Status.AllowsWithdraw() {
		return types.ErrMarketNotActive
	}
	if market.IsOperationPaused(types.MarketOperationWithdraw) {
		return types.ErrOperationPaused
	}
	position := k.GetPosition(ctx, owner, marketID)
	if position == nil {
		return types.ErrPositionNotFound
	}

	withdrawPrice := oraclePrice
	if market.Status == types.MarketStatusSettlement {
		withdrawPrice = market.ExpiryPrice
	}
	market.UpdateTwap(withdrawPrice, market.SyntheticTokenTwap, market.UtilizationTwap, ctx.BlockTime().Unix())
	if market.Status == types.MarketStatusSettlement {
		market.CollateralTokenTwap = market.ExpiryPrice
	}

	calc := marginCalc(market, position, withdrawPrice)
	freeCollateral := calc.TotalCollateral.Sub(calc.Requirement)
	if freeCollateral.IsNegative() {
		freeCollateral = math.LegacyZeroDec()
	}
	maxWithdrawable := freeCollateral.Quo(market.CollateralTokenTwap)

	balance := position.CollateralBalance(market)
	if reduceOnly && amount.GT(balance) {
		amount = balance
	}
	if amount.GT(maxWithdrawable) {
		return types.ErrWithdrawExceedsLimit
	}
	if amount.GT(balance) {
		return types.ErrInsufficientBalance
	}

	scaledDelta := amount.Quo(market.CumulativeDepositInterest)
	position.ScaledBalance = position.ScaledBalance.Sub(scaledDelta)
	position.CumulativeWithdrawals = position.CumulativeWithdrawals.Add(amount)
	position.LastActiveTs = ctx.BlockTime().Unix()
	market.CollateralBalance = market.CollateralBalance.Sub(scaledDelta)

	postCalc := marginCalc(market, position, withdrawPrice)
	if !postCalc.MeetsMarginRequirement() {
		return types.ErrWithdrawExceedsLimit
	}

	k.SetMarket(ctx, market)
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"withdraw_collateral",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("amount", amount.String()),
	))
	return nil
}

// BorrowAndIncreaseLiquidity implements borrow_and_increase_liquidity
// (spec.md §4.7): validates against free collateral and the market's
// debt ceiling, and mints synthetic debt. When the position carries an
// AmmPositionID and liquidityDelta is non-nil, it also increases that
// ammpool position by liquidityDelta; nothing in this module assigns
// AmmPositionID.
func (k *Keeper) BorrowAndIncreaseLiquidity(ctx sdk.Context, owner, marketID string, amount, oraclePrice math.LegacyDec, liquidityDelta *big.Int) error {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if !market.Status.AllowsBorrow() {
		return types.ErrMarketNotActive
	}
	if market.IsOperationPaused(types.MarketOperationBorrow) {
		return types.ErrOperationPaused
	}
	if !amount.IsPositive() {
		return types.ErrInvalidAmount
	}
	position := k.GetOrCreatePosition(ctx, owner, marketID)

	if market.Status == types.MarketStatusReduceOnly {
		maxAmount := position.DebtBalance
		if amount.GT(maxAmount) {
			amount = maxAmount
		}
	}

	market.UpdateTwap(market.CollateralTokenTwap, oraclePrice, market.UtilizationTwap, ctx.BlockTime().Unix())

	calc := marginCalc(market, position, oraclePrice)
	freeCollateral := calc.TotalCollateral.Sub(calc.Requirement)
	maxMintable := math.LegacyZeroDec()
	if freeCollateral.IsPositive() && market.Margin.InitialMarginRatio.IsPositive() {
		maxMintable = freeCollateral.Quo(market.Margin.InitialMarginRatio).Quo(oraclePrice)
	}
	if amount.GT(maxMintable) {
		return types.ErrInsufficientBalance
	}
	if position.DebtBalance.Add(amount).GT(market.MaxPositionSize) {
		return types.ErrMaxPositionSize
	}
	if market.DebtBalance.Add(amount).GT(market.DebtCeiling) {
		return types.ErrDebtCeilingBreached
	}

	if position.AmmPositionID != "" && liquidityDelta != nil && k.ammKeeper != nil {
		if err := k.ammKeeper.ModifyLiquidity(ctx, market.PoolID, position.AmmPositionID, liquidityDelta); err != nil {
			return err
		}
	}

	position.DebtBalance = position.DebtBalance.Add(amount)
	market.DebtBalance = market.DebtBalance.Add(amount)
	k.SetMarket(ctx, market)
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"borrow_and_increase_liquidity",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("amount", amount.String()),
	))
	return nil
}

// RemoveLiquidityAndRepay implements remove_liquidity_and_repay
// (spec.md §4.7): the inverse of borrow_and_increase_liquidity.
func (k *Keeper) RemoveLiquidityAndRepay(ctx sdk.Context, owner, marketID string, amount math.LegacyDec, liquidityDelta *big.Int) error {
	market := k.GetMarket(ctx, marketID)
	if market == nil {
		return types.ErrMarketNotFound
	}
	if market.IsOperationPaused(types.MarketOperationRepay) {
		return types.ErrOperationPaused
	}
	position := k.GetPosition(ctx, owner, marketID)
	if position == nil {
		return types.ErrPositionNotFound
	}
	if amount.GT(position.DebtBalance) {
		amount = position.DebtBalance
	}

	if position.AmmPositionID != "" && liquidityDelta != nil && k.ammKeeper != nil {
		if err := k.ammKeeper.ModifyLiquidity(ctx, market.PoolID, position.AmmPositionID, new(big.Int).Neg(liquidityDelta)); err != nil {
			return err
		}
	}

	position.DebtBalance = position.DebtBalance.Sub(amount)
	market.DebtBalance = market.DebtBalance.Sub(amount)
	k.SetMarket(ctx, market)
	k.SetPosition(ctx, position)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"remove_liquidity_and_repay",
		sdk.NewAttribute("owner", owner),
		sdk.NewAttribute("market_id", marketID),
		sdk.NewAttribute("amount", amount.String()),
	))
	return nil
}
