package types

import (
	"time"

	"cosmossdk.io/math"
)

// MarginConfig holds a market's tiered margin ratios (spec.md §3, §4.8).
type MarginConfig struct {
	InitialMarginRatio     math.LegacyDec
	MaintenanceMarginRatio math.LegacyDec
	ImfFactor              math.LegacyDec
}

// DefaultMarginConfig mirrors the teacher's Hyperliquid-aligned MVP
// defaults (5% initial / 2.5% maintenance), carried over unchanged.
func DefaultMarginConfig() MarginConfig {
	return MarginConfig{
		InitialMarginRatio:     math.LegacyNewDecWithPrec(5, 2),
		MaintenanceMarginRatio: math.LegacyNewDecWithPrec(25, 3),
		ImfFactor:              math.LegacyZeroDec(),
	}
}

// LiquidationConfig holds a market's liquidation economics (spec.md §4.8).
type LiquidationConfig struct {
	LiquidatorFeeRatio         math.LegacyDec
	IfLiquidationFeeRatio      math.LegacyDec
	LiquidationMarginBufferBps math.LegacyDec
	LiquidationDurationSlots   int64
	InitialPctToLiquidate      math.LegacyDec
}

func DefaultLiquidationConfig() LiquidationConfig {
	return LiquidationConfig{
		LiquidatorFeeRatio:         math.LegacyNewDecWithPrec(5, 3),  // 0.5%
		IfLiquidationFeeRatio:      math.LegacyNewDecWithPrec(1, 2),  // 1%
		LiquidationMarginBufferBps: math.LegacyNewDec(2_000),         // margin-precision bps
		LiquidationDurationSlots:   150,
		InitialPctToLiquidate:      math.LegacyNewDecWithPrec(1, 1), // 10%
	}
}

// InsuranceClaimQuota bounds how much of a market's debt a single
// bankruptcy resolution may draw from the shared insurance fund
// within a rolling window (spec.md §4.8 step 1).
type InsuranceClaimQuota struct {
	MaxQuota       math.LegacyDec
	RemainingQuota math.LegacyDec
	LastResetTs    int64
}

// Market wraps a Pool (by ID, owned by x/ammpool) with collateral/debt
// accounting (spec.md §3, §4.7).
type Market struct {
	MarketID string
	PoolID   string

	CollateralAsset string
	SyntheticAsset  string

	CollateralBalance          math.LegacyDec // scaled balance
	CollateralTokenTwap        math.LegacyDec
	SyntheticTokenTwap         math.LegacyDec
	UtilizationTwap            math.LegacyDec
	LastTwapTs                 int64
	CumulativeDepositInterest  math.LegacyDec

	DebtBalance     math.LegacyDec
	DebtCeiling     math.LegacyDec
	DebtFloor       math.LegacyDec
	MaxTokenDeposits math.LegacyDec
	MaxPositionSize math.LegacyDec

	Margin      MarginConfig
	Liquidation LiquidationConfig

	Status            MarketStatus
	SynthTier         SynthTier
	PausedOperations  MarketOperation
	InsuranceClaim    InsuranceClaimQuota
	InsuranceFundID   string
	Name              string

	TotalSocialLoss math.LegacyDec

	ExpiryTs    int64
	ExpiryPrice math.LegacyDec

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMarket creates a market in the Initialized state. An admin must
// call UpdateStatus(Active) before user operations are allowed.
func NewMarket(marketID, poolID, collateralAsset, syntheticAsset string) *Market {
	now := time.Now()
	return &Market{
		MarketID:                  marketID,
		PoolID:                    poolID,
		CollateralAsset:           collateralAsset,
		SyntheticAsset:            syntheticAsset,
		CollateralBalance:         math.LegacyZeroDec(),
		CollateralTokenTwap:       math.LegacyZeroDec(),
		SyntheticTokenTwap:        math.LegacyZeroDec(),
		UtilizationTwap:           math.LegacyZeroDec(),
		CumulativeDepositInterest: math.LegacyOneDec(),
		DebtBalance:               math.LegacyZeroDec(),
		DebtCeiling:               math.LegacyNewDec(1_000_000),
		DebtFloor:                 math.LegacyZeroDec(),
		MaxTokenDeposits:          math.LegacyNewDec(10_000_000),
		MaxPositionSize:           math.LegacyNewDec(1_000_000),
		Margin:                    DefaultMarginConfig(),
		Liquidation:               DefaultLiquidationConfig(),
		Status:                    MarketStatusInitialized,
		SynthTier:                 SynthTierSpeculative,
		InsuranceClaim: InsuranceClaimQuota{
			MaxQuota:       math.LegacyNewDec(100_000),
			RemainingQuota: math.LegacyNewDec(100_000),
		},
		TotalSocialLoss: math.LegacyZeroDec(),
		ExpiryPrice:     math.LegacyZeroDec(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsOperationPaused checks a single MarketOperation bit.
func (m *Market) IsOperationPaused(op MarketOperation) bool {
	return m.PausedOperations&op != 0
}

// UpdateTwap applies a weighted-average update with a FIVE_MINUTE
// window clamp, per spec.md §4.7's TWAP-update rule. DepositCollateral,
// WithdrawCollateral and BorrowAndIncreaseLiquidity call this before
// mutating balances; RemoveLiquidityAndRepay and x/margin's liquidation
// entry points do not call it.
func (m *Market) UpdateTwap(collateralPrice, syntheticPrice, utilization math.LegacyDec, now int64) {
	const fiveMinuteSecs = 300
	sinceLast := now - m.LastTwapTs
	if m.LastTwapTs == 0 || sinceLast <= 0 {
		m.CollateralTokenTwap = collateralPrice
		m.SyntheticTokenTwap = syntheticPrice
		m.UtilizationTwap = utilization
		m.LastTwapTs = now
		return
	}
	if sinceLast > fiveMinuteSecs {
		sinceLast = fiveMinuteSecs
	}
	weightNew := math.LegacyNewDec(sinceLast).Quo(math.LegacyNewDec(fiveMinuteSecs))
	weightOld := math.LegacyOneDec().Sub(weightNew)

	m.CollateralTokenTwap = m.CollateralTokenTwap.Mul(weightOld).Add(collateralPrice.Mul(weightNew))
	m.SyntheticTokenTwap = m.SyntheticTokenTwap.Mul(weightOld).Add(syntheticPrice.Mul(weightNew))
	m.UtilizationTwap = m.UtilizationTwap.Mul(weightOld).Add(utilization.Mul(weightNew))
	m.LastTwapTs = now
}

// MarketPosition is a user's collateral/debt position in a market
// (spec.md §3).
type MarketPosition struct {
	Owner    string
	MarketID string

	ScaledBalance math.LegacyDec // collateral, scaled by cumulative_deposit_interest
	DebtBalance   math.LegacyDec

	CumulativeDeposits    math.LegacyDec
	CumulativeWithdrawals math.LegacyDec

	Status                 PositionStatus
	LiquidationMarginFreed math.LegacyDec
	NextLiquidationID      uint32
	LastActiveTs           int64

	AmmPositionID string // x/ammpool position this market manages on the user's behalf
}

// NewMarketPosition opens a fresh, empty position.
func NewMarketPosition(owner, marketID string) *MarketPosition {
	return &MarketPosition{
		Owner:                  owner,
		MarketID:               marketID,
		ScaledBalance:          math.LegacyZeroDec(),
		DebtBalance:            math.LegacyZeroDec(),
		CumulativeDeposits:     math.LegacyZeroDec(),
		CumulativeWithdrawals:  math.LegacyZeroDec(),
		Status:                 PositionStatusActive,
		LiquidationMarginFreed: math.LegacyZeroDec(),
	}
}

// CollateralBalance converts scaled_balance into actual collateral
// units via the market's cumulative deposit interest.
func (p *MarketPosition) CollateralBalance(market *Market) math.LegacyDec {
	return p.ScaledBalance.Mul(market.CumulativeDepositInterest)
}
