package keeper

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	dbm "github.com/cosmos/cosmos-db"

	"github.com/openalpha/synthmarket/x/margin/types"
	synthtypes "github.com/openalpha/synthmarket/x/synthmarket/types"
)

// fakeMarketKeeper is an in-memory stand-in for x/synthmarket/keeper,
// mirroring how x/orderbook/keeper/benchmark_test.go mocks its
// expected perpetual keeper rather than standing up a real module.
type fakeMarketKeeper struct {
	markets   map[string]*synthtypes.Market
	positions map[string]*synthtypes.MarketPosition
}

func newFakeMarketKeeper() *fakeMarketKeeper {
	return &fakeMarketKeeper{
		markets:   map[string]*synthtypes.Market{},
		positions: map[string]*synthtypes.MarketPosition{},
	}
}

func (f *fakeMarketKeeper) GetMarket(ctx sdk.Context, marketID string) *synthtypes.Market {
	return f.markets[marketID]
}
func (f *fakeMarketKeeper) SetMarket(ctx sdk.Context, market *synthtypes.Market) {
	f.markets[market.MarketID] = market
}
func (f *fakeMarketKeeper) GetPosition(ctx sdk.Context, owner, marketID string) *synthtypes.MarketPosition {
	return f.positions[owner+":"+marketID]
}
func (f *fakeMarketKeeper) SetPosition(ctx sdk.Context, position *synthtypes.MarketPosition) {
	f.positions[position.Owner+":"+position.MarketID] = position
}
func (f *fakeMarketKeeper) GetAllPositions(ctx sdk.Context) []*synthtypes.MarketPosition {
	var out []*synthtypes.MarketPosition
	for _, p := range f.positions {
		out = append(out, p)
	}
	return out
}

type fakeInsuranceKeeper struct {
	balance math.LegacyDec
}

func (f *fakeInsuranceKeeper) Balance(ctx sdk.Context, fundID string) math.LegacyDec {
	return f.balance
}
func (f *fakeInsuranceKeeper) Draw(ctx sdk.Context, fundID string, amount math.LegacyDec) (math.LegacyDec, error) {
	drawn := amount
	if drawn.GT(f.balance) {
		drawn = f.balance
	}
	f.balance = f.balance.Sub(drawn)
	return drawn, nil
}

func setupTestKeeper(tb testing.TB) (*Keeper, *fakeMarketKeeper, *fakeInsuranceKeeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey("margin")
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}
	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	marketKeeper := newFakeMarketKeeper()
	insuranceKeeper := &fakeInsuranceKeeper{balance: math.LegacyZeroDec()}
	keeper := NewKeeper(cdc, storeKey, marketKeeper, insuranceKeeper, log.NewNopLogger())
	return keeper, marketKeeper, insuranceKeeper, ctx
}

func undercollateralizedMarket() *synthtypes.Market {
	m := synthtypes.NewMarket("market1", "pool1", "usdc", "synthETH")
	m.Status = synthtypes.MarketStatusActive
	m.CollateralTokenTwap = math.LegacyOneDec()
	return m
}

func TestLiquidatePositionRejectsHealthyPosition(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.ScaledBalance = math.LegacyNewDec(10_000)
	pos.DebtBalance = math.LegacyNewDec(1_000)
	mk.SetPosition(ctx, pos)

	_, err := k.LiquidatePosition(ctx, "alice", "market1", "bob",
		math.LegacyNewDec(1_000_000), math.LegacyOneDec(), math.LegacyOneDec(), math.LegacyZeroDec())
	if err != types.ErrPositionHealthy {
		t.Errorf("expected ErrPositionHealthy, got %v", err)
	}
}

func TestLiquidatePositionRejectsSelfLiquidation(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.ScaledBalance = math.LegacyNewDec(10)
	pos.DebtBalance = math.LegacyNewDec(1_000)
	mk.SetPosition(ctx, pos)

	_, err := k.LiquidatePosition(ctx, "alice", "market1", "alice",
		math.LegacyNewDec(1_000_000), math.LegacyOneDec(), math.LegacyOneDec(), math.LegacyZeroDec())
	if err != types.ErrInvalidLiquidator {
		t.Errorf("expected ErrInvalidLiquidator, got %v", err)
	}
}

func TestLiquidatePositionRejectsUnsatisfiedLimitPrice(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.ScaledBalance = math.LegacyNewDec(10)
	pos.DebtBalance = math.LegacyNewDec(1_000)
	mk.SetPosition(ctx, pos)

	// oracle_price=1, collateral_token_twap=1, and a 1.5% combined fee
	// ratio puts the realized swap price at ~1.015 collateral per base
	// repaid; a limit price above that can never be satisfied.
	_, err := k.LiquidatePosition(ctx, "alice", "market1", "bob",
		math.LegacyNewDec(1_000_000), math.LegacyOneDec(), math.LegacyOneDec(), math.LegacyNewDec(2))
	if err != types.ErrLiquidationDoesntSatisfyLimitPrice {
		t.Errorf("expected ErrLiquidationDoesntSatisfyLimitPrice, got %v", err)
	}
}

func TestLiquidatePositionRejectsPriceBandsBreached(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.ScaledBalance = math.LegacyNewDec(10)
	pos.DebtBalance = math.LegacyNewDec(1_000)
	mk.SetPosition(ctx, pos)

	// oracle vastly diverged from twap, beyond any tier's tolerance.
	_, err := k.LiquidatePosition(ctx, "alice", "market1", "bob",
		math.LegacyNewDec(1_000_000), math.LegacyNewDec(100), math.LegacyOneDec(), math.LegacyZeroDec())
	if err != types.ErrPriceBandsBreached {
		t.Errorf("expected ErrPriceBandsBreached, got %v", err)
	}
}

func TestLiquidatePositionPartiallyCoversShortage(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.ScaledBalance = math.LegacyNewDec(10)
	pos.DebtBalance = math.LegacyNewDec(1_000)
	mk.SetPosition(ctx, pos)

	baseAmount, err := k.LiquidatePosition(ctx, "alice", "market1", "bob",
		math.LegacyNewDec(1_000_000), math.LegacyOneDec(), math.LegacyOneDec(), math.LegacyZeroDec())
	if err != nil {
		t.Fatalf("LiquidatePosition: %v", err)
	}
	if !baseAmount.IsPositive() {
		t.Error("expected a positive base amount to be covered")
	}

	updated := mk.GetPosition(ctx, "alice", "market1")
	if !updated.Status.Has(synthtypes.PositionStatusBeingLiquidated) && !updated.Status.Has(synthtypes.PositionStatusBankrupt) {
		t.Error("expected position to remain flagged, either still liquidating or bankrupt")
	}
}

func TestResolvePositionBankruptcyRequiresBankruptFlag(t *testing.T) {
	k, mk, _, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	mk.SetMarket(ctx, market)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	mk.SetPosition(ctx, pos)

	_, err := k.ResolvePositionBankruptcy(ctx, "alice", "market1", math.LegacyZeroDec())
	if err != types.ErrNotBankrupt {
		t.Errorf("expected ErrNotBankrupt, got %v", err)
	}
}

func TestResolvePositionBankruptcyDrawsFromInsuranceFirst(t *testing.T) {
	k, mk, ik, ctx := setupTestKeeper(t)
	market := undercollateralizedMarket()
	market.InsuranceFundID = "fund1"
	market.InsuranceClaim.RemainingQuota = math.LegacyNewDec(10_000)
	mk.SetMarket(ctx, market)
	ik.balance = math.LegacyNewDec(500)

	pos := synthtypes.NewMarketPosition("alice", "market1")
	pos.DebtBalance = math.LegacyNewDec(300)
	pos.Status |= synthtypes.PositionStatusBankrupt
	mk.SetPosition(ctx, pos)

	resolution, err := k.ResolvePositionBankruptcy(ctx, "alice", "market1", math.LegacyZeroDec())
	if err != nil {
		t.Fatalf("ResolvePositionBankruptcy: %v", err)
	}
	if !resolution.FromInsuranceFund.Equal(math.LegacyNewDec(300)) {
		t.Errorf("expected full debt covered by insurance fund, got %s", resolution.FromInsuranceFund)
	}
	if !resolution.Socialized.IsZero() {
		t.Errorf("expected no socialized loss when insurance covers debt, got %s", resolution.Socialized)
	}

	updated := mk.GetPosition(ctx, "alice", "market1")
	if !updated.DebtBalance.IsZero() {
		t.Error("expected debt cleared after bankruptcy resolution")
	}
	if updated.Status.Has(synthtypes.PositionStatusBankrupt) {
		t.Error("expected bankrupt flag cleared")
	}
}
