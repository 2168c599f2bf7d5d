package keeper

import (
	"math/big"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	dbm "github.com/cosmos/cosmos-db"

	"github.com/openalpha/synthmarket/x/ammpool/types"
)

func setupTestKeeper(tb testing.TB) (*Keeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey("ammpool")
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	keeper := NewKeeper(cdc, storeKey, "authority1", log.NewNopLogger())
	return keeper, ctx
}

func TestCreatePoolThenGetPool(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)

	poolID, err := k.CreatePool(ctx, "synthETH", "usdc", "lp-eth-usdc", sqrtPrice, 64, 3000, 1000)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		t.Fatal("expected pool to be persisted")
	}
	if pool.TokenA != "synthETH" || pool.TokenB != "usdc" {
		t.Errorf("unexpected pool tokens: %+v", pool)
	}
}

func TestInitializeTickArrayRejectsDuplicate(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	poolID, _ := k.CreatePool(ctx, "a", "b", "lp", sqrtPrice, 64, 3000, 1000)

	if err := k.InitializeTickArray(ctx, poolID, 0); err != nil {
		t.Fatalf("InitializeTickArray: %v", err)
	}
	if err := k.InitializeTickArray(ctx, poolID, 0); err == nil {
		t.Error("expected duplicate tick array initialization to fail")
	}
}

func TestOpenPositionThenModifyLiquidity(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	poolID, _ := k.CreatePool(ctx, "a", "b", "lp", sqrtPrice, 64, 3000, 1000)
	if err := k.InitializeTickArray(ctx, poolID, 0); err != nil {
		t.Fatalf("InitializeTickArray: %v", err)
	}

	positionID, err := k.OpenPosition(ctx, poolID, "owner1", 64, 640)
	if err != nil {
		t.Fatalf("OpenPosition: %v", err)
	}

	if err := k.ModifyLiquidity(ctx, poolID, positionID, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("ModifyLiquidity: %v", err)
	}

	pos := k.GetPosition(ctx, poolID, positionID)
	if pos.Liquidity.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("expected position liquidity 1000000, got %s", pos.Liquidity)
	}

	// pool's own current-tick liquidity is untouched: the position's
	// range [64, 640) doesn't cover the pool's starting tick 0.
	pool := k.GetPool(ctx, poolID)
	if pool.Liquidity.Sign() != 0 {
		t.Errorf("expected pool liquidity unchanged at 0, got %s", pool.Liquidity)
	}
}

func TestClosePositionRejectsNonEmpty(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	poolID, _ := k.CreatePool(ctx, "a", "b", "lp", sqrtPrice, 64, 3000, 1000)
	k.InitializeTickArray(ctx, poolID, 0)
	positionID, _ := k.OpenPosition(ctx, poolID, "owner1", 64, 640)
	k.ModifyLiquidity(ctx, poolID, positionID, big.NewInt(1_000_000))

	if err := k.ClosePosition(ctx, poolID, positionID); err != types.ErrPositionNotEmpty {
		t.Errorf("expected ErrPositionNotEmpty, got %v", err)
	}
}

func TestClosePositionSucceedsWhenEmpty(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	poolID, _ := k.CreatePool(ctx, "a", "b", "lp", sqrtPrice, 64, 3000, 1000)
	k.InitializeTickArray(ctx, poolID, 0)
	positionID, _ := k.OpenPosition(ctx, poolID, "owner1", 64, 640)

	if err := k.ClosePosition(ctx, poolID, positionID); err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	if k.GetPosition(ctx, poolID, positionID) != nil {
		t.Error("expected position to be deleted")
	}
}

// straddlingPool builds a pool at tick 0 with a single position over
// [-640, 640) funded with 1_000_000 liquidity, so the pool starts
// active (nonzero current liquidity) and a swap in either direction
// crosses exactly one initialized tick: the position's own boundary.
func straddlingPool(t *testing.T, k *Keeper, ctx sdk.Context) string {
	t.Helper()
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 64)
	poolID, err := k.CreatePool(ctx, "a", "b", "lp", sqrtPrice, 64, 3000, 1000)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := k.InitializeTickArray(ctx, poolID, 0); err != nil {
		t.Fatalf("InitializeTickArray(0): %v", err)
	}
	if err := k.InitializeTickArray(ctx, poolID, -5632); err != nil {
		t.Fatalf("InitializeTickArray(-5632): %v", err)
	}
	positionID, err := k.OpenPosition(ctx, poolID, "owner1", -640, 640)
	if err != nil {
		t.Fatalf("OpenPosition: %v", err)
	}
	if err := k.ModifyLiquidity(ctx, poolID, positionID, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("ModifyLiquidity: %v", err)
	}
	pool := k.GetPool(ctx, poolID)
	if pool.Liquidity.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("test setup invalid: expected pool liquidity 1000000 at tick 0, got %s", pool.Liquidity)
	}
	return poolID
}

// TestExecuteSwapCrossingUpperTickTurnsLiquidityOff swaps b_to_a
// (a_to_b=false, price increasing) exactly up to the position's upper
// bound at tick 640: crossing it should turn the position's liquidity
// off, leaving pool.Liquidity at zero and pool.TickIndex at 640.
func TestExecuteSwapCrossingUpperTickTurnsLiquidityOff(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	poolID := straddlingPool(t, k, ctx)

	limit, err := types.SqrtPriceFromTickIndex(640)
	if err != nil {
		t.Fatalf("SqrtPriceFromTickIndex(640): %v", err)
	}

	update, err := k.ExecuteSwap(ctx, poolID, 1_000_000_000_000, limit, true, false)
	if err != nil {
		t.Fatalf("ExecuteSwap: %v", err)
	}
	if update.NextTickIndex != 640 {
		t.Errorf("expected next tick index 640, got %d", update.NextTickIndex)
	}
	if update.NextLiquidity.Sign() != 0 {
		t.Errorf("expected liquidity to turn off crossing the upper tick, got %s", update.NextLiquidity)
	}

	pool := k.GetPool(ctx, poolID)
	if pool.Liquidity.Sign() != 0 {
		t.Errorf("expected persisted pool liquidity 0, got %s", pool.Liquidity)
	}
	if pool.TickIndex != 640 {
		t.Errorf("expected persisted pool tick 640, got %d", pool.TickIndex)
	}
}

// TestExecuteSwapCrossingLowerTickTurnsLiquidityOff swaps a_to_b
// (price decreasing) exactly down to the position's lower bound at
// tick -640: crossing it should also turn the position's liquidity
// off, and curTick lands one below the crossed tick (nextTick - 1),
// per the a_to_b tick-crossing convention.
func TestExecuteSwapCrossingLowerTickTurnsLiquidityOff(t *testing.T) {
	k, ctx := setupTestKeeper(t)
	poolID := straddlingPool(t, k, ctx)

	limit, err := types.SqrtPriceFromTickIndex(-640)
	if err != nil {
		t.Fatalf("SqrtPriceFromTickIndex(-640): %v", err)
	}

	update, err := k.ExecuteSwap(ctx, poolID, 1_000_000_000_000, limit, true, true)
	if err != nil {
		t.Fatalf("ExecuteSwap: %v", err)
	}
	if update.NextTickIndex != -641 {
		t.Errorf("expected next tick index -641, got %d", update.NextTickIndex)
	}
	if update.NextLiquidity.Sign() != 0 {
		t.Errorf("expected liquidity to turn off crossing the lower tick, got %s", update.NextLiquidity)
	}
}
