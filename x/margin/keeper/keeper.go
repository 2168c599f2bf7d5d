package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	synthtypes "github.com/openalpha/synthmarket/x/synthmarket/types"
	"github.com/openalpha/synthmarket/x/margin/types"
)

// Store key prefixes.
var (
	LiquidationKeyPrefix  = []byte{0x01}
	LiquidationCounterKey = []byte{0x02}
)

// MarketKeeper is the expected interface onto x/synthmarket, mirroring
// the teacher's expected-keeper pattern (formerly PerpetualKeeper).
type MarketKeeper interface {
	GetMarket(ctx sdk.Context, marketID string) *synthtypes.Market
	SetMarket(ctx sdk.Context, market *synthtypes.Market)
	GetPosition(ctx sdk.Context, owner, marketID string) *synthtypes.MarketPosition
	SetPosition(ctx sdk.Context, position *synthtypes.MarketPosition)
	GetAllPositions(ctx sdk.Context) []*synthtypes.MarketPosition
}

// InsuranceKeeper is the expected interface onto x/insurance for
// bankruptcy draws.
type InsuranceKeeper interface {
	Balance(ctx sdk.Context, fundID string) math.LegacyDec
	Draw(ctx sdk.Context, fundID string, amount math.LegacyDec) (math.LegacyDec, error)
}

// Keeper manages liquidation records and orchestrates margin
// evaluation against x/synthmarket and x/insurance.
type Keeper struct {
	cdc             codec.BinaryCodec
	storeKey        storetypes.StoreKey
	marketKeeper    MarketKeeper
	insuranceKeeper InsuranceKeeper
	logger          log.Logger
}

// NewKeeper creates a new margin keeper.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	marketKeeper MarketKeeper,
	insuranceKeeper InsuranceKeeper,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:             cdc,
		storeKey:        storeKey,
		marketKeeper:    marketKeeper,
		insuranceKeeper: insuranceKeeper,
		logger:          logger.With("module", "x/margin"),
	}
}

func (k *Keeper) Logger() log.Logger { return k.logger }

func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Liquidation Record Operations ============

func liquidationKey(owner string, id uint32) []byte {
	var idBz [4]byte
	binary.BigEndian.PutUint32(idBz[:], id)
	return append(LiquidationKeyPrefix, []byte(owner+":"+string(idBz[:]))...)
}

func (k *Keeper) SetLiquidation(ctx sdk.Context, liq *types.Liquidation) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(liq)
	store.Set(liquidationKey(liq.Owner, liq.LiquidationID), bz)
}

func (k *Keeper) GetLiquidation(ctx sdk.Context, owner string, id uint32) *types.Liquidation {
	store := k.GetStore(ctx)
	bz := store.Get(liquidationKey(owner, id))
	if bz == nil {
		return nil
	}
	var liq types.Liquidation
	if err := json.Unmarshal(bz, &liq); err != nil {
		return nil
	}
	return &liq
}

func (k *Keeper) GetAllLiquidations(ctx sdk.Context, limit int) []*types.Liquidation {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStoreReversePrefixIterator(store, LiquidationKeyPrefix)
	defer iterator.Close()

	var liquidations []*types.Liquidation
	count := 0
	for ; iterator.Valid() && count < limit; iterator.Next() {
		var liq types.Liquidation
		if err := json.Unmarshal(iterator.Value(), &liq); err != nil {
			continue
		}
		liquidations = append(liquidations, &liq)
		count++
	}
	return liquidations
}

func (k *Keeper) nextLiquidationCounter(ctx sdk.Context) uint32 {
	store := k.GetStore(ctx)
	bz := store.Get(LiquidationCounterKey)
	var counter uint32
	if bz != nil {
		counter = binary.BigEndian.Uint32(bz)
	}
	counter++
	newBz := make([]byte, 4)
	binary.BigEndian.PutUint32(newBz, counter)
	store.Set(LiquidationCounterKey, newBz)
	return counter
}

func fmtLiqID(owner, marketID string, id uint32) string {
	return fmt.Sprintf("%s:%s:%d", owner, marketID, id)
}
