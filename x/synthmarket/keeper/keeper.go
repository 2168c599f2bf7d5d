package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	ammkeeper "github.com/openalpha/synthmarket/x/ammpool/keeper"
	"github.com/openalpha/synthmarket/x/synthmarket/types"
)

// Store key prefixes.
var (
	MarketKeyPrefix   = []byte{0x01}
	PositionKeyPrefix = []byte{0x02}
)

// Keeper manages collateral/debt market state and orchestrates the
// underlying ammpool position the market keeps on a borrower's behalf.
type Keeper struct {
	cdc       codec.BinaryCodec
	storeKey  storetypes.StoreKey
	ammKeeper *ammkeeper.Keeper
	logger    log.Logger
	authority string
}

// NewKeeper creates a new synthmarket keeper.
func NewKeeper(cdc codec.BinaryCodec, storeKey storetypes.StoreKey, ammKeeper *ammkeeper.Keeper, authority string, logger log.Logger) *Keeper {
	return &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		ammKeeper: ammKeeper,
		authority: authority,
		logger:    logger.With("module", "x/synthmarket"),
	}
}

func (k *Keeper) Logger() log.Logger { return k.logger }

func (k *Keeper) GetAuthority() string { return k.authority }

func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Market Operations ============

func marketKey(marketID string) []byte {
	return append(MarketKeyPrefix, []byte(marketID)...)
}

func (k *Keeper) SetMarket(ctx sdk.Context, market *types.Market) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(market)
	store.Set(marketKey(market.MarketID), bz)
}

func (k *Keeper) GetMarket(ctx sdk.Context, marketID string) *types.Market {
	store := k.GetStore(ctx)
	bz := store.Get(marketKey(marketID))
	if bz == nil {
		return nil
	}
	var market types.Market
	if err := json.Unmarshal(bz, &market); err != nil {
		return nil
	}
	return &market
}

func (k *Keeper) GetAllMarkets(ctx sdk.Context) []*types.Market {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, MarketKeyPrefix)
	defer iterator.Close()

	var markets []*types.Market
	for ; iterator.Valid(); iterator.Next() {
		var market types.Market
		if err := json.Unmarshal(iterator.Value(), &market); err != nil {
			continue
		}
		markets = append(markets, &market)
	}
	return markets
}

// ============ MarketPosition Operations ============

func positionKey(owner, marketID string) []byte {
	return append(PositionKeyPrefix, []byte(owner+":"+marketID)...)
}

func (k *Keeper) SetPosition(ctx sdk.Context, position *types.MarketPosition) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(position)
	store.Set(positionKey(position.Owner, position.MarketID), bz)
}

func (k *Keeper) GetPosition(ctx sdk.Context, owner, marketID string) *types.MarketPosition {
	store := k.GetStore(ctx)
	bz := store.Get(positionKey(owner, marketID))
	if bz == nil {
		return nil
	}
	var position types.MarketPosition
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil
	}
	return &position
}

// GetOrCreatePosition returns the owner's position in marketID, or a
// fresh in-memory one if none exists yet. It does not write to the
// store: callers still need to SetPosition once their own fallible
// checks have passed, so a position never persists for an operation
// that ultimately fails.
func (k *Keeper) GetOrCreatePosition(ctx sdk.Context, owner, marketID string) *types.MarketPosition {
	position := k.GetPosition(ctx, owner, marketID)
	if position == nil {
		position = types.NewMarketPosition(owner, marketID)
	}
	return position
}

func (k *Keeper) GetAllPositions(ctx sdk.Context) []*types.MarketPosition {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PositionKeyPrefix)
	defer iterator.Close()

	var positions []*types.MarketPosition
	for ; iterator.Valid(); iterator.Next() {
		var position types.MarketPosition
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		positions = append(positions, &position)
	}
	return positions
}
