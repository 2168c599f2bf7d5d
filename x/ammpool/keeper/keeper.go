package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/synthmarket/x/ammpool/types"
)

// Store key prefixes.
var (
	PoolKeyPrefix      = []byte{0x01}
	PositionKeyPrefix  = []byte{0x02}
	TickArrayKeyPrefix = []byte{0x03}
)

// Keeper manages concentrated-liquidity pool state: pools, positions,
// and their lazily-allocated tick arrays.
type Keeper struct {
	cdc       codec.BinaryCodec
	storeKey  storetypes.StoreKey
	logger    log.Logger
	authority string
}

// NewKeeper creates a new ammpool keeper.
func NewKeeper(cdc codec.BinaryCodec, storeKey storetypes.StoreKey, authority string, logger log.Logger) *Keeper {
	return &Keeper{
		cdc:       cdc,
		storeKey:  storeKey,
		authority: authority,
		logger:    logger.With("module", "x/ammpool"),
	}
}

func (k *Keeper) Logger() log.Logger { return k.logger }

func (k *Keeper) GetAuthority() string { return k.authority }

func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool Operations ============

func poolKey(poolID string) []byte {
	return append(PoolKeyPrefix, []byte(poolID)...)
}

func (k *Keeper) SetPool(ctx sdk.Context, poolID string, pool *types.Pool) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(pool)
	store.Set(poolKey(poolID), bz)
}

func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	store := k.GetStore(ctx)
	bz := store.Get(poolKey(poolID))
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// ============ Position Operations ============

func positionKey(poolID, positionID string) []byte {
	return append(PositionKeyPrefix, []byte(poolID+":"+positionID)...)
}

func (k *Keeper) SetPosition(ctx sdk.Context, poolID, positionID string, position *types.Position) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(position)
	store.Set(positionKey(poolID, positionID), bz)
}

func (k *Keeper) GetPosition(ctx sdk.Context, poolID, positionID string) *types.Position {
	store := k.GetStore(ctx)
	bz := store.Get(positionKey(poolID, positionID))
	if bz == nil {
		return nil
	}
	var position types.Position
	if err := json.Unmarshal(bz, &position); err != nil {
		return nil
	}
	return &position
}

func (k *Keeper) DeletePosition(ctx sdk.Context, poolID, positionID string) {
	store := k.GetStore(ctx)
	store.Delete(positionKey(poolID, positionID))
}

func (k *Keeper) GetPositionsByOwner(ctx sdk.Context, poolID, owner string) []*types.Position {
	store := k.GetStore(ctx)
	prefix := append(append([]byte{}, PositionKeyPrefix...), []byte(poolID+":")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var positions []*types.Position
	for ; iterator.Valid(); iterator.Next() {
		var position types.Position
		if err := json.Unmarshal(iterator.Value(), &position); err != nil {
			continue
		}
		if position.Owner == owner {
			positions = append(positions, &position)
		}
	}
	return positions
}

// ============ Tick Array Operations ============

func tickArrayKey(poolID string, startTick int32) []byte {
	return append(append([]byte{}, TickArrayKeyPrefix...), []byte(poolID+":"+itoa(startTick))...)
}

func (k *Keeper) SetTickArray(ctx sdk.Context, poolID string, array *types.TickArray) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(array)
	store.Set(tickArrayKey(poolID, array.StartTickIndex), bz)
}

func (k *Keeper) GetTickArray(ctx sdk.Context, poolID string, startTick int32) *types.TickArray {
	store := k.GetStore(ctx)
	bz := store.Get(tickArrayKey(poolID, startTick))
	if bz == nil {
		return nil
	}
	var array types.TickArray
	if err := json.Unmarshal(bz, &array); err != nil {
		return nil
	}
	return &array
}

// LoadTickArrays fetches the tick arrays backing a set of candidate
// start ticks, skipping any that have never been initialized on chain
// (the swap sequencer fills those gaps with placeholders).
func (k *Keeper) LoadTickArrays(ctx sdk.Context, poolID string, startTicks []int32) []*types.TickArray {
	var arrays []*types.TickArray
	for _, start := range startTicks {
		if arr := k.GetTickArray(ctx, poolID, start); arr != nil {
			arrays = append(arrays, arr)
		}
	}
	return arrays
}

func itoa(v int32) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func nowUnix(ctx sdk.Context) int64 {
	return ctx.BlockTime().Unix()
}
