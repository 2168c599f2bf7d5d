package keeper

import (
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/synthmarket/x/insurance/types"
)

// Store key prefixes.
var (
	FundKeyPrefix  = []byte{0x01}
	StakeKeyPrefix = []byte{0x02}
)

// Keeper manages insurance-fund share ledgers, one per synthmarket
// Market. It is consumed by x/margin's InsuranceKeeper interface for
// bankruptcy draws.
type Keeper struct {
	cdc      codec.BinaryCodec
	storeKey storetypes.StoreKey
	logger   log.Logger
}

// NewKeeper creates a new insurance keeper.
func NewKeeper(cdc codec.BinaryCodec, storeKey storetypes.StoreKey, logger log.Logger) *Keeper {
	return &Keeper{
		cdc:      cdc,
		storeKey: storeKey,
		logger:   logger.With("module", "x/insurance"),
	}
}

func (k *Keeper) Logger() log.Logger { return k.logger }

func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ InsuranceFund Operations ============

func fundKey(fundID string) []byte {
	return append(FundKeyPrefix, []byte(fundID)...)
}

func (k *Keeper) SetFund(ctx sdk.Context, fund *types.InsuranceFund) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(fund)
	store.Set(fundKey(fund.FundID), bz)
}

func (k *Keeper) GetFund(ctx sdk.Context, fundID string) *types.InsuranceFund {
	store := k.GetStore(ctx)
	bz := store.Get(fundKey(fundID))
	if bz == nil {
		return nil
	}
	var fund types.InsuranceFund
	if err := json.Unmarshal(bz, &fund); err != nil {
		return nil
	}
	return &fund
}

func (k *Keeper) GetAllFunds(ctx sdk.Context) []*types.InsuranceFund {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, FundKeyPrefix)
	defer iterator.Close()

	var funds []*types.InsuranceFund
	for ; iterator.Valid(); iterator.Next() {
		var fund types.InsuranceFund
		if err := json.Unmarshal(iterator.Value(), &fund); err != nil {
			continue
		}
		funds = append(funds, &fund)
	}
	return funds
}

// ============ Stake Operations ============

func stakeKey(fundID, owner string) []byte {
	return append(StakeKeyPrefix, []byte(fundID+":"+owner)...)
}

func (k *Keeper) SetStake(ctx sdk.Context, stake *types.Stake) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(stake)
	store.Set(stakeKey(stake.FundID, stake.Owner), bz)
}

func (k *Keeper) GetStake(ctx sdk.Context, fundID, owner string) *types.Stake {
	store := k.GetStore(ctx)
	bz := store.Get(stakeKey(fundID, owner))
	if bz == nil {
		return nil
	}
	var stake types.Stake
	if err := json.Unmarshal(bz, &stake); err != nil {
		return nil
	}
	return &stake
}

func (k *Keeper) GetOrCreateStake(ctx sdk.Context, fundID, owner string) *types.Stake {
	stake := k.GetStake(ctx, fundID, owner)
	if stake == nil {
		stake = types.NewStake(fundID, owner)
	}
	return stake
}

// ============ margin.InsuranceKeeper implementation ============

// Balance returns the fund's current vault balance, satisfying
// x/margin/keeper's InsuranceKeeper interface.
func (k *Keeper) Balance(ctx sdk.Context, fundID string) math.LegacyDec {
	fund := k.GetFund(ctx, fundID)
	if fund == nil {
		return math.LegacyZeroDec()
	}
	return fund.VaultBalance
}

// Draw removes amount from the fund's vault balance for a bankruptcy
// payout, capping at what is actually available.
func (k *Keeper) Draw(ctx sdk.Context, fundID string, amount math.LegacyDec) (math.LegacyDec, error) {
	fund := k.GetFund(ctx, fundID)
	if fund == nil {
		return math.LegacyZeroDec(), types.ErrFundNotFound
	}
	drawn := amount
	if drawn.GT(fund.VaultBalance) {
		drawn = fund.VaultBalance
	}
	fund.VaultBalance = fund.VaultBalance.Sub(drawn)
	fund.UpdatedAt = ctx.BlockTime().Unix()
	k.SetFund(ctx, fund)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		"insurance_fund_drawn",
		sdk.NewAttribute("fund_id", fundID),
		sdk.NewAttribute("amount", drawn.String()),
	))
	return drawn, nil
}
