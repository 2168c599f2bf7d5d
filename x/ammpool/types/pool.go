package types

import "math/big"

// HistoricalOracleData tracks the pool's own TWAP bookkeeping used by
// the oracle-divergence guard in x/margin (spec.md §3, §4.8).
type HistoricalOracleData struct {
	LastOraclePrice        *big.Int // sqrt_price, Q64.64
	LastOraclePriceTwap5Min *big.Int
	LastOracleTwapTs        int64
}

// Pool is one CL-AMM market core: identifies the synthetic (A) and
// quote (B) token, current price/liquidity, fee/protocol-fee rates,
// global fee-growth accumulators, reward slots, lazily-allocated tick
// arrays, and oracle TWAP tracking (spec.md §3).
type Pool struct {
	TokenA  string
	TokenB  string
	LPToken string

	TickIndex    int32
	SqrtPrice    *big.Int
	Liquidity    *big.Int
	TickSpacing  uint16

	FeeRate         uint32 // hundredths of a bp, <= MaxFeeRate
	ProtocolFeeRate uint32 // bp, <= MaxProtocolFeeRate

	ProtocolFeeOwedA uint64
	ProtocolFeeOwedB uint64

	FeeGrowthGlobalA *big.Int
	FeeGrowthGlobalB *big.Int

	Rewards             [NumRewards]*RewardInfo
	RewardLastUpdatedTs int64

	TickArrays map[int32]*TickArray

	HistoricalOracleData HistoricalOracleData
	MaxSlippageBps       uint32
	MaxVarianceBps       uint32
}

// NewPool constructs a pool at the given starting price and tick
// spacing, validating the fee/protocol-fee bounds from spec.md §3.
func NewPool(tokenA, tokenB, lpToken string, initialSqrtPrice *big.Int, tickSpacing uint16, feeRate, protocolFeeRate uint32) (*Pool, error) {
	if feeRate > MaxFeeRate {
		return nil, ErrInvalidFeeRate
	}
	if protocolFeeRate > MaxProtocolFeeRate {
		return nil, ErrInvalidFeeRate
	}
	if initialSqrtPrice.Cmp(MinSqrtPrice) < 0 || initialSqrtPrice.Cmp(MaxSqrtPrice) > 0 {
		return nil, ErrSqrtPriceOutOfBounds
	}

	p := &Pool{
		TokenA:           tokenA,
		TokenB:           tokenB,
		LPToken:          lpToken,
		TickIndex:        TickIndexFromSqrtPrice(initialSqrtPrice),
		SqrtPrice:        new(big.Int).Set(initialSqrtPrice),
		Liquidity:        big.NewInt(0),
		TickSpacing:      tickSpacing,
		FeeRate:          feeRate,
		ProtocolFeeRate:  protocolFeeRate,
		FeeGrowthGlobalA: big.NewInt(0),
		FeeGrowthGlobalB: big.NewInt(0),
		TickArrays:       make(map[int32]*TickArray),
	}
	return p, nil
}

// UpdateFeeRates validates and applies a fee/protocol-fee config
// change (pool entry point update_pool, spec.md §6).
func (p *Pool) UpdateFeeRates(feeRate, protocolFeeRate *uint32) error {
	if feeRate != nil {
		if *feeRate > MaxFeeRate {
			return ErrInvalidFeeRate
		}
		p.FeeRate = *feeRate
	}
	if protocolFeeRate != nil {
		if *protocolFeeRate > MaxProtocolFeeRate {
			return ErrInvalidFeeRate
		}
		p.ProtocolFeeRate = *protocolFeeRate
	}
	return nil
}

// InitializeReward adds a new reward emission slot. Rejects a
// duplicate token and requires the initial vault balance to cover at
// least half a day's emissions, per spec.md §4.5.
func (p *Pool) InitializeReward(slot int, token string, authority string, initialBalance uint64, emissionsPerSecondX64 *big.Int) error {
	if slot < 0 || slot >= NumRewards {
		return ErrInvalidRewardIndex
	}
	for i, r := range p.Rewards {
		if i == slot {
			continue
		}
		if r != nil && r.Initialized && r.Token == token {
			return ErrRewardTokenAlreadyInitialized
		}
	}
	if p.Rewards[slot] != nil && p.Rewards[slot].Initialized {
		return ErrRewardTokenAlreadyInitialized
	}

	minBalance := new(big.Int).Mul(big.NewInt(DaySeconds), emissionsPerSecondX64)
	minBalance.Quo(minBalance, q64)
	minBalance.Quo(minBalance, big.NewInt(2))
	if new(big.Int).SetUint64(initialBalance).Cmp(minBalance) < 0 {
		return ErrRewardVaultAmountInsuffic
	}

	p.Rewards[slot] = &RewardInfo{
		Token:                 token,
		Authority:             authority,
		EmissionsPerSecondX64: new(big.Int).Set(emissionsPerSecondX64),
		GrowthGlobalX64:       big.NewInt(0),
		Initialized:           true,
	}
	return nil
}

// SetRewardEmissions updates a slot's emission rate; caller must have
// already authenticated `authority` against the slot.
func (p *Pool) SetRewardEmissions(slot int, authority string, emissionsPerSecondX64 *big.Int) error {
	r, err := p.rewardSlot(slot, authority)
	if err != nil {
		return err
	}
	r.EmissionsPerSecondX64 = new(big.Int).Set(emissionsPerSecondX64)
	return nil
}

// SetRewardAuthority transfers a slot's authority.
func (p *Pool) SetRewardAuthority(slot int, authority, newAuthority string) error {
	r, err := p.rewardSlot(slot, authority)
	if err != nil {
		return err
	}
	r.Authority = newAuthority
	return nil
}

func (p *Pool) rewardSlot(slot int, authority string) (*RewardInfo, error) {
	if slot < 0 || slot >= NumRewards || p.Rewards[slot] == nil || !p.Rewards[slot].Initialized {
		return nil, ErrInvalidRewardIndex
	}
	if p.Rewards[slot].Authority != authority {
		return nil, ErrNotAuthorized
	}
	return p.Rewards[slot], nil
}

// AccrueRewards applies NextAMMRewardInfos in place and advances the
// watermark; callers must invoke this before any liquidity-dependent
// mutation (spec.md §5).
func (p *Pool) AccrueRewards(now int64) {
	updated, ts := NextAMMRewardInfos(p.Rewards, p.Liquidity, p.RewardLastUpdatedTs, now)
	p.Rewards = updated
	p.RewardLastUpdatedTs = ts
}

// UpdateOracleTwap applies the ambiguity-resolved rule from spec.md §9:
// a new TWAP sample is accepted only if it shrinks the signed gap to
// the instantaneous oracle price, or flips its sign while staying
// within tolerance; otherwise PriceBandsBreached.
func (p *Pool) UpdateOracleTwap(oraclePrice *big.Int, now int64, toleranceBps uint32) error {
	old := p.HistoricalOracleData.LastOraclePriceTwap5Min
	if old == nil {
		p.HistoricalOracleData.LastOraclePriceTwap5Min = new(big.Int).Set(oraclePrice)
		p.HistoricalOracleData.LastOracleTwapTs = now
		return nil
	}

	gapOld := new(big.Int).Sub(old, p.SqrtPrice)
	gapNew := new(big.Int).Sub(oraclePrice, p.SqrtPrice)

	shrinks := absBig(gapNew).Cmp(absBig(gapOld)) < 0
	signFlip := gapOld.Sign() != gapNew.Sign()

	accepted := shrinks
	if !accepted && signFlip {
		tolerance := new(big.Int).Mul(p.SqrtPrice, big.NewInt(int64(toleranceBps)))
		tolerance.Quo(tolerance, big.NewInt(10_000))
		accepted = absBig(gapNew).Cmp(tolerance) <= 0
	}
	if !accepted {
		return ErrPriceBandsBreached
	}

	p.HistoricalOracleData.LastOraclePrice = new(big.Int).Set(oraclePrice)
	p.HistoricalOracleData.LastOraclePriceTwap5Min = new(big.Int).Set(oraclePrice)
	p.HistoricalOracleData.LastOracleTwapTs = now
	return nil
}

// ResetOracleTwap reinitializes TWAP tracking to the live sqrt_price.
func (p *Pool) ResetOracleTwap(now int64) {
	p.HistoricalOracleData = HistoricalOracleData{
		LastOraclePrice:         new(big.Int).Set(p.SqrtPrice),
		LastOraclePriceTwap5Min: new(big.Int).Set(p.SqrtPrice),
		LastOracleTwapTs:        now,
	}
}

func absBig(v *big.Int) *big.Int {
	if v.Sign() < 0 {
		return new(big.Int).Neg(v)
	}
	return new(big.Int).Set(v)
}
