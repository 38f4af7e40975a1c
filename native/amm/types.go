package amm

import (
	"math/big"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

// Pool is the registry record for one constant-product pair. Reserves stay
// strictly positive while the pool is active and shares are outstanding; the
// product ReserveA*ReserveB never decreases across a swap because fees are
// retained in the reserves.
type Pool struct {
	// ID is the monotonically increasing pool identifier.
	ID uint64
	// AssetA and AssetB are the two distinct paired asset identities.
	AssetA string
	AssetB string
	// ReserveA and ReserveB are the pooled quantities of each asset.
	ReserveA *big.Int
	ReserveB *big.Int
	// TotalSupply is the outstanding LP share supply. The sum of all share
	// balances for the pool equals this value.
	TotalSupply *big.Int
	// FeeRate is the swap fee in basis points of FeeDenominator.
	FeeRate uint64
	// LastPriceA and LastPriceB are the directional prices recomputed after
	// every swap, in 6-decimal fixed point.
	LastPriceA *big.Int
	LastPriceB *big.Int
	// CreatedBlock records the block height at pool creation.
	CreatedBlock uint64
	// Active gates all mutating pool operations. No transition currently
	// flips it after creation.
	Active bool
}

// Clone returns a deep copy so callers cannot mutate stored records.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.ReserveA = cloneBig(p.ReserveA)
	clone.ReserveB = cloneBig(p.ReserveB)
	clone.TotalSupply = cloneBig(p.TotalSupply)
	clone.LastPriceA = cloneBig(p.LastPriceA)
	clone.LastPriceB = cloneBig(p.LastPriceB)
	return &clone
}

// SwapRecord is the append-only audit entry written for every executed swap.
type SwapRecord struct {
	ID        uint64
	PoolID    uint64
	Trader    crypto.Address
	AssetIn   string
	AssetOut  string
	AmountIn  *big.Int
	AmountOut *big.Int
	// Fee is the bookkeeping fee amount; the value is retained in the
	// reserves rather than extracted.
	Fee *big.Int
	// PriceImpact is the output amount in basis points of the pre-trade
	// output reserve.
	PriceImpact *big.Int
	// Timestamp is the block height at execution.
	Timestamp uint64
}

// Clone returns a deep copy of the swap record.
func (r *SwapRecord) Clone() *SwapRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.AmountIn = cloneBig(r.AmountIn)
	clone.AmountOut = cloneBig(r.AmountOut)
	clone.Fee = cloneBig(r.Fee)
	clone.PriceImpact = cloneBig(r.PriceImpact)
	return &clone
}

// FarmingPool is the yield-farming extension record attached to a pool by an
// owner-gated call. The accrual fields are stored but no transition in this
// core advances them.
type FarmingPool struct {
	PoolID            uint64
	RewardPerBlock    *big.Int
	StartBlock        uint64
	EndBlock          uint64
	TotalStaked       *big.Int
	AccRewardPerShare *big.Int
	LastRewardBlock   uint64
}

// Clone returns a deep copy of the farming pool record.
func (f *FarmingPool) Clone() *FarmingPool {
	if f == nil {
		return nil
	}
	clone := *f
	clone.RewardPerBlock = cloneBig(f.RewardPerBlock)
	clone.TotalStaked = cloneBig(f.TotalStaked)
	clone.AccRewardPerShare = cloneBig(f.AccRewardPerShare)
	return &clone
}

// UserFarmInfo is the per-user farming position surface.
type UserFarmInfo struct {
	StakedAmount   *big.Int
	RewardDebt     *big.Int
	PendingRewards *big.Int
}

// Clone returns a deep copy of the user farm record.
func (u *UserFarmInfo) Clone() *UserFarmInfo {
	if u == nil {
		return nil
	}
	return &UserFarmInfo{
		StakedAmount:   cloneBig(u.StakedAmount),
		RewardDebt:     cloneBig(u.RewardDebt),
		PendingRewards: cloneBig(u.PendingRewards),
	}
}

// PoolStats aggregates the module-wide counters.
type PoolStats struct {
	TotalPools         uint64
	TotalSwaps         uint64
	TotalVolume        *big.Int
	TotalFeesCollected *big.Int
}

// Clone returns a deep copy of the stats record.
func (s *PoolStats) Clone() *PoolStats {
	if s == nil {
		return nil
	}
	clone := *s
	clone.TotalVolume = cloneBig(s.TotalVolume)
	clone.TotalFeesCollected = cloneBig(s.TotalFeesCollected)
	return &clone
}

// Quote is the read-only swap preview returned without mutating state.
type Quote struct {
	AmountOut   *big.Int
	Fee         *big.Int
	PriceImpact *big.Int
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
