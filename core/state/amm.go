package state

import (
	"math/big"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/amm"
)

type storedPool struct {
	ID           uint64
	AssetA       string
	AssetB       string
	ReserveA     *big.Int
	ReserveB     *big.Int
	TotalSupply  *big.Int
	FeeRate      uint64
	LastPriceA   *big.Int
	LastPriceB   *big.Int
	CreatedBlock uint64
	Active       bool
}

type storedSwapRecord struct {
	ID          uint64
	PoolID      uint64
	Trader      [20]byte
	AssetIn     string
	AssetOut    string
	AmountIn    *big.Int
	AmountOut   *big.Int
	Fee         *big.Int
	PriceImpact *big.Int
	Timestamp   uint64
}

type storedFarmingPool struct {
	PoolID            uint64
	RewardPerBlock    *big.Int
	StartBlock        uint64
	EndBlock          uint64
	TotalStaked       *big.Int
	AccRewardPerShare *big.Int
	LastRewardBlock   uint64
}

type storedUserFarm struct {
	StakedAmount   *big.Int
	RewardDebt     *big.Int
	PendingRewards *big.Int
}

type storedAMMStats struct {
	TotalPools         uint64
	TotalSwaps         uint64
	TotalVolume        *big.Int
	TotalFeesCollected *big.Int
}

// GetPool loads the pool record for id.
func (m *Manager) GetPool(id uint64) (*amm.Pool, bool, error) {
	var stored storedPool
	ok, err := m.KVGet(idKey(ammPoolPrefix, id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &amm.Pool{
		ID:           stored.ID,
		AssetA:       stored.AssetA,
		AssetB:       stored.AssetB,
		ReserveA:     stored.ReserveA,
		ReserveB:     stored.ReserveB,
		TotalSupply:  stored.TotalSupply,
		FeeRate:      stored.FeeRate,
		LastPriceA:   stored.LastPriceA,
		LastPriceB:   stored.LastPriceB,
		CreatedBlock: stored.CreatedBlock,
		Active:       stored.Active,
	}, true, nil
}

// PutPool persists the pool record.
func (m *Manager) PutPool(pool *amm.Pool) error {
	return m.KVPut(idKey(ammPoolPrefix, pool.ID), &storedPool{
		ID:           pool.ID,
		AssetA:       pool.AssetA,
		AssetB:       pool.AssetB,
		ReserveA:     pool.ReserveA,
		ReserveB:     pool.ReserveB,
		TotalSupply:  pool.TotalSupply,
		FeeRate:      pool.FeeRate,
		LastPriceA:   pool.LastPriceA,
		LastPriceB:   pool.LastPriceB,
		CreatedBlock: pool.CreatedBlock,
		Active:       pool.Active,
	})
}

// NextPoolID returns the identifier the next pool will receive, starting at 1.
func (m *Manager) NextPoolID() (uint64, error) {
	return m.counter(ammPoolSeqKey, 1)
}

// SetNextPoolID persists the pool identifier counter.
func (m *Manager) SetNextPoolID(id uint64) error {
	return m.KVPut(ammPoolSeqKey, id)
}

// Shares returns the provider's LP share balance for the pool, zero when
// absent.
func (m *Manager) Shares(poolID uint64, provider crypto.Address) (*big.Int, error) {
	return m.balance(idAddrKey(ammSharesPrefix, poolID, provider.Bytes()))
}

// SetShares persists the provider's LP share balance for the pool.
func (m *Manager) SetShares(poolID uint64, provider crypto.Address, amount *big.Int) error {
	return m.setBalance(idAddrKey(ammSharesPrefix, poolID, provider.Bytes()), amount)
}

// PoolMemberships returns the ordered pool-id list for the account.
func (m *Manager) PoolMemberships(addr crypto.Address) ([]uint64, error) {
	var ids []uint64
	if _, err := m.KVGet(addrKey(ammMembershipPrefix, addr.Bytes()), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetPoolMemberships persists the ordered pool-id list for the account.
func (m *Manager) SetPoolMemberships(addr crypto.Address, ids []uint64) error {
	return m.KVPut(addrKey(ammMembershipPrefix, addr.Bytes()), ids)
}

// GetSwapRecord loads the audit entry for a swap id.
func (m *Manager) GetSwapRecord(id uint64) (*amm.SwapRecord, bool, error) {
	var stored storedSwapRecord
	ok, err := m.KVGet(idKey(ammSwapPrefix, id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	trader := append([]byte(nil), stored.Trader[:]...)
	return &amm.SwapRecord{
		ID:          stored.ID,
		PoolID:      stored.PoolID,
		Trader:      crypto.NewAddress(crypto.ConsortiumPrefix, trader),
		AssetIn:     stored.AssetIn,
		AssetOut:    stored.AssetOut,
		AmountIn:    stored.AmountIn,
		AmountOut:   stored.AmountOut,
		Fee:         stored.Fee,
		PriceImpact: stored.PriceImpact,
		Timestamp:   stored.Timestamp,
	}, true, nil
}

// PutSwapRecord persists the swap audit entry. Records are append-only; the
// engine never rewrites an id.
func (m *Manager) PutSwapRecord(record *amm.SwapRecord) error {
	stored := storedSwapRecord{
		ID:          record.ID,
		PoolID:      record.PoolID,
		AssetIn:     record.AssetIn,
		AssetOut:    record.AssetOut,
		AmountIn:    record.AmountIn,
		AmountOut:   record.AmountOut,
		Fee:         record.Fee,
		PriceImpact: record.PriceImpact,
		Timestamp:   record.Timestamp,
	}
	copy(stored.Trader[:], record.Trader.Bytes())
	return m.KVPut(idKey(ammSwapPrefix, record.ID), &stored)
}

// GetFarmingPool loads the farming schedule attached to a pool.
func (m *Manager) GetFarmingPool(poolID uint64) (*amm.FarmingPool, bool, error) {
	var stored storedFarmingPool
	ok, err := m.KVGet(idKey(ammFarmPrefix, poolID), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &amm.FarmingPool{
		PoolID:            stored.PoolID,
		RewardPerBlock:    stored.RewardPerBlock,
		StartBlock:        stored.StartBlock,
		EndBlock:          stored.EndBlock,
		TotalStaked:       stored.TotalStaked,
		AccRewardPerShare: stored.AccRewardPerShare,
		LastRewardBlock:   stored.LastRewardBlock,
	}, true, nil
}

// PutFarmingPool persists the farming schedule for a pool.
func (m *Manager) PutFarmingPool(farm *amm.FarmingPool) error {
	return m.KVPut(idKey(ammFarmPrefix, farm.PoolID), &storedFarmingPool{
		PoolID:            farm.PoolID,
		RewardPerBlock:    farm.RewardPerBlock,
		StartBlock:        farm.StartBlock,
		EndBlock:          farm.EndBlock,
		TotalStaked:       farm.TotalStaked,
		AccRewardPerShare: farm.AccRewardPerShare,
		LastRewardBlock:   farm.LastRewardBlock,
	})
}

// GetUserFarm loads the per-user farming position.
func (m *Manager) GetUserFarm(poolID uint64, addr crypto.Address) (*amm.UserFarmInfo, bool, error) {
	var stored storedUserFarm
	ok, err := m.KVGet(idAddrKey(ammUserFarmPrefix, poolID, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &amm.UserFarmInfo{
		StakedAmount:   stored.StakedAmount,
		RewardDebt:     stored.RewardDebt,
		PendingRewards: stored.PendingRewards,
	}, true, nil
}

// PutUserFarm persists the per-user farming position.
func (m *Manager) PutUserFarm(poolID uint64, addr crypto.Address, info *amm.UserFarmInfo) error {
	return m.KVPut(idAddrKey(ammUserFarmPrefix, poolID, addr.Bytes()), &storedUserFarm{
		StakedAmount:   info.StakedAmount,
		RewardDebt:     info.RewardDebt,
		PendingRewards: info.PendingRewards,
	})
}

// AMMStats loads the module-wide AMM counters, zeroed when unset.
func (m *Manager) AMMStats() (*amm.PoolStats, error) {
	var stored storedAMMStats
	ok, err := m.KVGet(ammStatsKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &amm.PoolStats{
			TotalVolume:        big.NewInt(0),
			TotalFeesCollected: big.NewInt(0),
		}, nil
	}
	return &amm.PoolStats{
		TotalPools:         stored.TotalPools,
		TotalSwaps:         stored.TotalSwaps,
		TotalVolume:        stored.TotalVolume,
		TotalFeesCollected: stored.TotalFeesCollected,
	}, nil
}

// PutAMMStats persists the module-wide AMM counters.
func (m *Manager) PutAMMStats(stats *amm.PoolStats) error {
	return m.KVPut(ammStatsKey, &storedAMMStats{
		TotalPools:         stats.TotalPools,
		TotalSwaps:         stats.TotalSwaps,
		TotalVolume:        stats.TotalVolume,
		TotalFeesCollected: stats.TotalFeesCollected,
	})
}
