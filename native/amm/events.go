package amm

import (
	"math/big"
	"strconv"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

const (
	EventTypePoolCreated      = "amm.pool_created"
	EventTypeLiquidityAdded   = "amm.liquidity_added"
	EventTypeLiquidityRemoved = "amm.liquidity_removed"
	EventTypeSwapped          = "amm.swapped"
	EventTypeFeeUpdated       = "amm.fee_updated"
	EventTypeFarmCreated      = "amm.farm_created"
)

// NewPoolCreatedEvent returns the canonical payload for pool creation.
func NewPoolCreatedEvent(pool *Pool, creator crypto.Address, liquidity *big.Int) *types.Event {
	attrs := map[string]string{
		"creator":   creator.String(),
		"liquidity": bigString(liquidity),
	}
	if pool != nil {
		attrs["poolId"] = strconv.FormatUint(pool.ID, 10)
		attrs["assetA"] = pool.AssetA
		attrs["assetB"] = pool.AssetB
		attrs["reserveA"] = bigString(pool.ReserveA)
		attrs["reserveB"] = bigString(pool.ReserveB)
	}
	return &types.Event{Type: EventTypePoolCreated, Attributes: attrs}
}

// NewLiquidityAddedEvent returns the canonical payload for a liquidity
// deposit.
func NewLiquidityAddedEvent(poolID uint64, provider crypto.Address, amountA, amountB, minted *big.Int) *types.Event {
	return &types.Event{Type: EventTypeLiquidityAdded, Attributes: map[string]string{
		"poolId":   strconv.FormatUint(poolID, 10),
		"provider": provider.String(),
		"amountA":  bigString(amountA),
		"amountB":  bigString(amountB),
		"minted":   bigString(minted),
	}}
}

// NewLiquidityRemovedEvent returns the canonical payload for a share burn.
func NewLiquidityRemovedEvent(poolID uint64, provider crypto.Address, burned, amountA, amountB *big.Int) *types.Event {
	return &types.Event{Type: EventTypeLiquidityRemoved, Attributes: map[string]string{
		"poolId":   strconv.FormatUint(poolID, 10),
		"provider": provider.String(),
		"burned":   bigString(burned),
		"amountA":  bigString(amountA),
		"amountB":  bigString(amountB),
	}}
}

// NewSwappedEvent returns the canonical payload for an executed swap.
func NewSwappedEvent(record *SwapRecord) *types.Event {
	attrs := make(map[string]string)
	if record != nil {
		attrs["swapId"] = strconv.FormatUint(record.ID, 10)
		attrs["poolId"] = strconv.FormatUint(record.PoolID, 10)
		attrs["trader"] = record.Trader.String()
		attrs["assetIn"] = record.AssetIn
		attrs["assetOut"] = record.AssetOut
		attrs["amountIn"] = bigString(record.AmountIn)
		attrs["amountOut"] = bigString(record.AmountOut)
		attrs["fee"] = bigString(record.Fee)
		attrs["priceImpactBps"] = bigString(record.PriceImpact)
	}
	return &types.Event{Type: EventTypeSwapped, Attributes: attrs}
}

// NewFeeUpdatedEvent returns the canonical payload for an owner fee change.
func NewFeeUpdatedEvent(poolID uint64, feeRate uint64) *types.Event {
	return &types.Event{Type: EventTypeFeeUpdated, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(poolID, 10),
		"feeRate": strconv.FormatUint(feeRate, 10),
	}}
}

// NewFarmCreatedEvent returns the canonical payload for a new farming pool.
func NewFarmCreatedEvent(farm *FarmingPool) *types.Event {
	attrs := make(map[string]string)
	if farm != nil {
		attrs["poolId"] = strconv.FormatUint(farm.PoolID, 10)
		attrs["rewardPerBlock"] = bigString(farm.RewardPerBlock)
		attrs["startBlock"] = strconv.FormatUint(farm.StartBlock, 10)
		attrs["endBlock"] = strconv.FormatUint(farm.EndBlock, 10)
	}
	return &types.Event{Type: EventTypeFarmCreated, Attributes: attrs}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
