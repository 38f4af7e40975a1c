package amm

import (
	"math/big"
	"strings"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/events"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/bank"
	nativecommon "github.com/ochinaza289/Decentralized-Banking-Consortium/native/common"
)

const moduleName = "amm"

type engineState interface {
	GetPool(id uint64) (*Pool, bool, error)
	PutPool(pool *Pool) error
	NextPoolID() (uint64, error)
	SetNextPoolID(id uint64) error
	Shares(poolID uint64, provider crypto.Address) (*big.Int, error)
	SetShares(poolID uint64, provider crypto.Address, amount *big.Int) error
	PoolMemberships(addr crypto.Address) ([]uint64, error)
	SetPoolMemberships(addr crypto.Address, ids []uint64) error
	GetSwapRecord(id uint64) (*SwapRecord, bool, error)
	PutSwapRecord(record *SwapRecord) error
	GetFarmingPool(poolID uint64) (*FarmingPool, bool, error)
	PutFarmingPool(farm *FarmingPool) error
	GetUserFarm(poolID uint64, addr crypto.Address) (*UserFarmInfo, bool, error)
	PutUserFarm(poolID uint64, addr crypto.Address, info *UserFarmInfo) error
	AMMStats() (*PoolStats, error)
	PutAMMStats(stats *PoolStats) error
}

type ammEvent struct {
	evt *types.Event
}

func (e ammEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ammEvent) Event() *types.Event { return e.evt }

// Engine orchestrates the constant-product pool transitions. The control flow
// for every mutating operation is validate, compute in closed form, execute
// the settlement transfers, then commit state in one pass.
type Engine struct {
	state          engineState
	transferer     bank.Transferer
	emitter        events.Emitter
	pauses         nativecommon.PauseView
	moduleAddress  crypto.Address
	owner          crypto.Address
	defaultFeeRate uint64
	blockHeight    uint64
}

// NewEngine constructs an AMM engine configured with the pool custodian
// address and the fee rate applied to newly created pools.
func NewEngine(moduleAddr crypto.Address, defaultFeeRate uint64) *Engine {
	return &Engine{
		moduleAddress:  moduleAddr,
		defaultFeeRate: defaultFeeRate,
		emitter:        events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTransferer wires the settlement transfer primitive.
func (e *Engine) SetTransferer(t bank.Transferer) {
	if e == nil {
		return
	}
	e.transferer = t
}

// SetOwner configures the deployment owner used for gated operations.
func (e *Engine) SetOwner(owner crypto.Address) {
	if e == nil {
		return
	}
	e.owner = owner
}

// SetBlockHeight records the external clock value used for record timestamps.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// SetPauses wires the operator pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(ammEvent{evt: event})
}

func (e *Engine) readyForMutation() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.transferer == nil {
		return errNilBank
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

// CreatePool registers a new pair, seeds both reserves and mints the initial
// liquidity (sqrt of the reserve product) to the creator.
func (e *Engine) CreatePool(creator crypto.Address, assetA, assetB string, initialA, initialB *big.Int) (*Pool, error) {
	if err := e.readyForMutation(); err != nil {
		return nil, err
	}
	if creator.IsZero() {
		return nil, errZeroAddress
	}
	assetA = strings.TrimSpace(assetA)
	assetB = strings.TrimSpace(assetB)
	if assetA == "" || assetB == "" || assetA == assetB {
		return nil, ErrInvalidAmount
	}
	if initialA == nil || initialA.Sign() <= 0 || initialB == nil || initialB.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	product := new(big.Int).Mul(initialA, initialB)
	initialLiquidity := integerSqrt(product)
	if initialLiquidity.Cmp(big.NewInt(MinLiquidity)) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	memberships, err := e.state.PoolMemberships(creator)
	if err != nil {
		return nil, err
	}
	if len(memberships) >= MaxPoolsPerUser {
		return nil, ErrPoolLimitReached
	}

	poolID, err := e.state.NextPoolID()
	if err != nil {
		return nil, err
	}
	stats, err := e.stats()
	if err != nil {
		return nil, err
	}

	if err := e.transferer.Transfer(creator, e.moduleAddress, initialA); err != nil {
		return nil, err
	}
	if err := e.transferer.Transfer(creator, e.moduleAddress, initialB); err != nil {
		return nil, err
	}

	pool := &Pool{
		ID:           poolID,
		AssetA:       assetA,
		AssetB:       assetB,
		ReserveA:     new(big.Int).Set(initialA),
		ReserveB:     new(big.Int).Set(initialB),
		TotalSupply:  new(big.Int).Set(initialLiquidity),
		FeeRate:      e.defaultFeeRate,
		LastPriceA:   priceOf(initialA, initialB),
		LastPriceB:   priceOf(initialB, initialA),
		CreatedBlock: e.blockHeight,
		Active:       true,
	}

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.SetNextPoolID(poolID + 1); err != nil {
		return nil, err
	}
	if err := e.state.SetShares(poolID, creator, initialLiquidity); err != nil {
		return nil, err
	}
	if err := e.state.SetPoolMemberships(creator, append(memberships, poolID)); err != nil {
		return nil, err
	}
	stats.TotalPools++
	if err := e.state.PutAMMStats(stats); err != nil {
		return nil, err
	}

	e.emit(NewPoolCreatedEvent(pool, creator, initialLiquidity))
	return pool.Clone(), nil
}

// AddLiquidity deposits both assets and mints the stricter of the two
// proportional share amounts. Depositing off the current ratio is tolerated;
// the surplus side simply earns no extra shares.
func (e *Engine) AddLiquidity(provider crypto.Address, poolID uint64, amountA, amountB, minLiquidity *big.Int) (*big.Int, error) {
	if err := e.readyForMutation(); err != nil {
		return nil, err
	}
	if provider.IsZero() {
		return nil, errZeroAddress
	}
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.activePool(poolID)
	if err != nil {
		return nil, err
	}

	mintedA := new(big.Int).Mul(amountA, pool.TotalSupply)
	mintedA.Quo(mintedA, pool.ReserveA)
	mintedB := new(big.Int).Mul(amountB, pool.TotalSupply)
	mintedB.Quo(mintedB, pool.ReserveB)
	minted := new(big.Int).Set(minBig(mintedA, mintedB))

	if minLiquidity != nil && minted.Cmp(minLiquidity) < 0 {
		return nil, ErrSlippageExceeded
	}

	shares, err := e.state.Shares(poolID, provider)
	if err != nil {
		return nil, err
	}

	if err := e.transferer.Transfer(provider, e.moduleAddress, amountA); err != nil {
		return nil, err
	}
	if err := e.transferer.Transfer(provider, e.moduleAddress, amountB); err != nil {
		return nil, err
	}

	pool.ReserveA = new(big.Int).Add(pool.ReserveA, amountA)
	pool.ReserveB = new(big.Int).Add(pool.ReserveB, amountB)
	pool.TotalSupply = new(big.Int).Add(pool.TotalSupply, minted)

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.SetShares(poolID, provider, new(big.Int).Add(shares, minted)); err != nil {
		return nil, err
	}

	e.emit(NewLiquidityAddedEvent(poolID, provider, amountA, amountB, minted))
	return minted, nil
}

// RemoveLiquidity burns shares and pays out the proportional slice of both
// reserves, guarded by per-asset minimum outputs.
func (e *Engine) RemoveLiquidity(provider crypto.Address, poolID uint64, liquidity, minA, minB *big.Int) (*big.Int, *big.Int, error) {
	if err := e.readyForMutation(); err != nil {
		return nil, nil, err
	}
	if provider.IsZero() {
		return nil, nil, errZeroAddress
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	pool, err := e.activePool(poolID)
	if err != nil {
		return nil, nil, err
	}

	shares, err := e.state.Shares(poolID, provider)
	if err != nil {
		return nil, nil, err
	}
	if shares.Cmp(liquidity) < 0 {
		return nil, nil, ErrInsufficientBalance
	}

	amountA := new(big.Int).Mul(liquidity, pool.ReserveA)
	amountA.Quo(amountA, pool.TotalSupply)
	amountB := new(big.Int).Mul(liquidity, pool.ReserveB)
	amountB.Quo(amountB, pool.TotalSupply)

	if minA != nil && amountA.Cmp(minA) < 0 {
		return nil, nil, ErrSlippageExceeded
	}
	if minB != nil && amountB.Cmp(minB) < 0 {
		return nil, nil, ErrSlippageExceeded
	}

	if err := e.transferer.Transfer(e.moduleAddress, provider, amountA); err != nil {
		return nil, nil, err
	}
	if err := e.transferer.Transfer(e.moduleAddress, provider, amountB); err != nil {
		return nil, nil, err
	}

	pool.ReserveA = new(big.Int).Sub(pool.ReserveA, amountA)
	pool.ReserveB = new(big.Int).Sub(pool.ReserveB, amountB)
	pool.TotalSupply = new(big.Int).Sub(pool.TotalSupply, liquidity)

	if err := e.state.PutPool(pool); err != nil {
		return nil, nil, err
	}
	if err := e.state.SetShares(poolID, provider, new(big.Int).Sub(shares, liquidity)); err != nil {
		return nil, nil, err
	}

	e.emit(NewLiquidityRemovedEvent(poolID, provider, liquidity, amountA, amountB))
	return amountA, amountB, nil
}

// Swap trades amountIn of assetIn against the pool. The fee stays in the
// reserves, so the constant product never decreases across the trade. The
// price impact is measured against the output reserve before the update.
func (e *Engine) Swap(trader crypto.Address, poolID uint64, amountIn, minAmountOut *big.Int, assetIn string) (*SwapRecord, error) {
	if err := e.readyForMutation(); err != nil {
		return nil, err
	}
	if trader.IsZero() {
		return nil, errZeroAddress
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.activePool(poolID)
	if err != nil {
		return nil, err
	}

	assetIn = strings.TrimSpace(assetIn)
	var reserveIn, reserveOut *big.Int
	var assetOut string
	switch assetIn {
	case pool.AssetA:
		reserveIn, reserveOut = pool.ReserveA, pool.ReserveB
		assetOut = pool.AssetB
	case pool.AssetB:
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
		assetOut = pool.AssetA
	default:
		return nil, ErrInvalidAmount
	}

	amountOut := constantProductOut(amountIn, reserveIn, reserveOut, pool.FeeRate)
	if minAmountOut != nil && amountOut.Cmp(minAmountOut) < 0 {
		return nil, ErrSlippageExceeded
	}
	fee := swapFee(amountIn, pool.FeeRate)

	// Price impact against the pre-trade output reserve.
	priceImpact := new(big.Int).Mul(amountOut, feeDenom)
	priceImpact.Quo(priceImpact, reserveOut)

	stats, err := e.stats()
	if err != nil {
		return nil, err
	}

	if err := e.transferer.Transfer(trader, e.moduleAddress, amountIn); err != nil {
		return nil, err
	}

	if assetIn == pool.AssetA {
		pool.ReserveA = new(big.Int).Add(pool.ReserveA, amountIn)
		pool.ReserveB = new(big.Int).Sub(pool.ReserveB, amountOut)
	} else {
		pool.ReserveB = new(big.Int).Add(pool.ReserveB, amountIn)
		pool.ReserveA = new(big.Int).Sub(pool.ReserveA, amountOut)
	}
	pool.LastPriceA = priceOf(pool.ReserveA, pool.ReserveB)
	pool.LastPriceB = priceOf(pool.ReserveB, pool.ReserveA)

	if err := e.transferer.Transfer(e.moduleAddress, trader, amountOut); err != nil {
		return nil, err
	}

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	recordID := stats.TotalSwaps + 1
	record := &SwapRecord{
		ID:          recordID,
		PoolID:      poolID,
		Trader:      trader,
		AssetIn:     assetIn,
		AssetOut:    assetOut,
		AmountIn:    new(big.Int).Set(amountIn),
		AmountOut:   amountOut,
		Fee:         fee,
		PriceImpact: priceImpact,
		Timestamp:   e.blockHeight,
	}
	if err := e.state.PutSwapRecord(record); err != nil {
		return nil, err
	}

	stats.TotalSwaps = recordID
	stats.TotalVolume = new(big.Int).Add(stats.TotalVolume, amountIn)
	stats.TotalFeesCollected = new(big.Int).Add(stats.TotalFeesCollected, fee)
	if err := e.state.PutAMMStats(stats); err != nil {
		return nil, err
	}

	e.emit(NewSwappedEvent(record))
	return record.Clone(), nil
}

// SetFeeRate updates the pool's swap fee. Owner-gated.
func (e *Engine) SetFeeRate(caller crypto.Address, poolID uint64, feeRate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	if feeRate >= FeeDenominator {
		return ErrInvalidAmount
	}
	pool, ok, err := e.state.GetPool(poolID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}
	pool.FeeRate = feeRate
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(NewFeeUpdatedEvent(poolID, feeRate))
	return nil
}

// CreateFarmingPool attaches a yield-farming schedule to an existing pool.
// Owner-gated; one farm per pool. The accrual fields are stored for the
// extension point but no transition in this engine advances them.
func (e *Engine) CreateFarmingPool(caller crypto.Address, poolID uint64, rewardPerBlock *big.Int, startBlock, endBlock uint64) (*FarmingPool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if !caller.Equal(e.owner) {
		return nil, ErrUnauthorized
	}
	if rewardPerBlock == nil || rewardPerBlock.Sign() <= 0 || endBlock <= startBlock {
		return nil, ErrInvalidAmount
	}
	if _, ok, err := e.state.GetPool(poolID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrPoolNotFound
	}
	if _, ok, err := e.state.GetFarmingPool(poolID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyExists
	}

	farm := &FarmingPool{
		PoolID:            poolID,
		RewardPerBlock:    new(big.Int).Set(rewardPerBlock),
		StartBlock:        startBlock,
		EndBlock:          endBlock,
		TotalStaked:       big.NewInt(0),
		AccRewardPerShare: big.NewInt(0),
		LastRewardBlock:   startBlock,
	}
	if err := e.state.PutFarmingPool(farm); err != nil {
		return nil, err
	}
	e.emit(NewFarmCreatedEvent(farm))
	return farm.Clone(), nil
}

// GetPool returns a copy of the stored pool record.
func (e *Engine) GetPool(poolID uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, ok, err := e.state.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool.Clone(), nil
}

// SharesOf returns the provider's LP share balance for the pool, zero when
// absent.
func (e *Engine) SharesOf(poolID uint64, provider crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.Shares(poolID, provider)
}

// MembershipsOf returns the ordered pool-membership list for the account.
func (e *Engine) MembershipsOf(addr crypto.Address) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.PoolMemberships(addr)
}

// GetSwapRecord returns a copy of the stored swap audit entry.
func (e *Engine) GetSwapRecord(id uint64) (*SwapRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.GetSwapRecord(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSwapNotFound
	}
	return record.Clone(), nil
}

// GetFarmingPool returns a copy of the farming schedule for a pool.
func (e *Engine) GetFarmingPool(poolID uint64) (*FarmingPool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	farm, ok, err := e.state.GetFarmingPool(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return farm.Clone(), nil
}

// UserFarmInfoOf returns the per-user farming position, zeroed when absent.
func (e *Engine) UserFarmInfoOf(poolID uint64, addr crypto.Address) (*UserFarmInfo, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok, err := e.state.GetUserFarm(poolID, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &UserFarmInfo{
			StakedAmount:   big.NewInt(0),
			RewardDebt:     big.NewInt(0),
			PendingRewards: big.NewInt(0),
		}, nil
	}
	return info.Clone(), nil
}

// QuoteSwap previews a swap without mutating any state.
func (e *Engine) QuoteSwap(poolID uint64, amountIn *big.Int, assetIn string) (*Quote, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.activePool(poolID)
	if err != nil {
		return nil, err
	}
	assetIn = strings.TrimSpace(assetIn)
	var reserveIn, reserveOut *big.Int
	switch assetIn {
	case pool.AssetA:
		reserveIn, reserveOut = pool.ReserveA, pool.ReserveB
	case pool.AssetB:
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	default:
		return nil, ErrInvalidAmount
	}
	amountOut := constantProductOut(amountIn, reserveIn, reserveOut, pool.FeeRate)
	priceImpact := new(big.Int).Mul(amountOut, feeDenom)
	priceImpact.Quo(priceImpact, reserveOut)
	return &Quote{
		AmountOut:   amountOut,
		Fee:         swapFee(amountIn, pool.FeeRate),
		PriceImpact: priceImpact,
	}, nil
}

// Stats returns a copy of the module-wide counters.
func (e *Engine) Stats() (*PoolStats, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stats, err := e.stats()
	if err != nil {
		return nil, err
	}
	return stats.Clone(), nil
}

func (e *Engine) activePool(poolID uint64) (*Pool, error) {
	pool, ok, err := e.state.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	if !pool.Active {
		return nil, ErrPoolInactive
	}
	// A pool whose liquidity was fully withdrawn has nothing to price
	// against; it stays on record but rejects trades and deposits.
	if pool.TotalSupply.Sign() == 0 || pool.ReserveA.Sign() == 0 || pool.ReserveB.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	return pool, nil
}

func (e *Engine) stats() (*PoolStats, error) {
	stats, err := e.state.AMMStats()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PoolStats{}
	}
	if stats.TotalVolume == nil {
		stats.TotalVolume = big.NewInt(0)
	}
	if stats.TotalFeesCollected == nil {
		stats.TotalFeesCollected = big.NewInt(0)
	}
	return stats, nil
}
