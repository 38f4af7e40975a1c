package amm

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

type mockState struct {
	pools       map[uint64]*Pool
	nextPoolID  uint64
	shares      map[string]*big.Int
	memberships map[string][]uint64
	swaps       map[uint64]*SwapRecord
	farms       map[uint64]*FarmingPool
	userFarms   map[string]*UserFarmInfo
	stats       *PoolStats
}

func newMockState() *mockState {
	return &mockState{
		pools:       make(map[uint64]*Pool),
		shares:      make(map[string]*big.Int),
		memberships: make(map[string][]uint64),
		swaps:       make(map[uint64]*SwapRecord),
		farms:       make(map[uint64]*FarmingPool),
		userFarms:   make(map[string]*UserFarmInfo),
	}
}

func shareKey(poolID uint64, addr crypto.Address) string {
	return fmt.Sprintf("%d/%s", poolID, addr.String())
}

func (m *mockState) GetPool(id uint64) (*Pool, bool, error) {
	pool, ok := m.pools[id]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockState) PutPool(pool *Pool) error {
	m.pools[pool.ID] = pool.Clone()
	return nil
}

func (m *mockState) NextPoolID() (uint64, error) {
	if m.nextPoolID == 0 {
		return 1, nil
	}
	return m.nextPoolID, nil
}

func (m *mockState) SetNextPoolID(id uint64) error {
	m.nextPoolID = id
	return nil
}

func (m *mockState) Shares(poolID uint64, provider crypto.Address) (*big.Int, error) {
	if v, ok := m.shares[shareKey(poolID, provider)]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetShares(poolID uint64, provider crypto.Address, amount *big.Int) error {
	m.shares[shareKey(poolID, provider)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) PoolMemberships(addr crypto.Address) ([]uint64, error) {
	return append([]uint64(nil), m.memberships[addr.String()]...), nil
}

func (m *mockState) SetPoolMemberships(addr crypto.Address, ids []uint64) error {
	m.memberships[addr.String()] = append([]uint64(nil), ids...)
	return nil
}

func (m *mockState) GetSwapRecord(id uint64) (*SwapRecord, bool, error) {
	record, ok := m.swaps[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) PutSwapRecord(record *SwapRecord) error {
	m.swaps[record.ID] = record.Clone()
	return nil
}

func (m *mockState) GetFarmingPool(poolID uint64) (*FarmingPool, bool, error) {
	farm, ok := m.farms[poolID]
	if !ok {
		return nil, false, nil
	}
	return farm.Clone(), true, nil
}

func (m *mockState) PutFarmingPool(farm *FarmingPool) error {
	m.farms[farm.PoolID] = farm.Clone()
	return nil
}

func (m *mockState) GetUserFarm(poolID uint64, addr crypto.Address) (*UserFarmInfo, bool, error) {
	info, ok := m.userFarms[shareKey(poolID, addr)]
	if !ok {
		return nil, false, nil
	}
	return info.Clone(), true, nil
}

func (m *mockState) PutUserFarm(poolID uint64, addr crypto.Address, info *UserFarmInfo) error {
	m.userFarms[shareKey(poolID, addr)] = info.Clone()
	return nil
}

func (m *mockState) AMMStats() (*PoolStats, error) {
	if m.stats == nil {
		return nil, nil
	}
	return m.stats.Clone(), nil
}

func (m *mockState) PutAMMStats(stats *PoolStats) error {
	m.stats = stats.Clone()
	return nil
}

type transferCall struct {
	from   crypto.Address
	to     crypto.Address
	amount *big.Int
}

type mockBank struct {
	calls   []transferCall
	failAll bool
	failAt  int // reject the nth transfer, 1-based
}

func (b *mockBank) Transfer(from, to crypto.Address, amount *big.Int) error {
	if b.failAll || (b.failAt > 0 && len(b.calls)+1 == b.failAt) {
		return fmt.Errorf("transfer rejected")
	}
	b.calls = append(b.calls, transferCall{from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func testAddr(seed byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = seed
	raw[19] = seed
	return crypto.NewAddress(crypto.ConsortiumPrefix, raw)
}

func newTestEngine(feeRate uint64) (*Engine, *mockState, *mockBank) {
	state := newMockState()
	bank := &mockBank{}
	engine := NewEngine(testAddr(0xAA), feeRate)
	engine.SetState(state)
	engine.SetTransferer(bank)
	return engine, state, bank
}

func TestCreatePoolMintsSqrtLiquidity(t *testing.T) {
	engine, state, bank := newTestEngine(30)
	engine.SetBlockHeight(5)
	creator := testAddr(0x01)

	pool, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if pool.ID != 1 {
		t.Fatalf("first pool ID = %d, want 1", pool.ID)
	}
	if pool.TotalSupply.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("initial supply = %s, want 1000000", pool.TotalSupply)
	}
	if pool.LastPriceA.Cmp(Precision) != 0 || pool.LastPriceB.Cmp(Precision) != 0 {
		t.Fatalf("initial prices = %s/%s, want %s both ways", pool.LastPriceA, pool.LastPriceB, Precision)
	}
	if pool.CreatedBlock != 5 || !pool.Active {
		t.Fatalf("pool metadata = block %d active %v", pool.CreatedBlock, pool.Active)
	}
	if len(bank.calls) != 2 {
		t.Fatalf("expected both seed transfers, got %d", len(bank.calls))
	}

	shares, err := engine.SharesOf(1, creator)
	if err != nil {
		t.Fatalf("shares: %v", err)
	}
	if shares.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("creator shares = %s, want 1000000", shares)
	}
	if got := state.memberships[creator.String()]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("memberships = %v, want [1]", got)
	}
	if state.stats.TotalPools != 1 {
		t.Fatalf("total pools = %d, want 1", state.stats.TotalPools)
	}
}

func TestCreatePoolValidation(t *testing.T) {
	engine, state, _ := newTestEngine(30)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "gold", big.NewInt(1_000_000), big.NewInt(1_000_000)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("identical assets error = %v, want ErrInvalidAmount", err)
	}
	// sqrt(10*10) = 10, below the 1000 share floor.
	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(10), big.NewInt(10)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("tiny seed error = %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(0), big.NewInt(10)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero seed error = %v, want ErrInvalidAmount", err)
	}

	ids := make([]uint64, MaxPoolsPerUser)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	state.memberships[creator.String()] = ids
	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); !errors.Is(err, ErrPoolLimitReached) {
		t.Fatalf("membership cap error = %v, want ErrPoolLimitReached", err)
	}
}

func TestAddRemoveLiquidityRoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(30)
	creator := testAddr(0x01)
	provider := testAddr(0x02)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(2_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	minted, err := engine.AddLiquidity(provider, 1, big.NewInt(100_000), big.NewInt(200_000), nil)
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if minted.Sign() <= 0 {
		t.Fatalf("minted = %s, want positive", minted)
	}

	outA, outB, err := engine.RemoveLiquidity(provider, 1, minted, nil, nil)
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	// Integer rounding can only short-change the provider, never pay extra.
	if outA.Cmp(big.NewInt(100_000)) > 0 || outB.Cmp(big.NewInt(200_000)) > 0 {
		t.Fatalf("round trip paid out %s/%s for 100000/200000 in", outA, outB)
	}

	shares, err := engine.SharesOf(1, provider)
	if err != nil {
		t.Fatalf("shares: %v", err)
	}
	if shares.Sign() != 0 {
		t.Fatalf("shares after full exit = %s, want 0", shares)
	}
}

func TestAddLiquidityMintsStricterSide(t *testing.T) {
	engine, _, _ := newTestEngine(30)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	// Asset B underpays badly; shares follow the weaker leg.
	minted, err := engine.AddLiquidity(creator, 1, big.NewInt(100_000), big.NewInt(10_000), nil)
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if minted.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("minted = %s, want 10000", minted)
	}
}

func TestAddLiquiditySlippageGuard(t *testing.T) {
	engine, _, bank := newTestEngine(30)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	transfersBefore := len(bank.calls)
	if _, err := engine.AddLiquidity(creator, 1, big.NewInt(10_000), big.NewInt(10_000), big.NewInt(10_001)); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("slippage error = %v, want ErrSlippageExceeded", err)
	}
	if len(bank.calls) != transfersBefore {
		t.Fatalf("rejected add must not transfer")
	}
}

func TestRemoveLiquidityGuards(t *testing.T) {
	engine, _, _ := newTestEngine(30)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	if _, _, err := engine.RemoveLiquidity(creator, 1, big.NewInt(1_000_001), nil, nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over-burn error = %v, want ErrInsufficientBalance", err)
	}
	if _, _, err := engine.RemoveLiquidity(creator, 1, big.NewInt(1000), big.NewInt(1001), nil); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("minA error = %v, want ErrSlippageExceeded", err)
	}
	if _, _, err := engine.RemoveLiquidity(testAddr(0x03), 99, big.NewInt(10), nil, nil); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("missing pool error = %v, want ErrPoolNotFound", err)
	}
}

func TestSwapWorkedExample(t *testing.T) {
	engine, state, bank := newTestEngine(30)
	engine.SetBlockHeight(9)
	creator := testAddr(0x01)
	trader := testAddr(0x02)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	record, err := engine.Swap(trader, 1, big.NewInt(1000), big.NewInt(990), "gold")
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if record.ID != 1 {
		t.Fatalf("swap record ID = %d, want 1", record.ID)
	}
	if record.AmountOut.Cmp(big.NewInt(996)) != 0 {
		t.Fatalf("amount out = %s, want 996", record.AmountOut)
	}
	if record.Fee.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("fee = %s, want 3", record.Fee)
	}
	// 996 * 10000 / 1000000 pre-trade output reserve.
	if record.PriceImpact.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("price impact = %s, want 9", record.PriceImpact)
	}
	if record.AssetOut != "silver" || record.Timestamp != 9 {
		t.Fatalf("record = %+v", record)
	}

	pool := state.pools[1]
	if pool.ReserveA.Cmp(big.NewInt(1_001_000)) != 0 {
		t.Fatalf("reserve A = %s, want 1001000", pool.ReserveA)
	}
	if pool.ReserveB.Cmp(big.NewInt(999_004)) != 0 {
		t.Fatalf("reserve B = %s, want 999004", pool.ReserveB)
	}

	// Transfer in precedes the payout.
	in := bank.calls[len(bank.calls)-2]
	out := bank.calls[len(bank.calls)-1]
	if !in.from.Equal(trader) || in.amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("transfer in = %+v", in)
	}
	if !out.to.Equal(trader) || out.amount.Cmp(big.NewInt(996)) != 0 {
		t.Fatalf("transfer out = %+v", out)
	}

	if state.stats.TotalSwaps != 1 {
		t.Fatalf("total swaps = %d, want 1", state.stats.TotalSwaps)
	}
	if state.stats.TotalVolume.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("total volume = %s, want 1000", state.stats.TotalVolume)
	}
	if state.stats.TotalFeesCollected.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("total fees = %s, want 3", state.stats.TotalFeesCollected)
	}
}

func TestSwapGuards(t *testing.T) {
	engine, state, bank := newTestEngine(30)
	creator := testAddr(0x01)
	trader := testAddr(0x02)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	transfersBefore := len(bank.calls)

	if _, err := engine.Swap(trader, 1, big.NewInt(1000), big.NewInt(997), "gold"); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("slippage error = %v, want ErrSlippageExceeded", err)
	}
	if _, err := engine.Swap(trader, 1, big.NewInt(1000), nil, "copper"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("unknown asset error = %v, want ErrInvalidAmount", err)
	}
	if _, err := engine.Swap(trader, 1, big.NewInt(0), nil, "gold"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if len(bank.calls) != transfersBefore {
		t.Fatalf("rejected swaps must not transfer")
	}

	pool := state.pools[1]
	pool.Active = false
	state.pools[1] = pool
	if _, err := engine.Swap(trader, 1, big.NewInt(1000), nil, "gold"); !errors.Is(err, ErrPoolInactive) {
		t.Fatalf("inactive pool error = %v, want ErrPoolInactive", err)
	}
}

func TestDrainedPoolRejectsOperations(t *testing.T) {
	engine, state, _ := newTestEngine(30)
	creator := testAddr(0x01)
	trader := testAddr(0x02)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, _, err := engine.RemoveLiquidity(creator, 1, big.NewInt(1_000_000), nil, nil); err != nil {
		t.Fatalf("remove all liquidity: %v", err)
	}
	if supply := state.pools[1].TotalSupply; supply.Sign() != 0 {
		t.Fatalf("supply after full exit = %s, want 0", supply)
	}

	if _, err := engine.Swap(trader, 1, big.NewInt(1000), nil, "gold"); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("swap on drained pool error = %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := engine.QuoteSwap(1, big.NewInt(1000), "gold"); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("quote on drained pool error = %v, want ErrInsufficientLiquidity", err)
	}
	if _, err := engine.AddLiquidity(trader, 1, big.NewInt(1000), big.NewInt(1000), nil); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("add on drained pool error = %v, want ErrInsufficientLiquidity", err)
	}
}

func TestSwapFailedPayoutCommitsNothing(t *testing.T) {
	engine, state, bank := newTestEngine(30)
	creator := testAddr(0x01)
	trader := testAddr(0x02)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	// Two seed transfers happened; the swap's pay-in is the third call and
	// the payout the fourth.
	bank.failAt = 4

	if _, err := engine.Swap(trader, 1, big.NewInt(1000), nil, "gold"); err == nil {
		t.Fatalf("swap with failing payout must error")
	}
	pool := state.pools[1]
	if pool.ReserveA.Cmp(big.NewInt(1_000_000)) != 0 || pool.ReserveB.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("reserves after failed payout = %s/%s, want untouched", pool.ReserveA, pool.ReserveB)
	}
	if len(state.swaps) != 0 {
		t.Fatalf("failed swap must not append a record, got %d", len(state.swaps))
	}
	if state.stats.TotalSwaps != 0 {
		t.Fatalf("failed swap must not count, got %d", state.stats.TotalSwaps)
	}
}

func TestQuoteMatchesSwapWithoutMutation(t *testing.T) {
	engine, state, _ := newTestEngine(30)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	quote, err := engine.QuoteSwap(1, big.NewInt(1000), "gold")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	record, err := engine.Swap(testAddr(0x02), 1, big.NewInt(1000), nil, "gold")
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if quote.AmountOut.Cmp(record.AmountOut) != 0 || quote.Fee.Cmp(record.Fee) != 0 || quote.PriceImpact.Cmp(record.PriceImpact) != 0 {
		t.Fatalf("quote %+v disagrees with swap %+v", quote, record)
	}
	if len(state.swaps) != 1 {
		t.Fatalf("quote must not append swap records, got %d", len(state.swaps))
	}
}

func TestSetFeeRateOwnerGate(t *testing.T) {
	engine, state, _ := newTestEngine(30)
	owner := testAddr(0x05)
	engine.SetOwner(owner)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	if err := engine.SetFeeRate(creator, 1, 50); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner fee update error = %v, want ErrUnauthorized", err)
	}
	if err := engine.SetFeeRate(owner, 1, FeeDenominator); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("out-of-range fee error = %v, want ErrInvalidAmount", err)
	}
	if err := engine.SetFeeRate(owner, 1, 50); err != nil {
		t.Fatalf("fee update: %v", err)
	}
	if state.pools[1].FeeRate != 50 {
		t.Fatalf("stored fee rate = %d, want 50", state.pools[1].FeeRate)
	}
}

func TestCreateFarmingPool(t *testing.T) {
	engine, _, _ := newTestEngine(30)
	owner := testAddr(0x05)
	engine.SetOwner(owner)
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	if _, err := engine.CreateFarmingPool(creator, 1, big.NewInt(10), 100, 200); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner farm error = %v, want ErrUnauthorized", err)
	}
	if _, err := engine.CreateFarmingPool(owner, 1, big.NewInt(10), 200, 100); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("inverted schedule error = %v, want ErrInvalidAmount", err)
	}
	if _, err := engine.CreateFarmingPool(owner, 99, big.NewInt(10), 100, 200); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("missing pool error = %v, want ErrPoolNotFound", err)
	}

	farm, err := engine.CreateFarmingPool(owner, 1, big.NewInt(10), 100, 200)
	if err != nil {
		t.Fatalf("create farm: %v", err)
	}
	if farm.LastRewardBlock != 100 || farm.TotalStaked.Sign() != 0 {
		t.Fatalf("farm = %+v", farm)
	}
	if _, err := engine.CreateFarmingPool(owner, 1, big.NewInt(10), 100, 200); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate farm error = %v, want ErrAlreadyExists", err)
	}
}

func TestPauseGuardBlocksMutations(t *testing.T) {
	engine, _, _ := newTestEngine(30)
	engine.SetPauses(pausedView{paused: true})
	creator := testAddr(0x01)

	if _, err := engine.CreatePool(creator, "gold", "silver", big.NewInt(1_000_000), big.NewInt(1_000_000)); err == nil {
		t.Fatalf("paused pool creation must fail")
	}
	if _, err := engine.Swap(creator, 1, big.NewInt(10), nil, "gold"); err == nil {
		t.Fatalf("paused swap must fail")
	}
}

type pausedView struct{ paused bool }

func (p pausedView) IsPaused(string) bool { return p.paused }
