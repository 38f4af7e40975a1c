package rpc

import (
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/amm"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/observability"
)

type poolPayload struct {
	ID           uint64 `json:"id"`
	AssetA       string `json:"assetA"`
	AssetB       string `json:"assetB"`
	ReserveA     string `json:"reserveA"`
	ReserveB     string `json:"reserveB"`
	TotalSupply  string `json:"totalSupply"`
	FeeRate      uint64 `json:"feeRate"`
	LastPriceA   string `json:"lastPriceA"`
	LastPriceB   string `json:"lastPriceB"`
	CreatedBlock uint64 `json:"createdBlock"`
	Active       bool   `json:"active"`
}

func poolToPayload(pool *amm.Pool) poolPayload {
	return poolPayload{
		ID:           pool.ID,
		AssetA:       pool.AssetA,
		AssetB:       pool.AssetB,
		ReserveA:     bigString(pool.ReserveA),
		ReserveB:     bigString(pool.ReserveB),
		TotalSupply:  bigString(pool.TotalSupply),
		FeeRate:      pool.FeeRate,
		LastPriceA:   bigString(pool.LastPriceA),
		LastPriceB:   bigString(pool.LastPriceB),
		CreatedBlock: pool.CreatedBlock,
		Active:       pool.Active,
	}
}

type swapPayload struct {
	ID          uint64 `json:"id"`
	PoolID      uint64 `json:"poolId"`
	Trader      string `json:"trader"`
	AssetIn     string `json:"assetIn"`
	AssetOut    string `json:"assetOut"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	Fee         string `json:"fee"`
	PriceImpact string `json:"priceImpactBps"`
	Timestamp   uint64 `json:"timestamp"`
}

func swapToPayload(record *amm.SwapRecord) swapPayload {
	return swapPayload{
		ID:          record.ID,
		PoolID:      record.PoolID,
		Trader:      record.Trader.String(),
		AssetIn:     record.AssetIn,
		AssetOut:    record.AssetOut,
		AmountIn:    bigString(record.AmountIn),
		AmountOut:   bigString(record.AmountOut),
		Fee:         bigString(record.Fee),
		PriceImpact: bigString(record.PriceImpact),
		Timestamp:   record.Timestamp,
	}
}

func (s *Server) handleAMMCreatePool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Creator string `json:"creator"`
		AssetA  string `json:"assetA"`
		AssetB  string `json:"assetB"`
		AmountA string `json:"amountA"`
		AmountB string `json:"amountB"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	creator, err := parseAddress(req.Creator)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amountA, err := parseAmount(req.AmountA)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amountB, err := parseAmount(req.AmountB)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var pool *amm.Pool
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		pool, opErr = s.amm.CreatePool(creator, req.AssetA, req.AssetB, amountA, amountB)
		return opErr
	})
	observability.ModuleMetrics().Observe("amm", "create_pool", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"pool": poolToPayload(pool)})
}

func (s *Server) handleAMMAddLiquidity(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Provider     string `json:"provider"`
		AmountA      string `json:"amountA"`
		AmountB      string `json:"amountB"`
		MinLiquidity string `json:"minLiquidity"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	provider, err := parseAddress(req.Provider)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amountA, err := parseAmount(req.AmountA)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amountB, err := parseAmount(req.AmountB)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	minLiquidity := big.NewInt(0)
	if req.MinLiquidity != "" {
		if minLiquidity, err = parseAmount(req.MinLiquidity); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	var minted *big.Int
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		minted, opErr = s.amm.AddLiquidity(provider, poolID, amountA, amountB, minLiquidity)
		return opErr
	})
	observability.ModuleMetrics().Observe("amm", "add_liquidity", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"minted": bigString(minted)})
}

func (s *Server) handleAMMRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Provider  string `json:"provider"`
		Liquidity string `json:"liquidity"`
		MinA      string `json:"minA"`
		MinB      string `json:"minB"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	provider, err := parseAddress(req.Provider)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	liquidity, err := parseAmount(req.Liquidity)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	minA := big.NewInt(0)
	if req.MinA != "" {
		if minA, err = parseAmount(req.MinA); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	minB := big.NewInt(0)
	if req.MinB != "" {
		if minB, err = parseAmount(req.MinB); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	var outA, outB *big.Int
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		outA, outB, opErr = s.amm.RemoveLiquidity(provider, poolID, liquidity, minA, minB)
		return opErr
	})
	observability.ModuleMetrics().Observe("amm", "remove_liquidity", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"amountA": bigString(outA),
		"amountB": bigString(outB),
	})
}

func (s *Server) handleAMMSwap(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Trader       string `json:"trader"`
		AssetIn      string `json:"assetIn"`
		AmountIn     string `json:"amountIn"`
		MinAmountOut string `json:"minAmountOut"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	trader, err := parseAddress(req.Trader)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amountIn, err := parseAmount(req.AmountIn)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	minAmountOut := big.NewInt(0)
	if req.MinAmountOut != "" {
		if minAmountOut, err = parseAmount(req.MinAmountOut); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	var record *amm.SwapRecord
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		record, opErr = s.amm.Swap(trader, poolID, amountIn, minAmountOut, req.AssetIn)
		return opErr
	})
	observability.ModuleMetrics().Observe("amm", "swap", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"swap": swapToPayload(record)})
}

func (s *Server) handleAMMSetFeeRate(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Caller  string `json:"caller"`
		FeeRate uint64 `json:"feeRate"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.amm.SetFeeRate(caller, poolID, req.FeeRate)
	})
	observability.ModuleMetrics().Observe("amm", "set_fee_rate", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleAMMCreateFarm(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Caller         string `json:"caller"`
		RewardPerBlock string `json:"rewardPerBlock"`
		StartBlock     uint64 `json:"startBlock"`
		EndBlock       uint64 `json:"endBlock"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	reward, err := parseAmount(req.RewardPerBlock)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var farm *amm.FarmingPool
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		farm, opErr = s.amm.CreateFarmingPool(caller, poolID, reward, req.StartBlock, req.EndBlock)
		return opErr
	})
	observability.ModuleMetrics().Observe("amm", "create_farming_pool", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"farm": farmToPayload(farm)})
}

func farmToPayload(farm *amm.FarmingPool) map[string]any {
	return map[string]any{
		"poolId":            farm.PoolID,
		"rewardPerBlock":    bigString(farm.RewardPerBlock),
		"startBlock":        farm.StartBlock,
		"endBlock":          farm.EndBlock,
		"totalStaked":       bigString(farm.TotalStaked),
		"accRewardPerShare": bigString(farm.AccRewardPerShare),
		"lastRewardBlock":   farm.LastRewardBlock,
	}
}

func (s *Server) handleAMMGetPool(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	pool, err := s.amm.GetPool(poolID)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"pool": poolToPayload(pool)})
}

func (s *Server) handleAMMQuote(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	query := r.URL.Query()
	amountIn, err := parseAmount(query.Get("amountIn"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	assetIn := query.Get("assetIn")
	s.mu.Lock()
	quote, err := s.amm.QuoteSwap(poolID, amountIn, assetIn)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"amountOut":      bigString(quote.AmountOut),
		"fee":            bigString(quote.Fee),
		"priceImpactBps": bigString(quote.PriceImpact),
	})
}

func (s *Server) handleAMMGetFarm(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	farm, err := s.amm.GetFarmingPool(poolID)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"farm": farmToPayload(farm)})
}

func (s *Server) handleAMMGetShares(w http.ResponseWriter, r *http.Request) {
	poolID, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	shares, err := s.amm.SharesOf(poolID, addr)
	var farmInfo *amm.UserFarmInfo
	if err == nil {
		farmInfo, err = s.amm.UserFarmInfoOf(poolID, addr)
	}
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"poolId":         poolID,
		"address":        addr.String(),
		"shares":         bigString(shares),
		"stakedAmount":   bigString(farmInfo.StakedAmount),
		"pendingRewards": bigString(farmInfo.PendingRewards),
	})
}

func (s *Server) handleAMMGetSwap(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	record, err := s.amm.GetSwapRecord(id)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"swap": swapToPayload(record)})
}

func (s *Server) handleAMMMemberships(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	pools, err := s.amm.MembershipsOf(addr)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if pools == nil {
		pools = []uint64{}
	}
	writeResult(w, http.StatusOK, map[string]any{
		"address": addr.String(),
		"pools":   pools,
	})
}

func (s *Server) handleAMMStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats, err := s.amm.Stats()
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"totalPools":         stats.TotalPools,
		"totalSwaps":         stats.TotalSwaps,
		"totalVolume":        bigString(stats.TotalVolume),
		"totalFeesCollected": bigString(stats.TotalFeesCollected),
	})
}
