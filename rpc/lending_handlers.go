package rpc

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/lending"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/observability"
)

type loanPayload struct {
	ID           uint64 `json:"id"`
	Borrower     string `json:"borrower"`
	Amount       string `json:"amount"`
	Collateral   string `json:"collateral"`
	InterestRate uint64 `json:"interestRate"`
	StartBlock   uint64 `json:"startBlock"`
	LastUpdated  uint64 `json:"lastUpdated"`
}

func loanToPayload(loan *lending.Loan) loanPayload {
	return loanPayload{
		ID:           loan.ID,
		Borrower:     loan.Borrower.String(),
		Amount:       bigString(loan.Amount),
		Collateral:   bigString(loan.Collateral),
		InterestRate: loan.InterestRate,
		StartBlock:   loan.StartBlock,
		LastUpdated:  loan.LastUpdated,
	}
}

func (s *Server) handleLendingDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.lending.Deposit(account, amount)
	})
	observability.ModuleMetrics().Observe("lending", "deposit", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLendingWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.lending.Withdraw(account, amount)
	})
	observability.ModuleMetrics().Observe("lending", "withdraw", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLendingBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Borrower   string `json:"borrower"`
		Amount     string `json:"amount"`
		Collateral string `json:"collateral"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	collateral, err := parseAmount(req.Collateral)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var loan *lending.Loan
	start := time.Now()
	err = s.withHeight(func() error {
		var opErr error
		loan, opErr = s.lending.Borrow(borrower, amount, collateral)
		return opErr
	})
	observability.ModuleMetrics().Observe("lending", "borrow", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"loan": loanToPayload(loan)})
}

func (s *Server) handleLendingRepay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Borrower string `json:"borrower"`
		LoanID   uint64 `json:"loanId"`
		Amount   string `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.lending.Repay(borrower, req.LoanID, amount)
	})
	observability.ModuleMetrics().Observe("lending", "repay", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLendingLiquidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Liquidator string `json:"liquidator"`
		LoanID     uint64 `json:"loanId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	liquidator, err := parseAddress(req.Liquidator)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.lending.Liquidate(liquidator, req.LoanID)
	})
	observability.ModuleMetrics().Observe("lending", "liquidate", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLendingSetOracle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Asset  string `json:"asset"`
		Price  string `json:"price"`
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
	price, err := parseAmount(req.Price)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	start := time.Now()
	err = s.withHeight(func() error {
		return s.lending.SetOraclePrice(caller, req.Asset, price)
	})
	observability.ModuleMetrics().Observe("lending", "set_oracle_price", start, err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLendingGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	loan, err := s.lending.GetLoan(id)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"loan": loanToPayload(loan)})
}

func (s *Server) handleLendingLoanHealth(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var healthy bool
	err = s.withHeight(func() error {
		var opErr error
		healthy, opErr = s.lending.IsHealthy(id)
		return opErr
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{"loanId": id, "healthy": healthy})
}

func (s *Server) handleLendingGetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deposit, err := s.lending.DepositOf(addr)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	borrowed, err := s.lending.BorrowedOf(addr)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	collateral, err := s.lending.CollateralOf(addr)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"address":    addr.String(),
		"deposited":  bigString(deposit),
		"borrowed":   bigString(borrowed),
		"collateral": bigString(collateral),
	})
}

func (s *Server) handleLendingGetOracle(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	s.mu.Lock()
	price, found, err := s.lending.OraclePriceOf(asset)
	s.mu.Unlock()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !found {
		writeResult(w, http.StatusNotFound, errorEnvelope{Error: apiError{
			Code:    "oracle_price_not_found",
			Message: "no oracle price recorded for asset",
		}})
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"asset":        asset,
		"price":        bigString(price.Price),
		"updatedBlock": price.UpdatedBlock,
	})
}

func (s *Server) handleLendingStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, err := s.lending.Stats()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	utilization, err := s.lending.UtilizationRate()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]any{
		"totalDeposited":     bigString(stats.TotalDeposited),
		"totalBorrowed":      bigString(stats.TotalBorrowed),
		"utilizationRateBps": bigString(utilization),
	})
}
