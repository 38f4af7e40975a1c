package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/amm"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/bank"
	nativecommon "github.com/ochinaza289/Decentralized-Banking-Consortium/native/common"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/lending"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// HeightSource supplies the current block height injected into every
// operation. The value is read once per request and stays stable for the
// duration of the call.
type HeightSource interface {
	Height() uint64
}

// Server exposes the lending and AMM engines over HTTP. Mutating calls are
// serialized through one mutex so the engines observe the strictly
// sequential execution model they are written for.
type Server struct {
	mu      sync.Mutex
	lending *lending.Engine
	amm     *amm.Engine
	heights HeightSource
	log     *slog.Logger
}

// NewServer constructs an HTTP server over the supplied engines.
func NewServer(lendingEngine *lending.Engine, ammEngine *amm.Engine, heights HeightSource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		lending: lendingEngine,
		amm:     ammEngine,
		heights: heights,
		log:     log,
	}
}

// Router mounts all ledger routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)

	r.Route("/v1/lending", func(r chi.Router) {
		r.Post("/deposit", s.handleLendingDeposit)
		r.Post("/withdraw", s.handleLendingWithdraw)
		r.Post("/borrow", s.handleLendingBorrow)
		r.Post("/repay", s.handleLendingRepay)
		r.Post("/liquidate", s.handleLendingLiquidate)
		r.Post("/oracle", s.handleLendingSetOracle)
		r.Get("/loans/{id}", s.handleLendingGetLoan)
		r.Get("/loans/{id}/health", s.handleLendingLoanHealth)
		r.Get("/accounts/{address}", s.handleLendingGetAccount)
		r.Get("/oracle/{asset}", s.handleLendingGetOracle)
		r.Get("/stats", s.handleLendingStats)
	})

	r.Route("/v1/amm", func(r chi.Router) {
		r.Post("/pools", s.handleAMMCreatePool)
		r.Post("/pools/{id}/liquidity", s.handleAMMAddLiquidity)
		r.Delete("/pools/{id}/liquidity", s.handleAMMRemoveLiquidity)
		r.Post("/pools/{id}/swap", s.handleAMMSwap)
		r.Post("/pools/{id}/fee-rate", s.handleAMMSetFeeRate)
		r.Post("/pools/{id}/farm", s.handleAMMCreateFarm)
		r.Get("/pools/{id}", s.handleAMMGetPool)
		r.Get("/pools/{id}/quote", s.handleAMMQuote)
		r.Get("/pools/{id}/farm", s.handleAMMGetFarm)
		r.Get("/pools/{id}/shares/{address}", s.handleAMMGetShares)
		r.Get("/swaps/{id}", s.handleAMMGetSwap)
		r.Get("/accounts/{address}/pools", s.handleAMMMemberships)
		r.Get("/stats", s.handleAMMStats)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, http.StatusOK, map[string]any{
		"status": "ok",
		"height": s.currentHeight(),
	})
}

func (s *Server) currentHeight() uint64 {
	if s.heights == nil {
		return 0
	}
	return s.heights.Height()
}

// withHeight runs fn under the serialization mutex with both engines pinned
// to the current block height.
func (s *Server) withHeight(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	height := s.currentHeight()
	s.lending.SetBlockHeight(height)
	s.amm.SetBlockHeight(height)
	return fn()
}

// --- request plumbing ---

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeResult(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeResult(w, http.StatusBadRequest, errorEnvelope{Error: apiError{
		Code:    "invalid_request",
		Message: err.Error(),
	}})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		s.log.Error("ledger operation failed", slog.Any("error", err))
	}
	writeResult(w, status, errorEnvelope{Error: apiError{
		Code:    code,
		Message: err.Error(),
	}})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, lending.ErrUnauthorized), errors.Is(err, amm.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, lending.ErrLoanNotFound):
		return http.StatusNotFound, "loan_not_found"
	case errors.Is(err, amm.ErrPoolNotFound):
		return http.StatusNotFound, "pool_not_found"
	case errors.Is(err, amm.ErrSwapNotFound):
		return http.StatusNotFound, "swap_not_found"
	case errors.Is(err, lending.ErrInsufficientBalance),
		errors.Is(err, amm.ErrInsufficientBalance),
		errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, lending.ErrInvalidCollateralRatio):
		return http.StatusBadRequest, "invalid_collateral_ratio"
	case errors.Is(err, amm.ErrSlippageExceeded):
		return http.StatusBadRequest, "slippage_exceeded"
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return http.StatusBadRequest, "insufficient_liquidity"
	case errors.Is(err, amm.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, amm.ErrPoolLimitReached),
		errors.Is(err, amm.ErrPoolInactive),
		errors.Is(err, lending.ErrInvalidAmount),
		errors.Is(err, amm.ErrInvalidAmount),
		errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable, "module_paused"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func parseAddress(value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid address %q: %w", value, err)
	}
	return addr, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q", raw)
	}
	return id, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
