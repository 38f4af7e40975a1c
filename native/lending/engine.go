package lending

import (
	"math/big"
	"strings"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/events"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/bank"
	nativecommon "github.com/ochinaza289/Decentralized-Banking-Consortium/native/common"
)

const moduleName = "lending"

type engineState interface {
	DepositBalance(addr crypto.Address) (*big.Int, error)
	SetDepositBalance(addr crypto.Address, amount *big.Int) error
	BorrowedBalance(addr crypto.Address) (*big.Int, error)
	SetBorrowedBalance(addr crypto.Address, amount *big.Int) error
	CollateralBalance(addr crypto.Address) (*big.Int, error)
	SetCollateralBalance(addr crypto.Address, amount *big.Int) error
	GetLoan(id uint64) (*Loan, bool, error)
	PutLoan(loan *Loan) error
	DeleteLoan(id uint64) error
	NextLoanID() (uint64, error)
	SetNextLoanID(id uint64) error
	LendingStats() (*ProtocolStats, error)
	PutLendingStats(stats *ProtocolStats) error
	GetOraclePrice(asset string) (*OraclePrice, bool, error)
	PutOraclePrice(asset string, price *OraclePrice) error
}

type lendingEvent struct {
	evt *types.Event
}

func (e lendingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e lendingEvent) Event() *types.Event { return e.evt }

// Engine orchestrates the state transitions for the collateralized lending
// module. Every operation validates its preconditions against current state,
// executes the required settlement transfers, and only then commits the new
// ledger state, so a failed transfer leaves no partial write.
type Engine struct {
	state         engineState
	transferer    bank.Transferer
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	moduleAddress crypto.Address
	owner         crypto.Address
	params        RiskParameters
	blockHeight   uint64
}

// NewEngine constructs a lending engine configured with the pool custodian
// address and risk parameters.
func NewEngine(moduleAddr crypto.Address, params RiskParameters) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		params:        params.Clone(),
		emitter:       events.NoopEmitter{},
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

// SetBlockHeight records the external clock value used for interest accrual
// and record timestamps. The value is stable for the duration of a call.
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
	e.emitter.Emit(lendingEvent{evt: event})
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

// Deposit moves amount from the account into the shared pool and credits the
// account's deposit balance.
func (e *Engine) Deposit(account crypto.Address, amount *big.Int) error {
	if err := e.readyForMutation(); err != nil {
		return err
	}
	if account.IsZero() {
		return errZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.state.DepositBalance(account)
	if err != nil {
		return err
	}
	stats, err := e.stats()
	if err != nil {
		return err
	}

	if err := e.transferer.Transfer(account, e.moduleAddress, amount); err != nil {
		return err
	}

	if err := e.state.SetDepositBalance(account, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	stats.TotalDeposited = new(big.Int).Add(stats.TotalDeposited, amount)
	if err := e.state.PutLendingStats(stats); err != nil {
		return err
	}

	e.emit(NewDepositedEvent(account, amount))
	return nil
}

// Withdraw releases amount from the account's deposit balance back to the
// account.
func (e *Engine) Withdraw(account crypto.Address, amount *big.Int) error {
	if err := e.readyForMutation(); err != nil {
		return err
	}
	if account.IsZero() {
		return errZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.state.DepositBalance(account)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	stats, err := e.stats()
	if err != nil {
		return err
	}
	if stats.TotalDeposited.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	if err := e.transferer.Transfer(e.moduleAddress, account, amount); err != nil {
		return err
	}

	if err := e.state.SetDepositBalance(account, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	stats.TotalDeposited = new(big.Int).Sub(stats.TotalDeposited, amount)
	if err := e.state.PutLendingStats(stats); err != nil {
		return err
	}

	e.emit(NewWithdrawnEvent(account, amount))
	return nil
}

// Borrow opens a new loan for the caller. The collateral ratio check runs
// against the borrower's prospective aggregate position, so collateral
// already posted for earlier loans subsidises the new loan and vice versa.
func (e *Engine) Borrow(borrower crypto.Address, amount, collateralAmount *big.Int) (*Loan, error) {
	if err := e.readyForMutation(); err != nil {
		return nil, err
	}
	if borrower.IsZero() {
		return nil, errZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.params.MaxLoanAmount != nil && amount.Cmp(e.params.MaxLoanAmount) > 0 {
		return nil, ErrInvalidAmount
	}

	borrowed, err := e.state.BorrowedBalance(borrower)
	if err != nil {
		return nil, err
	}
	collateral, err := e.state.CollateralBalance(borrower)
	if err != nil {
		return nil, err
	}

	newBorrowed := new(big.Int).Add(borrowed, amount)
	newCollateral := new(big.Int).Add(collateral, collateralAmount)
	if !meetsMinRatio(newCollateral, newBorrowed) {
		return nil, ErrInvalidCollateralRatio
	}

	loanID, err := e.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	stats, err := e.stats()
	if err != nil {
		return nil, err
	}

	// Collateral in, principal out. Both transfers must succeed before any
	// ledger state is written.
	if err := e.transferer.Transfer(borrower, e.moduleAddress, collateralAmount); err != nil {
		return nil, err
	}
	if err := e.transferer.Transfer(e.moduleAddress, borrower, amount); err != nil {
		return nil, err
	}

	loan := &Loan{
		ID:           loanID,
		Borrower:     borrower,
		Amount:       new(big.Int).Set(amount),
		Collateral:   new(big.Int).Set(collateralAmount),
		InterestRate: e.params.InterestRateBps,
		StartBlock:   e.blockHeight,
		LastUpdated:  e.blockHeight,
	}

	if err := e.state.SetBorrowedBalance(borrower, newBorrowed); err != nil {
		return nil, err
	}
	if err := e.state.SetCollateralBalance(borrower, newCollateral); err != nil {
		return nil, err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.SetNextLoanID(loanID + 1); err != nil {
		return nil, err
	}
	stats.TotalBorrowed = new(big.Int).Add(stats.TotalBorrowed, amount)
	if err := e.state.PutLendingStats(stats); err != nil {
		return nil, err
	}

	e.emit(NewBorrowedEvent(loan))
	return loan.Clone(), nil
}

// Repay pays amount against the loan. Interest accrues from the loan's last
// principal update. Paying the full owed amount closes the loan and reduces
// the borrower's aggregate borrowed balance by the stored principal; a
// partial payment only rewrites the principal inside the loan record.
func (e *Engine) Repay(caller crypto.Address, loanID uint64, amount *big.Int) error {
	if err := e.readyForMutation(); err != nil {
		return err
	}
	loan, ok, err := e.state.GetLoan(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}
	if !caller.Equal(loan.Borrower) {
		return ErrUnauthorized
	}

	var elapsed uint64
	if e.blockHeight > loan.LastUpdated {
		elapsed = e.blockHeight - loan.LastUpdated
	}
	interest := accruedInterest(loan.Amount, loan.InterestRate, elapsed)
	totalOwed := new(big.Int).Add(loan.Amount, interest)

	if amount == nil || amount.Sign() <= 0 || amount.Cmp(totalOwed) > 0 {
		return ErrInvalidAmount
	}

	closed := amount.Cmp(totalOwed) >= 0
	var (
		borrowed *big.Int
		stats    *ProtocolStats
	)
	if closed {
		borrowed, err = e.state.BorrowedBalance(loan.Borrower)
		if err != nil {
			return err
		}
		if borrowed.Cmp(loan.Amount) < 0 {
			return ErrInsufficientBalance
		}
		stats, err = e.stats()
		if err != nil {
			return err
		}
		if stats.TotalBorrowed.Cmp(loan.Amount) < 0 {
			return ErrInsufficientBalance
		}
	}

	if err := e.transferer.Transfer(caller, e.moduleAddress, amount); err != nil {
		return err
	}

	if closed {
		principal := new(big.Int).Set(loan.Amount)

		if err := e.state.DeleteLoan(loanID); err != nil {
			return err
		}
		if err := e.state.SetBorrowedBalance(loan.Borrower, new(big.Int).Sub(borrowed, principal)); err != nil {
			return err
		}
		stats.TotalBorrowed = new(big.Int).Sub(stats.TotalBorrowed, principal)
		if err := e.state.PutLendingStats(stats); err != nil {
			return err
		}
	} else {
		loan.Amount = new(big.Int).Sub(totalOwed, amount)
		loan.LastUpdated = e.blockHeight
		if err := e.state.PutLoan(loan); err != nil {
			return err
		}
	}

	e.emit(NewRepaidEvent(loanID, loan.Borrower, amount, closed))
	return nil
}

// Liquidate closes an under-collateralized loan. Interest accrues from loan
// origination, not the last update. Any caller may liquidate; the full posted
// collateral is paid out as the liquidation incentive.
func (e *Engine) Liquidate(caller crypto.Address, loanID uint64) error {
	if err := e.readyForMutation(); err != nil {
		return err
	}
	if caller.IsZero() {
		return errZeroAddress
	}
	loan, ok, err := e.state.GetLoan(loanID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoanNotFound
	}

	var elapsed uint64
	if e.blockHeight > loan.StartBlock {
		elapsed = e.blockHeight - loan.StartBlock
	}
	interest := accruedInterest(loan.Amount, loan.InterestRate, elapsed)
	totalOwed := new(big.Int).Add(loan.Amount, interest)
	if meetsMinRatio(loan.Collateral, totalOwed) {
		return ErrInvalidCollateralRatio
	}

	borrowed, err := e.state.BorrowedBalance(loan.Borrower)
	if err != nil {
		return err
	}
	collateral, err := e.state.CollateralBalance(loan.Borrower)
	if err != nil {
		return err
	}
	if borrowed.Cmp(loan.Amount) < 0 || collateral.Cmp(loan.Collateral) < 0 {
		return ErrInsufficientBalance
	}
	stats, err := e.stats()
	if err != nil {
		return err
	}
	if stats.TotalBorrowed.Cmp(loan.Amount) < 0 {
		return ErrInsufficientBalance
	}

	if err := e.transferer.Transfer(e.moduleAddress, caller, loan.Collateral); err != nil {
		return err
	}

	if err := e.state.DeleteLoan(loanID); err != nil {
		return err
	}
	if err := e.state.SetBorrowedBalance(loan.Borrower, new(big.Int).Sub(borrowed, loan.Amount)); err != nil {
		return err
	}
	if err := e.state.SetCollateralBalance(loan.Borrower, new(big.Int).Sub(collateral, loan.Collateral)); err != nil {
		return err
	}
	stats.TotalBorrowed = new(big.Int).Sub(stats.TotalBorrowed, loan.Amount)
	if err := e.state.PutLendingStats(stats); err != nil {
		return err
	}

	e.emit(NewLiquidatedEvent(loanID, caller, loan.Borrower, loan.Collateral))
	return nil
}

// SetOraclePrice records a price observation for the given asset. Only the
// configured owner may call this; no lending transition reads the stored
// value.
func (e *Engine) SetOraclePrice(caller crypto.Address, asset string, price *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	asset = strings.TrimSpace(asset)
	if asset == "" || price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	record := &OraclePrice{Price: new(big.Int).Set(price), UpdatedBlock: e.blockHeight}
	if err := e.state.PutOraclePrice(asset, record); err != nil {
		return err
	}
	e.emit(NewOracleUpdatedEvent(asset, price, e.blockHeight))
	return nil
}

// IsHealthy reports whether the loan's collateral ratio, with interest
// accrued from origination, still meets the minimum. Absent loans report
// false.
func (e *Engine) IsHealthy(loanID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	loan, ok, err := e.state.GetLoan(loanID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	var elapsed uint64
	if e.blockHeight > loan.StartBlock {
		elapsed = e.blockHeight - loan.StartBlock
	}
	interest := accruedInterest(loan.Amount, loan.InterestRate, elapsed)
	totalOwed := new(big.Int).Add(loan.Amount, interest)
	return meetsMinRatio(loan.Collateral, totalOwed), nil
}

// GetLoan returns a copy of the stored loan record.
func (e *Engine) GetLoan(loanID uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, ok, err := e.state.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	return loan.Clone(), nil
}

// DepositOf returns the account's deposit balance, zero when absent.
func (e *Engine) DepositOf(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.DepositBalance(addr)
}

// BorrowedOf returns the account's aggregate borrowed balance.
func (e *Engine) BorrowedOf(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.BorrowedBalance(addr)
}

// CollateralOf returns the account's aggregate collateral balance.
func (e *Engine) CollateralOf(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.CollateralBalance(addr)
}

// OraclePriceOf returns the stored oracle observation for the asset.
func (e *Engine) OraclePriceOf(asset string) (*OraclePrice, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	record, ok, err := e.state.GetOraclePrice(strings.TrimSpace(asset))
	if err != nil || !ok {
		return nil, ok, err
	}
	return record.Clone(), true, nil
}

// Stats returns a copy of the protocol-wide counters.
func (e *Engine) Stats() (*ProtocolStats, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stats, err := e.stats()
	if err != nil {
		return nil, err
	}
	return stats.Clone(), nil
}

// UtilizationRate returns total borrowed as a percentage of total deposits,
// zero when nothing is deposited.
func (e *Engine) UtilizationRate() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stats, err := e.stats()
	if err != nil {
		return nil, err
	}
	if stats.TotalDeposited.Sign() == 0 {
		return big.NewInt(0), nil
	}
	rate := new(big.Int).Mul(stats.TotalBorrowed, hundred)
	return rate.Quo(rate, stats.TotalDeposited), nil
}

func (e *Engine) stats() (*ProtocolStats, error) {
	stats, err := e.state.LendingStats()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &ProtocolStats{}
	}
	if stats.TotalDeposited == nil {
		stats.TotalDeposited = big.NewInt(0)
	}
	if stats.TotalBorrowed == nil {
		stats.TotalBorrowed = big.NewInt(0)
	}
	return stats, nil
}
