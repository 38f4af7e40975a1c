package lending

import "errors"

var (
	// ErrUnauthorized is returned when the caller is neither the loan's
	// borrower nor, for owner-gated calls, the configured owner.
	ErrUnauthorized = errors.New("lending engine: unauthorized")
	// ErrInvalidAmount rejects zero, negative or over-maximum quantities.
	ErrInvalidAmount = errors.New("lending engine: invalid amount")
	// ErrInsufficientBalance rejects withdrawals or reductions exceeding the
	// held balance.
	ErrInsufficientBalance = errors.New("lending engine: insufficient balance")
	// ErrLoanNotFound is returned when the referenced loan does not exist.
	ErrLoanNotFound = errors.New("lending engine: loan not found")
	// ErrInvalidCollateralRatio rejects borrows below the minimum collateral
	// ratio and liquidations of healthy loans.
	ErrInvalidCollateralRatio = errors.New("lending engine: invalid collateral ratio")

	errNilState    = errors.New("lending engine: state not configured")
	errNilBank     = errors.New("lending engine: transferer not configured")
	errZeroAddress = errors.New("lending engine: zero address")
)
