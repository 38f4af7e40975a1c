package amm

import "errors"

var (
	// ErrUnauthorized is returned when an owner-gated call comes from any
	// other account.
	ErrUnauthorized = errors.New("amm engine: unauthorized")
	// ErrInvalidAmount rejects zero or negative quantities, identical asset
	// pairs, unknown swap assets, and out-of-range fee rates.
	ErrInvalidAmount = errors.New("amm engine: invalid amount")
	// ErrInsufficientBalance rejects LP burns exceeding the held share
	// balance.
	ErrInsufficientBalance = errors.New("amm engine: insufficient balance")
	// ErrPoolNotFound is returned when the referenced pool does not exist.
	ErrPoolNotFound = errors.New("amm engine: pool not found")
	// ErrPoolInactive rejects operations against a deactivated pool.
	ErrPoolInactive = errors.New("amm engine: pool inactive")
	// ErrSwapNotFound is returned when the referenced swap record does not
	// exist.
	ErrSwapNotFound = errors.New("amm engine: swap record not found")
	// ErrSlippageExceeded rejects trades and liquidity changes that fall
	// below the caller-supplied minimum output.
	ErrSlippageExceeded = errors.New("amm engine: slippage exceeded")
	// ErrInsufficientLiquidity rejects pool creation below the minimum seed
	// liquidity.
	ErrInsufficientLiquidity = errors.New("amm engine: insufficient liquidity")
	// ErrPoolLimitReached rejects pool creation once the creator's bounded
	// membership list is full.
	ErrPoolLimitReached = errors.New("amm engine: pool membership limit reached")
	// ErrAlreadyExists rejects duplicate farming-pool creation.
	ErrAlreadyExists = errors.New("amm engine: already exists")

	errNilState    = errors.New("amm engine: state not configured")
	errNilBank     = errors.New("amm engine: transferer not configured")
	errZeroAddress = errors.New("amm engine: zero address")
)
