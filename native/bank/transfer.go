package bank

import (
	"errors"
	"math/big"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

var (
	// ErrInvalidAmount rejects non-positive transfer amounts.
	ErrInvalidAmount = errors.New("bank: amount must be positive")
	// ErrInsufficientFunds rejects transfers exceeding the sender balance.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	errNilStore          = errors.New("bank: account store not configured")
)

// Transferer moves the settlement asset between two accounts as a single
// all-or-nothing step. Engines never commit ledger state when a required
// transfer returns an error.
type Transferer interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// AccountStore is the persistence surface the bank ledger operates on.
type AccountStore interface {
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Ledger is the account-balance implementation of Transferer used by the
// daemon. Both accounts are loaded, validated and persisted inside one call;
// the hosting runtime serializes calls, so no further coordination is needed.
type Ledger struct {
	store AccountStore
}

// NewLedger constructs a bank ledger bound to the supplied account store.
func NewLedger(store AccountStore) *Ledger {
	return &Ledger{store: store}
}

// Transfer debits the sender and credits the recipient, or fails with no
// observable effect.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	sender, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	// A self-transfer is a funded no-op; writing both legs would double-count.
	if from.Equal(to) {
		return nil
	}
	recipient, err := l.loadAccount(to)
	if err != nil {
		return err
	}

	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)

	if err := l.store.PutAccount(from, sender); err != nil {
		return err
	}
	return l.store.PutAccount(to, recipient)
}

func (l *Ledger) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := l.store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}
