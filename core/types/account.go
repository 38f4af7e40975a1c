package types

import "math/big"

// Account holds the settlement-asset balance for a participant or for one of
// the module custodians. The consortium ledger tracks a single fungible unit,
// so the account record stays deliberately small.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureDefaults normalises nil balance pointers to zero so callers can
// mutate the record without nil checks.
func (a *Account) EnsureDefaults() {
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
}
