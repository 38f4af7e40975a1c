package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/storage"
)

var errNilDatabase = errors.New("state: database not configured")

// Manager persists ledger records to the key-value backend using RLP as the
// canonical encoding. It implements the state surfaces consumed by the bank
// ledger, the lending engine and the AMM engine.
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVGet decodes the record stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilDatabase
	}
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes value with RLP and writes it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

// KVDelete removes the record stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return errNilDatabase
	}
	return m.db.Delete(key)
}

// --- chain clock ---

// BlockHeight returns the persisted block-height counter, zero when unset.
func (m *Manager) BlockHeight() (uint64, error) {
	var height uint64
	if _, err := m.KVGet(chainHeightKey, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SetBlockHeight persists the block-height counter.
func (m *Manager) SetBlockHeight(height uint64) error {
	return m.KVPut(chainHeightKey, height)
}

// --- genesis ---

// GenesisAlloc seeds one settlement-asset account on first start.
type GenesisAlloc struct {
	Address crypto.Address
	Balance *big.Int
}

// ApplyGenesis credits the allocation list to the ledger exactly once. The
// boolean reports whether this call performed the seeding; a ledger that was
// seeded before is left untouched.
func (m *Manager) ApplyGenesis(allocs []GenesisAlloc) (bool, error) {
	applied, err := m.KVGet(chainGenesisKey, nil)
	if err != nil {
		return false, err
	}
	if applied {
		return false, nil
	}
	for _, alloc := range allocs {
		if alloc.Balance == nil || alloc.Balance.Sign() <= 0 {
			return false, fmt.Errorf("state: genesis balance for %s must be positive", alloc.Address)
		}
		account, err := m.GetAccount(alloc.Address)
		if err != nil {
			return false, err
		}
		account.Balance = new(big.Int).Add(account.Balance, alloc.Balance)
		if err := m.PutAccount(alloc.Address, account); err != nil {
			return false, err
		}
	}
	if err := m.KVPut(chainGenesisKey, true); err != nil {
		return false, err
	}
	return true, nil
}

// --- accounts (bank.AccountStore) ---

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the settlement-asset account for addr. Unknown addresses
// yield a fresh zero-balance record rather than an error.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.KVGet(addrKey(accountPrefix, addr.Bytes()), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	acc := &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}
	acc.EnsureDefaults()
	return acc, nil
}

// PutAccount persists the account record for addr.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	account.EnsureDefaults()
	return m.KVPut(addrKey(accountPrefix, addr.Bytes()), &storedAccount{
		Nonce:   account.Nonce,
		Balance: account.Balance,
	})
}

// --- shared balance helpers ---

func (m *Manager) balance(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) setBalance(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: balance must be non-negative")
	}
	return m.KVPut(key, amount)
}

func (m *Manager) counter(key []byte, first uint64) (uint64, error) {
	var value uint64
	ok, err := m.KVGet(key, &value)
	if err != nil {
		return 0, err
	}
	if !ok {
		return first, nil
	}
	return value, nil
}
