package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

type mapStore struct {
	accounts map[string]*types.Account
}

func newMapStore() *mapStore {
	return &mapStore{accounts: make(map[string]*types.Account)}
}

func (s *mapStore) GetAccount(addr crypto.Address) (*types.Account, error) {
	acc, ok := s.accounts[addr.String()]
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return &types.Account{Nonce: acc.Nonce, Balance: new(big.Int).Set(acc.Balance)}, nil
}

func (s *mapStore) PutAccount(addr crypto.Address, account *types.Account) error {
	s.accounts[addr.String()] = &types.Account{Nonce: account.Nonce, Balance: new(big.Int).Set(account.Balance)}
	return nil
}

func (s *mapStore) balance(addr crypto.Address) *big.Int {
	acc, ok := s.accounts[addr.String()]
	if !ok {
		return big.NewInt(0)
	}
	return acc.Balance
}

func testAddr(seed byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = seed
	return crypto.NewAddress(crypto.ConsortiumPrefix, raw)
}

func TestTransferMovesFunds(t *testing.T) {
	store := newMapStore()
	alice := testAddr(0x01)
	bob := testAddr(0x02)
	store.accounts[alice.String()] = &types.Account{Balance: big.NewInt(1000)}

	ledger := NewLedger(store)
	if err := ledger.Transfer(alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := store.balance(alice); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("sender balance = %s, want 600", got)
	}
	if got := store.balance(bob); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("recipient balance = %s, want 400", got)
	}
}

func TestTransferValidation(t *testing.T) {
	store := newMapStore()
	alice := testAddr(0x01)
	bob := testAddr(0x02)
	store.accounts[alice.String()] = &types.Account{Balance: big.NewInt(100)}
	ledger := NewLedger(store)

	if err := ledger.Transfer(alice, bob, big.NewInt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraft error = %v, want ErrInsufficientFunds", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount error = %v, want ErrInvalidAmount", err)
	}
	if got := store.balance(alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed transfers must not move funds, balance = %s", got)
	}
}

func TestSelfTransferIsNoOp(t *testing.T) {
	store := newMapStore()
	alice := testAddr(0x01)
	store.accounts[alice.String()] = &types.Account{Balance: big.NewInt(100)}
	ledger := NewLedger(store)

	if err := ledger.Transfer(alice, alice, big.NewInt(40)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if got := store.balance(alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("self transfer changed balance to %s", got)
	}
	if err := ledger.Transfer(alice, alice, big.NewInt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unfunded self transfer error = %v, want ErrInsufficientFunds", err)
	}
}
