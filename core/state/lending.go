package state

import (
	"math/big"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/native/lending"
)

type storedLoan struct {
	ID           uint64
	Borrower     [20]byte
	Amount       *big.Int
	Collateral   *big.Int
	InterestRate uint64
	StartBlock   uint64
	LastUpdated  uint64
}

type storedLendingStats struct {
	TotalDeposited *big.Int
	TotalBorrowed  *big.Int
}

type storedOraclePrice struct {
	Price        *big.Int
	UpdatedBlock uint64
}

// DepositBalance returns the account's pool deposit, zero when absent.
func (m *Manager) DepositBalance(addr crypto.Address) (*big.Int, error) {
	return m.balance(addrKey(lendingDepositPrefix, addr.Bytes()))
}

// SetDepositBalance persists the account's pool deposit.
func (m *Manager) SetDepositBalance(addr crypto.Address, amount *big.Int) error {
	return m.setBalance(addrKey(lendingDepositPrefix, addr.Bytes()), amount)
}

// BorrowedBalance returns the account's aggregate borrowed principal.
func (m *Manager) BorrowedBalance(addr crypto.Address) (*big.Int, error) {
	return m.balance(addrKey(lendingBorrowPrefix, addr.Bytes()))
}

// SetBorrowedBalance persists the account's aggregate borrowed principal.
func (m *Manager) SetBorrowedBalance(addr crypto.Address, amount *big.Int) error {
	return m.setBalance(addrKey(lendingBorrowPrefix, addr.Bytes()), amount)
}

// CollateralBalance returns the account's aggregate posted collateral.
func (m *Manager) CollateralBalance(addr crypto.Address) (*big.Int, error) {
	return m.balance(addrKey(lendingCollatPrefix, addr.Bytes()))
}

// SetCollateralBalance persists the account's aggregate posted collateral.
func (m *Manager) SetCollateralBalance(addr crypto.Address, amount *big.Int) error {
	return m.setBalance(addrKey(lendingCollatPrefix, addr.Bytes()), amount)
}

// GetLoan loads the loan record for id.
func (m *Manager) GetLoan(id uint64) (*lending.Loan, bool, error) {
	var stored storedLoan
	ok, err := m.KVGet(idKey(lendingLoanPrefix, id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	borrower := append([]byte(nil), stored.Borrower[:]...)
	loan := &lending.Loan{
		ID:           stored.ID,
		Borrower:     crypto.NewAddress(crypto.ConsortiumPrefix, borrower),
		Amount:       stored.Amount,
		Collateral:   stored.Collateral,
		InterestRate: stored.InterestRate,
		StartBlock:   stored.StartBlock,
		LastUpdated:  stored.LastUpdated,
	}
	return loan, true, nil
}

// PutLoan persists the loan record.
func (m *Manager) PutLoan(loan *lending.Loan) error {
	stored := storedLoan{
		ID:           loan.ID,
		Amount:       loan.Amount,
		Collateral:   loan.Collateral,
		InterestRate: loan.InterestRate,
		StartBlock:   loan.StartBlock,
		LastUpdated:  loan.LastUpdated,
	}
	copy(stored.Borrower[:], loan.Borrower.Bytes())
	return m.KVPut(idKey(lendingLoanPrefix, loan.ID), &stored)
}

// DeleteLoan removes the loan record for id.
func (m *Manager) DeleteLoan(id uint64) error {
	return m.KVDelete(idKey(lendingLoanPrefix, id))
}

// NextLoanID returns the identifier the next loan will receive, starting at 1.
func (m *Manager) NextLoanID() (uint64, error) {
	return m.counter(lendingLoanSeqKey, 1)
}

// SetNextLoanID persists the loan identifier counter.
func (m *Manager) SetNextLoanID(id uint64) error {
	return m.KVPut(lendingLoanSeqKey, id)
}

// LendingStats loads the pool-wide lending counters, zeroed when unset.
func (m *Manager) LendingStats() (*lending.ProtocolStats, error) {
	var stored storedLendingStats
	ok, err := m.KVGet(lendingStatsKey, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &lending.ProtocolStats{
			TotalDeposited: big.NewInt(0),
			TotalBorrowed:  big.NewInt(0),
		}, nil
	}
	return &lending.ProtocolStats{
		TotalDeposited: stored.TotalDeposited,
		TotalBorrowed:  stored.TotalBorrowed,
	}, nil
}

// PutLendingStats persists the pool-wide lending counters.
func (m *Manager) PutLendingStats(stats *lending.ProtocolStats) error {
	return m.KVPut(lendingStatsKey, &storedLendingStats{
		TotalDeposited: stats.TotalDeposited,
		TotalBorrowed:  stats.TotalBorrowed,
	})
}

// GetOraclePrice loads the declared oracle observation for an asset.
func (m *Manager) GetOraclePrice(asset string) (*lending.OraclePrice, bool, error) {
	var stored storedOraclePrice
	ok, err := m.KVGet(assetKey(lendingOraclePrefix, asset), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &lending.OraclePrice{Price: stored.Price, UpdatedBlock: stored.UpdatedBlock}, true, nil
}

// PutOraclePrice persists the oracle observation for an asset.
func (m *Manager) PutOraclePrice(asset string, price *lending.OraclePrice) error {
	return m.KVPut(assetKey(lendingOraclePrefix, asset), &storedOraclePrice{
		Price:        price.Price,
		UpdatedBlock: price.UpdatedBlock,
	})
}
