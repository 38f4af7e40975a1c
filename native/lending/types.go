package lending

import (
	"math/big"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

// Loan captures a single collateralized borrow position. Amount values are
// expressed as big integers so ratio math never leaves integer arithmetic.
type Loan struct {
	// ID is the monotonically increasing loan identifier.
	ID uint64
	// Borrower is the account that opened the loan and the only account
	// allowed to repay it.
	Borrower crypto.Address
	// Amount is the outstanding principal. Partial repayments fold accrued
	// interest into this field.
	Amount *big.Int
	// Collateral is the settlement-asset amount posted against the loan.
	Collateral *big.Int
	// InterestRate is the fixed per-block rate in basis points captured at
	// origination.
	InterestRate uint64
	// StartBlock records the block height at loan origination. Liquidation
	// accrues interest from this height.
	StartBlock uint64
	// LastUpdated records the height of the last principal update. Repayment
	// accrues interest from this height.
	LastUpdated uint64
}

// Clone returns a deep copy so callers cannot mutate stored records.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Amount != nil {
		clone.Amount = new(big.Int).Set(l.Amount)
	}
	if l.Collateral != nil {
		clone.Collateral = new(big.Int).Set(l.Collateral)
	}
	return &clone
}

// ProtocolStats aggregates the pool-wide counters maintained by the engine.
type ProtocolStats struct {
	// TotalDeposited is the settlement asset currently held for depositors.
	TotalDeposited *big.Int
	// TotalBorrowed is the outstanding principal across all loans.
	TotalBorrowed *big.Int
}

// Clone returns a deep copy of the stats record.
func (s *ProtocolStats) Clone() *ProtocolStats {
	if s == nil {
		return nil
	}
	clone := &ProtocolStats{}
	if s.TotalDeposited != nil {
		clone.TotalDeposited = new(big.Int).Set(s.TotalDeposited)
	}
	if s.TotalBorrowed != nil {
		clone.TotalBorrowed = new(big.Int).Set(s.TotalBorrowed)
	}
	return clone
}

// OraclePrice is the declared price-feed surface. It is populated by the
// owner-gated setter and surfaced through queries; no lending transition
// consumes it.
type OraclePrice struct {
	Price        *big.Int
	UpdatedBlock uint64
}

// Clone returns a deep copy of the oracle record.
func (o *OraclePrice) Clone() *OraclePrice {
	if o == nil {
		return nil
	}
	clone := &OraclePrice{UpdatedBlock: o.UpdatedBlock}
	if o.Price != nil {
		clone.Price = new(big.Int).Set(o.Price)
	}
	return clone
}

// RiskParameters groups the deployment-time limits governing borrow activity.
type RiskParameters struct {
	// MaxLoanAmount caps the principal of a single borrow call.
	MaxLoanAmount *big.Int
	// InterestRateBps is the fixed per-block interest rate applied to new
	// loans, in basis points.
	InterestRateBps uint64
}

// Clone returns a deep copy of the risk parameters.
func (p RiskParameters) Clone() RiskParameters {
	clone := RiskParameters{InterestRateBps: p.InterestRateBps}
	if p.MaxLoanAmount != nil {
		clone.MaxLoanAmount = new(big.Int).Set(p.MaxLoanAmount)
	}
	return clone
}
