package lending

import (
	"math/big"
	"strconv"

	"github.com/ochinaza289/Decentralized-Banking-Consortium/core/types"
	"github.com/ochinaza289/Decentralized-Banking-Consortium/crypto"
)

const (
	EventTypeDeposited     = "lending.deposited"
	EventTypeWithdrawn     = "lending.withdrawn"
	EventTypeBorrowed      = "lending.borrowed"
	EventTypeRepaid        = "lending.repaid"
	EventTypeLiquidated    = "lending.liquidated"
	EventTypeOracleUpdated = "lending.oracle_updated"
)

// NewDepositedEvent returns the canonical payload for a pool deposit.
func NewDepositedEvent(account crypto.Address, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeDeposited, Attributes: map[string]string{
		"account": account.String(),
		"amount":  bigString(amount),
	}}
}

// NewWithdrawnEvent returns the canonical payload for a pool withdrawal.
func NewWithdrawnEvent(account crypto.Address, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeWithdrawn, Attributes: map[string]string{
		"account": account.String(),
		"amount":  bigString(amount),
	}}
}

// NewBorrowedEvent returns the canonical payload for a new loan.
func NewBorrowedEvent(loan *Loan) *types.Event {
	attrs := make(map[string]string)
	if loan != nil {
		attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
		attrs["borrower"] = loan.Borrower.String()
		attrs["amount"] = bigString(loan.Amount)
		attrs["collateral"] = bigString(loan.Collateral)
		attrs["startBlock"] = strconv.FormatUint(loan.StartBlock, 10)
	}
	return &types.Event{Type: EventTypeBorrowed, Attributes: attrs}
}

// NewRepaidEvent returns the canonical payload for a full or partial
// repayment.
func NewRepaidEvent(loanID uint64, borrower crypto.Address, amount *big.Int, closed bool) *types.Event {
	return &types.Event{Type: EventTypeRepaid, Attributes: map[string]string{
		"loanId":   strconv.FormatUint(loanID, 10),
		"borrower": borrower.String(),
		"amount":   bigString(amount),
		"closed":   strconv.FormatBool(closed),
	}}
}

// NewLiquidatedEvent returns the canonical payload for a liquidation.
func NewLiquidatedEvent(loanID uint64, liquidator, borrower crypto.Address, collateral *big.Int) *types.Event {
	return &types.Event{Type: EventTypeLiquidated, Attributes: map[string]string{
		"loanId":     strconv.FormatUint(loanID, 10),
		"liquidator": liquidator.String(),
		"borrower":   borrower.String(),
		"collateral": bigString(collateral),
	}}
}

// NewOracleUpdatedEvent returns the canonical payload for a price update.
func NewOracleUpdatedEvent(asset string, price *big.Int, height uint64) *types.Event {
	return &types.Event{Type: EventTypeOracleUpdated, Attributes: map[string]string{
		"asset":  asset,
		"price":  bigString(price),
		"height": strconv.FormatUint(height, 10),
	}}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
