package lending

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	hundred     = big.NewInt(100)
)

// MinCollateralRatio is the percentage threshold a borrower's aggregate
// position must satisfy: collateral*100/borrowed must be at least this value.
const MinCollateralRatio = 150

// accruedInterest computes simple per-block interest on the outstanding
// principal: principal * rateBps * elapsed / 10000.
func accruedInterest(principal *big.Int, rateBps uint64, elapsed uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || rateBps == 0 || elapsed == 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, new(big.Int).SetUint64(elapsed))
	return interest.Quo(interest, basisPoints)
}

// collateralRatio returns collateral*100/debt, the percentage used by the
// borrow and liquidation guards. A zero debt yields a zero ratio; callers
// guard against that case before dividing.
func collateralRatio(collateral, debt *big.Int) *big.Int {
	if collateral == nil || debt == nil || debt.Sign() == 0 {
		return big.NewInt(0)
	}
	ratio := new(big.Int).Mul(collateral, hundred)
	return ratio.Quo(ratio, debt)
}

// meetsMinRatio reports whether collateral*100/debt >= MinCollateralRatio.
func meetsMinRatio(collateral, debt *big.Int) bool {
	if debt == nil || debt.Sign() == 0 {
		return true
	}
	return collateralRatio(collateral, debt).Cmp(big.NewInt(MinCollateralRatio)) >= 0
}
