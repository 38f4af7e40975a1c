package amm

import "math/big"

const (
	// FeeDenominator is the basis for pool fee rates.
	FeeDenominator = 10_000
	// MinLiquidity is the smallest acceptable initial share mint for a new
	// pool, measured as sqrt(initial_a * initial_b).
	MinLiquidity = 1_000
	// MaxPoolsPerUser caps the ordered pool-membership list kept per account.
	MaxPoolsPerUser = 20
)

var (
	feeDenom = big.NewInt(FeeDenominator)
	// Precision is the 6-decimal fixed-point scale used for pool prices.
	Precision = big.NewInt(1_000_000)
)

// integerSqrt computes the integer square root by Babylonian iteration. The
// first guess is x/2 and the loop stops once a new guess no longer improves
// on the previous one, which fixes the rounding of minted pool shares.
func integerSqrt(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return big.NewInt(0)
	}
	z := new(big.Int).Set(x)
	y := new(big.Int).Rsh(x, 1)
	if y.Sign() == 0 {
		// x == 1
		return big.NewInt(1)
	}
	for y.Cmp(z) < 0 {
		z.Set(y)
		y.Quo(x, z)
		y.Add(y, z)
		y.Rsh(y, 1)
	}
	return z
}

// minBig returns the smaller of a and b.
func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// constantProductOut prices a swap against the fee-adjusted invariant:
// out = in*(denom-fee)*reserveOut / (reserveIn*denom + in*(denom-fee)).
func constantProductOut(amountIn, reserveIn, reserveOut *big.Int, feeRate uint64) *big.Int {
	amountInNet := new(big.Int).Mul(amountIn, big.NewInt(FeeDenominator-int64(feeRate)))
	numerator := new(big.Int).Mul(amountInNet, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDenom)
	denominator.Add(denominator, amountInNet)
	return numerator.Quo(numerator, denominator)
}

// swapFee returns amountIn * feeRate / denom, the bookkeeping fee retained in
// the reserves.
func swapFee(amountIn *big.Int, feeRate uint64) *big.Int {
	fee := new(big.Int).Mul(amountIn, new(big.Int).SetUint64(feeRate))
	return fee.Quo(fee, feeDenom)
}

// priceOf returns base*Precision/quote in 6-decimal fixed point.
func priceOf(base, quote *big.Int) *big.Int {
	if quote == nil || quote.Sign() == 0 {
		return big.NewInt(0)
	}
	price := new(big.Int).Mul(base, Precision)
	return price.Quo(price, quote)
}
