package amm

import (
	"math/big"
	"testing"
)

func TestIntegerSqrt(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{15, 3},
		{16, 4},
		{999_999, 999},
		{1_000_000, 1000},
		{1_000_000_000_000, 1_000_000},
	}
	for _, tc := range cases {
		got := integerSqrt(big.NewInt(tc.in))
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("integerSqrt(%d) = %s, want %d", tc.in, got, tc.want)
		}
	}
}

func TestIntegerSqrtIsFloor(t *testing.T) {
	// The returned root squared can never exceed the input.
	for x := int64(0); x < 5000; x++ {
		root := integerSqrt(big.NewInt(x))
		square := new(big.Int).Mul(root, root)
		if square.Cmp(big.NewInt(x)) > 0 {
			t.Fatalf("integerSqrt(%d) = %s overshoots", x, root)
		}
		next := new(big.Int).Add(root, big.NewInt(1))
		next.Mul(next, next)
		if next.Cmp(big.NewInt(x)) <= 0 {
			t.Fatalf("integerSqrt(%d) = %s undershoots", x, root)
		}
	}
}

func TestConstantProductOut(t *testing.T) {
	// The worked example: 1000 in against 1,000,000/1,000,000 reserves at a
	// 30 bps fee nets 996 out.
	out := constantProductOut(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(1_000_000), 30)
	if out.Cmp(big.NewInt(996)) != 0 {
		t.Fatalf("amount out = %s, want 996", out)
	}
}

func TestConstantProductNeverDecreases(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)
	before := new(big.Int).Mul(reserveIn, reserveOut)

	for _, in := range []int64{1, 999, 50_000, 1_000_000} {
		amountIn := big.NewInt(in)
		out := constantProductOut(amountIn, reserveIn, reserveOut, 30)
		newIn := new(big.Int).Add(reserveIn, amountIn)
		newOut := new(big.Int).Sub(reserveOut, out)
		after := new(big.Int).Mul(newIn, newOut)
		if after.Cmp(before) < 0 {
			t.Fatalf("product decreased for in=%d: %s -> %s", in, before, after)
		}
	}
}

func TestSwapFee(t *testing.T) {
	fee := swapFee(big.NewInt(1000), 30)
	if fee.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("fee = %s, want 3", fee)
	}
	if fee := swapFee(big.NewInt(1000), 0); fee.Sign() != 0 {
		t.Fatalf("zero-rate fee = %s, want 0", fee)
	}
}

func TestPriceOf(t *testing.T) {
	// Equal reserves price at exactly one unit in fixed-point terms.
	price := priceOf(big.NewInt(1_000_000), big.NewInt(1_000_000))
	if price.Cmp(Precision) != 0 {
		t.Fatalf("price = %s, want %s", price, Precision)
	}
	price = priceOf(big.NewInt(2_000_000), big.NewInt(1_000_000))
	double := new(big.Int).Mul(Precision, big.NewInt(2))
	if price.Cmp(double) != 0 {
		t.Fatalf("price = %s, want %s", price, double)
	}
}
