package lending

import (
	"math/big"
	"testing"
)

func TestAccruedInterest(t *testing.T) {
	cases := []struct {
		name      string
		principal int64
		rateBps   uint64
		elapsed   uint64
		want      int64
	}{
		{"zero elapsed", 1000, 500, 0, 0},
		{"zero rate", 1000, 0, 10, 0},
		{"one block", 1000, 500, 1, 50},
		{"ten blocks", 1000, 500, 10, 500},
		{"rounds down", 999, 1, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := accruedInterest(big.NewInt(tc.principal), tc.rateBps, tc.elapsed)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("interest = %s, want %d", got, tc.want)
			}
		})
	}
}

func TestCollateralRatio(t *testing.T) {
	ratio := collateralRatio(big.NewInt(1600), big.NewInt(1000))
	if ratio.Cmp(big.NewInt(160)) != 0 {
		t.Fatalf("ratio = %s, want 160", ratio)
	}
	// Truncating division: 1499/10 -> 149.
	ratio = collateralRatio(big.NewInt(14_999), big.NewInt(10_000))
	if ratio.Cmp(big.NewInt(149)) != 0 {
		t.Fatalf("ratio = %s, want 149", ratio)
	}
	if collateralRatio(big.NewInt(100), big.NewInt(0)).Sign() != 0 {
		t.Fatalf("zero debt must yield zero ratio")
	}
}

func TestMeetsMinRatio(t *testing.T) {
	if !meetsMinRatio(big.NewInt(1500), big.NewInt(1000)) {
		t.Fatalf("exactly 150 must pass")
	}
	if meetsMinRatio(big.NewInt(1499), big.NewInt(1000)) {
		t.Fatalf("149 must fail")
	}
	if !meetsMinRatio(big.NewInt(0), big.NewInt(0)) {
		t.Fatalf("zero debt is always healthy")
	}
}
