// Package percent implements the fixed-point percentage arithmetic shared by
// the native engines. 100% is represented as 10^18 base units, so 1% is 10^16.
// All math runs on big.Int, which keeps the amount × percentage product exact
// regardless of the magnitudes involved.
package percent

import (
	"fmt"
	"math/big"

	"podfin/native/common"
)

var (
	// One is the fixed-point representation of 100%.
	One = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	// Point is the fixed-point representation of 1%.
	Point = new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil)
)

// Valid reports whether pct is a usable fraction, i.e. inside [0%, 100%).
func Valid(pct *big.Int) bool {
	return pct != nil && pct.Sign() >= 0 && pct.Cmp(One) < 0
}

// Apply returns floor(amount × pct / One).
func Apply(amount, pct *big.Int) *big.Int {
	if amount == nil || pct == nil || amount.Sign() <= 0 || pct.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, pct)
	return out.Div(out, One)
}

// SplitFee splits amount into the floored fee share and the exact remainder,
// so fee + remainder always reproduces amount.
func SplitFee(amount, feePercent *big.Int) (fee, remainder *big.Int, err error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, nil, fmt.Errorf("split fee: amount must be non-negative: %w", common.ErrInvalidArgument)
	}
	if !Valid(feePercent) {
		return nil, nil, fmt.Errorf("split fee: percentage out of range: %w", common.ErrInvalidArgument)
	}
	fee = Apply(amount, feePercent)
	remainder = new(big.Int).Sub(amount, fee)
	return fee, remainder, nil
}
