// Package normalize converts raw fixed-point integer token deltas into
// decimal quantities.
package normalize

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount converts a raw signed integer token delta into a decimal quantity
// given the token's decimal precision: rawDelta / 10^decimals.
//
// The conversion scales the untruncated integer directly; the raw
// magnitude never passes through a float, so quantities far beyond
// float64 precision (18-decimal tokens) survive intact.
func Amount(rawDelta *big.Int, decimals int) decimal.Decimal {
	if rawDelta == nil || rawDelta.Sign() == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(rawDelta, -int32(decimals))
}

// AbsAmount converts a raw delta like Amount and drops the sign.
// Aggregate volumes and trade amounts are always non-negative.
func AbsAmount(rawDelta *big.Int, decimals int) decimal.Decimal {
	return Amount(rawDelta, decimals).Abs()
}

// Price returns quote/base, or zero when base is zero.
func Price(base, quote decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return quote.Div(base)
}
