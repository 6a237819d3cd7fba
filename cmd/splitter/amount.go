package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var errFractionalAmount = errors.New("amount exceeds precision of the asset")

// parseAmount converts decimal notation of the amount into integer number of
// the smallest asset units.
func parseAmount(s string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("decode amount '%s': %w", s, err)
	}

	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", s)
	}

	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s with %d decimals", errFractionalAmount, s, decimals)
	}

	return units.BigInt(), nil
}

// formatAmount renders integer number of the smallest asset units in decimal
// notation.
func formatAmount(v *big.Int, decimals int) string {
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}
