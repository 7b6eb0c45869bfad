/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is 5% of the gross funds of each bid
var DefaultCommissionRate = decimal.RequireFromString("0.05")

// ParseCommissionRate parses a decimal fraction in [0, 1].
// An empty string selects DefaultCommissionRate.
func ParseCommissionRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCommissionRate, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidCommissionRate, "parse %q: %v", raw, err)
	}
	if err := validateCommissionRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

func validateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Wrapf(ErrInvalidCommissionRate, "got %s", rate.String())
	}
	return nil
}

// SplitCommission divides gross funds into the commission forwarded to the owner
// and the net bid kept in escrow. The commission is rounded down, so
// commission + net == gross always holds.
func SplitCommission(gross Amount, rate decimal.Decimal) (commission Amount, net Amount) {
	grossDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(gross)), 0)

	commissionDecimal := grossDecimal.Mul(rate).Floor()
	if commissionDecimal.IsNegative() {
		commissionDecimal = decimal.Zero
	}
	if commissionDecimal.GreaterThan(grossDecimal) {
		commissionDecimal = grossDecimal
	}

	commission = Amount(commissionDecimal.BigInt().Uint64())
	return commission, gross - commission
}
