/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommission(t *testing.T) {
	tests := []struct {
		name       string
		gross      Amount
		rate       string
		commission Amount
		net        Amount
	}{
		{"five percent", 14_000_000, "0.05", 700_000, 13_300_000},
		{"rounds commission down", 1_000_019, "0.05", 50_000, 950_019},
		{"tiny bid pays nothing", 19, "0.05", 0, 19},
		{"zero rate", 4_000_000, "0", 0, 4_000_000},
		{"full rate", 4_000_000, "1", 4_000_000, 0},
		{"max amount", ^Amount(0), "0.5", ^Amount(0) / 2, ^Amount(0) - ^Amount(0)/2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commission, net := SplitCommission(tt.gross, decimal.RequireFromString(tt.rate))
			assert.Equal(t, tt.commission, commission)
			assert.Equal(t, tt.net, net)
			assert.Equal(t, tt.gross, commission+net)
		})
	}
}

func TestParseCommissionRate(t *testing.T) {
	rate, err := ParseCommissionRate("")
	require.NoError(t, err)
	assert.True(t, rate.Equal(DefaultCommissionRate))

	rate, err = ParseCommissionRate(" 0.025 ")
	require.NoError(t, err)
	assert.Equal(t, "0.025", rate.String())

	for _, raw := range []string{"-0.01", "1.0001", "abc"} {
		_, err := ParseCommissionRate(raw)
		assert.ErrorIs(t, err, ErrInvalidCommissionRate)
	}
}
