/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrBiddingClosed      = errors.New("bidding closed")
	ErrBiddingActive      = errors.New("bidding is active")
	ErrInvalidFunds       = errors.New("invalid funds")
	ErrInvalidRetract     = errors.New("invalid retract")
	ErrNotFound           = errors.New("not found")
	ErrAuctionOpen        = errors.New("auction is still open")
	ErrNotInitialized     = errors.New("auction is not initialized")
	ErrAlreadyInitialized = errors.New("auction is already initialized")
	ErrInvalidDenom       = errors.New("denom cannot be empty")
	ErrAmountOverflow     = errors.New("amount overflows")

	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 1")
)

// UnauthorizedError is returned when someone other than the owner closes the auction
type UnauthorizedError struct {
	Owner Identity
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized"
}

// UnauthorizedBidError is returned when the owner bids on their own auction
type UnauthorizedBidError struct {
	Owner Identity
}

func (e *UnauthorizedBidError) Error() string {
	return "unauthorized bid"
}

// InvalidCommissionError is returned when the gross funds are below the commission threshold
type InvalidCommissionError struct {
	Funds      Amount
	Commission Amount
}

func (e *InvalidCommissionError) Error() string {
	return fmt.Sprintf("invalid commission: funds %d below threshold %d", e.Funds, e.Commission)
}

// InvalidBidError is returned when a bidder's cumulative net bid does not exceed the leader
type InvalidBidError struct {
	Existing Amount // bidder's ledger amount before this bid
	Funds    Amount // gross funds attached
	NewBid   Amount // net funds after commission
	MaxBid   Amount // current highest bid
}

func (e *InvalidBidError) Error() string {
	return fmt.Sprintf("invalid bid: existing %d + net %d (funds %d) does not exceed highest bid %d",
		e.Existing, e.NewBid, e.Funds, e.MaxBid)
}

// InvariantError reports ledger state that breaks one of the escrow invariants
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

func addAmounts(a, b Amount) (Amount, error) {
	sum := a + b
	if sum < a {
		return 0, errors.Wrapf(ErrAmountOverflow, "%d + %d", a, b)
	}
	return sum, nil
}
