/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"github.com/pkg/errors"
)

// TotalBids returns the outstanding ledger amount of address
func (e *Engine) TotalBids(address string) (Amount, error) {
	bidder, err := e.validator.ValidateAddress(address)
	if err != nil {
		return 0, err
	}

	amount, exists, err := e.store.GetBid(bidder)
	if err != nil {
		return 0, errors.Wrap(err, "could not load the bid")
	}
	if !exists {
		return 0, errors.Wrapf(ErrNotFound, "no bid from %s", bidder)
	}
	return amount, nil
}

// HighestBid returns the current leader
func (e *Engine) HighestBid() (*BidResponse, error) {
	state, err := e.store.LoadState()
	if err != nil {
		return nil, errors.Wrap(err, "could not get the auction state")
	}
	return highestBid(state)
}

// BiddingCompleted reports whether the auction has been closed
func (e *Engine) BiddingCompleted() (bool, error) {
	state, err := e.store.LoadState()
	if err != nil {
		return false, errors.Wrap(err, "could not get the auction state")
	}
	return state.Status == Closed, nil
}

// WinningBid returns the leader of a closed auction
func (e *Engine) WinningBid() (*BidResponse, error) {
	state, err := e.store.LoadState()
	if err != nil {
		return nil, errors.Wrap(err, "could not get the auction state")
	}
	if state.Status == Open {
		return nil, ErrAuctionOpen
	}
	return highestBid(state)
}

func highestBid(state *State) (*BidResponse, error) {
	leader, ok := state.Leader()
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "auction has no bid")
	}
	return &BidResponse{Address: leader.Bidder, Amount: leader.Amount}, nil
}

// Config returns the auction configuration
func (e *Engine) Config() (*Config, error) {
	config, err := e.store.LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "could not get the auction config")
	}
	return config, nil
}

// Bids lists every outstanding ledger entry
func (e *Engine) Bids() ([]LedgerEntry, error) {
	entries, err := e.store.Bids()
	if err != nil {
		return nil, errors.Wrap(err, "could not list bids")
	}
	return entries, nil
}

// EscrowTotal is the amount the host must still be holding on behalf of bidders
func (e *Engine) EscrowTotal() (Amount, error) {
	entries, err := e.Bids()
	if err != nil {
		return 0, err
	}
	var total Amount
	for _, entry := range entries {
		total, err = addAmounts(total, entry.Amount)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
