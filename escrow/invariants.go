/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"fmt"

	"github.com/pkg/errors"
)

// CheckInvariants verifies that the stored auction state and ledger agree.
// It returns an *InvariantError for the first broken invariant.
func (e *Engine) CheckInvariants() error {
	state, err := e.store.LoadState()
	if err != nil {
		return errors.Wrap(err, "could not get the auction state")
	}
	entries, err := e.store.Bids()
	if err != nil {
		return errors.Wrap(err, "could not list bids")
	}
	return checkLedger(state, entries)
}

func checkLedger(state *State, entries []LedgerEntry) error {
	for _, entry := range entries {
		if entry.Amount == 0 {
			return &InvariantError{Invariant: "ledger", Detail: fmt.Sprintf("empty entry for %s", entry.Bidder)}
		}
	}

	leader, hasLeader := state.Leader()

	if state.Status == Closed {
		// The winning bid was paid to the owner on close
		if hasLeader {
			for _, entry := range entries {
				if entry.Bidder == leader.Bidder {
					return &InvariantError{
						Invariant: "settlement",
						Detail:    fmt.Sprintf("winner %s still holds %d in escrow", entry.Bidder, entry.Amount),
					}
				}
			}
		}
		return nil
	}

	if !hasLeader {
		if len(entries) != 0 {
			return &InvariantError{Invariant: "leader", Detail: fmt.Sprintf("%d bids but no highest bid", len(entries))}
		}
		return nil
	}

	found := false
	for _, entry := range entries {
		if entry.Bidder == leader.Bidder {
			found = true
			if entry.Amount != leader.Amount {
				return &InvariantError{
					Invariant: "leader-balance",
					Detail:    fmt.Sprintf("highest bid %d but ledger holds %d for %s", leader.Amount, entry.Amount, leader.Bidder),
				}
			}
			continue
		}
		if entry.Amount >= leader.Amount {
			return &InvariantError{
				Invariant: "strict-leader",
				Detail:    fmt.Sprintf("%s holds %d, not below highest bid %d", entry.Bidder, entry.Amount, leader.Amount),
			}
		}
	}
	if !found {
		return &InvariantError{Invariant: "leader-balance", Detail: fmt.Sprintf("no ledger entry for highest bidder %s", leader.Bidder)}
	}
	return nil
}
