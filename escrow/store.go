/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"sort"
)

// Store persists the three escrow records. Load methods return ErrNotInitialized
// when the record has never been saved.
//
// Implementations backed by a transactional host (such as a Fabric world state)
// may not expose a write to reads made later in the same call, so the engine
// never reads a key after writing it.
type Store interface {
	LoadConfig() (*Config, error)
	SaveConfig(config *Config) error
	LoadState() (*State, error)
	SaveState(state *State) error

	// GetBid returns the bidder's ledger amount and whether an entry exists
	GetBid(bidder Identity) (Amount, bool, error)
	PutBid(bidder Identity, amount Amount) error
	DeleteBid(bidder Identity) error
	// Bids returns every ledger entry sorted by bidder
	Bids() ([]LedgerEntry, error)
}

// MemStore is an in-memory Store used by tests and local tooling
type MemStore struct {
	config *Config
	state  *State
	bids   map[Identity]Amount
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{bids: make(map[Identity]Amount)}
}

func (m *MemStore) LoadConfig() (*Config, error) {
	if m.config == nil {
		return nil, ErrNotInitialized
	}
	config := *m.config
	return &config, nil
}

func (m *MemStore) SaveConfig(config *Config) error {
	c := *config
	m.config = &c
	return nil
}

func (m *MemStore) LoadState() (*State, error) {
	if m.state == nil {
		return nil, ErrNotInitialized
	}
	state := State{Status: m.state.Status}
	if leader, ok := m.state.Leader(); ok {
		state.HighestBid = &leader
	}
	return &state, nil
}

func (m *MemStore) SaveState(state *State) error {
	s := State{Status: state.Status}
	if leader, ok := state.Leader(); ok {
		s.HighestBid = &leader
	}
	m.state = &s
	return nil
}

func (m *MemStore) GetBid(bidder Identity) (Amount, bool, error) {
	amount, ok := m.bids[bidder]
	return amount, ok, nil
}

func (m *MemStore) PutBid(bidder Identity, amount Amount) error {
	m.bids[bidder] = amount
	return nil
}

func (m *MemStore) DeleteBid(bidder Identity) error {
	delete(m.bids, bidder)
	return nil
}

func (m *MemStore) Bids() ([]LedgerEntry, error) {
	entries := make([]LedgerEntry, 0, len(m.bids))
	for bidder, amount := range m.bids {
		entries = append(entries, LedgerEntry{Bidder: bidder, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Bidder < entries[j].Bidder
	})
	return entries, nil
}
