/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

// The types in this file are returned to clients and published in events.
// They only use plain fields so the contract metadata can describe them.

// Receipt is returned by every state-changing transaction and published as its event
type Receipt struct {
	TxID       string      `json:"txId"`
	Action     string      `json:"action"`
	Attributes []Attribute `json:"attributes"`
	Payouts    []Payout    `json:"payouts"`   // Funds the host must move out of escrow
	Timestamp  string      `json:"timestamp"` // RFC 3339 transaction timestamp
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Payout is a single transfer decided by the escrow
type Payout struct {
	ID        string `json:"id"`   // Deterministic across endorsing peers
	Kind      string `json:"kind"` // commission, winning_bid or refund
	Recipient string `json:"recipient"`
	Denom     string `json:"denom"`
	Amount    uint64 `json:"amount"`
}

type BidResponse struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

type ConfigResponse struct {
	Owner               string `json:"owner"`
	Denom               string `json:"denom"`
	CommissionRate      string `json:"commissionRate"`
	CommissionThreshold uint64 `json:"commissionThreshold"`
}

// bidRecord is the world state value of a ledger entry
type bidRecord struct {
	Bidder string `json:"bidder"`
	Amount uint64 `json:"amount"`
}
