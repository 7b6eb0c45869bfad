/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"github.com/shopspring/decimal"
)

// Identity is an account identity that the host has already validated
type Identity string

// Amount counts base units of the auction denomination
type Amount uint64

// enum possible status: open, closed
type Status int

const (
	Open   Status = iota // Bidders can send funds
	Closed               // Winning bid paid out, losers may retract
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Coin is a single amount of one denomination attached to a call
type Coin struct {
	Denom  string `json:"denom"`
	Amount Amount `json:"amount,string"`
}

// Config is written once by Initialize and never changes afterwards
type Config struct {
	Owner Identity `json:"owner"`
	Denom string   `json:"denom"`
	// CommissionRate is the fraction of the gross funds of every accepted bid forwarded to the owner
	CommissionRate decimal.Decimal `json:"commissionRate"`
	// CommissionThreshold is the minimum gross funds per bid (0 disables the check)
	CommissionThreshold Amount `json:"commissionThreshold"`
}

// Leader is the current highest bidder and their cumulative net bid
type Leader struct {
	Bidder Identity `json:"bidder"`
	Amount Amount   `json:"amount"`
}

// State is the mutable auction record
type State struct {
	Status     Status  `json:"status"`
	HighestBid *Leader `json:"highestBid"` // nil until the first accepted bid
}

// Leader returns the current leader, if there is one
func (s *State) Leader() (Leader, bool) {
	if s == nil || s.HighestBid == nil {
		return Leader{}, false
	}
	return *s.HighestBid, true
}

// LedgerEntry is one bidder's outstanding net balance held in escrow
type LedgerEntry struct {
	Bidder Identity `json:"bidder"`
	Amount Amount   `json:"amount"`
}

type TransferKind string

const (
	TransferCommission TransferKind = "commission"
	TransferWinningBid TransferKind = "winning_bid"
	TransferRefund     TransferKind = "refund"
)

// Transfer is an instruction for the host to send funds out of escrow.
// The engine never moves value itself.
type Transfer struct {
	Kind      TransferKind `json:"kind"`
	Recipient Identity     `json:"recipient"`
	Coin      Coin         `json:"coin"`
}

// Attribute is a key/value pair describing what an operation did
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of a state-changing operation
type Response struct {
	Action     string      `json:"action"`
	Attributes []Attribute `json:"attributes"`
	Transfers  []Transfer  `json:"transfers"`
}

func newResponse(action string) *Response {
	return &Response{
		Action:     action,
		Attributes: []Attribute{{Key: "action", Value: action}},
		Transfers:  []Transfer{},
	}
}

func (r *Response) addAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) addTransfer(t Transfer) *Response {
	r.Transfers = append(r.Transfers, t)
	return r
}

// Attribute returns the value of the first attribute with the given key
func (r *Response) Attribute(key string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// BidResponse is returned by the highest and winning bid queries
type BidResponse struct {
	Address Identity `json:"address"`
	Amount  Amount   `json:"amount"`
}
