/*
SPDX-License-Identifier: Apache-2.0
*/

package escrow

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atom = "atom"

const (
	owner   Identity = "owner"
	sender  Identity = "sender"
	sender2 Identity = "sender2"
)

func atoms(amount Amount) []Coin {
	return []Coin{{Denom: atom, Amount: amount}}
}

// newTestEngine opens an auction owned by owner with a 1_000_000 atom threshold
func newTestEngine(t *testing.T, rate string) (*Engine, *MemStore) {
	t.Helper()

	store := NewMemStore()
	engine := New(store, NonEmptyAddress)
	_, err := engine.Initialize(owner, InitializeMsg{
		Denom:               atom,
		CommissionRate:      rate,
		CommissionThreshold: 1_000_000,
	})
	require.NoError(t, err)
	return engine, store
}

func TestInitialize_OwnerDefaultsToSender(t *testing.T) {
	store := NewMemStore()
	engine := New(store, NonEmptyAddress)

	resp, err := engine.Initialize(owner, InitializeMsg{Denom: atom, CommissionThreshold: 1_000_000})
	require.NoError(t, err)
	assert.Equal(t, "instantiate", resp.Action)
	assert.Equal(t, 0, len(resp.Transfers))

	config, err := store.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, owner, config.Owner)
	assert.Equal(t, atom, config.Denom)
	assert.Equal(t, Amount(1_000_000), config.CommissionThreshold)
	assert.Equal(t, "0.05", config.CommissionRate.String())

	state, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, Open, state.Status)
	assert.Nil(t, state.HighestBid)
}

func TestInitialize_ExplicitOwner(t *testing.T) {
	store := NewMemStore()
	engine := New(store, NonEmptyAddress)

	_, err := engine.Initialize(sender, InitializeMsg{Owner: string(owner), Denom: atom, CommissionRate: "0.1"})
	require.NoError(t, err)

	config, err := store.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, owner, config.Owner)
	assert.Equal(t, "0.1", config.CommissionRate.String())
	assert.Equal(t, Amount(0), config.CommissionThreshold)
}

func TestInitialize_OwnerValidationErrorPropagates(t *testing.T) {
	errBadAddress := errors.New("bad address")
	engine := New(NewMemStore(), AddressValidatorFunc(func(string) (Identity, error) {
		return "", errBadAddress
	}))

	_, err := engine.Initialize(sender, InitializeMsg{Owner: "not-an-address", Denom: atom})
	assert.ErrorIs(t, err, errBadAddress)
}

func TestInitialize_Rejections(t *testing.T) {
	engine := New(NewMemStore(), NonEmptyAddress)

	_, err := engine.Initialize(owner, InitializeMsg{Denom: "  "})
	assert.ErrorIs(t, err, ErrInvalidDenom)

	_, err = engine.Initialize(owner, InitializeMsg{Denom: atom, CommissionRate: "1.5"})
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)

	_, err = engine.Initialize(owner, InitializeMsg{Denom: atom, CommissionRate: "five percent"})
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)

	_, err = engine.Initialize(owner, InitializeMsg{Denom: atom})
	require.NoError(t, err)

	_, err = engine.Initialize(owner, InitializeMsg{Denom: atom})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestOperations_BeforeInitialize(t *testing.T) {
	engine := New(NewMemStore(), NonEmptyAddress)

	_, err := engine.Bid(sender, atoms(2_000_000))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = engine.Close(owner)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = engine.Retract(sender, "")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBid_OwnerCannotBid(t *testing.T) {
	engine, store := newTestEngine(t, "")

	for _, funds := range [][]Coin{atoms(1_000_000), atoms(50_000_000), nil} {
		_, err := engine.Bid(owner, funds)

		var unauthorized *UnauthorizedBidError
		require.ErrorAs(t, err, &unauthorized)
		assert.Equal(t, owner, unauthorized.Owner)
	}

	entries, err := store.Bids()
	require.NoError(t, err)
	assert.Equal(t, 0, len(entries))
}

func TestBid_InvalidFunds(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, nil)
	assert.ErrorIs(t, err, ErrInvalidFunds)

	_, err = engine.Bid(sender, []Coin{{Denom: "uosmo", Amount: 5_000_000}})
	assert.ErrorIs(t, err, ErrInvalidFunds)

	_, err = engine.Bid(sender, atoms(0))
	assert.ErrorIs(t, err, ErrInvalidFunds)
}

func TestBid_BelowThreshold(t *testing.T) {
	engine, store := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(900_000))

	var invalidCommission *InvalidCommissionError
	require.ErrorAs(t, err, &invalidCommission)
	assert.Equal(t, Amount(900_000), invalidCommission.Funds)
	assert.Equal(t, Amount(1_000_000), invalidCommission.Commission)

	_, exists, err := store.GetBid(sender)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBid_SingleBid(t *testing.T) {
	engine, store := newTestEngine(t, "")

	resp, err := engine.Bid(sender, atoms(14_000_000))
	require.NoError(t, err)

	// 5% of 14_000_000 goes to the owner, the rest stays in escrow
	require.Equal(t, 1, len(resp.Transfers))
	assert.Equal(t, Transfer{
		Kind:      TransferCommission,
		Recipient: owner,
		Coin:      Coin{Denom: atom, Amount: 700_000},
	}, resp.Transfers[0])

	highest, ok := resp.Attribute("current_highest_bid")
	assert.True(t, ok)
	assert.Equal(t, "13300000", highest)

	amount, exists, err := store.GetBid(sender)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, Amount(13_300_000), amount)

	bid, err := engine.HighestBid()
	require.NoError(t, err)
	assert.Equal(t, &BidResponse{Address: sender, Amount: 13_300_000}, bid)

	total, err := engine.EscrowTotal()
	require.NoError(t, err)
	assert.Equal(t, Amount(13_300_000), total)
}

func TestBid_ZeroRateChargesNoCommission(t *testing.T) {
	engine, _ := newTestEngine(t, "0")

	resp, err := engine.Bid(sender, atoms(14_000_000))
	require.NoError(t, err)
	assert.Equal(t, 0, len(resp.Transfers))

	total, err := engine.EscrowTotal()
	require.NoError(t, err)
	assert.Equal(t, Amount(14_000_000), total)
}

func TestBid_OtherCoinsIgnored(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, []Coin{
		{Denom: "uosmo", Amount: 99_000_000},
		{Denom: atom, Amount: 2_000_000},
	})
	require.NoError(t, err)

	total, err := engine.TotalBids(string(sender))
	require.NoError(t, err)
	assert.Equal(t, Amount(1_900_000), total)
}

func TestBid_HigherBidderTakesLead(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	_, err = engine.Bid(sender2, atoms(5_000_000))
	require.NoError(t, err)

	bid, err := engine.HighestBid()
	require.NoError(t, err)
	assert.Equal(t, sender2, bid.Address)
	assert.Equal(t, Amount(4_750_000), bid.Amount)

	first, err := engine.TotalBids(string(sender))
	require.NoError(t, err)
	assert.Equal(t, Amount(3_800_000), first)

	assert.NoError(t, engine.CheckInvariants())
}

func TestBid_Cumulative(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	_, err = engine.Bid(sender2, atoms(5_000_000))
	require.NoError(t, err)

	// 3_800_000 + 3_800_000 beats 4_750_000
	resp, err := engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	highest, _ := resp.Attribute("current_highest_bid")
	assert.Equal(t, "7600000", highest)

	total, err := engine.TotalBids(string(sender))
	require.NoError(t, err)
	assert.Equal(t, Amount(7_600_000), total)

	bid, err := engine.HighestBid()
	require.NoError(t, err)
	assert.Equal(t, sender, bid.Address)
	assert.Equal(t, Amount(7_600_000), bid.Amount)
}

func TestBid_NotAboveLeaderIsFullyReverted(t *testing.T) {
	engine, store := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(5_000_000))
	require.NoError(t, err)

	resp, err := engine.Bid(sender2, atoms(5_000_000))
	assert.Nil(t, resp)

	var invalidBid *InvalidBidError
	require.ErrorAs(t, err, &invalidBid)
	assert.Equal(t, InvalidBidError{
		Existing: 0,
		Funds:    5_000_000,
		NewBid:   4_750_000,
		MaxBid:   4_750_000,
	}, *invalidBid)

	_, exists, err := store.GetBid(sender2)
	require.NoError(t, err)
	assert.False(t, exists)

	bid, err := engine.HighestBid()
	require.NoError(t, err)
	assert.Equal(t, sender, bid.Address)

	assert.NoError(t, engine.CheckInvariants())
}

func TestBid_Overflow(t *testing.T) {
	engine, store := newTestEngine(t, "0")

	require.NoError(t, store.PutBid(sender, ^Amount(0)-10))
	require.NoError(t, store.SaveState(&State{Status: Open, HighestBid: &Leader{Bidder: sender, Amount: ^Amount(0) - 10}}))

	_, err := engine.Bid(sender, atoms(1_000_000))
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestBid_AfterClose(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Close(owner)
	require.NoError(t, err)

	_, err = engine.Bid(sender, atoms(2_000_000))
	assert.ErrorIs(t, err, ErrBiddingClosed)
}

func TestClose_WithoutBids(t *testing.T) {
	engine, store := newTestEngine(t, "")

	resp, err := engine.Close(owner)
	require.NoError(t, err)
	assert.Equal(t, 0, len(resp.Transfers))

	state, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, Closed, state.Status)
	assert.Nil(t, state.HighestBid)

	_, err = engine.WinningBid()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClose_Unauthorized(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Close(sender)

	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, owner, unauthorized.Owner)

	completed, err := engine.BiddingCompleted()
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestClose_PaysWinnerOnce(t *testing.T) {
	engine, store := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(14_000_000))
	require.NoError(t, err)

	resp, err := engine.Close(owner)
	require.NoError(t, err)
	require.Equal(t, 1, len(resp.Transfers))
	assert.Equal(t, Transfer{
		Kind:      TransferWinningBid,
		Recipient: owner,
		Coin:      Coin{Denom: atom, Amount: 13_300_000},
	}, resp.Transfers[0])

	_, exists, err := store.GetBid(sender)
	require.NoError(t, err)
	assert.False(t, exists)

	resp, err = engine.Close(owner)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrBiddingClosed)

	winning, err := engine.WinningBid()
	require.NoError(t, err)
	assert.Equal(t, &BidResponse{Address: sender, Amount: 13_300_000}, winning)

	// The winner's funds went to the owner and cannot be retracted
	_, err = engine.Retract(sender, "")
	assert.ErrorIs(t, err, ErrInvalidRetract)

	assert.NoError(t, engine.CheckInvariants())
}

func TestRetract_WhileOpen(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(2_000_000))
	require.NoError(t, err)

	_, err = engine.Retract(sender, "")
	assert.ErrorIs(t, err, ErrBiddingActive)
}

func TestRetract_LoserOnce(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	_, err = engine.Bid(sender2, atoms(5_000_000))
	require.NoError(t, err)
	_, err = engine.Close(owner)
	require.NoError(t, err)

	resp, err := engine.Retract(sender, "")
	require.NoError(t, err)
	require.Equal(t, 1, len(resp.Transfers))
	assert.Equal(t, Transfer{
		Kind:      TransferRefund,
		Recipient: sender,
		Coin:      Coin{Denom: atom, Amount: 3_800_000},
	}, resp.Transfers[0])

	_, err = engine.Retract(sender, "")
	assert.ErrorIs(t, err, ErrInvalidRetract)

	total, err := engine.EscrowTotal()
	require.NoError(t, err)
	assert.Equal(t, Amount(0), total)
}

func TestRetract_NeverBid(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	_, err := engine.Close(owner)
	require.NoError(t, err)

	_, err = engine.Retract(sender, "")
	assert.ErrorIs(t, err, ErrInvalidRetract)
}

func TestRetract_ToThirdPartyReceiver(t *testing.T) {
	engine, store := newTestEngine(t, "")

	_, err := engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	_, err = engine.Bid(sender2, atoms(5_000_000))
	require.NoError(t, err)
	_, err = engine.Close(owner)
	require.NoError(t, err)

	// The receiver never bid, the funds come out of the sender's entry
	resp, err := engine.Retract(sender, "charity")
	require.NoError(t, err)
	require.Equal(t, 1, len(resp.Transfers))
	assert.Equal(t, Identity("charity"), resp.Transfers[0].Recipient)
	assert.Equal(t, Amount(3_800_000), resp.Transfers[0].Coin.Amount)

	receiver, _ := resp.Attribute("retract_funds_to_receiver")
	assert.Equal(t, "charity", receiver)

	_, exists, err := store.GetBid(sender)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = engine.Retract(sender, "charity")
	assert.ErrorIs(t, err, ErrInvalidRetract)
}

func TestRetract_ReceiverValidationErrorPropagates(t *testing.T) {
	errBadAddress := errors.New("bad address")
	store := NewMemStore()
	engine := New(store, AddressValidatorFunc(func(address string) (Identity, error) {
		if address == "bogus" {
			return "", errBadAddress
		}
		return Identity(address), nil
	}))

	_, err := engine.Initialize(owner, InitializeMsg{Denom: atom})
	require.NoError(t, err)
	_, err = engine.Bid(sender, atoms(4_000_000))
	require.NoError(t, err)
	_, err = engine.Bid(sender2, atoms(5_000_000))
	require.NoError(t, err)
	_, err = engine.Close(owner)
	require.NoError(t, err)

	_, err = engine.Retract(sender, "bogus")
	assert.ErrorIs(t, err, errBadAddress)

	// Nothing was removed, the sender can still retract to themselves
	_, err = engine.Retract(sender, "")
	assert.NoError(t, err)
}

func TestLeaderIsMonotonic(t *testing.T) {
	engine, _ := newTestEngine(t, "")

	bidders := []Identity{"a", "b", "c", "a", "b", "c", "a"}
	gross := []Amount{2_000_000, 3_000_000, 4_000_000, 3_000_000, 2_000_000, 1_000_000, 9_000_000}

	var last Amount
	for i, bidder := range bidders {
		_, _ = engine.Bid(bidder, atoms(gross[i]))

		bid, err := engine.HighestBid()
		require.NoError(t, err)
		assert.True(t, bid.Amount >= last)
		last = bid.Amount

		assert.NoError(t, engine.CheckInvariants())
	}
}
