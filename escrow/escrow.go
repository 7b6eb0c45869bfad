/*
SPDX-License-Identifier: Apache-2.0
*/

// Package escrow implements a single-auction escrow engine. It accepts bids in
// one denomination, keeps every bidder's cumulative net bid in a ledger,
// forwards a commission to the owner on each accepted bid, pays the winning
// bid to the owner on close and lets the other bidders retract afterwards.
//
// The engine only decides which transfers must happen. Moving value, encoding
// requests and persisting state belong to the host that calls it.
package escrow

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AddressValidator turns a caller-supplied address into a validated Identity.
// Its errors are returned to the caller unchanged.
type AddressValidator interface {
	ValidateAddress(address string) (Identity, error)
}

// AddressValidatorFunc adapts a function to AddressValidator
type AddressValidatorFunc func(address string) (Identity, error)

func (f AddressValidatorFunc) ValidateAddress(address string) (Identity, error) {
	return f(address)
}

// NonEmptyAddress accepts any address that is not blank
var NonEmptyAddress = AddressValidatorFunc(func(address string) (Identity, error) {
	if strings.TrimSpace(address) == "" {
		return "", errors.New("address cannot be empty")
	}
	return Identity(address), nil
})

// InitializeMsg carries the instantiation parameters. Empty fields select defaults.
type InitializeMsg struct {
	Owner               string // defaults to the sender
	Denom               string
	CommissionRate      string // decimal fraction, defaults to DefaultCommissionRate
	CommissionThreshold Amount // 0 disables the threshold
}

// Engine runs the auction state machine over a Store.
// It is not safe for concurrent use; the host serializes calls.
type Engine struct {
	store     Store
	validator AddressValidator
}

func New(store Store, validator AddressValidator) *Engine {
	if validator == nil {
		validator = NonEmptyAddress
	}
	return &Engine{store: store, validator: validator}
}

/**************** AUCTION OWNER METHODS ****************/

// Initialize persists the configuration and opens the auction
func (e *Engine) Initialize(sender Identity, msg InitializeMsg) (*Response, error) {
	// An auction can only be initialized once
	_, errLoadConfig := e.store.LoadConfig()
	if errLoadConfig == nil {
		return nil, ErrAlreadyInitialized
	}
	if !errors.Is(errLoadConfig, ErrNotInitialized) {
		return nil, errors.Wrap(errLoadConfig, "failed to check for an existing auction")
	}

	owner := sender
	if msg.Owner != "" {
		validated, err := e.validator.ValidateAddress(msg.Owner)
		if err != nil {
			return nil, err
		}
		owner = validated
	}

	denom := strings.TrimSpace(msg.Denom)
	if denom == "" {
		return nil, ErrInvalidDenom
	}

	rate, errRate := ParseCommissionRate(msg.CommissionRate)
	if errRate != nil {
		return nil, errRate
	}

	config := Config{
		Owner:               owner,
		Denom:               denom,
		CommissionRate:      rate,
		CommissionThreshold: msg.CommissionThreshold,
	}
	if err := e.store.SaveConfig(&config); err != nil {
		return nil, errors.Wrap(err, "could not save the auction config")
	}
	if err := e.store.SaveState(&State{Status: Open}); err != nil {
		return nil, errors.Wrap(err, "could not save the auction state")
	}

	return newResponse("instantiate").
		addAttribute("owner", string(owner)).
		addAttribute("denom", denom).
		addAttribute("commission_rate", rate.String()), nil
}

// Close ends bidding and pays the highest bid to the owner
func (e *Engine) Close(sender Identity) (*Response, error) {
	config, state, err := e.load()
	if err != nil {
		return nil, err
	}

	// Only the owner may close
	if config.Owner != sender {
		return nil, &UnauthorizedError{Owner: config.Owner}
	}
	if state.Status == Closed {
		return nil, ErrBiddingClosed
	}

	resp := newResponse("close").addAttribute("sender", string(sender))

	// The winner's funds leave escrow for good, so they can never be retracted
	if leader, ok := state.Leader(); ok {
		resp.addTransfer(Transfer{
			Kind:      TransferWinningBid,
			Recipient: config.Owner,
			Coin:      Coin{Denom: config.Denom, Amount: leader.Amount},
		}).addAttribute("highest_bid", string(leader.Bidder))

		if err := e.store.DeleteBid(leader.Bidder); err != nil {
			return nil, errors.Wrap(err, "could not remove the winning bid")
		}
	}

	state.Status = Closed
	if err := e.store.SaveState(state); err != nil {
		return nil, errors.Wrap(err, "could not save the closed auction")
	}

	return resp, nil
}

/**************** BIDDER METHODS ****************/

// Bid adds the funds attached in the auction denomination to the sender's cumulative bid
func (e *Engine) Bid(sender Identity, funds []Coin) (*Response, error) {
	config, state, err := e.load()
	if err != nil {
		return nil, err
	}

	if state.Status == Closed {
		return nil, ErrBiddingClosed
	}
	if config.Owner == sender {
		return nil, &UnauthorizedBidError{Owner: config.Owner}
	}

	gross, ok := findFunds(funds, config.Denom)
	if !ok {
		return nil, ErrInvalidFunds
	}

	if config.CommissionThreshold != 0 && gross < config.CommissionThreshold {
		return nil, &InvalidCommissionError{Funds: gross, Commission: config.CommissionThreshold}
	}

	commission, net := SplitCommission(gross, config.CommissionRate)

	existing, _, errGetBid := e.store.GetBid(sender)
	if errGetBid != nil {
		return nil, errors.Wrap(errGetBid, "could not load the existing bid")
	}

	var maxBid Amount
	if leader, ok := state.Leader(); ok {
		maxBid = leader.Amount
	}

	newBid, errAdd := addAmounts(existing, net)
	if errAdd != nil {
		return nil, errAdd
	}

	// Nothing has been written or transferred yet, so a losing bid is fully reverted
	if newBid <= maxBid {
		return nil, &InvalidBidError{
			Existing: existing,
			Funds:    gross,
			NewBid:   net,
			MaxBid:   maxBid,
		}
	}

	resp := newResponse("bid")

	if commission != 0 {
		resp.addTransfer(Transfer{
			Kind:      TransferCommission,
			Recipient: config.Owner,
			Coin:      Coin{Denom: config.Denom, Amount: commission},
		}).addAttribute("commission_to_owner", formatAmount(commission))
	}

	if err := e.store.PutBid(sender, newBid); err != nil {
		return nil, errors.Wrap(err, "could not save the bid")
	}
	state.HighestBid = &Leader{Bidder: sender, Amount: newBid}
	if err := e.store.SaveState(state); err != nil {
		return nil, errors.Wrap(err, "could not save the auction state")
	}

	return resp.
		addAttribute("sender", string(sender)).
		addAttribute("current_highest_bid", formatAmount(newBid)), nil
}

// Retract returns the sender's escrowed funds after the auction has closed.
// The funds go to receiver when it is set, otherwise to the sender.
func (e *Engine) Retract(sender Identity, receiver string) (*Response, error) {
	state, err := e.store.LoadState()
	if err != nil {
		return nil, errors.Wrap(err, "could not get the auction state")
	}

	if state.Status == Open {
		return nil, ErrBiddingActive
	}

	config, err := e.store.LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "could not get the auction config")
	}

	amount, exists, errGetBid := e.store.GetBid(sender)
	if errGetBid != nil {
		return nil, errors.Wrap(errGetBid, "could not load the bid")
	}
	if !exists {
		return nil, ErrInvalidRetract
	}

	destination := sender
	if receiver != "" {
		validated, err := e.validator.ValidateAddress(receiver)
		if err != nil {
			return nil, err
		}
		destination = validated
	}

	// The entry belongs to the sender no matter where the funds are sent
	if err := e.store.DeleteBid(sender); err != nil {
		return nil, errors.Wrap(err, "could not remove the retracted bid")
	}

	return newResponse("retract").
		addTransfer(Transfer{
			Kind:      TransferRefund,
			Recipient: destination,
			Coin:      Coin{Denom: config.Denom, Amount: amount},
		}).
		addAttribute("sender", string(sender)).
		addAttribute("retract_funds_to_receiver", string(destination)), nil
}

func (e *Engine) load() (*Config, *State, error) {
	config, err := e.store.LoadConfig()
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get the auction config")
	}
	state, err := e.store.LoadState()
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get the auction state")
	}
	return config, state, nil
}

// findFunds returns the first non-zero coin in denom; other denominations are ignored
func findFunds(funds []Coin, denom string) (Amount, bool) {
	for _, coin := range funds {
		if coin.Denom == denom && coin.Amount != 0 {
			return coin.Amount, true
		}
	}
	return 0, false
}

func formatAmount(amount Amount) string {
	return strconv.FormatUint(uint64(amount), 10)
}
