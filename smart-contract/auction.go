/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"encoding/json"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nandlab/fabric-escrow-auction/escrow"
)

// This contract escrows the bids of a single open ascending auction
type SmartContract struct {
	contractapi.Contract

	Logger *zap.Logger
}

func (s *SmartContract) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// engine binds the escrow state machine to the world state of the current transaction
func (s *SmartContract) engine(ctx contractapi.TransactionContextInterface) *escrow.Engine {
	return escrow.New(newWorldState(ctx.GetStub()), clientIDValidator{})
}

// execute runs a state-changing operation for the submitting client and publishes its receipt
func (s *SmartContract) execute(
	ctx contractapi.TransactionContextInterface,
	eventName string,
	operation func(engine *escrow.Engine, sender escrow.Identity) (*escrow.Response, error),
) (*Receipt, error) {
	txID := ctx.GetStub().GetTxID()

	// Get ID of submitting client
	sender, errClientID := getSubmittingClientID(ctx)
	if errClientID != nil {
		return nil, errClientID
	}

	resp, errOperation := operation(s.engine(ctx), sender)
	if errOperation != nil {
		s.log().Warn("transaction rejected",
			zap.String("tx_id", txID),
			zap.String("transaction", eventName),
			zap.Error(errOperation))
		return nil, errOperation
	}

	receipt, errReceipt := newReceipt(ctx, resp)
	if errReceipt != nil {
		return nil, errReceipt
	}

	if err := setReceiptEvent(ctx, eventName, receipt); err != nil {
		return nil, errors.Wrapf(err, "failed to set %s event", eventName)
	}

	fields := []zap.Field{
		zap.String("tx_id", txID),
		zap.String("action", receipt.Action),
		zap.String("sender", string(sender)),
	}
	for _, payout := range receipt.Payouts {
		fields = append(fields, zap.Object("payout", payoutMarshaler(payout)))
	}
	s.log().Info("transaction executed", fields...)

	return receipt, nil
}

func payoutMarshaler(payout Payout) zapcore.ObjectMarshalerFunc {
	return func(enc zapcore.ObjectEncoder) error {
		enc.AddString("id", payout.ID)
		enc.AddString("kind", payout.Kind)
		enc.AddString("recipient", payout.Recipient)
		enc.AddString("denom", payout.Denom)
		enc.AddUint64("amount", payout.Amount)
		return nil
	}
}

/**************** AUCTION OWNER METHODS ****************/

// Initialize creates the auction. An empty owner makes the submitting client the owner,
// an empty commissionRate selects the default rate and a zero threshold disables it.
func (s *SmartContract) Initialize(ctx contractapi.TransactionContextInterface, owner string, denom string, commissionRate string, commissionThreshold uint64) (*Receipt, error) {
	return s.execute(ctx, "Initialize", func(engine *escrow.Engine, sender escrow.Identity) (*escrow.Response, error) {
		return engine.Initialize(sender, escrow.InitializeMsg{
			Owner:               owner,
			Denom:               denom,
			CommissionRate:      commissionRate,
			CommissionThreshold: escrow.Amount(commissionThreshold),
		})
	})
}

// Close ends the auction and pays the highest bid to the owner
func (s *SmartContract) Close(ctx contractapi.TransactionContextInterface) (*Receipt, error) {
	return s.execute(ctx, "Close", func(engine *escrow.Engine, sender escrow.Identity) (*escrow.Response, error) {
		return engine.Close(sender)
	})
}

/**************** BIDDER METHODS ****************/

// Bid escrows the attached funds, given as a JSON list of coins such as
// [{"denom":"atom","amount":"14000000"}]
func (s *SmartContract) Bid(ctx contractapi.TransactionContextInterface, fundsJSON string) (*Receipt, error) {
	var funds []escrow.Coin
	if strings.TrimSpace(fundsJSON) != "" {
		if err := json.Unmarshal([]byte(fundsJSON), &funds); err != nil {
			return nil, errors.Wrap(err, "could not decode funds")
		}
	}

	return s.execute(ctx, "Bid", func(engine *escrow.Engine, sender escrow.Identity) (*escrow.Response, error) {
		return engine.Bid(sender, funds)
	})
}

// Retract pays a losing bidder's escrowed funds to receiver, or to the bidder when receiver is empty
func (s *SmartContract) Retract(ctx contractapi.TransactionContextInterface, receiver string) (*Receipt, error) {
	return s.execute(ctx, "Retract", func(engine *escrow.Engine, sender escrow.Identity) (*escrow.Response, error) {
		return engine.Retract(sender, receiver)
	})
}

/**************** QUERY METHODS ****************/

// TotalBids returns the amount the address has in escrow
func (s *SmartContract) TotalBids(ctx contractapi.TransactionContextInterface, address string) (uint64, error) {
	amount, err := s.engine(ctx).TotalBids(address)
	if err != nil {
		return 0, err
	}
	return uint64(amount), nil
}

func (s *SmartContract) HighestBid(ctx contractapi.TransactionContextInterface) (*BidResponse, error) {
	bid, err := s.engine(ctx).HighestBid()
	if err != nil {
		return nil, err
	}
	return &BidResponse{Address: string(bid.Address), Amount: uint64(bid.Amount)}, nil
}

func (s *SmartContract) BiddingCompleted(ctx contractapi.TransactionContextInterface) (bool, error) {
	return s.engine(ctx).BiddingCompleted()
}

// WinningBid returns the highest bid once the auction is closed
func (s *SmartContract) WinningBid(ctx contractapi.TransactionContextInterface) (*BidResponse, error) {
	bid, err := s.engine(ctx).WinningBid()
	if err != nil {
		return nil, err
	}
	return &BidResponse{Address: string(bid.Address), Amount: uint64(bid.Amount)}, nil
}

func (s *SmartContract) GetConfig(ctx contractapi.TransactionContextInterface) (*ConfigResponse, error) {
	config, err := s.engine(ctx).Config()
	if err != nil {
		return nil, err
	}
	return &ConfigResponse{
		Owner:               string(config.Owner),
		Denom:               config.Denom,
		CommissionRate:      config.CommissionRate.String(),
		CommissionThreshold: uint64(config.CommissionThreshold),
	}, nil
}

// ListBids returns every bid still held in escrow
func (s *SmartContract) ListBids(ctx contractapi.TransactionContextInterface) ([]*BidResponse, error) {
	entries, err := s.engine(ctx).Bids()
	if err != nil {
		return nil, err
	}
	bids := make([]*BidResponse, 0, len(entries))
	for _, entry := range entries {
		bids = append(bids, &BidResponse{Address: string(entry.Bidder), Amount: uint64(entry.Amount)})
	}
	return bids, nil
}

// EscrowTotal is the amount the channel must still hold on behalf of bidders
func (s *SmartContract) EscrowTotal(ctx contractapi.TransactionContextInterface) (uint64, error) {
	total, err := s.engine(ctx).EscrowTotal()
	if err != nil {
		return 0, err
	}
	return uint64(total), nil
}

func (s *SmartContract) CheckInvariants(ctx contractapi.TransactionContextInterface) error {
	return s.engine(ctx).CheckInvariants()
}
