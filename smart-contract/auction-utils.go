/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/protobuf/ptypes"
	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/nandlab/fabric-escrow-auction/escrow"
)

// World state keys
const (
	configKey  = "config"
	stateKey   = "state"
	bidKeyType = "bid"
)

// payoutNamespace scopes the payout IDs of this chaincode
var payoutNamespace = uuid.MustParse("5f0c3a52-8d4e-4b8f-9a57-0c1e6b2d7e41")

// worldState stores the escrow records in the Fabric world state
type worldState struct {
	stub shim.ChaincodeStubInterface
}

var _ escrow.Store = (*worldState)(nil)

func newWorldState(stub shim.ChaincodeStubInterface) *worldState {
	return &worldState{stub: stub}
}

// getRecord reads and decodes a JSON record, returning false if the key does not exist
func (w *worldState) getRecord(key string, record interface{}) (bool, error) {
	recordBin, errGetState := w.stub.GetState(key)
	if errGetState != nil {
		return false, errors.Wrapf(errGetState, "failed to read %s from world state", key)
	}
	if recordBin == nil {
		return false, nil
	}
	if err := json.Unmarshal(recordBin, record); err != nil {
		return false, errors.Wrapf(err, "failed to decode %s", key)
	}
	return true, nil
}

// putRecord saves the given record in the world state
func (w *worldState) putRecord(key string, record interface{}) error {
	recordBin, err := json.Marshal(record)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", key)
	}
	return w.stub.PutState(key, recordBin)
}

func (w *worldState) LoadConfig() (*escrow.Config, error) {
	var config escrow.Config
	exists, err := w.getRecord(configKey, &config)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, escrow.ErrNotInitialized
	}
	return &config, nil
}

func (w *worldState) SaveConfig(config *escrow.Config) error {
	return w.putRecord(configKey, config)
}

func (w *worldState) LoadState() (*escrow.State, error) {
	var state escrow.State
	exists, err := w.getRecord(stateKey, &state)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, escrow.ErrNotInitialized
	}
	return &state, nil
}

func (w *worldState) SaveState(state *escrow.State) error {
	return w.putRecord(stateKey, state)
}

// bidKey gets a world state key from the bidder identity
func (w *worldState) bidKey(bidder escrow.Identity) (string, error) {
	key, err := w.stub.CreateCompositeKey(bidKeyType, []string{string(bidder)})
	if err != nil {
		return "", errors.Wrap(err, "failed to create composite key")
	}
	return key, nil
}

func (w *worldState) GetBid(bidder escrow.Identity) (escrow.Amount, bool, error) {
	key, err := w.bidKey(bidder)
	if err != nil {
		return 0, false, err
	}
	var record bidRecord
	exists, err := w.getRecord(key, &record)
	if err != nil || !exists {
		return 0, false, err
	}
	return escrow.Amount(record.Amount), true, nil
}

func (w *worldState) PutBid(bidder escrow.Identity, amount escrow.Amount) error {
	key, err := w.bidKey(bidder)
	if err != nil {
		return err
	}
	return w.putRecord(key, &bidRecord{Bidder: string(bidder), Amount: uint64(amount)})
}

func (w *worldState) DeleteBid(bidder escrow.Identity) error {
	key, err := w.bidKey(bidder)
	if err != nil {
		return err
	}
	return w.stub.DelState(key)
}

// Bids scans every ledger entry; composite keys keep them ordered by bidder
func (w *worldState) Bids() ([]escrow.LedgerEntry, error) {
	resultsIterator, err := w.stub.GetStateByPartialCompositeKey(bidKeyType, []string{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan bids")
	}
	defer resultsIterator.Close()

	entries := []escrow.LedgerEntry{}
	for resultsIterator.HasNext() {
		queryResponse, err := resultsIterator.Next()
		if err != nil {
			return nil, err
		}
		entry, err := decodeBid(queryResponse)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeBid(kv *queryresult.KV) (escrow.LedgerEntry, error) {
	var record bidRecord
	if err := json.Unmarshal(kv.Value, &record); err != nil {
		return escrow.LedgerEntry{}, errors.Wrapf(err, "failed to decode bid %q", kv.Key)
	}
	return escrow.LedgerEntry{Bidder: escrow.Identity(record.Bidder), Amount: escrow.Amount(record.Amount)}, nil
}

// payoutID derives a payout ID that every endorsing peer computes identically
func payoutID(txID string, index int, transfer escrow.Transfer) string {
	data := fmt.Sprintf("%s/%d/%s/%s/%s/%d", txID, index, transfer.Kind, transfer.Recipient, transfer.Coin.Denom, transfer.Coin.Amount)
	return uuid.NewHash(sha3.New256(), payoutNamespace, []byte(data), 5).String()
}

// newReceipt converts an escrow response into the receipt returned to the client
func newReceipt(ctx contractapi.TransactionContextInterface, resp *escrow.Response) (*Receipt, error) {
	txID := ctx.GetStub().GetTxID()

	receipt := &Receipt{
		TxID:       txID,
		Action:     resp.Action,
		Attributes: make([]Attribute, 0, len(resp.Attributes)),
		Payouts:    make([]Payout, 0, len(resp.Transfers)),
	}
	for _, attr := range resp.Attributes {
		receipt.Attributes = append(receipt.Attributes, Attribute{Key: attr.Key, Value: attr.Value})
	}
	for i, transfer := range resp.Transfers {
		receipt.Payouts = append(receipt.Payouts, Payout{
			ID:        payoutID(txID, i, transfer),
			Kind:      string(transfer.Kind),
			Recipient: string(transfer.Recipient),
			Denom:     transfer.Coin.Denom,
			Amount:    uint64(transfer.Coin.Amount),
		})
	}

	txTimestamp, errTimestamp := ctx.GetStub().GetTxTimestamp()
	if errTimestamp != nil {
		return nil, errors.Wrap(errTimestamp, "failed to get transaction timestamp")
	}
	if txTimestamp != nil {
		timestamp, err := ptypes.Timestamp(txTimestamp)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction timestamp")
		}
		receipt.Timestamp = timestamp.UTC().Format(time.RFC3339)
	}

	return receipt, nil
}

// setReceiptEvent publishes the receipt so off-chain settlement can execute the payouts
func setReceiptEvent(ctx contractapi.TransactionContextInterface, eventName string, receipt *Receipt) error {
	if receipt == nil {
		return errors.New("receipt cannot be nil")
	}
	receiptBin, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return ctx.GetStub().SetEvent(eventName, receiptBin)
}
