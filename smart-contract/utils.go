/*
SPDX-License-Identifier: Apache-2.0
*/

package auction

import (
	"encoding/base64"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"

	"github.com/nandlab/fabric-escrow-auction/escrow"
)

const x509IDPrefix = "x509"

// ErrInvalidClientID is returned for addresses that are not peer client IDs
var ErrInvalidClientID = errors.New("invalid client ID")

// getSubmittingClientID returns the client ID of the transaction submitter.
// It is the base64 encoding of "x509::<subject DN>::<issuer DN>".
func getSubmittingClientID(ctx contractapi.TransactionContextInterface) (escrow.Identity, error) {
	clientID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", errors.Wrap(err, "failed to read clientID")
	}
	return escrow.Identity(clientID), nil
}

// clientIDValidator accepts addresses in the client ID format produced by the peer
type clientIDValidator struct{}

func (clientIDValidator) ValidateAddress(address string) (escrow.Identity, error) {
	if address == "" {
		return "", errors.Wrap(ErrInvalidClientID, "address cannot be empty")
	}
	decodeID, err := base64.StdEncoding.DecodeString(address)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidClientID, "failed to base64 decode address: %v", err)
	}
	parts := strings.Split(string(decodeID), "::")
	if len(parts) != 3 || parts[0] != x509IDPrefix || parts[1] == "" || parts[2] == "" {
		return "", errors.Wrap(ErrInvalidClientID, "address is not an x509 client ID")
	}
	return escrow.Identity(address), nil
}
