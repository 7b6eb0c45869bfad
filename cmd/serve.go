/*
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nandlab/fabric-escrow-auction/config"
)

// ServeCmd runs the chaincode as an external service the peer connects to
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chaincode as an external service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cfgFile)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		server, err := newServer(cfg.Server, log)
		if err != nil {
			log.Error("Failed to create chaincode server", zap.Error(err))
			return err
		}

		log.Info("escrow chaincode server start",
			zap.String("address", cfg.Server.Address),
			zap.String("ccid", cfg.Server.CCID),
			zap.Bool("tls", !cfg.Server.TLS.Disabled))
		if err := server.Start(); err != nil {
			log.Error("Chaincode server exited", zap.Error(err))
			return errors.Wrap(err, "error starting chaincode server")
		}
		return nil
	},
}

func newServer(conf config.ServerConf, log *zap.Logger) (*shim.ChaincodeServer, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	key, cert, clientCACerts, err := conf.TLS.TLSMaterial()
	if err != nil {
		return nil, err
	}
	chaincode, err := newChaincode(log)
	if err != nil {
		return nil, err
	}
	return &shim.ChaincodeServer{
		CCID:    conf.CCID,
		Address: conf.Address,
		CC:      chaincode,
		TLSProps: shim.TLSProperties{
			Disabled:      conf.TLS.Disabled,
			Key:           key,
			Cert:          cert,
			ClientCACerts: clientCACerts,
		},
	}, nil
}

func init() {
	rootCmd.AddCommand(ServeCmd)
}
