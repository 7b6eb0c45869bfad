/*
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nandlab/fabric-escrow-auction/config"
	"github.com/nandlab/fabric-escrow-auction/logger"
	auction "github.com/nandlab/fabric-escrow-auction/smart-contract"
)

var cfgFile string

// rootCmd starts the chaincode when run without a subcommand, which is how
// the peer launches it: `chaincode -peer.address=<addr>`
var rootCmd = &cobra.Command{
	Use:   "escrow-chaincode",
	Short: "Escrow chaincode for an open ascending auction",
	Long: "escrow-chaincode holds bidder funds in escrow for a single open ascending auction " +
		"and reports the payouts decided by each transaction.",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	Args:               flagsOnly,
	RunE:               runStart,
}

// flagsOnly rejects positional arguments so a mistyped subcommand is not passed to the shim
func flagsOnly(cmd *cobra.Command, args []string) error {
	_, shimArgs, _ := splitStartArgs(args)
	for _, arg := range shimArgs {
		if !strings.HasPrefix(arg, "-") {
			return errors.Errorf("unknown command %q for %q", arg, cmd.CommandPath())
		}
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")
}

// setup loads the configuration and builds the logger shared by the commands
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.UnmarshalConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to set up logger")
	}
	return cfg, log, nil
}

func newChaincode(log *zap.Logger) (*contractapi.ContractChaincode, error) {
	chaincode, err := contractapi.NewChaincode(&auction.SmartContract{Logger: log})
	if err != nil {
		return nil, errors.Wrap(err, "error creating escrow chaincode")
	}
	return chaincode, nil
}
