/*
SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"os"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// StartCmd runs the chaincode as a process launched by the peer.
// Flags other than --config belong to the shim, which parses them itself.
var StartCmd = &cobra.Command{
	Use:                "start",
	Short:              "Connect to the peer that launched the chaincode",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	RunE:               runStart,
}

// startChaincode hands the remaining arguments to the shim and blocks until the peer disconnects
var startChaincode = func(chaincode *contractapi.ContractChaincode, shimArgs []string) error {
	// The shim reads -peer.address from os.Args with the flag package
	os.Args = append([]string{os.Args[0]}, shimArgs...)
	return chaincode.Start()
}

func runStart(cmd *cobra.Command, args []string) error {
	configPath, shimArgs, help := splitStartArgs(args)
	if help {
		return cmd.Help()
	}

	_, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	chaincode, err := newChaincode(log)
	if err != nil {
		log.Error("Failed to create chaincode", zap.Error(err))
		return err
	}

	log.Info("escrow chaincode starting", zap.Strings("args", shimArgs))
	if err := startChaincode(chaincode, shimArgs); err != nil {
		log.Error("Chaincode exited", zap.Error(err))
		return errors.Wrap(err, "error starting escrow chaincode")
	}
	return nil
}

// splitStartArgs takes --config and --help out of the raw arguments and returns the rest
func splitStartArgs(args []string) (configPath string, shimArgs []string, help bool) {
	shimArgs = []string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			help = true
		case arg == "--config" || arg == "-config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-config="):
			configPath = strings.TrimPrefix(arg, "-config=")
		default:
			shimArgs = append(shimArgs, arg)
		}
	}
	return configPath, shimArgs, help
}

func init() {
	rootCmd.AddCommand(StartCmd)
}
