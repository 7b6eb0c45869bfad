/*
SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nandlab/fabric-escrow-auction/logger"
)

// Config is the configuration of the chaincode process
type Config struct {
	Log    logger.LogConf `toml:"log" mapstructure:"log" json:"log"`
	Server ServerConf     `toml:"server" mapstructure:"server" json:"server"`
}

// ServerConf configures chaincode-as-a-service mode
type ServerConf struct {
	Address string  `toml:"address" mapstructure:"address" json:"address"` // listen address, e.g. 0.0.0.0:9999
	CCID    string  `toml:"ccid" mapstructure:"ccid" json:"ccid"`          // package ID assigned by the peer
	TLS     TLSConf `toml:"tls" mapstructure:"tls" json:"tls"`
}

type TLSConf struct {
	Disabled         bool   `toml:"disabled" mapstructure:"disabled" json:"disabled"`
	CertFile         string `toml:"cert_file" mapstructure:"cert_file" json:"cert_file"`
	KeyFile          string `toml:"key_file" mapstructure:"key_file" json:"key_file"`
	ClientCACertFile string `toml:"client_ca_cert_file" mapstructure:"client_ca_cert_file" json:"client_ca_cert_file"`
}

// UnmarshalConfig loads the config file at configFilePath (optional) and applies
// ESCROW_-prefixed environment overrides, e.g. ESCROW_LOG_LEVEL. The standard
// CHAINCODE_SERVER_ADDRESS and CHAINCODE_ID variables set the server section.
func UnmarshalConfig(configFilePath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("server.address", "0.0.0.0:9999")
	v.SetDefault("server.tls.disabled", true)

	v.SetEnvPrefix("ESCROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.address", "CHAINCODE_SERVER_ADDRESS", "ESCROW_SERVER_ADDRESS"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("server.ccid", "CHAINCODE_ID", "ESCROW_SERVER_CCID"); err != nil {
		return nil, err
	}

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", configFilePath)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return &c, nil
}

// Validate checks the settings needed to serve the chaincode
func (s ServerConf) Validate() error {
	if s.Address == "" {
		return errors.New("server address is required")
	}
	if s.CCID == "" {
		return errors.New("chaincode ID is required")
	}
	if !s.TLS.Disabled && (s.TLS.CertFile == "" || s.TLS.KeyFile == "") {
		return errors.New("TLS requires cert_file and key_file")
	}
	return nil
}

// TLSMaterial reads the PEM files referenced by the TLS settings
func (t TLSConf) TLSMaterial() (key []byte, cert []byte, clientCACerts []byte, err error) {
	if t.Disabled {
		return nil, nil, nil, nil
	}
	if key, err = os.ReadFile(t.KeyFile); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read TLS key")
	}
	if cert, err = os.ReadFile(t.CertFile); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read TLS certificate")
	}
	if t.ClientCACertFile != "" {
		if clientCACerts, err = os.ReadFile(t.ClientCACertFile); err != nil {
			return nil, nil, nil, errors.Wrap(err, "failed to read client CA certificate")
		}
	}
	return key, cert, clientCACerts, nil
}
