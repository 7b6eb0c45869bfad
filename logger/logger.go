/*
SPDX-License-Identifier: Apache-2.0
*/

package logger

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConf configures the process logger
type LogConf struct {
	Level    string `toml:"level" mapstructure:"level" json:"level"`          // debug, info, warn, error
	Encoding string `toml:"encoding" mapstructure:"encoding" json:"encoding"` // json or console
	// File enables rotated file output instead of stdout
	File       string `toml:"file" mapstructure:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days" json:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress" json:"compress"`
}

// New builds a zap logger from conf
func New(conf LogConf) (*zap.Logger, error) {
	var level zapcore.Level
	if conf.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(conf.Level))); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", conf.Level)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch conf.Encoding {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, errors.Errorf("invalid log encoding %q", conf.Encoding)
	}

	core := zapcore.NewCore(encoder, writeSyncer(conf), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()).Named("escrow"), nil
}

func writeSyncer(conf LogConf) zapcore.WriteSyncer {
	if conf.File == "" {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   conf.File,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAgeDays,
		Compress:   conf.Compress,
	})
}
