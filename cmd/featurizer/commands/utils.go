/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Akaylee Featurizer commands. Provides common
configuration loading, logging setup, and sniffer configuration used across all
command implementations.
*/

package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
	"github.com/kleascm/akaylee-featurizer/pkg/logging"
)

// appLogger is the structured logging system shared by all commands,
// created by SetupLogging
var appLogger *logging.Logger

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("AKAYLEE")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging builds the structured logging system from the bound flags and
// config keys. Log files land in the configured log directory with size-based
// rotation and bounded retention.
func SetupLogging() error {
	format := logging.LogFormat(viper.GetString("log_format"))
	if viper.GetBool("json_logs") {
		format = logging.LogFormatJSON
	}

	config := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    format,
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		MaxSize:   viper.GetInt64("log_max_size"),
		Timestamp: true,
		Caller:    false,
		Colors:    format == logging.LogFormatCustom,
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}

	logger, err := logging.NewLogger(config)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	appLogger = logger
	return nil
}

// Log returns the logrus logger behind the configured logging system, falling
// back to the standard logger before SetupLogging has run
func Log() *logrus.Logger {
	if appLogger != nil {
		return appLogger.GetLogger()
	}
	return logrus.StandardLogger()
}

// SnifferConfigFromViper builds the sniffer configuration from the loaded
// config file, falling back to the built-in defaults for missing keys
func SnifferConfigFromViper() interfaces.SnifferConfig {
	config := interfaces.DefaultSnifferConfig()

	if v := viper.GetInt("global.sniffer.head_bytes"); v > 0 {
		config.HeadBytes = v
	}
	if v := viper.GetInt("global.sniffer.tail_bytes"); v > 0 {
		config.TailBytes = v
	}
	if v := viper.GetInt("sniffer.head_bytes"); v > 0 {
		config.HeadBytes = v
	}
	if v := viper.GetInt("sniffer.tail_bytes"); v > 0 {
		config.TailBytes = v
	}

	if families := viper.GetStringSlice("global.sniffer.enabled_families"); len(families) > 0 {
		enabled := make(map[string]bool, len(families))
		for _, f := range families {
			enabled[f] = true
		}
		config.EnabledFamilies = enabled
	}

	config.FallbackMaxAttempts = viper.GetInt("global.parser.fallback.max_attempts")
	return config
}
