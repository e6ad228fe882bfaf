/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for the Akaylee Featurizer. Provides
command-line options, configuration management, and a clean user interface for
extracting structural feature vectors from files with advanced logging capabilities.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/akaylee-featurizer/cmd/featurizer/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string
	jsonLogs   bool

	// Extraction configuration
	inputDir  string
	outputDir string
	workers   int

	// Sniffer configuration
	headBytes int
	tailBytes int

	// Statistics configuration
	slidingWindow int
	slidingStep   int

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int
	logMaxSize  int64
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "akaylee-featurizer",
		Short: "Akaylee Featurizer - Format-aware structural feature extraction engine",
		Long: `Akaylee Featurizer extracts a fixed-schema feature vector from arbitrary files
for downstream classification of benign, legitimately encrypted, and ransomware
encrypted content. It combines a magic-byte sniffer, defensive structural parsers
for common container formats, encryption-marker detection, and a single-pass
byte-statistics engine into one schema-validated record per file.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config/features.yaml", "Feature schema and configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")

	// Add logging-specific flags
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Log output directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Int64Var(&logMaxSize, "log-max-size", 100*1024*1024, "Maximum log file size in bytes")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))

	// Add extract command
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract feature vectors from a directory of files",
		Long: `Walk a directory recursively, extract the full feature record for every file
and write the results as one CSV row per file. The output schema is driven by the
features.yaml configuration; any divergence between the schema and the produced
records aborts the run with a configuration error.`,
		RunE: commands.RunExtract,
	}

	// Add extract command flags
	extractCmd.Flags().StringVar(&inputDir, "input", "", "Directory containing files to featurize (required)")
	extractCmd.Flags().StringVar(&outputDir, "output", "./features_output", "Directory for the output CSV and run summary")
	extractCmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers (0 = auto-detect)")

	viper.BindPFlag("input_dir", extractCmd.Flags().Lookup("input"))
	viper.BindPFlag("output_dir", extractCmd.Flags().Lookup("output"))
	viper.BindPFlag("workers", extractCmd.Flags().Lookup("workers"))

	// Mark required flags
	extractCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(extractCmd)

	// Add sniff command
	sniffCmd := &cobra.Command{
		Use:   "sniff [files...]",
		Short: "Classify files by container format signature",
		Long: `Run only the magic-byte sniffer over the given files and report the resolved
format family, the broad signature family, and the size features for each.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunSniff,
	}

	sniffCmd.Flags().IntVar(&headBytes, "head-bytes", 16*1024, "Bytes read from the start of each file")
	sniffCmd.Flags().IntVar(&tailBytes, "tail-bytes", 16*1024, "Bytes read from the end of each file")

	viper.BindPFlag("sniffer.head_bytes", sniffCmd.Flags().Lookup("head-bytes"))
	viper.BindPFlag("sniffer.tail_bytes", sniffCmd.Flags().Lookup("tail-bytes"))

	rootCmd.AddCommand(sniffCmd)

	// Add stats command
	statsCmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Compute byte statistics for a single file",
		Long: `Compute the single-pass byte statistics for a file: global entropy,
min-entropy, head and tail entropy, chi-square, and index of coincidence,
plus an optional sliding-window entropy profile.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunStats,
	}

	statsCmd.Flags().IntVar(&slidingWindow, "window", 256, "Sliding entropy window size in bytes")
	statsCmd.Flags().IntVar(&slidingStep, "step", 0, "Sliding entropy step in bytes (0 = window size)")
	statsCmd.Flags().Bool("sliding", false, "Print the sliding-window entropy profile")

	viper.BindPFlag("stats.window", statsCmd.Flags().Lookup("window"))
	viper.BindPFlag("stats.step", statsCmd.Flags().Lookup("step"))
	viper.BindPFlag("stats.sliding", statsCmd.Flags().Lookup("sliding"))

	rootCmd.AddCommand(statsCmd)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
