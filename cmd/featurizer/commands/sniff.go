/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sniff.go
Description: Sniff command implementation for the Akaylee Featurizer. Runs only
the magic-byte sniffer over the given files and reports the resolved format
family, signature family and size features for each.
*/

package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kleascm/akaylee-featurizer/pkg/sniffer"
)

// RunSniff classifies each argument file by container signature
func RunSniff(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := SetupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	s := sniffer.NewSniffer(SnifferConfigFromViper())

	for _, path := range args {
		result, err := s.Sniff(path)
		if err != nil {
			Log().WithFields(logrus.Fields{
				"path":  path,
				"error": err.Error(),
			}).Warning("Sniff failed")
			continue
		}
		fmt.Printf("%s\n", path)
		fmt.Printf("  format_family: %s\n", result.FormatFamily)
		fmt.Printf("  magic_family:  %s\n", result.MagicFamily)
		fmt.Printf("  magic_ok:      %t\n", result.MagicOK)
		fmt.Printf("  size_bytes:    %d\n", result.SizeBytes)
		fmt.Printf("  log_size:      %.6f\n", result.LogSize)
	}
	return nil
}
