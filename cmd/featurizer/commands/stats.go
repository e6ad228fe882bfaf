/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Stats command implementation for the Akaylee Featurizer. Computes
the single-pass byte statistics for a file and optionally its sliding-window
entropy profile.
*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/akaylee-featurizer/pkg/stats"
)

// RunStats reports byte statistics for one file
func RunStats(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := SetupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	path := args[0]
	s, err := stats.Collect(path)
	if err != nil {
		return fmt.Errorf("failed to collect statistics: %w", err)
	}

	fmt.Printf("%s (%d bytes)\n", path, s.Total)
	printMetric("entropy_global", s.EntropyGlobal)
	printMetric("min_entropy_global", s.MinEntropyGlobal)
	printMetric("entropy_head", s.EntropyHead)
	printMetric("entropy_tail", s.EntropyTail)
	printMetric("byte_chi2", s.ByteChi2)
	printMetric("ic_index", s.ICIndex)

	if viper.GetBool("stats.sliding") {
		win := viper.GetInt("stats.window")
		step := viper.GetInt("stats.step")
		profile, err := stats.SlidingEntropyFile(path, win, step)
		if err != nil {
			return err
		}
		fmt.Printf("\nsliding entropy (window=%d, step=%d, %d windows)\n", win, stepOrWin(step, win), len(profile))
		for i, h := range profile {
			fmt.Printf("%8d  %.6f\n", i, h)
		}
	}
	return nil
}

func printMetric(name string, fn func() (float64, bool)) {
	if v, ok := fn(); ok {
		fmt.Printf("  %-20s %.6f\n", name, v)
	} else {
		fmt.Printf("  %-20s (undefined)\n", name)
	}
}

func stepOrWin(step, win int) int {
	if step <= 0 {
		return win
	}
	return step
}
