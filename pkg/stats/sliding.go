/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sliding.go
Description: Sliding-window Shannon entropy profile. Splits a buffer into
fixed-size windows advanced by a configurable step and computes the entropy of
each window, giving a positional view of where high-entropy regions sit inside
a file.
*/

package stats

import (
	"fmt"
	"os"
)

// DefaultWindowSize is the sliding-entropy window used when none is configured
const DefaultWindowSize = 256

// SlidingEntropy computes the windowed entropy profile of data. Windows start
// every step bytes; a step equal to win gives non-overlapping windows. Data
// shorter than one window yields an empty profile.
func SlidingEntropy(data []byte, win, step int) []float64 {
	if win <= 0 {
		win = DefaultWindowSize
	}
	if step <= 0 {
		step = win
	}
	if len(data) < win {
		return nil
	}
	vals := make([]float64, 0, (len(data)-win)/step+1)
	for i := 0; i+win <= len(data); i += step {
		h, _ := EntropyFromBytes(data[i : i+win])
		vals = append(vals, h)
	}
	return vals
}

// SlidingEntropyFile reads a whole file and computes its windowed entropy
// profile. Intended for the stats command, not the extraction pipeline.
func SlidingEntropyFile(path string, win, step int) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for sliding entropy: %w", path, err)
	}
	return SlidingEntropy(data, win, step), nil
}
