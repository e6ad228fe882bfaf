/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Single-pass byte-statistics engine. Streams a file in fixed-size
chunks accumulating a 256-bin histogram, the first 32 KiB as a head segment and
the last 32 KiB as a tail segment, then derives Shannon entropy, min-entropy,
chi-square against a uniform distribution and the index of coincidence. Every
derived metric reports ok=false instead of a value when the input is too small
for the metric to be defined.
*/

package stats

import (
	"fmt"
	"io"
	"math"
	"os"
)

const (
	// ChunkSize is the streaming read size for the single pass
	ChunkSize = 64 * 1024

	// SegmentSize bounds the captured head and tail segments
	SegmentSize = 32 * 1024
)

// ByteStatistics holds the raw accumulators from one pass over a file
type ByteStatistics struct {
	Histogram [256]uint64 // per-byte frequency counts
	Total     uint64      // total bytes seen
	Head      []byte      // first SegmentSize bytes (or fewer)
	Tail      []byte      // last SegmentSize bytes (or fewer)
}

// Collect performs the single streaming pass over the file at path
func Collect(path string) (*ByteStatistics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for statistics: %w", path, err)
	}
	defer f.Close()

	s := &ByteStatistics{
		Head: make([]byte, 0, SegmentSize),
	}

	// Tail is kept as a fixed-capacity ring
	ring := make([]byte, SegmentSize)
	ringLen := 0
	ringPos := 0

	buf := make([]byte, ChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.Total += uint64(n)
			for _, b := range chunk {
				s.Histogram[b]++
			}
			if len(s.Head) < SegmentSize {
				need := SegmentSize - len(s.Head)
				if need > len(chunk) {
					need = len(chunk)
				}
				s.Head = append(s.Head, chunk[:need]...)
			}
			for _, b := range chunk {
				ring[ringPos] = b
				ringPos = (ringPos + 1) % SegmentSize
				if ringLen < SegmentSize {
					ringLen++
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s for statistics: %w", path, readErr)
		}
	}

	// Unroll the ring into chronological order
	s.Tail = make([]byte, ringLen)
	if ringLen < SegmentSize {
		copy(s.Tail, ring[:ringLen])
	} else {
		n := copy(s.Tail, ring[ringPos:])
		copy(s.Tail[n:], ring[:ringPos])
	}
	return s, nil
}

// EntropyFromCounts computes Shannon entropy in bits per byte from a histogram
func EntropyFromCounts(counts *[256]uint64, total uint64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	entropy := 0.0
	for _, cnt := range counts {
		if cnt == 0 {
			continue
		}
		p := float64(cnt) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy, true
}

// EntropyFromBytes computes Shannon entropy over a byte slice
func EntropyFromBytes(data []byte) (float64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	var counts [256]uint64
	for _, b := range data {
		counts[b]++
	}
	return EntropyFromCounts(&counts, uint64(len(data)))
}

// MinEntropy computes -log2 of the most frequent byte's probability
func MinEntropy(counts *[256]uint64, total uint64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	var m uint64
	for _, cnt := range counts {
		if cnt > m {
			m = cnt
		}
	}
	if m == 0 {
		return 0, false
	}
	pMax := float64(m) / float64(total)
	return -math.Log2(pMax), true
}

// ChiSquare computes Pearson's chi-square against a uniform 256-bin expectation
func ChiSquare(counts *[256]uint64, total uint64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	expected := float64(total) / 256.0
	chi2 := 0.0
	for _, cnt := range counts {
		diff := float64(cnt) - expected
		chi2 += (diff * diff) / expected
	}
	return chi2, true
}

// IndexOfCoincidence computes the probability that two randomly chosen bytes
// from the input are equal
func IndexOfCoincidence(counts *[256]uint64, total uint64) (float64, bool) {
	if total <= 1 {
		return 0, false
	}
	var numerator float64
	for _, cnt := range counts {
		numerator += float64(cnt) * float64(cnt-1)
	}
	denominator := float64(total) * float64(total-1)
	return numerator / denominator, true
}

// EntropyGlobal derives the whole-file Shannon entropy
func (s *ByteStatistics) EntropyGlobal() (float64, bool) {
	return EntropyFromCounts(&s.Histogram, s.Total)
}

// MinEntropyGlobal derives the whole-file min-entropy
func (s *ByteStatistics) MinEntropyGlobal() (float64, bool) {
	return MinEntropy(&s.Histogram, s.Total)
}

// EntropyHead derives the entropy of the head segment
func (s *ByteStatistics) EntropyHead() (float64, bool) {
	return EntropyFromBytes(s.Head)
}

// EntropyTail derives the entropy of the tail segment
func (s *ByteStatistics) EntropyTail() (float64, bool) {
	return EntropyFromBytes(s.Tail)
}

// ByteChi2 derives the whole-file chi-square statistic
func (s *ByteStatistics) ByteChi2() (float64, bool) {
	return ChiSquare(&s.Histogram, s.Total)
}

// ICIndex derives the whole-file index of coincidence
func (s *ByteStatistics) ICIndex() (float64, bool) {
	return IndexOfCoincidence(&s.Histogram, s.Total)
}
