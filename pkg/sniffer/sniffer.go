/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sniffer.go
Description: Container-family sniffer for the Akaylee Featurizer. Classifies a file
from its header bytes using a priority-ordered signature table, resolves ZIP vs OOXML
with a shallow archive-listing probe, and derives size-based scalar features.
*/

package sniffer

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// Sniffer classifies files into container format families.
// Stateless apart from its immutable configuration; safe for concurrent use.
type Sniffer struct {
	config interfaces.SnifferConfig
}

// NewSniffer creates a sniffer with the given configuration
func NewSniffer(config interfaces.SnifferConfig) *Sniffer {
	if config.HeadBytes <= 0 {
		config.HeadBytes = 16 * 1024
	}
	if config.TailBytes <= 0 {
		config.TailBytes = 16 * 1024
	}
	return &Sniffer{config: config}
}

// Sniff classifies the file at path. The only error cause is an unreadable
// file; signature mismatches are not errors.
func (s *Sniffer) Sniff(path string) (*interfaces.SniffResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := uint64(info.Size())

	head, tail, err := s.readWindows(path, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read sniff windows: %w", err)
	}

	result := &interfaces.SniffResult{
		FormatFamily:        s.resolveFamily(path, head),
		SizeBytes:           size,
		FallbackMaxAttempts: s.config.FallbackMaxAttempts,
	}
	result.MagicOK, result.MagicFamily = s.resolveMagic(path, head, tail)
	if size > 0 {
		result.LogSize = math.Log10(float64(size) + 1)
	}
	return result, nil
}

// readWindows reads the head window and, when the file is large enough, an
// equally sized tail window. Small files reuse the head as the tail.
func (s *Sniffer) readWindows(path string, size uint64) ([]byte, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	// A single Read may return fewer bytes than the window allows, so both
	// windows use ReadFull and treat a short file as a short window.
	head := make([]byte, s.config.HeadBytes)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, err
	}
	head = head[:n]

	tail := head
	if size >= uint64(s.config.TailBytes) {
		tail = make([]byte, s.config.TailBytes)
		if _, err := f.Seek(-int64(s.config.TailBytes), io.SeekEnd); err != nil {
			return head, head, nil
		}
		m, err := io.ReadFull(f, tail)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return head, head, nil
		}
		tail = tail[:m]
	}
	return head, tail, nil
}

// resolveFamily applies the priority-ordered parser-backed signature table,
// restricted to families enabled in the configuration.
func (s *Sniffer) resolveFamily(path string, head []byte) string {
	enabled := s.config.EnabledFamilies
	switch {
	case enabled["pdf"] && isPDF(head):
		return "pdf"
	case enabled["png"] && isPNG(head):
		return "png"
	case enabled["jpeg"] && isJPEG(head):
		return "jpeg"
	case enabled["gzip"] && isGZIP(head):
		return "gzip"
	case enabled["ole2"] && isOLE2(head):
		return "ole2"
	case enabled["rar"] && isRAR(head):
		return "rar"
	case enabled["mp4"] && isMP4(head):
		return "mp4"
	case (enabled["zip"] || enabled["ooxml"]) && isZIP(head):
		if enabled["ooxml"] && zipLooksLikeOOXML(path) {
			return "ooxml"
		}
		if enabled["zip"] {
			return "zip"
		}
	}
	return "other"
}

// resolveMagic applies the full signature surface independently of the
// enabled set, for diagnostic magic_ok/magic_family features.
func (s *Sniffer) resolveMagic(path string, head, tail []byte) (bool, string) {
	switch {
	case isPDF(head):
		return true, "pdf"
	case isPNG(head):
		return true, "png"
	case isJPEG(head):
		return true, "jpeg"
	case isGZIP(head):
		return true, "gzip"
	case isOLE2(head):
		return true, "ole2"
	case isRAR(head):
		return true, "rar"
	case isMP4(head):
		return true, "mp4"
	case isZIP(head):
		if zipLooksLikeOOXML(path) {
			return true, "ooxml"
		}
		return true, "zip"
	}

	whole := head
	if len(head) < 265 {
		whole = append(append([]byte{}, head...), tail...)
	}
	if fam := diagnosticFamily(head, whole); fam != "unknown" {
		return true, fam
	}
	return false, "unknown"
}

// zipLooksLikeOOXML is a shallow archive-listing probe: an OOXML package must
// carry [Content_Types].xml plus at least one word/, xl/ or ppt/ entry. No
// entry data is decompressed.
func zipLooksLikeOOXML(path string) bool {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer zr.Close()

	hasContentTypes := false
	hasOOXMLDir := false
	for _, f := range zr.File {
		if f.Name == "[Content_Types].xml" {
			hasContentTypes = true
		}
		if strings.HasPrefix(f.Name, "word/") || strings.HasPrefix(f.Name, "xl/") ||
			strings.HasPrefix(f.Name, "ppt/") {
			hasOOXMLDir = true
		}
		if hasContentTypes && hasOOXMLDir {
			return true
		}
	}
	return false
}
