/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: gzip.go
Description: GZIP structural parser for the Akaylee Featurizer. Validates the RFC-1952
base header and walks the optional fields (FEXTRA, FNAME, FCOMMENT, FHCRC) with strict
bounds checks against the read window.
*/

package parsers

import (
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	gzipID1      = 0x1F
	gzipID2      = 0x8B
	gzipDeflate  = 8
	gzipFHCRC    = 0x02
	gzipFEXTRA   = 0x04
	gzipFNAME    = 0x08
	gzipFCOMMENT = 0x10

	gzipBaseHeaderLen = 10
	// Everything of interest lives in the header; 64 KiB is more than enough
	gzipMaxRead = 64 * 1024
)

// GZIPParser extracts structural features from GZIP members
type GZIPParser struct{}

// NewGZIPParser creates a new GZIP structural parser
func NewGZIPParser() *GZIPParser { return &GZIPParser{} }

// Family returns the format family handled by this parser
func (p *GZIPParser) Family() string { return "gzip" }

// Default returns the all-default GZIP record
func (p *GZIPParser) Default() *interfaces.Record {
	return p.record(false, false, false)
}

// record assembles a GZIP feature record. parser_ok and structure_consistent
// are tied to header validity only.
func (p *GZIPParser) record(headerOK, mtimePresent, namePresent bool) *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("gzip_header_ok", interfaces.BoolValue(headerOK))
	rec.Set("gzip_mtime_present", interfaces.BoolValue(mtimePresent))
	rec.Set("gzip_name_present", interfaces.BoolValue(namePresent))
	rec.Set("parser_ok", interfaces.BoolValue(headerOK))
	rec.Set("structure_consistent", interfaces.BoolValue(headerOK))
	return rec
}

// Parse extracts GZIP features; failures collapse to the default record
func (p *GZIPParser) Parse(path string) *interfaces.Record {
	data, err := readCapped(path, gzipMaxRead)
	if err != nil || len(data) < gzipBaseHeaderLen {
		return p.Default()
	}

	flg := data[3]
	headerOK := data[0] == gzipID1 && data[1] == gzipID2 && data[2] == gzipDeflate

	mtime, _ := le32(data, 4)
	mtimePresent := mtime != 0

	pos := gzipBaseHeaderLen
	n := len(data)

	// FEXTRA: 2-byte little-endian length followed by that many bytes.
	// Truncation mid-field yields partial features.
	if flg&gzipFEXTRA != 0 {
		xlen, ok := le16(data, pos)
		if !ok {
			return p.record(headerOK, mtimePresent, false)
		}
		pos += 2 + int(xlen)
		if pos > n {
			return p.record(headerOK, mtimePresent, false)
		}
	}

	// FNAME: NUL-terminated original file name
	namePresent := false
	if flg&gzipFNAME != 0 {
		start := pos
		for pos < n && data[pos] != 0 {
			pos++
		}
		if pos < n && pos > start {
			namePresent = true
		}
		if pos < n {
			pos++ // terminating NUL
		}
	}

	// FCOMMENT: NUL-terminated comment, skipped
	if flg&gzipFCOMMENT != 0 {
		for pos < n && data[pos] != 0 {
			pos++
		}
		if pos < n {
			pos++
		}
	}

	// FHCRC: fixed 2-byte header CRC
	if flg&gzipFHCRC != 0 {
		pos += 2
	}

	return p.record(headerOK, mtimePresent, namePresent)
}

// Compile-time interface check
var _ interfaces.StructuralParser = (*GZIPParser)(nil)
