/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: zip.go
Description: ZIP structural parser for the Akaylee Featurizer. Reverse-scans the tail
for the End-Of-Central-Directory record, validates the central directory offset, and
iterates fixed 46-byte central-directory headers up to the declared entry count.
*/

package parsers

import (
	"bytes"
	"math"
	"os"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	zipCDHSignature = 0x02014B50 // 'PK\x01\x02'
	zipEOCDLen      = 22
	zipCDHFixedLen  = 46
	// EOCD lives within the trailing 64 KiB comment space plus its own body
	zipEOCDSearch = 0x10000 + zipEOCDLen
)

var zipEOCDMagic = []byte("PK\x05\x06")

// zipEOCD holds the parsed End-Of-Central-Directory fields
type zipEOCD struct {
	entriesTotal int
	cdSize       int64
	cdOffset     int64
	commentLen   int
}

// ZIPParser extracts structural features from ZIP archives
type ZIPParser struct{}

// NewZIPParser creates a new ZIP structural parser
func NewZIPParser() *ZIPParser { return &ZIPParser{} }

// Family returns the format family handled by this parser
func (p *ZIPParser) Family() string { return "zip" }

// Default returns the all-default ZIP record
func (p *ZIPParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("zip_central_dir_ok", interfaces.BoolValue(false))
	rec.Set("zip_cd_offset_ok", interfaces.BoolValue(false))
	rec.Set("zip_entry_count", interfaces.IntValue(0))
	rec.Set("zip_has_content_types", interfaces.BoolValue(false))
	rec.Set("zip_comment_len", interfaces.IntValue(0))
	rec.Set("zip_names_utf8_fraction", interfaces.FloatValue(0.0))
	rec.Set("zip_crc_present_fraction", interfaces.FloatValue(0.0))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// findEOCD reverse-scans the file tail for the EOCD signature and returns its
// parsed fixed body, or nil when no plausible EOCD exists.
func findEOCD(f *os.File, size int64) *zipEOCD {
	search := int64(zipEOCDSearch)
	if search > size {
		search = size
	}
	tail := readAt(f, size-search, int(search))
	idx := bytes.LastIndex(tail, zipEOCDMagic)
	if idx < 0 {
		return nil
	}
	pos := size - search + int64(idx)
	eocd := readAt(f, pos, zipEOCDLen)
	if len(eocd) < zipEOCDLen {
		return nil
	}

	// EOCD fixed body: sig(4) disk(2) cd_disk(2) disk_entries(2)
	// total_entries(2) cd_size(4) cd_offset(4) comment_len(2)
	entriesTotal, _ := le16(eocd, 10)
	cdSize, _ := le32(eocd, 12)
	cdOffset, _ := le32(eocd, 16)
	commentLen, _ := le16(eocd, 20)
	return &zipEOCD{
		entriesTotal: int(entriesTotal),
		cdSize:       int64(cdSize),
		cdOffset:     int64(cdOffset),
		commentLen:   int(commentLen),
	}
}

// zipEntry carries the per-entry fields used for feature extraction
type zipEntry struct {
	name []byte
	gpbf uint16
	crc  uint32
}

// iterCentralDirectory walks fixed-size central-directory headers, stopping
// at the directory end, a bad signature, or the declared entry count.
func iterCentralDirectory(f *os.File, cdOffset, cdSize int64, expectedEntries int) []zipEntry {
	data := readAt(f, cdOffset, int(cdSize))
	var entries []zipEntry
	pos := 0
	for pos+zipCDHFixedLen <= len(data) {
		sig, _ := le32(data, pos)
		if sig != zipCDHSignature {
			break
		}
		gpbf, _ := le16(data, pos+8)
		crc, _ := le32(data, pos+16)
		fnameLen, _ := le16(data, pos+28)
		extraLen, _ := le16(data, pos+30)
		commentLen, _ := le16(data, pos+32)

		nameStart := pos + zipCDHFixedLen
		nameEnd := nameStart + int(fnameLen)
		if nameEnd > len(data) {
			break
		}
		entries = append(entries, zipEntry{name: data[nameStart:nameEnd], gpbf: gpbf, crc: crc})

		pos += zipCDHFixedLen + int(fnameLen) + int(extraLen) + int(commentLen)
		if expectedEntries > 0 && len(entries) >= expectedEntries {
			break
		}
	}
	return entries
}

// Parse extracts ZIP features; a missing EOCD yields the default record
func (p *ZIPParser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return p.Default()
	}

	eocd := findEOCD(f, size)
	if eocd == nil {
		return p.Default()
	}

	// The central directory must fit the file and open with a CDH signature
	cdOffsetOK := eocd.cdOffset+eocd.cdSize <= size
	if cdOffsetOK {
		sig, ok := le32(readAt(f, eocd.cdOffset, 4), 0)
		cdOffsetOK = ok && sig == zipCDHSignature
	}

	entries := iterCentralDirectory(f, eocd.cdOffset, eocd.cdSize, eocd.entriesTotal)
	entryCount := len(entries)

	utf8Count := 0
	crcPresentCount := 0
	hasContentTypes := false
	for _, e := range entries {
		if e.gpbf&0x0800 != 0 { // bit 11: UTF-8 names
			utf8Count++
		}
		if e.crc != 0 {
			crcPresentCount++
		}
		if bytes.Equal(e.name, []byte("[Content_Types].xml")) {
			hasContentTypes = true
		}
	}

	centralDirOK := (eocd.entriesTotal == 0 && entryCount == 0) || entryCount == eocd.entriesTotal

	var utf8Fraction, crcFraction float64
	if entryCount > 0 {
		utf8Fraction = roundFraction(float64(utf8Count) / float64(entryCount))
		crcFraction = roundFraction(float64(crcPresentCount) / float64(entryCount))
	}

	parserOK := centralDirOK && cdOffsetOK && entryCount >= 1
	structureConsistent := parserOK && crcFraction >= 0.65

	rec := interfaces.NewRecord()
	rec.Set("zip_central_dir_ok", interfaces.BoolValue(centralDirOK))
	rec.Set("zip_cd_offset_ok", interfaces.BoolValue(cdOffsetOK))
	rec.Set("zip_entry_count", interfaces.IntValue(int64(entryCount)))
	rec.Set("zip_has_content_types", interfaces.BoolValue(hasContentTypes))
	rec.Set("zip_comment_len", interfaces.IntValue(int64(eocd.commentLen)))
	rec.Set("zip_names_utf8_fraction", interfaces.FloatValue(utf8Fraction))
	rec.Set("zip_crc_present_fraction", interfaces.FloatValue(crcFraction))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

// roundFraction rounds to six decimal places, matching the reported precision
func roundFraction(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

var _ interfaces.StructuralParser = (*ZIPParser)(nil)
