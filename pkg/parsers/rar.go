/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rar.go
Description: RAR structural parser for the Akaylee Featurizer. Walks v4 7-byte block
headers with the ADD_SIZE extension, tracking MAIN and FILE headers up to the end-of-
archive block; v5 gets a shallow plausibility check of the first post-signature block.
*/

package parsers

import (
	"bytes"
	"os"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

var (
	rar4Signature = []byte("Rar!\x1A\x07\x00")
	rar5Signature = []byte("Rar!\x1A\x07\x01\x00")
)

const (
	rar4BlockMain   = 0x73
	rar4BlockFile   = 0x74
	rar4BlockEndArc = 0x7b

	rar4FlagAddSize = 0x8000
)

// RARParser extracts structural features from RAR archives
type RARParser struct{}

// NewRARParser creates a new RAR structural parser
func NewRARParser() *RARParser { return &RARParser{} }

// Family returns the format family handled by this parser
func (p *RARParser) Family() string { return "rar" }

// Default returns the all-default RAR record
func (p *RARParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("rar_header_ok", interfaces.BoolValue(false))
	rec.Set("rar_main_header_flags_ok", interfaces.BoolValue(false))
	rec.Set("rar_file_records_count", interfaces.IntValue(0))
	rec.Set("rar_version_5", interfaces.BoolValue(false))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// Parse extracts RAR features; unknown signatures yield the default record
func (p *RARParser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	head := readAt(f, 0, 10)
	switch {
	case bytes.HasPrefix(head, rar5Signature):
		return p.parseV5(f)
	case bytes.HasPrefix(head, rar4Signature):
		return p.parseV4(f, int64(len(rar4Signature)))
	}
	return p.Default()
}

// parseV4 walks v4 block headers: CRC(2) Type(1) Flags(2) Size(2), plus a
// 4-byte ADD_SIZE field when the flag bit is set. The advance deliberately
// uses head_size + add_size even though the extra field sits inside the
// fixed header span; reference archives exhibit exactly this stepping.
func (p *RARParser) parseV4(f *os.File, start int64) *interfaces.Record {
	size, err := fileSize(f)
	if err != nil {
		return p.Default()
	}

	pos := start
	fileCount := 0
	headerOK := false
	mainFlagsOK := false
	seenMain := false

	for pos+7 <= size {
		hdr := readAt(f, pos, 7)
		if len(hdr) < 7 {
			break
		}
		headType := hdr[2]
		headFlags, _ := le16(hdr, 3)
		headSize, _ := le16(hdr, 5)
		if headSize < 7 {
			break
		}

		var addSize int64
		if headFlags&rar4FlagAddSize != 0 {
			if pos+7+4 > size {
				break
			}
			v, ok := le32(readAt(f, pos+7, 4), 0)
			if !ok {
				break
			}
			addSize = int64(v)
		}

		blockTotal := int64(headSize) + addSize
		if pos+blockTotal > size {
			break
		}

		if headType == rar4BlockMain {
			seenMain = true
			mainFlagsOK = true
		}
		if headType == rar4BlockFile {
			fileCount++
		}

		headerOK = true
		pos += blockTotal

		if headType == rar4BlockEndArc {
			break
		}
	}

	parserOK := headerOK && mainFlagsOK
	structureConsistent := parserOK && fileCount > 0

	rec := interfaces.NewRecord()
	rec.Set("rar_header_ok", interfaces.BoolValue(headerOK && seenMain))
	rec.Set("rar_main_header_flags_ok", interfaces.BoolValue(mainFlagsOK))
	rec.Set("rar_file_records_count", interfaces.IntValue(int64(fileCount)))
	rec.Set("rar_version_5", interfaces.BoolValue(false))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

// parseV5 checks only that the first post-signature block declares a type
// and size in the plausible range
func (p *RARParser) parseV5(f *os.File) *interfaces.Record {
	data := readAt(f, 8, 64)

	blocksPresent := false
	if len(data) >= 7 {
		blockSize, _ := le32(data, 0)
		blockType := data[4]
		if blockType >= 1 && blockType <= 0x7f && blockSize > 0 && blockSize < 65536 {
			blocksPresent = true
		}
	}

	rec := interfaces.NewRecord()
	rec.Set("rar_header_ok", interfaces.BoolValue(true))
	rec.Set("rar_main_header_flags_ok", interfaces.BoolValue(true))
	rec.Set("rar_file_records_count", interfaces.IntValue(0))
	rec.Set("rar_version_5", interfaces.BoolValue(true))
	rec.Set("parser_ok", interfaces.BoolValue(true))
	rec.Set("structure_consistent", interfaces.BoolValue(blocksPresent))
	return rec
}

var _ interfaces.StructuralParser = (*RARParser)(nil)
