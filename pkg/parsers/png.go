/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: png.go
Description: PNG structural parser for the Akaylee Featurizer. Requires the 8-byte
signature and a leading IHDR of declared length 13, then iterates length-prefixed
chunks up to a hard cap, tracking IDAT occurrences and IEND termination.
*/

package parsers

import (
	"bytes"
	"os"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

const (
	pngSignatureLen = 8
	pngMaxChunks    = 100000
)

// PNGParser extracts structural features from PNG streams
type PNGParser struct{}

// NewPNGParser creates a new PNG structural parser
func NewPNGParser() *PNGParser { return &PNGParser{} }

// Family returns the format family handled by this parser
func (p *PNGParser) Family() string { return "png" }

// Default returns the all-default PNG record
func (p *PNGParser) Default() *interfaces.Record {
	return p.record(false, false, 0, 0, false)
}

func (p *PNGParser) record(headerOK, ihdrOK bool, chunks, idat int, iendOK bool) *interfaces.Record {
	parserOK := headerOK && ihdrOK && chunks >= 2
	structureConsistent := parserOK && idat >= 1 && iendOK

	rec := interfaces.NewRecord()
	rec.Set("png_header_ok", interfaces.BoolValue(headerOK))
	rec.Set("png_ihdr_ok", interfaces.BoolValue(ihdrOK))
	rec.Set("png_chunks_count", interfaces.IntValue(int64(chunks)))
	rec.Set("png_idat_count", interfaces.IntValue(int64(idat)))
	rec.Set("png_end_iend_ok", interfaces.BoolValue(iendOK))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

// Parse extracts PNG features; failures collapse to the default record
func (p *PNGParser) Parse(path string) *interfaces.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return p.Default()
	}

	if !bytes.HasPrefix(data, pngSignature) || len(data) < pngSignatureLen+12 {
		return p.Default()
	}

	pos := pngSignatureLen
	n := len(data)

	chunks := 0
	idatCount := 0
	ihdrOK := false
	iendOK := false

	// First chunk must be IHDR with declared length 13 that fits the buffer.
	// The walk still advances by the declared length otherwise.
	ihdrLen, ok := be32(data, pos)
	if !ok {
		return p.record(true, false, 0, 0, false)
	}
	if bytes.Equal(data[pos+4:pos+8], []byte("IHDR")) && ihdrLen == 13 && pos+12+int(ihdrLen) <= n {
		ihdrOK = true
	}
	pos += 8 + int(ihdrLen) + 4 // len(4) + type(4) + data + crc(4)
	chunks++

	// Remaining chunks, capped against crafted chains
	for steps := 0; pos+8 <= n && steps < pngMaxChunks; steps++ {
		length, ok := be32(data, pos)
		if !ok {
			break
		}
		ctype := data[pos+4 : pos+8]
		next := pos + 8 + int(length) + 4
		if next > n {
			break // declared extent exceeds the buffer
		}
		chunks++
		if bytes.Equal(ctype, []byte("IDAT")) {
			idatCount++
		} else if bytes.Equal(ctype, []byte("IEND")) {
			iendOK = true
			break
		}
		pos = next
	}

	return p.record(true, ihdrOK, chunks, idatCount, iendOK)
}

var _ interfaces.StructuralParser = (*PNGParser)(nil)
