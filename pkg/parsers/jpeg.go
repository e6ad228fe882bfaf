/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: jpeg.go
Description: JPEG structural parser for the Akaylee Featurizer. Walks marker-delimited
segments tracking SOF/SOS/EOI and Exif APP1 presence, with a hard step cap so crafted
marker chains cannot stall the walk.
*/

package parsers

import (
	"bytes"
	"os"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	jpegSOI  = 0xD8
	jpegEOI  = 0xD9
	jpegSOS  = 0xDA
	jpegTEM  = 0x01
	jpegAPP1 = 0xE1
	jpegRST0 = 0xD0
	jpegRST7 = 0xD7

	jpegMaxSegments = 200000
)

// sofMarkers is the set of Start-Of-Frame markers (C4, C8 and CC are not SOF)
var sofMarkers = map[byte]bool{
	0xC0: true, 0xC1: true, 0xC2: true, 0xC3: true,
	0xC5: true, 0xC6: true, 0xC7: true,
	0xC9: true, 0xCA: true, 0xCB: true,
	0xCD: true, 0xCE: true, 0xCF: true,
}

// JPEGParser extracts structural features from JPEG streams
type JPEGParser struct{}

// NewJPEGParser creates a new JPEG structural parser
func NewJPEGParser() *JPEGParser { return &JPEGParser{} }

// Family returns the format family handled by this parser
func (p *JPEGParser) Family() string { return "jpeg" }

// Default returns the all-default JPEG record
func (p *JPEGParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("jpeg_header_ok", interfaces.BoolValue(false))
	rec.Set("jpeg_sof_present", interfaces.BoolValue(false))
	rec.Set("jpeg_sos_present", interfaces.BoolValue(false))
	rec.Set("jpeg_exif_present", interfaces.BoolValue(false))
	rec.Set("jpeg_segments_count", interfaces.IntValue(0))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// Parse extracts JPEG features; failures collapse to the default record
func (p *JPEGParser) Parse(path string) *interfaces.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return p.Default()
	}

	if len(data) < 2 || data[0] != 0xFF || data[1] != jpegSOI {
		return p.Default()
	}

	pos := 2
	n := len(data)
	steps := 0

	segments := 0
	sofPresent := false
	sosPresent := false
	exifPresent := false

	for pos < n && steps < jpegMaxSegments {
		steps++

		// Resync onto a marker prefix. Inside compressed scan data (after
		// SOS) the walk ends instead of resyncing.
		if data[pos] != 0xFF {
			if sosPresent {
				break
			}
			idx := bytes.IndexByte(data[pos:], 0xFF)
			if idx < 0 {
				break
			}
			pos += idx
		}

		// Skip 0xFF fill bytes
		for pos < n && data[pos] == 0xFF {
			pos++
		}
		if pos >= n {
			break
		}

		marker := data[pos]
		pos++

		// RSTn and TEM carry no length field
		if (marker >= jpegRST0 && marker <= jpegRST7) || marker == jpegTEM {
			segments++
			continue
		}

		// A stray SOI inside the stream counts as a segment
		if marker == jpegSOI {
			segments++
			continue
		}

		if marker == jpegEOI {
			segments++
			break
		}

		// All remaining markers carry a 2-byte big-endian length (>= 2)
		segLen, ok := be16(data, pos)
		if !ok {
			break
		}
		segDataStart := pos + 2
		segDataEnd := segDataStart + int(segLen) - 2
		if segLen < 2 || segDataEnd > n {
			break
		}

		if sofMarkers[marker] {
			sofPresent = true
		}
		if marker == jpegSOS {
			sosPresent = true
		}
		if marker == jpegAPP1 {
			if segDataStart+6 <= n && bytes.Equal(data[segDataStart:segDataStart+6], []byte("Exif\x00\x00")) {
				exifPresent = true
			}
		}

		segments++

		// Compressed scan data follows SOS
		if marker == jpegSOS {
			break
		}

		pos = segDataEnd
	}

	parserOK := sofPresent || sosPresent
	parserOK = parserOK && segments >= 3
	structureConsistent := sofPresent && sosPresent && segments >= 4

	rec := interfaces.NewRecord()
	rec.Set("jpeg_header_ok", interfaces.BoolValue(true))
	rec.Set("jpeg_sof_present", interfaces.BoolValue(sofPresent))
	rec.Set("jpeg_sos_present", interfaces.BoolValue(sosPresent))
	rec.Set("jpeg_exif_present", interfaces.BoolValue(exifPresent))
	rec.Set("jpeg_segments_count", interfaces.IntValue(int64(segments)))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

var _ interfaces.StructuralParser = (*JPEGParser)(nil)
