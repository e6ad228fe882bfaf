/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mp4.go
Description: MP4/ISO-BMFF structural parser for the Akaylee Featurizer. Iterates the
box tree over [start,end) with large-size and to-end-of-container handling, rejecting
any box whose size undercuts its header or whose end escapes the container.
*/

package parsers

import (
	"os"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const mp4MaxSteps = 1000000

// mp4Box describes one parsed box header
type mp4Box struct {
	typ   string
	start int64
	size  int64
	hdr   int64
}

// MP4Parser extracts structural features from ISO-BMFF containers
type MP4Parser struct{}

// NewMP4Parser creates a new MP4 structural parser
func NewMP4Parser() *MP4Parser { return &MP4Parser{} }

// Family returns the format family handled by this parser
func (p *MP4Parser) Family() string { return "mp4" }

// Default returns the all-default MP4 record
func (p *MP4Parser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("mp4_ftyp_present", interfaces.BoolValue(false))
	rec.Set("mp4_moov_present", interfaces.BoolValue(false))
	rec.Set("mp4_mdat_present", interfaces.BoolValue(false))
	rec.Set("mp4_brand", interfaces.StringValue(""))
	rec.Set("mp4_box_tree_ok", interfaces.BoolValue(false))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// iterBoxes walks box headers over [start,limit), stopping at the first box
// whose declared size undercuts its own header or escapes the container.
// Never reads past limit; bounded by mp4MaxSteps.
func iterBoxes(f *os.File, start, limit int64) []mp4Box {
	var boxes []mp4Box
	pos := start
	for steps := 0; pos+8 <= limit && steps < mp4MaxSteps; steps++ {
		head := readAt(f, pos, 16)
		if len(head) < 8 {
			break
		}
		size32, _ := be32(head, 0)
		btype := asciiClean(head[4:8])

		var boxSize, hdrSize int64
		switch size32 {
		case 1:
			// 64-bit large-size follows the compact header
			if len(head) < 16 {
				return boxes
			}
			largeSize, ok := be64(head, 8)
			if !ok || largeSize < 16 {
				return boxes
			}
			boxSize = int64(largeSize)
			hdrSize = 16
		case 0:
			// Box extends to the end of its container
			boxSize = limit - pos
			hdrSize = 8
		default:
			boxSize = int64(size32)
			hdrSize = 8
		}

		if boxSize < hdrSize {
			break
		}
		if pos+boxSize > limit {
			break
		}

		boxes = append(boxes, mp4Box{typ: btype, start: pos, size: boxSize, hdr: hdrSize})
		pos += boxSize
	}
	return boxes
}

// validateBoxRange checks that the boxes in [start,limit) are contiguous and
// in-bounds. Trailing padding after the last box is tolerated.
func validateBoxRange(f *os.File, start, limit int64) bool {
	pos := start
	for _, b := range iterBoxes(f, start, limit) {
		if b.start != pos {
			return false
		}
		pos += b.size
	}
	return true
}

// asciiClean decodes a 4-byte type dropping non-ASCII bytes
func asciiClean(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x80 {
			out = append(out, c)
		}
	}
	return string(out)
}

// Parse extracts MP4 features; failures collapse to the default record
func (p *MP4Parser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil || size < 8 {
		return p.Default()
	}

	ftypPresent := false
	moovPresent := false
	mdatPresent := false
	brand := ""
	treeOK := validateBoxRange(f, 0, size)

	for _, b := range iterBoxes(f, 0, size) {
		switch b.typ {
		case "ftyp":
			ftypPresent = true
			// ftyp layout: size(4) type(4) major_brand(4) minor_version(4) ...
			head := readAt(f, b.start+b.hdr, 8)
			if len(head) >= 4 {
				brand = asciiClean(head[:4])
			}
		case "moov":
			moovPresent = true
			treeOK = treeOK && validateBoxRange(f, b.start+b.hdr, b.start+b.size)
		case "mdat":
			mdatPresent = true
		}
		// free, skip, wide, mfra and the rest carry no features
	}

	parserOK := ftypPresent && treeOK && (moovPresent || mdatPresent)
	structureConsistent := ftypPresent && treeOK && moovPresent && mdatPresent

	rec := interfaces.NewRecord()
	rec.Set("mp4_ftyp_present", interfaces.BoolValue(ftypPresent))
	rec.Set("mp4_moov_present", interfaces.BoolValue(moovPresent))
	rec.Set("mp4_mdat_present", interfaces.BoolValue(mdatPresent))
	rec.Set("mp4_brand", interfaces.StringValue(brand))
	rec.Set("mp4_box_tree_ok", interfaces.BoolValue(treeOK))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

var _ interfaces.StructuralParser = (*MP4Parser)(nil)
