/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ole2.go
Description: OLE2/CFB structural parser for the Akaylee Featurizer. Validates the
512-byte header, materializes the FAT by walking the DIFAT with a cycle-guarded
visited set, follows the directory chain, and classifies 128-byte directory entries.
*/

package parsers

import (
	"bytes"
	"encoding/binary"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	cfbHeaderSize   = 512
	cfbDirEntrySize = 128
	// Shared cap on DIFAT walks and FAT chain hops
	cfbMaxSectors = 8192

	cfbFreeSect   = 0xFFFFFFFF
	cfbEndOfChain = 0xFFFFFFFE
)

var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// cfbHeader holds the decoded CFB header fields used for traversal
type cfbHeader struct {
	sectorSize        int
	miniSectorSize    int
	numFATSectors     uint32
	firstDirSector    uint32
	firstMiniFAT      uint32
	numMiniFATSectors uint32
	firstDIFAT        uint32
	numDIFATSectors   uint32
	difat0            [109]uint32 // inline DIFAT from the header
}

// OLE2Parser extracts structural features from Compound File Binary containers
type OLE2Parser struct{}

// NewOLE2Parser creates a new OLE2/CFB structural parser
func NewOLE2Parser() *OLE2Parser { return &OLE2Parser{} }

// Family returns the format family handled by this parser
func (p *OLE2Parser) Family() string { return "ole2" }

// Default returns the all-default OLE2 record
func (p *OLE2Parser) Default() *interfaces.Record {
	return ole2Record(false, 0, false, false, false, false, false)
}

func ole2Record(dirOK bool, streams int, fatOK, miniFATOK, rootPresent, summaryPresent, expectedPresent bool) *interfaces.Record {
	parserOK := dirOK && rootPresent && fatOK && streams >= 1
	structureConsistent := parserOK && (expectedPresent || summaryPresent) && (miniFATOK || streams <= 1)

	rec := interfaces.NewRecord()
	rec.Set("ole_dir_ok", interfaces.BoolValue(dirOK))
	rec.Set("ole_stream_count", interfaces.IntValue(int64(streams)))
	rec.Set("ole_fat_ok", interfaces.BoolValue(fatOK))
	rec.Set("ole_mini_fat_ok", interfaces.BoolValue(miniFATOK))
	rec.Set("ole_root_entry_present", interfaces.BoolValue(rootPresent))
	rec.Set("ole_summaryinfo_present", interfaces.BoolValue(summaryPresent))
	rec.Set("ole_expected_streams_present", interfaces.BoolValue(expectedPresent))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

// sectorAt returns sector idx, or nil when the sector is out of bounds.
// The first sector starts right after the 512-byte header.
func sectorAt(data []byte, sectorSize int, idx uint32) []byte {
	off := cfbHeaderSize + int64(idx)*int64(sectorSize)
	end := off + int64(sectorSize)
	if off < 0 || end > int64(len(data)) {
		return nil
	}
	return data[off:end]
}

// parseCFBHeader validates the signature and decodes the locator fields
func parseCFBHeader(data []byte) *cfbHeader {
	if len(data) < cfbHeaderSize || !bytes.HasPrefix(data, cfbSignature) {
		return nil
	}

	sectorShift, _ := le16(data, 0x1E)
	miniSectorShift, _ := le16(data, 0x20)
	// Hostile headers can declare absurd shifts that would make sector
	// arithmetic underflow or overflow; real CFB readers accept 6..20
	if sectorShift < 6 || sectorShift > 20 || miniSectorShift > 20 {
		return nil
	}
	numFATSectors, _ := le32(data, 0x2C)
	firstDirSector, _ := le32(data, 0x30)
	firstMiniFAT, _ := le32(data, 0x3C)
	numMiniFATSectors, _ := le32(data, 0x40)
	firstDIFAT, _ := le32(data, 0x44)
	numDIFATSectors, _ := le32(data, 0x48)

	h := &cfbHeader{
		sectorSize:        1 << sectorShift,
		miniSectorSize:    1 << miniSectorShift,
		numFATSectors:     numFATSectors,
		firstDirSector:    firstDirSector,
		firstMiniFAT:      firstMiniFAT,
		numMiniFATSectors: numMiniFATSectors,
		firstDIFAT:        firstDIFAT,
		numDIFATSectors:   numDIFATSectors,
	}
	for i := range h.difat0 {
		h.difat0[i] = binary.LittleEndian.Uint32(data[0x4C+4*i:])
	}
	return h
}

// buildFAT materializes the full sector-allocation table by collecting FAT
// sector indices from the inline DIFAT and the DIFAT sector chain, then
// decoding each referenced FAT sector. The DIFAT walk is cycle-guarded.
func buildFAT(data []byte, h *cfbHeader) ([]uint32, bool) {
	var fatSectors []uint32

	// Inline DIFAT: all 109 slots are scanned, free slots skipped without
	// terminating the scan
	for _, s := range h.difat0 {
		if s != cfbFreeSect {
			fatSectors = append(fatSectors, s)
		}
	}

	// DIFAT sector chain: last u32 of each sector points at the next
	difatSect := h.firstDIFAT
	remaining := h.numDIFATSectors
	visited := make(map[uint32]bool)
	for difatSect != cfbFreeSect && difatSect != cfbEndOfChain &&
		remaining > 0 && len(visited) < cfbMaxSectors {
		if visited[difatSect] {
			break
		}
		visited[difatSect] = true
		buf := sectorAt(data, h.sectorSize, difatSect)
		if len(buf) != h.sectorSize {
			break
		}
		count := h.sectorSize/4 - 1
		for i := 0; i < count; i++ {
			s := binary.LittleEndian.Uint32(buf[4*i:])
			if s != cfbFreeSect {
				fatSectors = append(fatSectors, s)
			}
		}
		difatSect = binary.LittleEndian.Uint32(buf[h.sectorSize-4:])
		remaining--
	}

	var fat []uint32
	fatOK := true
	for _, sidx := range fatSectors {
		buf := sectorAt(data, h.sectorSize, sidx)
		if len(buf) != h.sectorSize {
			fatOK = false
			break
		}
		for i := 0; i < h.sectorSize/4; i++ {
			fat = append(fat, binary.LittleEndian.Uint32(buf[4*i:]))
		}
	}
	if len(fat) == 0 {
		fatOK = false
	}
	return fat, fatOK
}

// followChain concatenates sectors along a FAT chain starting at start.
// Terminates on chain end, out-of-range links, revisited sectors, or the
// sector cap.
func followChain(data []byte, sectorSize int, fat []uint32, start uint32) []byte {
	if start == cfbFreeSect || start == cfbEndOfChain {
		return nil
	}
	var out []byte
	seen := make(map[uint32]bool)
	cur := start
	for hops := 0; cur != cfbFreeSect && cur != cfbEndOfChain && hops < cfbMaxSectors; hops++ {
		if seen[cur] || int(cur) >= len(fat) {
			break
		}
		seen[cur] = true
		sec := sectorAt(data, sectorSize, cur)
		if len(sec) != sectorSize {
			break
		}
		out = append(out, sec...)
		cur = fat[cur]
	}
	return out
}

// parseDirectoryStream classifies 128-byte directory entries, collecting the
// stream count and presence of the root entry, SummaryInformation, and known
// application streams. An entry with an invalid object type marks the whole
// directory inconsistent.
func parseDirectoryStream(dir []byte) (dirOK bool, streams int, rootPresent, summaryPresent, expectedPresent bool) {
	if len(dir) < cfbDirEntrySize {
		return false, 0, false, false, false
	}

	for i := 0; i+cfbDirEntrySize <= len(dir); i += cfbDirEntrySize {
		entry := dir[i : i+cfbDirEntrySize]

		nameLen, _ := le16(entry, 0x40) // bytes, including the trailing NUL
		if nameLen > 128 {
			nameLen = 128
		}
		nameLen &^= 1

		objType := entry[0x42] // 0=unused, 1=storage, 2=stream, 5=root storage
		switch objType {
		case 0, 1, 2, 5:
		default:
			return false, streams, rootPresent, summaryPresent, expectedPresent
		}

		if objType == 5 {
			rootPresent = true
		}
		if objType == 2 {
			streams++
		}

		name := decodeUTF16Name(entry[:int(nameLen)])
		if name == "\x05SummaryInformation" {
			summaryPresent = true
		}
		switch name {
		case "WordDocument", "Workbook", "PowerPoint Document":
			expectedPresent = true
		}
	}
	return true, streams, rootPresent, summaryPresent, expectedPresent
}

// decodeUTF16Name decodes a UTF-16LE directory entry name, trimming NULs
func decodeUTF16Name(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}

// checkMiniFAT validates MiniFAT readability when one is declared present
func checkMiniFAT(data []byte, h *cfbHeader) bool {
	if h.numMiniFATSectors == 0 || h.firstMiniFAT == cfbFreeSect || h.firstMiniFAT == cfbEndOfChain {
		return true
	}
	buf := sectorAt(data, h.sectorSize, h.firstMiniFAT)
	return len(buf) == h.sectorSize && len(buf)%4 == 0
}

// Parse extracts OLE2 features; failures collapse to the default record
func (p *OLE2Parser) Parse(path string) *interfaces.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		return p.Default()
	}

	h := parseCFBHeader(data)
	if h == nil {
		return p.Default()
	}

	fat, fatOK := buildFAT(data, h)

	dirStream := followChain(data, h.sectorSize, fat, h.firstDirSector)
	dirOK, streams, rootPresent, summaryPresent, expectedPresent := parseDirectoryStream(dirStream)

	miniOK := checkMiniFAT(data, h)

	return ole2Record(dirOK, streams, fatOK, miniOK, rootPresent, summaryPresent, expectedPresent)
}

var _ interfaces.StructuralParser = (*OLE2Parser)(nil)
