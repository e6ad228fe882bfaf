/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ole2_test.go
Description: Tests for the OLE2/CFB structural parser. Covers a handcrafted
minimal compound file, DIFAT cycle termination, invalid directory types and
non-CFB input.
*/

package parsers_test

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"

	"github.com/kleascm/akaylee-featurizer/pkg/parsers"
)

// cfbName encodes a directory entry name as UTF-16LE with a trailing NUL
func cfbName(name string) ([]byte, uint16) {
	units := utf16.Encode([]rune(name))
	units = append(units, 0)
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out, uint16(len(out))
}

// cfbDirEntry builds one 128-byte directory entry
func cfbDirEntry(name string, objType byte) []byte {
	entry := make([]byte, 128)
	encoded, nameLen := cfbName(name)
	copy(entry, encoded)
	binary.LittleEndian.PutUint16(entry[0x40:], nameLen)
	entry[0x42] = objType
	return entry
}

// buildCFB assembles a header plus 512-byte sectors
func buildCFB(headerMut func(hdr []byte), sectors ...[]byte) []byte {
	hdr := make([]byte, 512)
	copy(hdr, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(hdr[0x1E:], 9) // 512-byte sectors
	binary.LittleEndian.PutUint16(hdr[0x20:], 6) // 64-byte mini sectors
	binary.LittleEndian.PutUint32(hdr[0x2C:], 1) // one FAT sector
	binary.LittleEndian.PutUint32(hdr[0x30:], 1) // directory at sector 1
	binary.LittleEndian.PutUint32(hdr[0x3C:], 0xFFFFFFFE)
	binary.LittleEndian.PutUint32(hdr[0x40:], 0)
	binary.LittleEndian.PutUint32(hdr[0x44:], 0xFFFFFFFE)
	binary.LittleEndian.PutUint32(hdr[0x48:], 0)
	// Inline DIFAT: FAT at sector 0, all other slots free
	binary.LittleEndian.PutUint32(hdr[0x4C:], 0)
	for i := 1; i < 109; i++ {
		binary.LittleEndian.PutUint32(hdr[0x4C+4*i:], 0xFFFFFFFF)
	}
	if headerMut != nil {
		headerMut(hdr)
	}

	out := hdr
	for _, s := range sectors {
		sec := make([]byte, 512)
		copy(sec, s)
		out = append(out, sec...)
	}
	return out
}

// minimalFATSector marks sector 0 as FAT metadata and ends the directory chain
func minimalFATSector() []byte {
	fat := make([]byte, 512)
	for i := 0; i < 128; i++ {
		binary.LittleEndian.PutUint32(fat[4*i:], 0xFFFFFFFF)
	}
	binary.LittleEndian.PutUint32(fat[0:], 0xFFFFFFFD)  // FAT sector marker
	binary.LittleEndian.PutUint32(fat[4:], 0xFFFFFFFE)  // directory chain end
	return fat
}

// TestOLE2MinimalDocument validates a handcrafted Word-like compound file
func TestOLE2MinimalDocument(t *testing.T) {
	dir := append(cfbDirEntry("Root Entry", 5), cfbDirEntry("WordDocument", 2)...)
	dir = append(dir, cfbDirEntry("\x05SummaryInformation", 2)...)
	dir = append(dir, cfbDirEntry("", 0)...)

	data := buildCFB(nil, minimalFATSector(), dir)
	path := writeTempFile(t, data)

	rec := parsers.NewOLE2Parser().Parse(path)
	assert.True(t, getBool(t, rec, "ole_dir_ok"))
	assert.Equal(t, int64(2), getInt(t, rec, "ole_stream_count"))
	assert.True(t, getBool(t, rec, "ole_fat_ok"))
	assert.True(t, getBool(t, rec, "ole_mini_fat_ok"))
	assert.True(t, getBool(t, rec, "ole_root_entry_present"))
	assert.True(t, getBool(t, rec, "ole_summaryinfo_present"))
	assert.True(t, getBool(t, rec, "ole_expected_streams_present"))
	assert.True(t, getBool(t, rec, "parser_ok"))
	assert.True(t, getBool(t, rec, "structure_consistent"))
}

// TestOLE2InvalidDirEntryType marks the directory inconsistent on a bad type
func TestOLE2InvalidDirEntryType(t *testing.T) {
	dir := append(cfbDirEntry("Root Entry", 5), cfbDirEntry("Oddball", 9)...)

	data := buildCFB(nil, minimalFATSector(), dir)
	path := writeTempFile(t, data)

	rec := parsers.NewOLE2Parser().Parse(path)
	assert.False(t, getBool(t, rec, "ole_dir_ok"))
	assert.False(t, getBool(t, rec, "parser_ok"))
}

// TestOLE2DIFATCycle terminates on a DIFAT sector pointing at itself
func TestOLE2DIFATCycle(t *testing.T) {
	dir := cfbDirEntry("Root Entry", 5)

	// Sector 2 is a DIFAT sector whose next pointer loops back to itself
	difat := make([]byte, 512)
	for i := 0; i < 127; i++ {
		binary.LittleEndian.PutUint32(difat[4*i:], 0xFFFFFFFF)
	}
	binary.LittleEndian.PutUint32(difat[508:], 2)

	data := buildCFB(func(hdr []byte) {
		binary.LittleEndian.PutUint32(hdr[0x44:], 2)   // first DIFAT sector
		binary.LittleEndian.PutUint32(hdr[0x48:], 100) // claims a long chain
	}, minimalFATSector(), dir, difat)
	path := writeTempFile(t, data)

	// Must terminate despite the cycle
	rec := parsers.NewOLE2Parser().Parse(path)
	assert.True(t, getBool(t, rec, "ole_fat_ok"))
	assert.True(t, getBool(t, rec, "ole_root_entry_present"))
}

// TestOLE2DirectoryChainCycle terminates on a FAT chain loop
func TestOLE2DirectoryChainCycle(t *testing.T) {
	fat := minimalFATSector()
	binary.LittleEndian.PutUint32(fat[4:], 1) // directory sector links to itself

	dir := cfbDirEntry("Root Entry", 5)
	data := buildCFB(nil, fat, dir)
	path := writeTempFile(t, data)

	rec := parsers.NewOLE2Parser().Parse(path)
	assert.True(t, getBool(t, rec, "ole_dir_ok"))
	assert.True(t, getBool(t, rec, "ole_root_entry_present"))
}

// TestOLE2BogusSectorShift collapses headers declaring absurd sector sizes
// to the default record instead of faulting on sector arithmetic
func TestOLE2BogusSectorShift(t *testing.T) {
	for name, shift := range map[string]uint16{
		"one byte sectors": 0,
		"huge shift":       63,
	} {
		t.Run(name, func(t *testing.T) {
			data := buildCFB(func(hdr []byte) {
				binary.LittleEndian.PutUint16(hdr[0x1E:], shift)
				binary.LittleEndian.PutUint32(hdr[0x44:], 0) // DIFAT chain at sector 0
				binary.LittleEndian.PutUint32(hdr[0x48:], 1)
			}, minimalFATSector())
			path := writeTempFile(t, data)

			rec := parsers.NewOLE2Parser().Parse(path)
			assert.False(t, getBool(t, rec, "parser_ok"))
			assert.False(t, getBool(t, rec, "ole_fat_ok"))
			assert.Equal(t, int64(0), getInt(t, rec, "ole_stream_count"))
		})
	}
}

// TestOLE2NotCFB collapses other bytes to the default record
func TestOLE2NotCFB(t *testing.T) {
	path := writeTempFile(t, []byte("not a compound file"))

	rec := parsers.NewOLE2Parser().Parse(path)
	assert.False(t, getBool(t, rec, "parser_ok"))
	assert.Equal(t, int64(0), getInt(t, rec, "ole_stream_count"))
}
