/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: signatures.go
Description: Magic-byte signature predicates for the Akaylee Featurizer sniffer.
Covers the container families with structural parsers plus a broader diagnostic
table of known formats without one.
*/

package sniffer

import "bytes"

// Signatures for families with a structural parser

func isPDF(h []byte) bool  { return bytes.HasPrefix(h, []byte("%PDF-")) }
func isPNG(h []byte) bool  { return bytes.HasPrefix(h, []byte("\x89PNG\r\n\x1a\n")) }
func isJPEG(h []byte) bool { return bytes.HasPrefix(h, []byte{0xFF, 0xD8, 0xFF}) }
func isGZIP(h []byte) bool { return len(h) >= 3 && h[0] == 0x1F && h[1] == 0x8B && h[2] == 0x08 }
func isOLE2(h []byte) bool {
	return bytes.HasPrefix(h, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
}
func isZIP(h []byte) bool {
	return bytes.HasPrefix(h, []byte("PK\x03\x04")) ||
		bytes.HasPrefix(h, []byte("PK\x05\x06")) ||
		bytes.HasPrefix(h, []byte("PK\x07\x08"))
}
func isRAR(h []byte) bool {
	return bytes.HasPrefix(h, []byte("Rar!\x1A\x07\x00")) ||
		bytes.HasPrefix(h, []byte("Rar!\x1A\x07\x01\x00"))
}
func isMP4(h []byte) bool { return len(h) >= 12 && bytes.Equal(h[4:8], []byte("ftyp")) }

// Diagnostic signatures: known magic, no parser

func isGIF(h []byte) bool {
	return bytes.HasPrefix(h, []byte("GIF87a")) || bytes.HasPrefix(h, []byte("GIF89a"))
}
func isWEBP(h []byte) bool {
	return len(h) >= 12 && bytes.Equal(h[0:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP"))
}
func isMP3(h []byte) bool {
	if bytes.HasPrefix(h, []byte("ID3")) {
		return true
	}
	return len(h) >= 2 && h[0] == 0xFF && (h[1]&0xE0) == 0xE0
}
func isWAV(h []byte) bool {
	return len(h) >= 12 && bytes.Equal(h[0:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WAVE"))
}
func isFLAC(h []byte) bool   { return bytes.HasPrefix(h, []byte("fLaC")) }
func isBZIP2(h []byte) bool  { return bytes.HasPrefix(h, []byte("BZh")) }
func isLZ4(h []byte) bool    { return bytes.HasPrefix(h, []byte{0x04, 0x22, 0x4D, 0x18}) }
func isZSTD(h []byte) bool   { return bytes.HasPrefix(h, []byte{0x28, 0xB5, 0x2F, 0xFD}) }
func isSQLite(h []byte) bool { return bytes.HasPrefix(h, []byte("SQLite format 3\x00")) }
func isPE(h []byte) bool     { return bytes.HasPrefix(h, []byte("MZ")) }
func isELF(h []byte) bool    { return bytes.HasPrefix(h, []byte{0x7F, 'E', 'L', 'F'}) }
func is7z(h []byte) bool     { return bytes.HasPrefix(h, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}) }

// isTAR probes the ustar magic at offset 257, falling back to head+tail when
// the head window alone is too short.
func isTAR(head, whole []byte) bool {
	blob := head
	if len(blob) < 265 {
		blob = whole
	}
	if len(blob) < 265 {
		return false
	}
	m := blob[257:263]
	return bytes.Equal(m, []byte("ustar\x00")) || bytes.Equal(m, []byte("ustar\x20"))
}

// diagnosticFamily resolves the broader signature table for formats without a
// structural parser. First match wins; "unknown" means no signature matched.
// The tar probe receives head+tail because its magic sits at offset 257.
func diagnosticFamily(head, whole []byte) string {
	switch {
	case isGIF(head):
		return "gif"
	case isWEBP(head):
		return "webp"
	case isMP3(head):
		return "mp3"
	case isWAV(head):
		return "wav"
	case isFLAC(head):
		return "flac"
	case isBZIP2(head):
		return "bzip2"
	case isLZ4(head):
		return "lz4"
	case isZSTD(head):
		return "zstd"
	case isSQLite(head):
		return "sqlite"
	case isTAR(head, whole):
		return "tar"
	case isPE(head):
		return "pe"
	case isELF(head):
		return "elf"
	case is7z(head):
		return "7z"
	}
	return "unknown"
}
