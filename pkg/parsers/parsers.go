/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parsers.go
Description: Shared helpers for the structural parser family. Provides bounds-clamped
file reads and byte-order accessors used by every format parser. Each parser converts
any internal failure into its format default record at the public boundary.
*/

package parsers

import (
	"encoding/binary"
	"io"
	"os"
)

// readCapped reads at most limit bytes from the start of the file
func readCapped(path string, limit int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, int64(limit)))
}

// readAt reads up to n bytes at offset, clamped to the file bounds.
// Out-of-range offsets yield an empty slice, never an error.
func readAt(f *os.File, offset int64, n int) []byte {
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil || offset < 0 || offset >= end {
		return nil
	}
	if int64(n) > end-offset {
		n = int(end - offset)
	}
	buf := make([]byte, n)
	m, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil
	}
	return buf[:m]
}

// fileSize returns the total size of an open file
func fileSize(f *os.File) (int64, error) {
	return f.Seek(0, io.SeekEnd)
}

// Byte-order accessors, all bounds-checked against the buffer

func le16(b []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[off:]), true
}

func le32(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

func be16(b []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.BigEndian.Uint16(b[off:]), true
}

func be32(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.BigEndian.Uint32(b[off:]), true
}

func be64(b []byte, off int) (uint64, bool) {
	if off < 0 || off+8 > len(b) {
		return 0, false
	}
	return binary.BigEndian.Uint64(b[off:]), true
}
