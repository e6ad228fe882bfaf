/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: encryption.go
Description: Shared helpers for the encryption-marker parser family. Bounds-clamped
reads over seekable files, mirroring the structural-parser helpers.
*/

package encryption

import (
	"io"
	"os"
)

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
