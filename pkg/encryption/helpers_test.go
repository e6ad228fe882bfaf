/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: helpers_test.go
Description: Shared helpers for the encryption-marker parser tests. Provides temp
file creation, record assertion utilities, and a raw ZIP builder that can set the
encryption flag bit the standard archive writer refuses to emit.
*/

package encryption_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// writeTempFile writes data to a fresh file under t.TempDir and returns its path
func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// getBool fetches a boolean feature, failing the test when absent or non-bool
func getBool(t *testing.T, rec *interfaces.Record, name string) bool {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.Equal(t, interfaces.KindBool, v.Kind, "feature %s not bool", name)
	return v.Bool
}

// getString fetches a string feature, failing the test when absent or non-string
func getString(t *testing.T, rec *interfaces.Record, name string) string {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.Equal(t, interfaces.KindString, v.Kind, "feature %s not string", name)
	return v.Str
}

// requireNull asserts that a feature is present and carries the null value
func requireNull(t *testing.T, rec *interfaces.Record, name string) {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.True(t, v.IsNull(), "feature %s not null", name)
}

// rawZipEntry describes one stored entry of a hand-built ZIP archive
type rawZipEntry struct {
	name  string
	flags uint16
	extra []byte
}

// aesExtraField returns a WinZip AES extra-field record (header ID 0x9901)
func aesExtraField() []byte {
	extra := make([]byte, 11)
	binary.LittleEndian.PutUint16(extra[0:], 0x9901)
	binary.LittleEndian.PutUint16(extra[2:], 7)
	binary.LittleEndian.PutUint16(extra[4:], 2) // AE-2
	copy(extra[6:], "AE")
	extra[8] = 3 // AES-256
	binary.LittleEndian.PutUint16(extra[9:], 0)
	return extra
}

// buildRawZip assembles a minimal ZIP archive from empty stored entries,
// writing the given flag bits and extra fields into both the local headers
// and the central directory
func buildRawZip(t *testing.T, entries []rawZipEntry) string {
	t.Helper()
	var buf bytes.Buffer
	offsets := make([]uint32, len(entries))

	for i, e := range entries {
		offsets[i] = uint32(buf.Len())
		local := make([]byte, 30)
		binary.LittleEndian.PutUint32(local[0:], 0x04034b50)
		binary.LittleEndian.PutUint16(local[4:], 20)
		binary.LittleEndian.PutUint16(local[6:], e.flags)
		binary.LittleEndian.PutUint16(local[26:], uint16(len(e.name)))
		binary.LittleEndian.PutUint16(local[28:], uint16(len(e.extra)))
		buf.Write(local)
		buf.WriteString(e.name)
		buf.Write(e.extra)
	}

	cdOffset := uint32(buf.Len())
	for i, e := range entries {
		central := make([]byte, 46)
		binary.LittleEndian.PutUint32(central[0:], 0x02014b50)
		binary.LittleEndian.PutUint16(central[4:], 20)
		binary.LittleEndian.PutUint16(central[6:], 20)
		binary.LittleEndian.PutUint16(central[8:], e.flags)
		binary.LittleEndian.PutUint16(central[28:], uint16(len(e.name)))
		binary.LittleEndian.PutUint16(central[30:], uint16(len(e.extra)))
		binary.LittleEndian.PutUint32(central[42:], offsets[i])
		buf.Write(central)
		buf.WriteString(e.name)
		buf.Write(e.extra)
	}
	cdSize := uint32(buf.Len()) - cdOffset

	eocd := make([]byte, 22)
	binary.LittleEndian.PutUint32(eocd[0:], 0x06054b50)
	binary.LittleEndian.PutUint16(eocd[8:], uint16(len(entries)))
	binary.LittleEndian.PutUint16(eocd[10:], uint16(len(entries)))
	binary.LittleEndian.PutUint32(eocd[12:], cdSize)
	binary.LittleEndian.PutUint32(eocd[16:], cdOffset)
	buf.Write(eocd)

	return writeTempFile(t, buf.Bytes())
}
