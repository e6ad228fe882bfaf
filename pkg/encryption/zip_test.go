/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: zip_test.go
Description: Tests for the ZIP encryption-marker parser. Covers unencrypted and
empty archives, ZipCrypto and AES flag detection, mixed-method archives, partially
encrypted archives, and non-ZIP input.
*/

package encryption_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/akaylee-featurizer/pkg/encryption"
)

// buildPlainZip writes a normal archive through the standard writer
func buildPlainZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return writeTempFile(t, buf.Bytes())
}

func TestZIPEncParserUnencrypted(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildPlainZip(t, map[string]string{
		"readme.txt": "hello",
		"data.bin":   "payload",
	})

	rec := parser.Parse(path)

	assert.False(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.False(t, getBool(t, rec, "zip_all_headers_encrypted"))
	requireNull(t, rec, "zip_encryption_method")
}

func TestZIPEncParserEmptyArchive(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildPlainZip(t, map[string]string{})

	rec := parser.Parse(path)

	assert.False(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.False(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "", getString(t, rec, "zip_encryption_method"))
}

func TestZIPEncParserZipCrypto(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildRawZip(t, []rawZipEntry{
		{name: "secret.txt", flags: 0x0001},
	})

	rec := parser.Parse(path)

	assert.True(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.True(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "ZipCrypto", getString(t, rec, "zip_encryption_method"))
}

func TestZIPEncParserAES(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildRawZip(t, []rawZipEntry{
		{name: "secret.txt", flags: 0x0001, extra: aesExtraField()},
	})

	rec := parser.Parse(path)

	assert.True(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.True(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "AES", getString(t, rec, "zip_encryption_method"))
}

func TestZIPEncParserMixedMethods(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildRawZip(t, []rawZipEntry{
		{name: "a.txt", flags: 0x0001, extra: aesExtraField()},
		{name: "b.txt", flags: 0x0001},
	})

	rec := parser.Parse(path)

	assert.True(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.True(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "Mixed", getString(t, rec, "zip_encryption_method"))
}

func TestZIPEncParserPartiallyEncrypted(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := buildRawZip(t, []rawZipEntry{
		{name: "open.txt", flags: 0},
		{name: "locked.txt", flags: 0x0001},
	})

	rec := parser.Parse(path)

	assert.True(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.False(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "ZipCrypto", getString(t, rec, "zip_encryption_method"))
}

func TestZIPEncParserNonZip(t *testing.T) {
	parser := encryption.NewZIPEncParser()
	path := writeTempFile(t, []byte("definitely not an archive"))

	rec := parser.Parse(path)

	assert.False(t, getBool(t, rec, "zip_any_entry_encrypted"))
	assert.False(t, getBool(t, rec, "zip_all_headers_encrypted"))
	assert.Equal(t, "", getString(t, rec, "zip_encryption_method"))
}
