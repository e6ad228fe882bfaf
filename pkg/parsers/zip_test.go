/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: zip_test.go
Description: Tests for the ZIP structural parser. Covers real archives built with
archive/zip, EOCD discovery, entry counting, CRC fractions and missing-EOCD input.
*/

package parsers_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/akaylee-featurizer/pkg/parsers"
)

// buildZip writes a real archive with the given name/content pairs
func buildZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "sample.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// TestZIPValidArchive validates a two-entry archive end to end
func TestZIPValidArchive(t *testing.T) {
	path := buildZip(t, map[string]string{
		"readme.txt":   "hello there",
		"data/log.txt": "some log content",
	})

	rec := parsers.NewZIPParser().Parse(path)
	assert.True(t, getBool(t, rec, "zip_central_dir_ok"))
	assert.True(t, getBool(t, rec, "zip_cd_offset_ok"))
	assert.Equal(t, int64(2), getInt(t, rec, "zip_entry_count"))
	assert.False(t, getBool(t, rec, "zip_has_content_types"))
	assert.Equal(t, int64(0), getInt(t, rec, "zip_comment_len"))
	assert.Equal(t, 1.0, getFloat(t, rec, "zip_crc_present_fraction"))
	assert.True(t, getBool(t, rec, "parser_ok"))
	assert.True(t, getBool(t, rec, "structure_consistent"))
}

// TestZIPContentTypes spots the OOXML marker entry by name
func TestZIPContentTypes(t *testing.T) {
	path := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "<doc/>",
	})

	rec := parsers.NewZIPParser().Parse(path)
	assert.True(t, getBool(t, rec, "zip_has_content_types"))
}

// TestZIPNoEOCD collapses EOCD-less bytes to the default record
func TestZIPNoEOCD(t *testing.T) {
	path := writeTempFile(t, []byte("PK\x03\x04 but no end record"))

	rec := parsers.NewZIPParser().Parse(path)
	assert.False(t, getBool(t, rec, "zip_central_dir_ok"))
	assert.Equal(t, int64(0), getInt(t, rec, "zip_entry_count"))
	assert.False(t, getBool(t, rec, "parser_ok"))
}

// TestZIPEmptyArchive handles the bare 22-byte EOCD
func TestZIPEmptyArchive(t *testing.T) {
	path := buildZip(t, nil)

	rec := parsers.NewZIPParser().Parse(path)
	assert.True(t, getBool(t, rec, "zip_central_dir_ok"))
	assert.Equal(t, int64(0), getInt(t, rec, "zip_entry_count"))
	// An empty directory is consistent but carries no entries
	assert.False(t, getBool(t, rec, "parser_ok"))
}
