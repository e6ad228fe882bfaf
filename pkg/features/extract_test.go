/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract_test.go
Description: End-to-end tests for the feature extraction pipeline, driven by the
shipped features.yaml so the schema and parsers are exercised together. Covers
structural families, unknown files, encryption column defaulting, type
normalization, and schema mismatch reporting.
*/

package features_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/akaylee-featurizer/pkg/features"
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// newTestContext loads the shipped schema and wires a quiet pipeline
func newTestContext(t *testing.T) *features.ExtractContext {
	t.Helper()
	schema, err := features.LoadSchema(filepath.Join("..", "..", "config", "features.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, schema.Names())
	return features.NewExtractContext(schema, interfaces.DefaultSnifferConfig(), nil)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func fieldKind(t *testing.T, rec *interfaces.Record, name string) interfaces.ValueKind {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "column %s missing", name)
	return v.Kind
}

func TestExtractGZIPFile(t *testing.T) {
	ctx := newTestContext(t)
	gz := []byte{0x1F, 0x8B, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0xAB, 0xCD}
	path := writeFile(t, "sample.gz", gz)

	rec, err := ctx.Extract(path)
	require.NoError(t, err)

	// The output is the full schema, in order
	assert.Equal(t, ctx.Schema().Names(), rec.Names())

	v, _ := rec.Get("format_family")
	assert.Equal(t, "gzip", v.Str)
	v, _ = rec.Get("parser_ok")
	require.Equal(t, interfaces.KindBool, v.Kind)
	assert.True(t, v.Bool)
	v, _ = rec.Get("size_bytes")
	assert.Equal(t, int64(len(gz)), v.Int)

	// Statistics always run
	assert.Equal(t, interfaces.KindFloat, fieldKind(t, rec, "entropy_global"))
	assert.Equal(t, interfaces.KindFloat, fieldKind(t, rec, "byte_chi2"))

	// Other families' columns come back null
	v, _ = rec.Get("pdf_version")
	assert.True(t, v.IsNull())
	v, _ = rec.Get("zip_entry_count")
	assert.True(t, v.IsNull())
}

func TestExtractUnknownFile(t *testing.T) {
	ctx := newTestContext(t)
	path := writeFile(t, "notes.txt", []byte("nothing structured about this file"))

	rec, err := ctx.Extract(path)
	require.NoError(t, err)

	v, _ := rec.Get("format_family")
	assert.Equal(t, "other", v.Str)

	// No parser for the family leaves the structural verdict undetermined
	v, _ = rec.Get("parser_ok")
	assert.True(t, v.IsNull())
	v, _ = rec.Get("structure_consistent")
	assert.True(t, v.IsNull())

	assert.Equal(t, interfaces.KindFloat, fieldKind(t, rec, "entropy_global"))
}

func TestExtractZipRunsEncryptionPass(t *testing.T) {
	ctx := newTestContext(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("payload.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("plain old data"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := writeFile(t, "archive.zip", buf.Bytes())

	rec, err := ctx.Extract(path)
	require.NoError(t, err)

	v, _ := rec.Get("format_family")
	assert.Equal(t, "zip", v.Str)
	v, _ = rec.Get("parser_ok")
	require.Equal(t, interfaces.KindBool, v.Kind)
	assert.True(t, v.Bool)

	// The encryption pass ran and reported an unencrypted archive
	v, _ = rec.Get("zip_any_entry_encrypted")
	require.Equal(t, interfaces.KindBool, v.Kind)
	assert.False(t, v.Bool)
	v, _ = rec.Get("zip_encryption_method")
	assert.True(t, v.IsNull())

	// Encryption sections of other families stay null
	v, _ = rec.Get("pdf_encrypt_dict_present")
	assert.True(t, v.IsNull())
}

func TestExtractFailedParseSkipsEncryption(t *testing.T) {
	ctx := newTestContext(t)
	// Valid gzip magic but nothing after it: the parser fails structurally
	path := writeFile(t, "truncated.gz", []byte{0x1F, 0x8B, 0x08})

	rec, err := ctx.Extract(path)
	require.NoError(t, err)

	v, _ := rec.Get("parser_ok")
	require.Equal(t, interfaces.KindBool, v.Kind)
	assert.False(t, v.Bool)

	// Every encryption column stays null when the structure is unsound
	v, _ = rec.Get("zip_any_entry_encrypted")
	assert.True(t, v.IsNull())
	v, _ = rec.Get("ole_rc4_meta_present")
	assert.True(t, v.IsNull())
}

func TestExtractMissingFile(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.Extract(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestExtractEmptyFile(t *testing.T) {
	ctx := newTestContext(t)
	path := writeFile(t, "empty.bin", nil)

	rec, err := ctx.Extract(path)
	require.NoError(t, err)

	v, _ := rec.Get("size_bytes")
	assert.Equal(t, int64(0), v.Int)
	v, _ = rec.Get("log_size")
	assert.Equal(t, 0.0, v.Float)
	v, _ = rec.Get("entropy_global")
	assert.True(t, v.IsNull())
}

func TestSchemaMismatchErrorMessage(t *testing.T) {
	err := &features.SchemaMismatchError{
		Path:    "sample.bin",
		Missing: []string{"a", "b"},
		Extra:   []string{"c"},
	}
	msg := err.Error()
	assert.Contains(t, msg, "sample.bin")
	assert.Contains(t, msg, "missing columns: [a b]")
	assert.Contains(t, msg, "unexpected columns: [c]")
}
