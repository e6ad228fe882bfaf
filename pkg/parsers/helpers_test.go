/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: helpers_test.go
Description: Shared helpers for the structural parser tests. Provides temp file
creation and record assertion utilities.
*/

package parsers_test

import (
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

// getInt fetches an integer feature, failing the test when absent or non-int
func getInt(t *testing.T, rec *interfaces.Record, name string) int64 {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.Equal(t, interfaces.KindInt, v.Kind, "feature %s not int", name)
	return v.Int
}

// getFloat fetches a float feature, failing the test when absent or non-float
func getFloat(t *testing.T, rec *interfaces.Record, name string) float64 {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.Equal(t, interfaces.KindFloat, v.Kind, "feature %s not float", name)
	return v.Float
}

// getString fetches a string feature, failing the test when absent or non-string
func getString(t *testing.T, rec *interfaces.Record, name string) string {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "feature %s missing", name)
	require.Equal(t, interfaces.KindString, v.Kind, "feature %s not string", name)
	return v.Str
}
