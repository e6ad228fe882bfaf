/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extract_test.go
Description: Tests for the extraction worker pool. Covers walk-order result
placement, per-file failure isolation, and the immediate abort on a schema
mismatch.
*/

package commands

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/akaylee-featurizer/pkg/features"
	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// stubExtractor fakes the per-file pipeline, failing paths by name prefix
// and counting how many extractions actually ran
type stubExtractor struct {
	calls int64
}

func (s *stubExtractor) Extract(path string) (*interfaces.Record, error) {
	atomic.AddInt64(&s.calls, 1)
	switch {
	case strings.HasPrefix(path, "mismatch"):
		return nil, &features.SchemaMismatchError{Path: path, Missing: []string{"entropy_global"}}
	case strings.HasPrefix(path, "broken"):
		return nil, errors.New("unreadable file")
	}
	rec := interfaces.NewRecord()
	rec.Set("path", interfaces.StringValue(path))
	return rec, nil
}

func TestExtractAllPreservesWalkOrder(t *testing.T) {
	ex := &stubExtractor{}
	paths := []string{"a.bin", "b.bin", "c.bin", "d.bin"}

	results, failed, err := extractAll(ex, paths, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(0), failed)
	require.Len(t, results, len(paths))
	for idx, rec := range results {
		require.NotNil(t, rec)
		v, ok := rec.Get("path")
		require.True(t, ok)
		assert.Equal(t, paths[idx], v.Str)
	}
}

func TestExtractAllIsolatesFileFailures(t *testing.T) {
	ex := &stubExtractor{}
	paths := []string{"a.bin", "broken.bin", "c.bin"}

	results, failed, err := extractAll(ex, paths, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(1), failed)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestExtractAllAbortsOnSchemaMismatch(t *testing.T) {
	ex := &stubExtractor{}
	paths := make([]string, 64)
	paths[0] = "mismatch.bin"
	for idx := 1; idx < len(paths); idx++ {
		paths[idx] = "ok.bin"
	}

	// With a single worker the mismatch on the first path must stop the run
	// before any of the queued files is extracted
	results, _, err := extractAll(ex, paths, 1)

	var mismatch *features.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Nil(t, results)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ex.calls))
}
