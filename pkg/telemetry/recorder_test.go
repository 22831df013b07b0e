package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalbio/graphrag/pkg/types"
)

func routedResult(id string) *types.RoutedResult {
	return &types.RoutedResult{
		QueryID: id,
		Query:   "what causes bone loss?",
		Intent:  types.IntentGraphPrimary,
		Stats:   types.RetrievalStats{GraphRelationships: 2},
		Elapsed: 150 * time.Millisecond,
	}
}

func TestRecorderFlushOnClose(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, nil)
	require.NoError(t, err)

	r.Record(routedResult("q1"))
	r.Record(routedResult("q2"))
	require.NoError(t, r.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".parquet"))

	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.Record(routedResult("q1"))
	assert.NoError(t, r.Close())
}

func TestRecorderEmptyCloseWritesNothing(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecorder(dir, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
