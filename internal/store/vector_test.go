package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineerrors "github.com/nans28/eywa/internal/errors"
)

func unitVector(dims int, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1.0
	return v
}

// TS01: Upsert below the batch threshold stays pending until Flush.
func TestHNSWVectorStore_Upsert_BelowThreshold_StaysPendingUntilFlush(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 4})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	store.batchSize = 1000 // avoid an automatic flush for this assertion

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: unitVector(4, 0)},
	}))

	assert.Len(t, store.pending, 1)
	assert.Equal(t, 0, store.graph.Len())
}

// TS02: Query forces a flush, establishing read-your-writes.
func TestHNSWVectorStore_Query_FlushesPendingWrites(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 4})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	store.batchSize = 1000

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: unitVector(4, 0), Body: "body one"},
	}))

	results, err := store.Query(context.Background(), unitVector(4, 0), 5, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 0.01)
}

// TS03: Query returns nearest neighbors ordered by descending score.
func TestHNSWVectorStore_Query_OrdersByDescendingScore(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 3})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "close", SourceID: "s1", DocID: "d1", Vector: []float32{1, 0.1, 0}},
		{ChunkID: "far", SourceID: "s1", DocID: "d1", Vector: []float32{0, 0, 1}},
	}))
	require.NoError(t, store.Flush(context.Background()))

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].ChunkID)
}

// TS04: Query filters by source.
func TestHNSWVectorStore_Query_FiltersBySource(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 3})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "a", SourceID: "source-a", DocID: "d1", Vector: []float32{1, 0, 0}},
		{ChunkID: "b", SourceID: "source-b", DocID: "d2", Vector: []float32{1, 0, 0}},
	}))
	require.NoError(t, store.Flush(context.Background()))

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 5, "source-a")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ChunkID)
}

// TS05: Query rejects a vector with the wrong dimension.
func TestHNSWVectorStore_Query_DimensionMismatch_ReturnsModelMismatch(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 4})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Query(context.Background(), []float32{1, 2, 3}, 5, "")

	require.Error(t, err)
	assert.Equal(t, engineerrors.CodeModelMismatch, engineerrors.GetCode(err))
}

// TS06: DeleteByDoc removes only that document's chunks.
func TestHNSWVectorStore_DeleteByDoc_RemovesOnlyThatDocument(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 3})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "a", SourceID: "s1", DocID: "doc-a", Vector: []float32{1, 0, 0}},
		{ChunkID: "b", SourceID: "s1", DocID: "doc-b", Vector: []float32{0, 1, 0}},
	}))
	require.NoError(t, store.Flush(context.Background()))

	require.NoError(t, store.DeleteByDoc(context.Background(), "doc-a"))

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 5, "")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a", r.ChunkID)
	}
}

// TS07: Re-upserting an existing chunk ID replaces its vector.
func TestHNSWVectorStore_Upsert_ExistingChunkID_Replaces(t *testing.T) {
	store, err := NewHNSWVectorStore("", ModelBinding{ModelID: "m", Dimension: 3})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: []float32{1, 0, 0}, Body: "first"},
	}))
	require.NoError(t, store.Flush(context.Background()))
	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: []float32{0, 1, 0}, Body: "second"},
	}))
	require.NoError(t, store.Flush(context.Background()))

	results, err := store.Query(context.Background(), []float32{0, 1, 0}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second", results[0].Row.Body)
}

// TS08: Closing then reopening a persisted store preserves its data and
// model binding.
func TestHNSWVectorStore_CloseThenReopen_PreservesDataAndBinding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	store, err := NewHNSWVectorStore(path, ModelBinding{ModelID: "nomic-embed-text", Dimension: 3})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: []float32{1, 0, 0}, Body: "persisted"},
	}))
	require.NoError(t, store.Close())

	reopened, err := NewHNSWVectorStore(path, ModelBinding{ModelID: "nomic-embed-text", Dimension: 3})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	results, err := reopened.Query(context.Background(), []float32{1, 0, 0}, 1, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted", results[0].Row.Body)
}

// TS09: Reopening with a different model binding fails with ModelMismatch.
func TestHNSWVectorStore_Reopen_DifferentModel_ReturnsModelMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	store, err := NewHNSWVectorStore(path, ModelBinding{ModelID: "model-a", Dimension: 3})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), []VectorRow{
		{ChunkID: "c1", SourceID: "s1", DocID: "d1", Vector: []float32{1, 0, 0}},
	}))
	require.NoError(t, store.Close())

	_, err = NewHNSWVectorStore(path, ModelBinding{ModelID: "model-b", Dimension: 3})

	require.Error(t, err)
	assert.Equal(t, engineerrors.CodeModelMismatch, engineerrors.GetCode(err))
}
