package runtime

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder is a test double that counts calls.
type mockEmbedder struct {
	embedCalls     atomic.Int64
	batchCalls     atomic.Int64
	dimensions     int
	modelName      string
	returnedVector []float32
}

func newMockEmbedder(dims int) *mockEmbedder {
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return &mockEmbedder{dimensions: dims, modelName: "mock-model", returnedVector: vec}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	return m.returnedVector, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls.Add(1)
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.returnedVector
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int        { return m.dimensions }
func (m *mockEmbedder) ModelName() string      { return m.modelName }
func (m *mockEmbedder) Available(_ context.Context) bool { return true }
func (m *mockEmbedder) Close() error           { return nil }

func TestCachedEmbedder_ImplementsEmbedderInterface(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	var _ Embedder = cached
}

func TestCachedEmbedder_CacheHit_ReturnsWithoutCallingInner(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, err := cached.Embed(ctx, "repeated query")
	require.NoError(t, err)

	_, err = cached.Embed(ctx, "repeated query")
	require.NoError(t, err)

	assert.Equal(t, int64(1), inner.embedCalls.Load())
}

func TestCachedEmbedder_CacheMiss_DifferentTextCallsInnerAgain(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, _ = cached.Embed(ctx, "first query")
	_, _ = cached.Embed(ctx, "second query")

	assert.Equal(t, int64(2), inner.embedCalls.Load())
}

func TestCachedEmbedder_EmbedBatch_CachesEachTextIndependently(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, err := cached.Embed(ctx, "warm text")
	require.NoError(t, err)

	results, err := cached.EmbedBatch(ctx, []string{"warm text", "cold text"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), inner.embedCalls.Load())
	assert.Equal(t, int64(1), inner.batchCalls.Load())
}

func TestCachedEmbedder_EmbedBatch_AllCached_SkipsInnerBatchCall(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	ctx := context.Background()
	_, _ = cached.EmbedBatch(ctx, []string{"a", "b"})
	_, err := cached.EmbedBatch(ctx, []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), inner.batchCalls.Load())
}

func TestCachedEmbedder_EmbedBatch_EmptyInput_ReturnsEmptySlice(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	results, err := cached.EmbedBatch(context.Background(), []string{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCachedEmbedder_DimensionsAndModelName_PassThrough(t *testing.T) {
	inner := newMockEmbedder(1024)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	assert.Equal(t, 1024, cached.Dimensions())
	assert.Equal(t, "mock-model", cached.ModelName())
}

func TestCachedEmbedder_Inner_ReturnsWrappedEmbedder(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 100)
	defer func() { _ = cached.Close() }()

	assert.Same(t, inner, cached.Inner())
}

func TestNewCachedEmbedder_NonPositiveSize_UsesDefault(t *testing.T) {
	inner := newMockEmbedder(768)
	cached := NewCachedEmbedder(inner, 0)
	defer func() { _ = cached.Close() }()

	assert.Equal(t, 0, cached.cache.Len(), "cache should start empty regardless of size")

	for i := 0; i <= DefaultEmbeddingCacheSize; i++ {
		cached.cache.Add(strconv.Itoa(i), nil)
	}
	assert.Equal(t, DefaultEmbeddingCacheSize, cached.cache.Len())
}
