package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOffline_ReturnsStaticEmbedderAndReranker(t *testing.T) {
	rt := NewOffline()

	assert.Equal(t, "static-offline", rt.Embedder.ModelName())
	assert.True(t, rt.Reranker.Available(context.Background()))
}

func TestNewOffline_EmbedderAndRerankerAreUsable(t *testing.T) {
	rt := NewOffline()

	vec, err := rt.Embedder.Embed(context.Background(), "document about retrieval")
	require.NoError(t, err)
	assert.Len(t, vec, StaticDimensions)

	scores, err := rt.Reranker.Rerank(context.Background(), "retrieval", []string{"document about retrieval"})
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}

func TestRuntime_Close_ClosesEmbedder(t *testing.T) {
	rt := NewOffline()

	require.NoError(t, rt.Close())

	assert.False(t, rt.Embedder.Available(context.Background()))
}
