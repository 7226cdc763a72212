package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Photosynthesis converts sunlight into chemical energy in plants.",
	"Respiration releases energy from glucose in cells.",
	"Magnets attract iron objects.",
}

func TestEmbedRequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestEmbedIsNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	vec, err := e.Embed(context.Background(), "energy in plants")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedUnknownTokensIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))

	vec, err := e.Embed(context.Background(), "the and of")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStateRoundTrip(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	data, err := e.MarshalState()
	require.NoError(t, err)

	restored := NewEmbedder()
	require.NoError(t, restored.UnmarshalState(data))
	assert.Equal(t, e.Dimension(), restored.Dimension())

	want, err := e.Embed(context.Background(), "magnets attract iron")
	require.NoError(t, err)
	got, err := restored.Embed(context.Background(), "magnets attract iron")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshalStateRejectsMismatch(t *testing.T) {
	err := NewEmbedder().UnmarshalState([]byte(`{"terms":["a","b"],"idf":[1]}`))
	assert.Error(t, err)
}
