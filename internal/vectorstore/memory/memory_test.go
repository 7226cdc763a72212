package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/domain"
)

func TestSearchRanksByCosine(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	chunks := []domain.Chunk{{ChunkID: "x"}, {ChunkID: "y"}, {ChunkID: "xy"}}
	vectors := [][]float64{{1, 0}, {0, 1}, {0.7071, 0.7071}}
	require.NoError(t, s.Upsert(chunks, vectors))

	res, err := s.Search([]float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "x", res[0].Chunk.ChunkID)
	assert.Equal(t, "xy", res[1].Chunk.ChunkID)
}

func TestUpsertValidates(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	assert.Error(t, s.Upsert([]domain.Chunk{{}}, nil))
	assert.Error(t, s.Upsert([]domain.Chunk{{}}, [][]float64{{1, 2, 3}}))
	assert.Error(t, s.Init(0))
}

func TestClear(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a"}}, [][]float64{{1}}))
	require.NoError(t, s.Clear())

	chunks, err := s.Chunks()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestUpsertReplacesByChunkID(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a", Text: "old"}, {ChunkID: "b"}}, [][]float64{{1}, {1}}))
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a", Text: "new"}}, [][]float64{{0.5}}))

	assert.Equal(t, 2, s.Len())
	chunks, err := s.Chunks()
	require.NoError(t, err)
	assert.Equal(t, "new", chunks[0].Text)
}
