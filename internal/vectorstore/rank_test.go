package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"studymate/internal/domain"
)

func TestTopKDefaultsAndOrder(t *testing.T) {
	var chunks []domain.Chunk
	var vectors [][]float64
	for i := 0; i < 8; i++ {
		chunks = append(chunks, domain.Chunk{Index: i})
		vectors = append(vectors, []float64{float64(i)})
	}
	res := TopK(chunks, vectors, []float64{1}, 0)
	assert.Len(t, res, DefaultTopK)
	assert.Equal(t, 7, res[0].Chunk.Index)
	assert.Equal(t, 3, res[4].Chunk.Index)
}

func TestDotUsesCommonLength(t *testing.T) {
	assert.Equal(t, 2.0, Dot([]float64{1, 1, 5}, []float64{1, 1}))
}
