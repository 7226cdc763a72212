// Package memory keeps the index in process memory. It is used by tests and
// by `serve` when documents are ingested at startup.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"studymate/internal/domain"
	"studymate/internal/vectorstore"
)

// Storage is a brute-force cosine store. Upserting a known ChunkID replaces
// its row in place.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	byID      map[string]int
	vectors   [][]float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{byID: map[string]int{}} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.reset()
	return nil
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", chunks[i].ChunkID, len(v), s.dimension)
		}
	}
	for i, ch := range chunks {
		if at, ok := s.byID[ch.ChunkID]; ok && ch.ChunkID != "" {
			s.chunks[at], s.vectors[at] = ch, vectors[i]
			continue
		}
		s.byID[ch.ChunkID] = len(s.chunks)
		s.chunks = append(s.chunks, ch)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.TopK(s.chunks, s.vectors, vector, topK), nil
}

func (s *Storage) Chunks() ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks...), nil
}

// Len is the number of stored chunks.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Storage) reset() {
	s.byID = map[string]int{}
	s.vectors = nil
	s.chunks = nil
}
