// Package sqlite persists the chunk index in a single SQLite file so that
// ingestion and serving can run as separate processes.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"studymate/internal/domain"
	"studymate/internal/sqlitedb"
	"studymate/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id    TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	source      TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	text        TEXT NOT NULL,
	vector      TEXT NOT NULL,
	seq         INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// Meta keys written alongside the index.
const (
	MetaDimension     = "dimension"
	MetaEmbedder      = "embedder"
	MetaEmbedderState = "embedder_state"
)

// Storage is a SQLite-backed vector store. Search is brute-force cosine over
// rows cached in memory after the first query.
type Storage struct {
	db *sql.DB

	mu      sync.RWMutex
	loaded  bool
	chunks  []domain.Chunk
	vectors [][]float64
}

// Open opens or creates the index file at path.
func Open(path string) (*Storage, error) {
	db, err := sqlitedb.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error { return s.db.Close() }

// Init records the vector dimension of the index.
func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	return s.SetMeta(MetaDimension, []byte(strconv.Itoa(dimension)))
}

// Dimension returns the recorded dimension, or 0 when the index is empty.
func (s *Storage) Dimension() (int, error) {
	v, err := s.Meta(MetaDimension)
	if err != nil || v == nil {
		return 0, err
	}
	return strconv.Atoi(string(v))
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	dim, err := s.Dimension()
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM chunks`).Scan(&seq); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO chunks (chunk_id, document_id, source, idx, text, vector, seq) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, ch := range chunks {
		if dim > 0 && len(vectors[i]) != dim {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, want %d", ch.ChunkID, len(vectors[i]), dim)
		}
		vec, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(ch.ChunkID, ch.DocumentID, ch.Source, ch.Index, ch.Text, string(vec), seq+int64(i)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ChunkID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.TopK(s.chunks, s.vectors, vector, topK), nil
}

func (s *Storage) Chunks() ([]domain.Chunk, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Chunk(nil), s.chunks...), nil
}

// Clear removes all chunks. Metadata is kept until overwritten.
func (s *Storage) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM chunks`); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// SetMeta stores an index-level value such as the serialized embedder.
func (s *Storage) SetMeta(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Meta returns the value for key, or nil when it was never set.
func (s *Storage) Meta(key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (s *Storage) invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.chunks = nil
	s.vectors = nil
	s.mu.Unlock()
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	rows, err := s.db.Query(`SELECT chunk_id, document_id, source, idx, text, vector FROM chunks ORDER BY seq`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var chunks []domain.Chunk
	var vectors [][]float64
	for rows.Next() {
		var ch domain.Chunk
		var raw string
		if err := rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.Source, &ch.Index, &ch.Text, &raw); err != nil {
			return err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return fmt.Errorf("decode vector for %s: %w", ch.ChunkID, err)
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.chunks, s.vectors, s.loaded = chunks, vectors, true
	return nil
}
