// Package history stores chat transcripts in SQLite so a conversation can be
// resumed later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studymate/internal/domain"
	"studymate/internal/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	failed          INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq ON messages (conversation_id, seq);
`

var ErrNotFound = errors.New("conversation not found")

// Summary describes a stored conversation.
type Summary struct {
	ID        string
	CreatedAt time.Time
	Messages  int
	// Title is the first user message, if any.
	Title string
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path must not be empty")
	}
	db, err := sqlitedb.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Create starts a new conversation and returns its ID.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO conversations (id, created_at) VALUES (?, ?)`, id, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

// Append stores msg at the end of the conversation.
func (s *Store) Append(ctx context.Context, conversationID string, msg domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO messages (id, conversation_id, seq, role, content, failed, created_at)
VALUES (?, ?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE conversation_id = ?), ?, ?, ?, ?)`,
		msg.ID, conversationID, conversationID, string(msg.Role), msg.Content, msg.Failed, msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return tx.Commit()
}

// Load returns the conversation's messages in the order they were appended.
func (s *Store) Load(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, role, content, failed, created_at FROM messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Failed, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		if !m.Role.Valid() {
			return nil, fmt.Errorf("message %s has unknown role %q", m.ID, role)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// List returns the most recent conversations first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `
SELECT c.id, c.created_at, COUNT(m.id),
       COALESCE((SELECT content FROM messages f WHERE f.conversation_id = c.id AND f.role = 'user' ORDER BY f.seq LIMIT 1), '')
FROM conversations c
LEFT JOIN messages m ON m.conversation_id = c.id
GROUP BY c.id, c.created_at
ORDER BY c.created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.CreatedAt, &sm.Messages, &sm.Title); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Recorder returns a chat.Recorder bound to one conversation.
func (s *Store) Recorder(conversationID string) *Recorder {
	return &Recorder{store: s, conversationID: conversationID, timeout: 5 * time.Second}
}

// Recorder appends messages to a single stored conversation.
type Recorder struct {
	store          *Store
	conversationID string
	timeout        time.Duration
}

func (r *Recorder) ConversationID() string { return r.conversationID }

func (r *Recorder) Record(msg domain.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.store.Append(ctx, r.conversationID, msg)
}
