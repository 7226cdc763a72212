// Package chat holds the client-side conversation state: the ordered message
// list, the pending input and the one-question-at-a-time session.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studymate/internal/domain"
)

// Conversation is an append-only sequence of messages.
type Conversation struct {
	mu       sync.RWMutex
	messages []domain.Message
	now      func() time.Time
	newID    func() string
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{now: time.Now, newID: uuid.NewString}
}

// Restore seeds an empty conversation with previously stored messages.
func (c *Conversation) Restore(msgs []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// Append creates a message with a fresh ID and timestamp and adds it to the end.
func (c *Conversation) Append(role domain.Role, content string, failed bool) domain.Message {
	msg := domain.Message{
		ID:        c.newID(),
		Role:      role,
		Content:   content,
		CreatedAt: c.now(),
		Failed:    failed,
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	return msg
}

// Messages returns a copy of the conversation in insertion order.
func (c *Conversation) Messages() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Message(nil), c.messages...)
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Count returns the number of messages authored by role.
func (c *Conversation) Count(role domain.Role) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
