package domain

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn in the conversation. It is never mutated after creation.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	// Failed marks an assistant reply produced from a backend error.
	Failed bool
}

// ChatResponse is the structured result of asking the backend a question.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Status  string   `json:"status"`
	Sources []string `json:"sources,omitempty"`
}

// StatusSuccess is the status value of a successful ChatResponse.
const StatusSuccess = "success"
