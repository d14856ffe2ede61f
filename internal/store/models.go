package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID          string    `json:"id"` // UUID
	Title       string    `json:"title"`
	Description *string   `json:"description"` // Nullable
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Document lives in the vector store, not in SQLite. Metadata holds
// caller-supplied keys only; id and created_at are carried as typed
// fields and never mixed into the map.
type Document struct {
	ID        string         `json:"id"` // UUID
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}
