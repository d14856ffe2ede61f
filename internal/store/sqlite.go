package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chats (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT NOT NULL,
        description TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        chat_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (chat_id) REFERENCES chats (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages (chat_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Chat methods

func (s *SQLiteStore) CreateChat(ctx context.Context, title string, description *string) (*Chat, error) {
	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO chats (id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chat insert: %w", err)
	}
	defer stmt.Close()

	chatID := uuid.NewString()
	now := time.Now().UTC()
	_, err = stmt.ExecContext(ctx, chatID, title, description, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute chat insert: %w", err)
	}
	return &Chat{ID: chatID, Title: title, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) GetChatByID(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, title, description, created_at, updated_at FROM chats WHERE id = ?", chatID).
		Scan(&chat.ID, &chat.Title, &description, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if description.Valid {
		chat.Description = &description.String
	}
	return &chat, nil
}

func (s *SQLiteStore) ListChats(ctx context.Context, limit, offset int) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, description, created_at, updated_at FROM chats ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chat Chat
		var description sql.NullString
		if err := rows.Scan(&chat.ID, &chat.Title, &description, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		if description.Valid {
			chat.Description = &description.String
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// TouchChat bumps updated_at; called after a message lands in the chat.
func (s *SQLiteStore) TouchChat(ctx context.Context, chatID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE chats SET updated_at = ? WHERE id = ?", time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("failed to update chat timestamp: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat not found, timestamp not updated")
	}
	return nil
}

// Message methods

func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = time.Now().UTC()

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO messages (id, chat_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, msg.ID, msg.ChatID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessagesByChatID(ctx context.Context, chatID string, limit, offset int) ([]Message, error) {
	// rowid breaks ties when two messages share a timestamp (user +
	// assistant inserted back to back).
	query := "SELECT id, chat_id, role, content, created_at FROM messages WHERE chat_id = ? ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// GetLastNMessagesByChatID returns up to n most recent messages in
// chronological order, for use as generation history.
func (s *SQLiteStore) GetLastNMessagesByChatID(ctx context.Context, chatID string, n int) ([]Message, error) {
	query := `
        SELECT id, chat_id, role, content, created_at
        FROM messages
        WHERE chat_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `

	rows, err := s.db.QueryContext(ctx, query, chatID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
