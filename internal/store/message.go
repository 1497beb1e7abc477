package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotContacts is returned when two users share no accepted hire.
var ErrNotContacts = errors.New("users are not contacts")

// StartConversation returns the conversation between a and b, creating it on
// first use. The pair is unordered: (a, b) and (b, a) share one conversation.
func (db *DB) StartConversation(a, b string) (*Conversation, error) {
	if a == b {
		return nil, fmt.Errorf("conversation with self: %w", ErrNotContacts)
	}
	ok, err := db.IsContact(a, b)
	if err != nil {
		return nil, fmt.Errorf("check contacts: %w", err)
	}
	if !ok {
		return nil, ErrNotContacts
	}

	low, high := a, b
	if high < low {
		low, high = high, low
	}
	var c Conversation
	err = db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO conversations (id, user_low, user_high, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_low, user_high) DO NOTHING`,
			uuid.NewString(), low, high, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		err = tx.QueryRow(`SELECT id, user_low, user_high, created_at FROM conversations WHERE user_low = ? AND user_high = ?`, low, high).
			Scan(&c.ID, &c.UserLow, &c.UserHigh, &c.CreatedAt)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversation returns a conversation by ID, or nil when it does not exist.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`SELECT id, user_low, user_high, created_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.UserLow, &c.UserHigh, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertMessage stores m, assigning an ID and timestamp when they are unset.
func (db *DB) InsertMessage(m *Message) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		m.ID = id.String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns the full history of a conversation, oldest first.
func (db *DB) ListMessages(conversationID string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, conversation_id, sender_id, body, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
