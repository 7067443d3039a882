package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// AppendChatMessage stores one assistant-conversation message.
func (s *Store) AppendChatMessage(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		message.ID, message.UserID, message.Role, message.Content, message.CreatedAt,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "insert chat message", Err: err}
	}
	return nil
}

// RecentChatMessages returns the user's last limit messages in chronological
// order.
func (s *Store) RecentChatMessages(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role, content, created_at FROM (
		   SELECT id, user_id, role, content, created_at
		   FROM chat_messages
		   WHERE user_id = $1
		   ORDER BY created_at DESC
		   LIMIT $2
		 ) recent ORDER BY created_at ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list chat messages", Err: err}
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, &parsererror.PersistenceError{Operation: "scan chat message", Err: err}
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list chat messages", Err: err}
	}
	return messages, nil
}
