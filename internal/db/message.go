package db

import (
	"time"

	"ir-chat/internal/models"
)

// InsertMessage appends one row to the message log. Rows are never updated
// or deleted.
func (d *DB) InsertMessage(chatID int64, threadID string, role models.Role, content string) (*models.StoredMessage, error) {
	return WithLockResult(d, func() (*models.StoredMessage, error) {
		id, err := d.insertRow(
			`INSERT INTO messages (chat_id, thread_id, role, content) VALUES (?, ?, ?, ?)`,
			chatID, threadID, string(role), content,
		)
		if err != nil {
			return nil, err
		}

		return &models.StoredMessage{
			ID:        id,
			ChatID:    chatID,
			ThreadID:  threadID,
			Role:      role,
			Content:   content,
			CreatedAt: time.Now(),
		}, nil
	})
}

// GetMessagesByChat retrieves a chat's stored rows in creation order. Rows
// come back exactly as stored; no normalization or merge is applied here.
// created_at alone has one-second resolution, so id breaks ties.
func (d *DB) GetMessagesByChat(chatID int64) ([]models.StoredMessage, error) {
	return WithLockResult(d, func() ([]models.StoredMessage, error) {
		rows, err := d.db.Query(
			d.rebind(`SELECT id, chat_id, thread_id, role, content, created_at
				FROM messages WHERE chat_id = ? ORDER BY created_at, id`),
			chatID,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var messages []models.StoredMessage
		for rows.Next() {
			var msg models.StoredMessage
			var role string
			if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.ThreadID, &role, &msg.Content, &msg.CreatedAt); err != nil {
				return nil, err
			}
			msg.Role = models.Role(role)
			messages = append(messages, msg)
		}

		return messages, rows.Err()
	})
}
