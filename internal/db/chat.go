package db

import (
	"database/sql"
	"time"

	"ir-chat/internal/models"
)

// CreateChat creates a new chat record. The title is the user's first
// utterance and is never updated afterwards. A companyID of zero stores
// NULL (untenanted chat).
func (d *DB) CreateChat(title, userID string, companyID int64) (*models.Chat, error) {
	return WithLockResult(d, func() (*models.Chat, error) {
		id, err := d.insertRow(
			`INSERT INTO chats (title, user_id, company_id) VALUES (?, ?, ?)`,
			title, userID, nullableID(companyID),
		)
		if err != nil {
			return nil, err
		}

		return &models.Chat{
			ID:        id,
			Title:     title,
			UserID:    userID,
			CompanyID: companyID,
			CreatedAt: time.Now(),
		}, nil
	})
}

// GetChat retrieves a chat by ID
func (d *DB) GetChat(id int64) (*models.Chat, error) {
	return WithLockResult(d, func() (*models.Chat, error) {
		row := d.db.QueryRow(
			d.rebind(`SELECT id, title, user_id, company_id, created_at FROM chats WHERE id = ?`),
			id,
		)

		var chat models.Chat
		var companyID sql.NullInt64
		if err := row.Scan(&chat.ID, &chat.Title, &chat.UserID, &companyID, &chat.CreatedAt); err != nil {
			return nil, err
		}
		if companyID.Valid {
			chat.CompanyID = companyID.Int64
		}

		return &chat, nil
	})
}

// GetChatsByUser retrieves a user's chats, newest first, optionally scoped
// to one company.
func (d *DB) GetChatsByUser(userID string, companyID int64) ([]models.Chat, error) {
	return WithLockResult(d, func() ([]models.Chat, error) {
		query := `SELECT id, title, user_id, company_id, created_at FROM chats WHERE user_id = ?`
		args := []any{userID}
		if companyID != 0 {
			query += ` AND company_id = ?`
			args = append(args, companyID)
		}
		query += ` ORDER BY created_at DESC, id DESC`

		rows, err := d.db.Query(d.rebind(query), args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var chats []models.Chat
		for rows.Next() {
			var chat models.Chat
			var cid sql.NullInt64
			if err := rows.Scan(&chat.ID, &chat.Title, &chat.UserID, &cid, &chat.CreatedAt); err != nil {
				return nil, err
			}
			if cid.Valid {
				chat.CompanyID = cid.Int64
			}
			chats = append(chats, chat)
		}

		return chats, rows.Err()
	})
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
