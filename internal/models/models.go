package models

import "time"

// Role identifies who authored a message. After normalization only the two
// canonical values exist; nothing else may reach the display layer.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Company represents a tenant of the embeddable widget. Each company owns
// one OpenAI assistant and the credentials to reach it.
type Company struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	AssistantID        string    `json:"assistant_id"`
	OpenAIAPIKey       string    `json:"-"`
	InvestURL          string    `json:"invest_url,omitempty"`
	DefaultSuggestions []string  `json:"default_suggestions,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Chat represents a persisted conversation record. A chat is bound to at
// most one remote thread for its whole lifetime; the thread id lives on the
// message rows, assigned on first use and never changed.
type Chat struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CompanyID int64     `json:"company_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is an append-only row in the local message log. Assistant
// rows hold the remote thread's per-message breakdown for the turn that
// produced them; history reads return rows as stored, never re-merged.
type StoredMessage struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	ThreadID  string    `json:"thread_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
