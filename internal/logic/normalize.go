package logic

import (
	"encoding/json"

	"ir-chat/internal/assistant"
	"ir-chat/internal/models"
)

// ChatMessage is the canonical {role, content} shape every remote message
// is normalized to before merging and display.
type ChatMessage struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// NormalizeRole maps any remote role literal to one of the two canonical
// values. Only the exact string "user" stays user; everything else is
// treated as assistant output.
func NormalizeRole(role string) models.Role {
	if role == "user" {
		return models.RoleUser
	}
	return models.RoleAssistant
}

// ExtractText extracts the display string from a message's content blocks.
// Only the first block is considered; blocks beyond it are discarded. A
// first block without a nested text value is serialized verbatim rather
// than rejected.
func ExtractText(blocks []assistant.MessageContent) string {
	if len(blocks) == 0 {
		return ""
	}

	first := blocks[0]
	if first.Text != nil && first.Text.Value != nil {
		return *first.Text.Value
	}

	raw, err := json.Marshal(first)
	if err != nil {
		return ""
	}
	return string(raw)
}

// NormalizeMessage maps a raw remote message to the canonical shape.
func NormalizeMessage(msg assistant.Message) ChatMessage {
	return ChatMessage{
		Role:    NormalizeRole(msg.Role),
		Content: ExtractText(msg.Content),
	}
}

// DisplayRole relabels a canonical role for presentation.
func DisplayRole(role models.Role) string {
	if role == models.RoleUser {
		return "INVESTOR"
	}
	return "AI AGENT"
}
