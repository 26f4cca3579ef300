package logic

import "ir-chat/internal/models"

// MergeAssistantMessages collapses adjacent assistant entries of a
// chronologically-ordered sequence into single entries, joining their
// contents with a newline. The remote service may split one logical reply
// across several physical messages; the merged sequence shows one bubble
// per turn. User entries are never combined or reordered.
func MergeAssistantMessages(messages []ChatMessage) []ChatMessage {
	merged := make([]ChatMessage, 0, len(messages))
	var lastRole models.Role

	for _, msg := range messages {
		if msg.Role == models.RoleAssistant && lastRole == models.RoleAssistant {
			merged[len(merged)-1].Content += "\n" + msg.Content
			continue
		}
		merged = append(merged, msg)
		lastRole = msg.Role
	}

	return merged
}
