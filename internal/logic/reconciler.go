package logic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ir-chat/internal/assistant"
	"ir-chat/internal/models"
)

// DefaultSuggestions is the fallback follow-up list returned after a turn
// when the tenant has not configured its own.
var DefaultSuggestions = []string{
	"Ask about the company's next earnings call",
	"Ask about recent analyst ratings",
	"Ask about upcoming product launches",
}

// ThreadService is the remote, externally-owned conversation handle. The
// reconciler only ever creates a thread once, appends to it, runs it to
// completion and lists it; it never inspects thread internals.
type ThreadService interface {
	CreateThread(ctx context.Context, creds assistant.Credentials) (*assistant.Thread, error)
	CreateMessage(ctx context.Context, creds assistant.Credentials, threadID, content string) (*assistant.Message, error)
	RunToCompletion(ctx context.Context, creds assistant.Credentials, threadID string) error
	ListMessages(ctx context.Context, creds assistant.Credentials, threadID string) ([]assistant.Message, error)
}

// ChatStore is the persistence surface the reconciler needs: chat creation
// and append-only message rows.
type ChatStore interface {
	CreateChat(title, userID string, companyID int64) (*models.Chat, error)
	InsertMessage(chatID int64, threadID string, role models.Role, content string) (*models.StoredMessage, error)
}

// AdvanceInput carries one turn of the conversation. ChatID zero and
// ThreadID empty mean the identifiers have not been minted yet. An empty
// UserMessage requests a pure reload of the remote thread.
type AdvanceInput struct {
	UserMessage string
	ChatID      int64
	ThreadID    string
	UserID      string
	CompanyID   int64
	Credentials assistant.Credentials
	Suggestions []string
}

// AdvanceResult is the full reconciled conversation plus any identifiers
// minted during the call. The caller replaces its transcript with Messages
// wholesale and caches the identifiers for the next call.
type AdvanceResult struct {
	ChatID      int64
	ThreadID    string
	UserID      string
	Messages    []ChatMessage
	Suggestions []string
}

// Reconciler stitches the remote stateful thread together with the local
// persisted message log and reconciles client-cached identifiers against
// server state.
type Reconciler struct {
	threads ThreadService
	store   ChatStore
	logger  *zap.Logger
}

// NewReconciler creates a reconciler over the given remote service and store.
func NewReconciler(threads ThreadService, store ChatStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		threads: threads,
		store:   store,
		logger:  logger,
	}
}

// Advance performs one conversation turn: lazily creates the thread and
// chat, appends the utterance, runs the assistant to completion, then
// returns the normalized, chronologically-ordered, merged transcript.
//
// With an empty UserMessage no remote append or run happens; the call is a
// pure reload of the thread's current state. Remote appends and persistence
// inserts are at-most-once per call; there is no retry and no idempotency
// key, so a caller retrying a failed call may double-append remotely.
func (r *Reconciler) Advance(ctx context.Context, in AdvanceInput) (*AdvanceResult, error) {
	if err := in.Credentials.Validate(); err != nil {
		return nil, err
	}

	threadID := in.ThreadID
	if threadID == "" {
		thread, err := r.threads.CreateThread(ctx, in.Credentials)
		if err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
		threadID = thread.ID
		r.logger.Info("Advance created thread", zap.String("thread_id", threadID))
	}

	chatID := in.ChatID
	userID := in.UserID
	if chatID == 0 && in.UserMessage != "" {
		if userID == "" {
			userID = uuid.NewString()
		}
		chat, err := r.store.CreateChat(in.UserMessage, userID, in.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
		chatID = chat.ID
		r.logger.Info("Advance created chat",
			zap.Int64("chat_id", chatID),
			zap.String("user_id", userID))
	}

	if in.UserMessage == "" {
		// Pure reload. With no chat either this degenerates to an empty
		// transcript over a fresh thread, which is fine.
		messages, err := r.loadMerged(ctx, in.Credentials, threadID)
		if err != nil {
			return nil, err
		}
		return &AdvanceResult{
			ChatID:      chatID,
			ThreadID:    threadID,
			UserID:      userID,
			Messages:    messages,
			Suggestions: []string{},
		}, nil
	}

	if _, err := r.threads.CreateMessage(ctx, in.Credentials, threadID, in.UserMessage); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	if _, err := r.store.InsertMessage(chatID, threadID, models.RoleUser, in.UserMessage); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	if err := r.threads.RunToCompletion(ctx, in.Credentials, threadID); err != nil {
		return nil, fmt.Errorf("run assistant: %w", err)
	}

	raw, err := r.threads.ListMessages(ctx, in.Credentials, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	normalized := normalizeAll(raw)

	// Persist this turn's assistant output pre-merge, one row per physical
	// message. The remote list is newest first, so the new turn is the
	// assistant prefix before the first user entry.
	turn := assistantPrefix(normalized)
	for i := len(turn) - 1; i >= 0; i-- {
		if _, err := r.store.InsertMessage(chatID, threadID, models.RoleAssistant, turn[i].Content); err != nil {
			return nil, fmt.Errorf("persist assistant message: %w", err)
		}
	}

	reverseMessages(normalized)
	merged := MergeAssistantMessages(normalized)

	suggestions := in.Suggestions
	if len(suggestions) == 0 {
		suggestions = DefaultSuggestions
	}

	r.logger.Info("Advance completed",
		zap.Int64("chat_id", chatID),
		zap.String("thread_id", threadID),
		zap.Int("message_count", len(merged)))

	return &AdvanceResult{
		ChatID:      chatID,
		ThreadID:    threadID,
		UserID:      userID,
		Messages:    merged,
		Suggestions: suggestions,
	}, nil
}

// loadMerged fetches, normalizes, reorders and merges the remote thread.
func (r *Reconciler) loadMerged(ctx context.Context, creds assistant.Credentials, threadID string) ([]ChatMessage, error) {
	raw, err := r.threads.ListMessages(ctx, creds, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	normalized := normalizeAll(raw)
	reverseMessages(normalized)
	return MergeAssistantMessages(normalized), nil
}

func normalizeAll(raw []assistant.Message) []ChatMessage {
	normalized := make([]ChatMessage, len(raw))
	for i, msg := range raw {
		normalized[i] = NormalizeMessage(msg)
	}
	return normalized
}

// assistantPrefix returns the leading assistant entries of a newest-first
// sequence, i.e. everything produced after the latest user utterance.
func assistantPrefix(messages []ChatMessage) []ChatMessage {
	var prefix []ChatMessage
	for _, msg := range messages {
		if msg.Role != models.RoleAssistant {
			break
		}
		prefix = append(prefix, msg)
	}
	return prefix
}

func reverseMessages(messages []ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
