package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ir-chat/internal/assistant"
	"ir-chat/internal/db"
	"ir-chat/internal/logic"
)

// ChatHandler handles the conversation advance endpoint
type ChatHandler struct {
	db                 *db.DB
	reconciler         *logic.Reconciler
	serviceCreds       assistant.Credentials
	defaultSuggestions []string
	logger             *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(database *db.DB, reconciler *logic.Reconciler, serviceCreds assistant.Credentials, defaultSuggestions []string, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		db:                 database,
		reconciler:         reconciler,
		serviceCreds:       serviceCreds,
		defaultSuggestions: defaultSuggestions,
		logger:             logger,
	}
}

// ChatRequest represents the request body for an advance call. The widget
// caches chatId/threadId/userId across reloads and sends them back as-is.
// Credentials are resolved from the companies table when company is set;
// the bare openaiApiKey/assistantId pair is the legacy single-tenant path.
type ChatRequest struct {
	UserMessage  string `json:"userMessage"`
	ChatID       int64  `json:"chatId,omitempty"`
	ThreadID     string `json:"threadId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Company      string `json:"company,omitempty"`
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`
	AssistantID  string `json:"assistantId,omitempty"`
}

// MessagePayload is one transcript entry in API responses
type MessagePayload struct {
	Role        string `json:"role"`
	DisplayRole string `json:"displayRole"`
	Content     string `json:"content"`
}

// ChatResponse represents the reconciled conversation returned to the
// widget. The widget replaces its whole transcript with Messages.
type ChatResponse struct {
	ChatID      int64            `json:"chatId,omitempty"`
	ThreadID    string           `json:"threadId"`
	UserID      string           `json:"userId,omitempty"`
	Messages    []MessagePayload `json:"messages"`
	Suggestions []string         `json:"suggestions"`
}

// Advance handles POST /api/assistantChat
func (h *ChatHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Advance failed: invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := logic.AdvanceInput{
		UserMessage: req.UserMessage,
		ChatID:      req.ChatID,
		ThreadID:    req.ThreadID,
		UserID:      req.UserID,
		Credentials: assistant.Credentials{
			APIKey:      req.OpenAIAPIKey,
			AssistantID: req.AssistantID,
		},
		Suggestions: h.defaultSuggestions,
	}
	if input.Credentials.APIKey == "" && input.Credentials.AssistantID == "" {
		input.Credentials = h.serviceCreds
	}

	if req.Company != "" {
		company, err := h.db.GetCompanyByName(req.Company)
		if err == sql.ErrNoRows {
			h.logger.Warn("Advance failed: unknown company", zap.String("company", req.Company))
			writeError(w, http.StatusNotFound, "Unknown company")
			return
		}
		if err != nil {
			h.logger.Error("Advance failed: company lookup", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		input.CompanyID = company.ID
		input.Credentials = assistant.Credentials{
			APIKey:      company.OpenAIAPIKey,
			AssistantID: company.AssistantID,
		}
		if len(company.DefaultSuggestions) > 0 {
			input.Suggestions = company.DefaultSuggestions
		}
	}

	result, err := h.reconciler.Advance(r.Context(), input)
	if errors.Is(err, assistant.ErrMissingCredentials) {
		writeError(w, http.StatusBadRequest, "Missing OpenAI API Key or Assistant ID")
		return
	}
	if err != nil {
		h.logger.Error("Advance failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages := make([]MessagePayload, len(result.Messages))
	for i, msg := range result.Messages {
		messages[i] = MessagePayload{
			Role:        string(msg.Role),
			DisplayRole: logic.DisplayRole(msg.Role),
			Content:     msg.Content,
		}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ChatID:      result.ChatID,
		ThreadID:    result.ThreadID,
		UserID:      result.UserID,
		Messages:    messages,
		Suggestions: result.Suggestions,
	})
}
