package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ir-chat/internal/db"
	"ir-chat/internal/logic"
)

// HistoryHandler serves stored conversation history
type HistoryHandler struct {
	db     *db.DB
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(database *db.DB, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{db: database, logger: logger}
}

type loadChatRequest struct {
	ChatID int64 `json:"chatId"`
}

type loadChatResponse struct {
	ChatID   int64            `json:"chatId"`
	Messages []MessagePayload `json:"messages"`
}

// LoadChat handles POST /api/loadChat. It returns the raw stored rows for
// a chat in insertion order, without re-running the merge pass.
func (h *HistoryHandler) LoadChat(w http.ResponseWriter, r *http.Request) {
	var req loadChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == 0 {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	rows, err := h.db.GetMessagesByChat(req.ChatID)
	if err != nil {
		h.logger.Error("LoadChat failed", zap.Int64("chat_id", req.ChatID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	messages := make([]MessagePayload, len(rows))
	for i, row := range rows {
		messages[i] = MessagePayload{
			Role:        string(row.Role),
			DisplayRole: logic.DisplayRole(row.Role),
			Content:     row.Content,
		}
	}

	writeJSON(w, http.StatusOK, loadChatResponse{ChatID: req.ChatID, Messages: messages})
}

type userChatsRequest struct {
	UserID  string `json:"userId"`
	Company string `json:"company,omitempty"`
}

type chatSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type userChatsResponse struct {
	Chats []chatSummary `json:"chats"`
}

// UserChats handles POST /api/userChats
func (h *HistoryHandler) UserChats(w http.ResponseWriter, r *http.Request) {
	var req userChatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	var companyID int64
	if req.Company != "" {
		company, err := h.db.GetCompanyByName(req.Company)
		if err != nil {
			h.logger.Warn("UserChats: company lookup failed", zap.String("company", req.Company), zap.Error(err))
			writeJSON(w, http.StatusOK, userChatsResponse{Chats: []chatSummary{}})
			return
		}
		companyID = company.ID
	}

	chats, err := h.db.GetChatsByUser(req.UserID, companyID)
	if err != nil {
		h.logger.Error("UserChats failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	summaries := make([]chatSummary, len(chats))
	for i, chat := range chats {
		summaries[i] = chatSummary{ID: chat.ID, Title: chat.Title}
	}

	writeJSON(w, http.StatusOK, userChatsResponse{Chats: summaries})
}
