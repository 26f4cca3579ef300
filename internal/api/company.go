package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ir-chat/internal/assistant"
	"ir-chat/internal/db"
	"ir-chat/internal/models"
)

// CompanyHandler manages tenant registration and lookup
type CompanyHandler struct {
	db        *db.DB
	assistant *assistant.Client
	logger    *zap.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(database *db.DB, client *assistant.Client, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{db: database, assistant: client, logger: logger}
}

type createCompanyRequest struct {
	Name               string   `json:"name"`
	AssistantID        string   `json:"assistantId"`
	OpenAIAPIKey       string   `json:"openaiApiKey"`
	InvestURL          string   `json:"investUrl,omitempty"`
	DefaultSuggestions []string `json:"defaultSuggestions,omitempty"`
}

// companyProfile is the public view of a company. It never carries the
// tenant's API key.
type companyProfile struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	AssistantID        string   `json:"assistantId"`
	InvestURL          string   `json:"investUrl,omitempty"`
	DefaultSuggestions []string `json:"defaultSuggestions"`
}

// Create handles POST /api/companies. When an assistant client is
// configured, the supplied credentials are verified against the
// Assistants API before the company is stored.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	creds := assistant.Credentials{APIKey: req.OpenAIAPIKey, AssistantID: req.AssistantID}
	if err := creds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Missing OpenAI API Key or Assistant ID")
		return
	}

	if h.assistant != nil {
		if _, err := h.assistant.GetAssistant(r.Context(), creds); err != nil {
			h.logger.Warn("Create company: assistant verification failed",
				zap.String("company", req.Name), zap.Error(err))
			writeError(w, http.StatusBadRequest, "Assistant verification failed: "+err.Error())
			return
		}
	}

	company := &models.Company{
		Name:               req.Name,
		AssistantID:        req.AssistantID,
		OpenAIAPIKey:       req.OpenAIAPIKey,
		InvestURL:          req.InvestURL,
		DefaultSuggestions: req.DefaultSuggestions,
	}
	if err := h.db.UpsertCompany(company); err != nil {
		h.logger.Error("Create company failed", zap.String("company", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.Info("Company registered", zap.String("company", company.Name), zap.Int64("id", company.ID))
	writeJSON(w, http.StatusOK, newCompanyProfile(company))
}

// Get handles GET /api/companies/{name}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	company, err := h.db.GetCompanyByName(name)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "Unknown company")
		return
	}
	if err != nil {
		h.logger.Error("Get company failed", zap.String("company", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, newCompanyProfile(company))
}

func newCompanyProfile(company *models.Company) companyProfile {
	suggestions := company.DefaultSuggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return companyProfile{
		ID:                 company.ID,
		Name:               company.Name,
		AssistantID:        company.AssistantID,
		InvestURL:          company.InvestURL,
		DefaultSuggestions: suggestions,
	}
}
