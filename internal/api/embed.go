package api

import (
	"bytes"
	"database/sql"
	"net/http"
	"text/template"

	"go.uber.org/zap"

	"ir-chat/internal/db"
)

// EmbedHandler serves the widget loader script tenants drop into their
// investor-relations pages.
type EmbedHandler struct {
	db        *db.DB
	publicURL string
	logger    *zap.Logger
}

// NewEmbedHandler creates a new embed handler
func NewEmbedHandler(database *db.DB, publicURL string, logger *zap.Logger) *EmbedHandler {
	return &EmbedHandler{db: database, publicURL: publicURL, logger: logger}
}

// embedTemplate injects a floating chat iframe pointed at this service.
// js escaping is handled by template; the values are URL path segments
// and URLs we control.
var embedTemplate = template.Must(template.New("embed").Parse(`(function () {
  if (document.getElementById("ir-chat-frame")) return;
  var frame = document.createElement("iframe");
  frame.id = "ir-chat-frame";
  frame.src = "{{.ChatURL}}";
  frame.title = "Investor Relations Chat";
  frame.style.cssText = "position:fixed;bottom:24px;right:24px;width:400px;height:600px;max-height:80vh;border:0;border-radius:12px;box-shadow:0 8px 32px rgba(0,0,0,0.25);z-index:2147483647;";
  frame.allow = "clipboard-write";
  frame.dataset.investUrl = "{{.InvestURL}}";
  document.body.appendChild(frame);
})();
`))

type embedData struct {
	ChatURL   string
	InvestURL string
}

// Script handles GET /api/embedScript/{companyName}
func (h *EmbedHandler) Script(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("companyName")
	if name == "" {
		writeError(w, http.StatusBadRequest, "companyName is required")
		return
	}

	company, err := h.db.GetCompanyByName(name)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "Unknown company")
		return
	}
	if err != nil {
		h.logger.Error("Embed script failed", zap.String("company", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	data := embedData{
		ChatURL:   h.publicURL + "/chat?company=" + company.Name,
		InvestURL: company.InvestURL,
	}

	var buf bytes.Buffer
	if err := embedTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("Embed script render failed", zap.String("company", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
