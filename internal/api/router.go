package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ir-chat/internal/assistant"
	"ir-chat/internal/db"
	"ir-chat/internal/logic"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RouterConfig carries the dependencies and settings the router needs.
// Database and Assistant are required.
type RouterConfig struct {
	Database           *db.DB
	Assistant          *assistant.Client
	Logger             *zap.Logger
	PublicURL          string
	DefaultSuggestions []string
	ServiceCredentials assistant.Credentials
}

// Router holds the HTTP multiplexer and dependencies
type Router struct {
	mux            *http.ServeMux
	chatHandler    *ChatHandler
	historyHandler *HistoryHandler
	companyHandler *CompanyHandler
	embedHandler   *EmbedHandler
	logger         *zap.Logger
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reconciler := logic.NewReconciler(cfg.Assistant, cfg.Database, logger)

	r := &Router{
		mux:            http.NewServeMux(),
		chatHandler:    NewChatHandler(cfg.Database, reconciler, cfg.ServiceCredentials, cfg.DefaultSuggestions, logger),
		historyHandler: NewHistoryHandler(cfg.Database, logger),
		companyHandler: NewCompanyHandler(cfg.Database, cfg.Assistant, logger),
		embedHandler:   NewEmbedHandler(cfg.Database, cfg.PublicURL, logger),
		logger:         logger,
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes
func (r *Router) setupRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", HealthHandler)

	// Chat routes (route names match the original widget contract)
	r.mux.HandleFunc("POST /api/assistantChat", r.chatHandler.Advance)
	r.mux.HandleFunc("POST /api/loadChat", r.historyHandler.LoadChat)
	r.mux.HandleFunc("POST /api/userChats", r.historyHandler.UserChats)

	// Company (tenant) routes
	r.mux.HandleFunc("POST /api/companies", r.companyHandler.Create)
	r.mux.HandleFunc("GET /api/companies/{name}", r.companyHandler.Get)

	// Embed script route
	r.mux.HandleFunc("GET /api/embedScript/{companyName}", r.embedHandler.Script)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	// The widget is embedded on third-party pages; allow cross-origin calls.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	shouldLog := strings.HasPrefix(req.URL.Path, "/api/")

	if shouldLog {
		r.logger.Info("Request started",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path))
	}

	wrapped := newResponseWriter(w)
	r.mux.ServeHTTP(wrapped, req)

	if shouldLog {
		r.logger.Info("Request completed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)))
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an {error} JSON payload, the shape the widget expects
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
