package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateCompany(t *testing.T) {
	router, database := newTestRouter(t, RouterConfig{})

	w := postJSON(t, router, "/api/companies", createCompanyRequest{
		Name:               "Acme",
		AssistantID:        "asst_acme",
		OpenAIAPIKey:       "sk-acme",
		InvestURL:          "https://acme.example.com/investors",
		DefaultSuggestions: []string{"What was last quarter's revenue?"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeJSON[companyProfile](t, w)
	if resp.Name != "acme" {
		t.Errorf("expected lowercased name acme, got %q", resp.Name)
	}
	if resp.ID == 0 {
		t.Error("expected a company id")
	}
	if strings.Contains(w.Body.String(), "sk-acme") {
		t.Error("response must not expose the API key")
	}

	stored, err := database.GetCompanyByName("ACME")
	if err != nil {
		t.Fatalf("failed to read company back: %v", err)
	}
	if stored.OpenAIAPIKey != "sk-acme" {
		t.Errorf("expected stored key, got %q", stored.OpenAIAPIKey)
	}
}

func TestCreateCompanyUpdatesExisting(t *testing.T) {
	router, database := newTestRouter(t, RouterConfig{})
	seeded := seedCompany(t, database, "acme", nil)

	w := postJSON(t, router, "/api/companies", createCompanyRequest{
		Name:         "acme",
		AssistantID:  "asst_new",
		OpenAIAPIKey: "sk-new",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeJSON[companyProfile](t, w)
	if resp.ID != seeded.ID {
		t.Errorf("expected existing id %d, got %d", seeded.ID, resp.ID)
	}
	if resp.AssistantID != "asst_new" {
		t.Errorf("expected refreshed assistant id, got %q", resp.AssistantID)
	}
}

func TestCreateCompanyMissingName(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	w := postJSON(t, router, "/api/companies", createCompanyRequest{
		AssistantID:  "asst_x",
		OpenAIAPIKey: "sk-x",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateCompanyMissingCredentials(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	w := postJSON(t, router, "/api/companies", createCompanyRequest{Name: "acme"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetCompany(t *testing.T) {
	router, database := newTestRouter(t, RouterConfig{})
	seedCompany(t, database, "acme", []string{"Ask about guidance"})

	req := httptest.NewRequest(http.MethodGet, "/api/companies/acme", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeJSON[companyProfile](t, w)
	if resp.Name != "acme" {
		t.Errorf("expected acme, got %q", resp.Name)
	}
	if len(resp.DefaultSuggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %v", resp.DefaultSuggestions)
	}
	if strings.Contains(w.Body.String(), "sk-acme") {
		t.Error("response must not expose the API key")
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	router, _ := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/companies/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
