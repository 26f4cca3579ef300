package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ir-chat/internal/models"
)

// CreateCompany registers a tenant. The name is stored lowercased; company
// lookup is case-insensitive by construction.
func (d *DB) CreateCompany(company *models.Company) error {
	return d.WithLock(func() error {
		suggestions, err := marshalSuggestions(company.DefaultSuggestions)
		if err != nil {
			return err
		}

		id, err := d.insertRow(
			`INSERT INTO companies (name, assistant_id, openai_api_key, invest_url, default_suggestions)
				VALUES (?, ?, ?, ?, ?)`,
			strings.ToLower(company.Name), company.AssistantID, company.OpenAIAPIKey,
			company.InvestURL, suggestions,
		)
		if err != nil {
			return err
		}

		company.ID = id
		company.Name = strings.ToLower(company.Name)
		company.CreatedAt = time.Now()
		return nil
	})
}

// UpsertCompany inserts the tenant or refreshes its configuration when the
// name is already registered. Used by startup seeding.
func (d *DB) UpsertCompany(company *models.Company) error {
	existing, err := d.GetCompanyByName(company.Name)
	if err == sql.ErrNoRows {
		return d.CreateCompany(company)
	}
	if err != nil {
		return err
	}

	return d.WithLock(func() error {
		suggestions, err := marshalSuggestions(company.DefaultSuggestions)
		if err != nil {
			return err
		}

		_, err = d.db.Exec(
			d.rebind(`UPDATE companies SET assistant_id = ?, openai_api_key = ?, invest_url = ?, default_suggestions = ?
				WHERE id = ?`),
			company.AssistantID, company.OpenAIAPIKey, company.InvestURL, suggestions, existing.ID,
		)
		if err != nil {
			return err
		}

		company.ID = existing.ID
		company.Name = existing.Name
		company.CreatedAt = existing.CreatedAt
		return nil
	})
}

// GetCompanyByName retrieves a tenant by its (lowercased) name.
func (d *DB) GetCompanyByName(name string) (*models.Company, error) {
	return WithLockResult(d, func() (*models.Company, error) {
		row := d.db.QueryRow(
			d.rebind(`SELECT id, name, assistant_id, openai_api_key, invest_url, default_suggestions, created_at
				FROM companies WHERE name = ?`),
			strings.ToLower(name),
		)
		return scanCompany(row)
	})
}

// GetCompany retrieves a tenant by ID
func (d *DB) GetCompany(id int64) (*models.Company, error) {
	return WithLockResult(d, func() (*models.Company, error) {
		row := d.db.QueryRow(
			d.rebind(`SELECT id, name, assistant_id, openai_api_key, invest_url, default_suggestions, created_at
				FROM companies WHERE id = ?`),
			id,
		)
		return scanCompany(row)
	})
}

func scanCompany(row *sql.Row) (*models.Company, error) {
	var company models.Company
	var suggestions string
	if err := row.Scan(&company.ID, &company.Name, &company.AssistantID,
		&company.OpenAIAPIKey, &company.InvestURL, &suggestions, &company.CreatedAt); err != nil {
		return nil, err
	}

	if suggestions != "" {
		if err := json.Unmarshal([]byte(suggestions), &company.DefaultSuggestions); err != nil {
			return nil, fmt.Errorf("decode default_suggestions for company %s: %w", company.Name, err)
		}
	}

	return &company, nil
}

func marshalSuggestions(suggestions []string) (string, error) {
	if suggestions == nil {
		suggestions = []string{}
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return "", fmt.Errorf("encode default_suggestions: %w", err)
	}
	return string(raw), nil
}
