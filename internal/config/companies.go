package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompanySeed describes a tenant to pre-register at startup.
type CompanySeed struct {
	Name               string   `yaml:"name"`
	AssistantID        string   `yaml:"assistant_id"`
	OpenAIAPIKey       string   `yaml:"openai_api_key"`
	InvestURL          string   `yaml:"invest_url"`
	DefaultSuggestions []string `yaml:"default_suggestions"`
}

type companySeedFile struct {
	Companies []CompanySeed `yaml:"companies"`
}

// LoadCompanySeeds loads tenant definitions from a YAML file. A missing
// file yields an empty list; seeding is optional.
func LoadCompanySeeds(path string) ([]CompanySeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read companies file %s: %w", path, err)
	}

	var file companySeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse companies file %s: %w", path, err)
	}

	for i, c := range file.Companies {
		if c.Name == "" {
			return nil, fmt.Errorf("companies file %s: entry %d has no name", path, i)
		}
	}

	return file.Companies, nil
}
