package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	PublicURL string `mapstructure:"public_url"`
}

// DatabaseConfig holds relational storage configuration. Driver selects
// between the embedded sqlite file and an external Postgres.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// OpenAIConfig holds service-level OpenAI defaults. Per-company credentials
// in the companies table take precedence for tenant traffic.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	AssistantID string        `mapstructure:"assistant_id"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

// ChatConfig holds conversation-level settings
type ChatConfig struct {
	DefaultSuggestions []string `mapstructure:"default_suggestions"`
}

// Config holds all application configuration
type Config struct {
	Server       ServerConfig   `mapstructure:"server"`
	Database     DatabaseConfig `mapstructure:"database"`
	OpenAI       OpenAIConfig   `mapstructure:"openai"`
	Chat         ChatConfig     `mapstructure:"chat"`
	CompaniesFile string        `mapstructure:"companies_file"`
}

// Load reads configuration from the given file plus environment variables.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/app.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("openai.run_timeout", 2*time.Minute)
	v.SetDefault("companies_file", "settings/companies.yaml")

	v.SetEnvPrefix("IRCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (d DatabaseConfig) validate() error {
	switch d.Driver {
	case "sqlite", "sqlite3":
		if d.Path == "" {
			return fmt.Errorf("database.path must be set for sqlite")
		}
	case "postgres":
		if d.DBName == "" {
			return fmt.Errorf("database.dbname must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	return nil
}
