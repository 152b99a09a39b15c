package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Supported LLM providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Supported storage backends.
const (
	BackendSheets   = "sheets"
	BackendBigQuery = "bigquery"
	BackendMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	App        AppConfig
	LLM        LLMConfig
	Storage    StorageConfig
	Sheets     SheetsConfig
	BigQuery   BigQueryConfig `mapstructure:"bigquery"`
	Notion     NotionConfig
	Export     ExportConfig
	Server     ServerConfig
	Jobs       JobsConfig
	Log        LogConfig
	Vocabulary domain.Vocabulary
}

// AppConfig holds the defaults injected into the parser.
type AppConfig struct {
	HomeCurrency string `mapstructure:"home_currency"`
	Source       string
	Timezone     string
	OwnerID      string `mapstructure:"owner_id"`
}

// LLMConfig holds text-generation provider settings.
type LLMConfig struct {
	Provider    string
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string
	Referer     string
	Title       string
	Temperature float32
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Backend string
}

// SheetsConfig holds Google Sheets settings.
type SheetsConfig struct {
	CredentialsFile   string `mapstructure:"credentials_file"`
	SpreadsheetID     string `mapstructure:"spreadsheet_id"`
	TransactionsSheet string `mapstructure:"transactions_sheet"`
	BudgetsSheet      string `mapstructure:"budgets_sheet"`
}

// BigQueryConfig holds BigQuery settings.
type BigQueryConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Dataset   string
}

// NotionConfig holds Notion mirror settings.
type NotionConfig struct {
	Token      string
	DatabaseID string `mapstructure:"database_id"`
}

// ExportConfig holds GCS export settings.
type ExportConfig struct {
	Bucket string
	Prefix string
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// JobsConfig holds async ingestion settings.
type JobsConfig struct {
	Workers    int
	BufferSize int `mapstructure:"buffer_size"`
	MaxRetries int `mapstructure:"max_retries"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from .env, an optional YAML file and the
// environment. Env var overrides use prefix FINCOPILOT_, e.g.
// FINCOPILOT_LLM_API_KEY.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("FINCOPILOT_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FINCOPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.App.HomeCurrency = strings.ToUpper(strings.TrimSpace(c.App.HomeCurrency))
	return c, nil
}

func setDefaults(v *viper.Viper) {
	vocab := domain.DefaultVocabulary()

	v.SetDefault("app.home_currency", "RUB")
	v.SetDefault("app.source", "telegram")
	v.SetDefault("app.timezone", "Europe/Moscow")
	v.SetDefault("app.owner_id", "default")

	v.SetDefault("llm.provider", ProviderOpenRouter)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "google/gemma-7b-it:free")
	v.SetDefault("llm.referer", "https://github.com/fincopilot-bot")
	v.SetDefault("llm.title", "FinCopilot")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("storage.backend", BackendSheets)
	v.SetDefault("sheets.credentials_file", "credentials.json")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.transactions_sheet", "Transactions")
	v.SetDefault("sheets.budgets_sheet", "Budgets")
	v.SetDefault("bigquery.project_id", "")
	v.SetDefault("bigquery.dataset", "fincopilot")

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.prefix", "exports")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("jobs.workers", 5)
	v.SetDefault("jobs.buffer_size", 100)
	v.SetDefault("jobs.max_retries", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("vocabulary.expense_keywords", vocab.ExpenseKeywords)
	v.SetDefault("vocabulary.income_keywords", vocab.IncomeKeywords)
	v.SetDefault("vocabulary.categories", vocab.Categories)
	v.SetDefault("vocabulary.trigger_prefixes", vocab.TriggerPrefixes)
}

// Validate checks the settings every command relies on.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider: unsupported provider %q", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case BackendSheets:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets.spreadsheet_id is required for the sheets backend")
		}
	case BackendBigQuery:
		if c.BigQuery.ProjectID == "" {
			return errors.New("bigquery.project_id is required for the bigquery backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unsupported backend %q", c.Storage.Backend)
	}
	if len(c.App.HomeCurrency) != 3 {
		return fmt.Errorf("app.home_currency: want a 3-letter code, got %q", c.App.HomeCurrency)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers)
	}
	if len(c.Vocabulary.ExpenseKeywords) == 0 || len(c.Vocabulary.IncomeKeywords) == 0 {
		return errors.New("vocabulary: expense and income keyword lists must not be empty")
	}
	return nil
}

// Location returns the configured timezone, UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
