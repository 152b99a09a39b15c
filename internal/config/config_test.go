package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FINCOPILOT_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "RUB", cfg.App.HomeCurrency)
	require.Equal(t, "telegram", cfg.App.Source)
	require.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
	require.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	require.Equal(t, 500, cfg.LLM.MaxTokens)
	require.InDelta(t, 0.1, float64(cfg.LLM.Temperature), 1e-6)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.Equal(t, BackendSheets, cfg.Storage.Backend)
	require.Equal(t, "Transactions", cfg.Sheets.TransactionsSheet)
	require.Equal(t, 5, cfg.Jobs.Workers)
	require.Equal(t, 0, cfg.Jobs.MaxRetries)
	require.Contains(t, cfg.Vocabulary.Categories, "прочее")
	require.Contains(t, cfg.Vocabulary.ExpenseKeywords, "расход")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINCOPILOT_CONFIG", "")
	t.Setenv("FINCOPILOT_APP_HOME_CURRENCY", "usd")
	t.Setenv("FINCOPILOT_STORAGE_BACKEND", "memory")
	t.Setenv("FINCOPILOT_LLM_MAX_TOKENS", "256")
	t.Setenv("FINCOPILOT_JOBS_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "USD", cfg.App.HomeCurrency)
	require.Equal(t, BackendMemory, cfg.Storage.Backend)
	require.Equal(t, 256, cfg.LLM.MaxTokens)
	require.Equal(t, 2, cfg.Jobs.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fincopilot.yaml")
	content := `
app:
  home_currency: eur
storage:
  backend: bigquery
bigquery:
  project_id: demo-project
vocabulary:
  income_keywords: [einnahme]
  expense_keywords: [ausgabe]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FINCOPILOT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "EUR", cfg.App.HomeCurrency)
	require.Equal(t, BackendBigQuery, cfg.Storage.Backend)
	require.Equal(t, "demo-project", cfg.BigQuery.ProjectID)
	require.Equal(t, []string{"einnahme"}, cfg.Vocabulary.IncomeKeywords)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		t.Setenv("FINCOPILOT_CONFIG", "")
		cfg, err := Load()
		require.NoError(t, err)
		cfg.Storage.Backend = BackendMemory
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad provider", mutate: func(c *Config) { c.LLM.Provider = "claude" }},
		{name: "bad backend", mutate: func(c *Config) { c.Storage.Backend = "postgres" }},
		{name: "sheets without id", mutate: func(c *Config) { c.Storage.Backend = BackendSheets }},
		{name: "bigquery without project", mutate: func(c *Config) { c.Storage.Backend = BackendBigQuery }},
		{name: "bad currency", mutate: func(c *Config) { c.App.HomeCurrency = "RUBLE" }},
		{name: "bad timezone", mutate: func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{name: "no workers", mutate: func(c *Config) { c.Jobs.Workers = 0 }},
		{name: "empty vocabulary", mutate: func(c *Config) { c.Vocabulary.IncomeKeywords = nil }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
