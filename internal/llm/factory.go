package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/fincopilot/internal/config"
)

// New builds the completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		return NewOpenRouterCompleter(OpenRouterConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Referer: cfg.Referer,
			Title:   cfg.Title,
			Timeout: cfg.Timeout,
		})
	case config.ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model)
	}
	return nil, fmt.Errorf("llm.New: unsupported provider %q", cfg.Provider)
}
