package parser

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/llm"
)

// MockCompleter is a mock implementation of llm.Completer for testing.
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
	Calls        int
	LastPrompt   string
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, temperature, maxTokens)
	}
	return "", nil
}

var _ llm.Completer = (*MockCompleter)(nil)

func respond(s string) *MockCompleter {
	return &MockCompleter{
		CompleteFunc: func(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
			return s, nil
		},
	}
}

func fail(err error) *MockCompleter {
	return &MockCompleter{
		CompleteFunc: func(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
			return "", err
		},
	}
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testConfig() Config {
	n := 0
	return Config{
		HomeCurrency: "RUB",
		Source:       "test",
		Vocabulary:   domain.DefaultVocabulary(),
		Location:     time.UTC,
		Now:          func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "id-" + string(rune('0'+n))
		},
	}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
