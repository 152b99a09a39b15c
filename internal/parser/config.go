package parser

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// Default sampling settings for structured extraction.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 500

	categorizeTemperature = 0.1
	categorizeMaxTokens   = 50
)

// Config carries the defaults the parser would otherwise read from ambient
// process state.
type Config struct {
	HomeCurrency string
	Source       string
	Vocabulary   domain.Vocabulary
	Location     *time.Location
	Now          func() time.Time
	NewID        func() string
	Temperature  float32
	MaxTokens    int
}

func (c Config) withDefaults() Config {
	if c.HomeCurrency == "" {
		c.HomeCurrency = "RUB"
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if len(c.Vocabulary.ExpenseKeywords) == 0 && len(c.Vocabulary.IncomeKeywords) == 0 {
		c.Vocabulary = domain.DefaultVocabulary()
	}
	return c
}

func (c Config) now() time.Time {
	return c.Now().In(c.Location)
}

func (c Config) today() civil.Date {
	return civil.DateOf(c.now())
}
