package parser

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/domain"
	"github.com/dvloznov/fincopilot/internal/llm"
)

// Interpreter extracts full records through a text-generation model.
type Interpreter struct {
	llm llm.Completer
	cfg Config
	log zerolog.Logger
}

// NewInterpreter creates an interpreter over the given completer.
func NewInterpreter(completer llm.Completer, cfg Config, log zerolog.Logger) *Interpreter {
	return &Interpreter{llm: completer, cfg: cfg.withDefaults(), log: log}
}

// Interpret asks the model for the full field set of text. When partial is
// non-nil the call is an enrichment and the partial's ID is kept; otherwise
// a fresh ID is generated. Errors are always *Failure.
func (i *Interpreter) Interpret(ctx context.Context, text string, partial *domain.TransactionRecord) (domain.TransactionRecord, error) {
	today := i.cfg.today()
	prompt := buildInterpretPrompt(text, i.cfg.Vocabulary.Categories, i.cfg.HomeCurrency, today)

	raw, err := i.llm.Complete(ctx, prompt, i.cfg.Temperature, i.cfg.MaxTokens)
	if err != nil {
		return domain.TransactionRecord{}, unavailable(err)
	}

	obj, err := decodeModelObject(raw)
	if err != nil {
		i.log.Debug().Str("raw", truncate(raw, 500)).Msg("model returned no usable JSON")
		return domain.TransactionRecord{}, malformed("", err)
	}

	rec, err := i.recordFromObject(obj, text, today)
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	if partial != nil {
		rec.ID = partial.ID
	} else {
		rec.ID = i.cfg.NewID()
	}
	return rec, nil
}

func (i *Interpreter) recordFromObject(obj map[string]interface{}, text string, today civil.Date) (domain.TransactionRecord, error) {
	// Required fields
	typ, err := getStringField(obj, "type", true)
	if err != nil {
		return domain.TransactionRecord{}, malformed("type", err)
	}
	amount, err := getAmountField(obj, "amount")
	if err != nil {
		return domain.TransactionRecord{}, malformed("amount", err)
	}
	category, err := getStringField(obj, "category", true)
	if err != nil {
		return domain.TransactionRecord{}, malformed("category", err)
	}

	// Optional fields never fail the parse; a wrong type is treated as absent.
	currency, _ := getStringField(obj, "currency", false)
	subcategory, _ := getStringField(obj, "subcategory", false)
	description, _ := getStringField(obj, "description", false)
	dateStr, _ := getStringField(obj, "date", false)

	return domain.TransactionRecord{
		OccurredOn:  parseDateOr(dateStr, today),
		Kind:        i.normalizeKind(typ),
		Category:    strings.ToLower(category),
		Subcategory: subcategory,
		Amount:      amount,
		Currency:    normalizeCurrency(currency, i.cfg.HomeCurrency),
		Description: firstNonEmpty(description, strings.TrimSpace(text)),
		Source:      i.cfg.Source,
		RecordedAt:  i.cfg.now(),
	}, nil
}

// normalizeKind collapses income synonyms to Income and everything else to Expense.
func (i *Interpreter) normalizeKind(typ string) domain.Kind {
	if k, ok := i.cfg.Vocabulary.ResolveKind(typ); ok && k == domain.Income {
		return domain.Income
	}
	return domain.Expense
}

// Categorize asks the model for one category of the vocabulary. Any error
// or an answer outside the vocabulary yields domain.DefaultCategory.
func (i *Interpreter) Categorize(ctx context.Context, description string) string {
	prompt := buildCategorizePrompt(description, i.cfg.Vocabulary.Categories)

	raw, err := i.llm.Complete(ctx, prompt, categorizeTemperature, categorizeMaxTokens)
	if err != nil {
		i.log.Warn().Err(err).Msg("categorize failed, using default category")
		return domain.DefaultCategory
	}

	answer := strings.ToLower(strings.Trim(strings.TrimSpace(raw), " .,!\"'`"))
	for _, c := range i.cfg.Vocabulary.Categories {
		if strings.ToLower(c) == answer {
			return c
		}
	}
	i.log.Debug().Str("answer", truncate(raw, 80)).Msg("category outside vocabulary")
	return domain.DefaultCategory
}

func parseDateOr(s string, fallback civil.Date) civil.Date {
	if s == "" {
		return fallback
	}
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return fallback
	}
	return d
}

func normalizeCurrency(c, home string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return home
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

