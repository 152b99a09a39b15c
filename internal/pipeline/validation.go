package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/fincopilot/internal/domain"
)

// ErrInvalidRecord marks records rejected before persistence.
var ErrInvalidRecord = errors.New("invalid record")

// ValidateRecord checks the fields every stored record must carry.
func ValidateRecord(rec domain.TransactionRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if rec.Kind != domain.Income && rec.Kind != domain.Expense {
		return fmt.Errorf("%w: kind %q", ErrInvalidRecord, rec.Kind)
	}
	if err := domain.ValidateAmount(rec.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !rec.OccurredOn.IsValid() {
		return fmt.Errorf("%w: date %q", ErrInvalidRecord, rec.OccurredOn)
	}
	if strings.TrimSpace(rec.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidRecord)
	}
	return nil
}
