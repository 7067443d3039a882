package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionRecord is a recurring obligation. NextDate always represents
// the next unconsumed occurrence; advancing it is the only mutation the
// renewal scheduler performs.
type SubscriptionRecord struct {
	ID       string          `json:"id"`
	UserID   int64           `json:"user_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Period   string          `json:"period"`
	NextDate time.Time       `json:"next_date"`
}

// Validate checks the subscription invariants for newly created records.
func (s SubscriptionRecord) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name must be a non-empty string")
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("amount must be >= 0, got %s", s.Amount)
	}
	if _, ok := AllowedCurrencies[s.Currency]; !ok {
		return fmt.Errorf("unsupported currency %q", s.Currency)
	}
	if _, ok := NormalizePeriod(s.Period); !ok {
		return fmt.Errorf("unknown period %q", s.Period)
	}
	if s.NextDate.IsZero() {
		return fmt.Errorf("next_date is required")
	}
	return nil
}

// NormalizePeriod maps a period spelling, including the legacy aliases
// (month, year, week, day), onto the canonical period values. Returns false
// for spellings it does not recognize.
func NormalizePeriod(period string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "month", PeriodMonthly:
		return PeriodMonthly, true
	case "year", PeriodYearly:
		return PeriodYearly, true
	case "week", PeriodWeekly:
		return PeriodWeekly, true
	case "day", PeriodDaily:
		return PeriodDaily, true
	default:
		return "", false
	}
}

// DecimalFromString parses a user-supplied amount, accepting a comma as the
// decimal separator.
func DecimalFromString(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	return decimal.NewFromString(cleaned)
}
