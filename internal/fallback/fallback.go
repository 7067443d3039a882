// Package fallback implements the local deterministic parser used when the
// remote semantic parser is unavailable or fails. It has no external
// dependencies: the same text always yields the same outcome.
package fallback

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finbot/internal/categorizer"
	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// incomeKeywords mark a message as income regardless of the forced flag.
var incomeKeywords = []string{
	"зарплата", "зп", "аванс", "salary", "advance", "refund", "cashback",
}

// Parser extracts an amount and classifies kind/category from raw free text.
type Parser struct {
	index  *categorizer.Index
	logger logging.Logger
}

// NewParser creates a fallback parser over the given keyword index.
func NewParser(index *categorizer.Index, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Parser{index: index, logger: logger}
}

// Parse extracts a numeric amount and classifies the text. forceIncome marks
// the record as income even without an income keyword (the chat layer sets it
// for messages prefixed with "+").
//
// Returns parsererror.ErrNoAmount when no usable amount is present; the
// caller should then prompt the user to retry with an explicit amount.
func (p *Parser) Parse(text string, forceIncome bool) (models.ParseOutcome, error) {
	amount, err := extractAmount(text)
	if err != nil {
		return models.ParseOutcome{}, err
	}

	lowered := strings.ToLower(text)

	kind := models.KindExpense
	category := ""
	if forceIncome || containsIncomeKeyword(lowered) {
		kind = models.KindIncome
		category = models.CategoryIncome
	} else {
		category = p.index.Categorize(lowered)
	}

	outcome := models.ParseOutcome{
		Amount:      amount,
		Kind:        kind,
		Category:    category,
		Description: models.NormalizeDescription(text),
	}

	p.logger.WithFields(
		logging.Field{Key: logging.FieldAmount, Value: amount.String()},
		logging.Field{Key: logging.FieldKind, Value: kind},
		logging.Field{Key: logging.FieldCategory, Value: category},
	).Debug("Fallback parser produced outcome")

	return outcome, nil
}

// extractAmount concatenates every decimal digit in the text into one number.
//
// NOTE: this is a known format ambiguity inherited from the production data:
// "500 Coffee 2 items" yields 5002. It is kept for behavioral compatibility
// with existing clients; see DESIGN.md before changing it.
func extractAmount(text string) (decimal.Decimal, error) {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return decimal.Decimal{}, parsererror.ErrNoAmount
	}
	// 10,000,000 has 8 digits; anything longer is out of bounds without
	// needing to parse.
	if digits.Len() > 8 {
		return decimal.Decimal{}, parsererror.ErrNoAmount
	}

	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return decimal.Decimal{}, parsererror.ErrNoAmount
	}

	amount := decimal.NewFromInt(value)
	if !amount.IsPositive() || amount.GreaterThan(models.MaxAmount) {
		return decimal.Decimal{}, parsererror.ErrNoAmount
	}
	return amount, nil
}

func containsIncomeKeyword(lowered string) bool {
	for _, keyword := range incomeKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
