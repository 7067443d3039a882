package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// Receipt is the validated result of a receipt parse.
type Receipt struct {
	Items []ReceiptItem
	Store string
}

// ReceiptItem is one purchased line item.
type ReceiptItem struct {
	Name   string
	Amount decimal.Decimal
}

// entryPayload mirrors the JSON contract of the entry prompt.
type entryPayload struct {
	Error       string          `json:"error"`
	Amount      json.RawMessage `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// receiptPayload mirrors the JSON contract of the receipt prompt.
type receiptPayload struct {
	Error string `json:"error"`
	Items []struct {
		Name   string          `json:"name"`
		Amount json.RawMessage `json:"amount"`
	} `json:"items"`
	Store string `json:"store"`
}

// ParseEntry sends one chat message to the remote parser and validates the
// response onto a ParseOutcome.
func (c *Client) ParseEntry(ctx context.Context, text string) (models.ParseOutcome, error) {
	content, err := c.complete(ctx, entrySystemPrompt, buildEntryPrompt(text))
	if err != nil {
		return models.ParseOutcome{}, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return models.ParseOutcome{}, err
	}

	var payload entryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.ParseOutcome{}, parsererror.ErrInvalidResponse
	}

	if payload.Error != "" {
		return models.ParseOutcome{}, sentinelError(payload.Error)
	}

	amount, err := coerceAmount(payload.Amount)
	if err != nil {
		return models.ParseOutcome{}, err
	}

	// Unknown kinds coerce to expense rather than failing the parse.
	kind := strings.ToLower(strings.TrimSpace(payload.Type))
	if kind != models.KindIncome && kind != models.KindExpense {
		kind = models.KindExpense
	}

	outcome := models.ParseOutcome{
		Amount:      amount,
		Kind:        kind,
		Category:    coerceCategory(payload.Category, kind),
		Description: coerceDescription(payload.Description, text),
	}

	c.logger.WithFields(
		logging.Field{Key: logging.FieldAmount, Value: amount.String()},
		logging.Field{Key: logging.FieldKind, Value: outcome.Kind},
		logging.Field{Key: logging.FieldCategory, Value: outcome.Category},
	).Debug("Semantic parser produced outcome")

	return outcome, nil
}

// ParseReceipt sends receipt OCR text to the remote parser and validates the
// item list. A single invalid item rejects the whole receipt: partial item
// lists from a confused model are worse than a clean retry.
func (c *Client) ParseReceipt(ctx context.Context, ocrText string) (Receipt, error) {
	content, err := c.complete(ctx, receiptSystemPrompt, buildReceiptPrompt(ocrText))
	if err != nil {
		return Receipt{}, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return Receipt{}, err
	}

	var payload receiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Receipt{}, parsererror.ErrInvalidResponse
	}

	if payload.Error != "" {
		return Receipt{}, sentinelError(payload.Error)
	}

	if len(payload.Items) == 0 {
		return Receipt{}, fmt.Errorf("no line items recognized: %w", parsererror.ErrUnreadable)
	}

	receipt := Receipt{
		Store: strings.TrimSpace(payload.Store),
		Items: make([]ReceiptItem, 0, len(payload.Items)),
	}
	for i, item := range payload.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return Receipt{}, &parsererror.ValidationError{
				Field:  fmt.Sprintf("items[%d].name", i),
				Reason: "missing item name",
			}
		}
		amount, err := coerceAmount(item.Amount)
		if err != nil {
			return Receipt{}, &parsererror.ValidationError{
				Field:  fmt.Sprintf("items[%d].amount", i),
				Value:  string(item.Amount),
				Reason: "amount must be a positive number",
			}
		}
		receipt.Items = append(receipt.Items, ReceiptItem{Name: name, Amount: amount})
	}

	c.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: len(receipt.Items)},
		logging.Field{Key: "store", Value: receipt.Store},
	).Debug("Semantic parser extracted receipt items")

	return receipt, nil
}

// sentinelError maps the error sentinels the prompts allow the model to emit
// onto the typed taxonomy.
func sentinelError(sentinel string) error {
	switch sentinel {
	case "no_amount":
		return parsererror.ErrNoAmount
	case "not_a_receipt":
		return parsererror.ErrNotAReceipt
	case "unreadable":
		return parsererror.ErrUnreadable
	default:
		return &parsererror.ValidationError{Field: "error", Value: sentinel, Reason: "unknown sentinel"}
	}
}

// coerceAmount accepts a JSON number or a numeric string and requires a
// positive value within the sanity ceiling.
func coerceAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Decimal{}, &parsererror.ValidationError{Field: "amount", Reason: "missing"}
	}

	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)

	amount, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
	if err != nil {
		return decimal.Decimal{}, &parsererror.ValidationError{
			Field: "amount", Value: text, Reason: "not a number",
		}
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, &parsererror.ValidationError{
			Field: "amount", Value: text, Reason: "must be positive",
		}
	}
	if amount.GreaterThan(models.MaxAmount) {
		return decimal.Decimal{}, &parsererror.ValidationError{
			Field: "amount", Value: text, Reason: "exceeds sanity ceiling",
		}
	}
	return amount, nil
}

// coerceCategory keeps canonical categories and replaces anything else with
// the kind-appropriate default.
func coerceCategory(category, kind string) string {
	if kind == models.KindIncome {
		return models.CategoryIncome
	}
	category = strings.TrimSpace(category)
	if models.IsCanonicalCategory(category) && category != models.CategoryIncome {
		return category
	}
	return models.CategoryOther
}

// coerceDescription normalizes the model's description and falls back to the
// source text when the model returned nothing usable.
func coerceDescription(description, sourceText string) string {
	normalized := models.NormalizeDescription(description)
	if normalized == models.DescriptionPlaceholder {
		return models.NormalizeDescription(sourceText)
	}
	return normalized
}
