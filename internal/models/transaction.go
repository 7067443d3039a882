// Package models defines the domain records shared by the parsing pipeline,
// persistence layer and HTTP handlers.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one expense or income event. Records are created by
// the resolver or the receipt pipeline and never mutated afterwards.
//
// The owner id is always derived from verified identity, never from
// client-controlled fields. Currency is a per-user setting and is not stored
// per record.
type TransactionRecord struct {
	ID          string          `json:"id,omitempty"`
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Validate checks the record invariants: positive amount within the sanity
// ceiling, canonical category, and kind/category consistency.
func (r TransactionRecord) Validate() error {
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", r.Amount)
	}
	if r.Amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("amount %s exceeds ceiling %s", r.Amount, MaxAmount)
	}
	if r.Kind != KindIncome && r.Kind != KindExpense {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if !IsCanonicalCategory(r.Category) {
		return fmt.Errorf("category %q is not canonical", r.Category)
	}
	if r.Kind == KindIncome && r.Category != CategoryIncome {
		return fmt.Errorf("income record must use category %q, got %q", CategoryIncome, r.Category)
	}
	if r.Kind == KindExpense && r.Category == CategoryIncome {
		return fmt.Errorf("expense record cannot use category %q", CategoryIncome)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description must not be empty")
	}
	return nil
}

// ParseOutcome is the transient result produced by both parser paths and
// consumed by the resolver. It is never persisted directly.
type ParseOutcome struct {
	Amount      decimal.Decimal
	Kind        string
	Category    string
	Description string
}

// Record converts an outcome into a TransactionRecord owned by userID.
// createdAt defaults to now (UTC) when zero.
func (o ParseOutcome) Record(userID int64, createdAt time.Time) TransactionRecord {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	description := NormalizeDescription(o.Description)
	return TransactionRecord{
		UserID:      userID,
		Amount:      o.Amount,
		Kind:        o.Kind,
		Category:    o.Category,
		Description: description,
		CreatedAt:   createdAt,
	}
}

// NormalizeDescription collapses whitespace runs and falls back to the
// placeholder for empty text.
func NormalizeDescription(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return DescriptionPlaceholder
	}
	return normalized
}
