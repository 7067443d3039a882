package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// UpsertCurrency sets the user's display currency, creating the settings row
// on first use.
func (s *Store) UpsertCurrency(ctx context.Context, userID int64, currency string) error {
	if _, ok := models.AllowedCurrencies[currency]; !ok {
		return &parsererror.ValidationError{Field: "currency", Value: currency, Reason: "unsupported"}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, currency)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET currency = EXCLUDED.currency`,
		userID, currency,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "upsert settings", Err: err}
	}
	return nil
}

// GetCurrency returns the user's display currency, defaulting to RUB when no
// settings row exists yet.
func (s *Store) GetCurrency(ctx context.Context, userID int64) (string, error) {
	var currency string
	err := s.pool.QueryRow(ctx,
		`SELECT currency FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CurrencyRUB, nil
	}
	if err != nil {
		return "", &parsererror.PersistenceError{Operation: "load settings", Err: err}
	}
	return currency, nil
}
