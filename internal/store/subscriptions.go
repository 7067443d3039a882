package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// CreateSubscription inserts one subscription and fills in its id.
func (s *Store) CreateSubscription(ctx context.Context, sub *models.SubscriptionRecord) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, name, amount, currency, period, next_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.UserID, sub.Name, sub.Amount, sub.Currency, sub.Period, sub.NextDate,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "insert subscription", Err: err}
	}
	return nil
}

// ListSubscriptions returns the user's subscriptions ordered by next date.
func (s *Store) ListSubscriptions(ctx context.Context, userID int64) ([]models.SubscriptionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, amount, currency, period, next_date
		 FROM subscriptions
		 WHERE user_id = $1
		 ORDER BY next_date ASC`,
		userID,
	)
	if err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list subscriptions", Err: err}
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// DeleteSubscription removes one of the user's subscriptions.
func (s *Store) DeleteSubscription(ctx context.Context, userID int64, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "delete subscription", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDue returns all subscriptions across users whose next date falls on due.
func (s *Store) ListDue(ctx context.Context, due time.Time) ([]models.SubscriptionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, amount, currency, period, next_date
		 FROM subscriptions
		 WHERE next_date = $1`,
		due,
	)
	if err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list due subscriptions", Err: err}
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// AdvanceNextDate moves a subscription's next date forward, but only when the
// stored date still matches from. A false return with no error means another
// sweep got there first.
func (s *Store) AdvanceNextDate(ctx context.Context, id string, from, to time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET next_date = $1 WHERE id = $2 AND next_date = $3`,
		to, id, from,
	)
	if err != nil {
		return false, &parsererror.PersistenceError{Operation: "advance subscription", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSubscriptions(rows rowScanner) ([]models.SubscriptionRecord, error) {
	var subs []models.SubscriptionRecord
	for rows.Next() {
		var sub models.SubscriptionRecord
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Amount, &sub.Currency, &sub.Period, &sub.NextDate); err != nil {
			return nil, &parsererror.PersistenceError{Operation: "scan subscription", Err: err}
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list subscriptions", Err: err}
	}
	return subs, nil
}
