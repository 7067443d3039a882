package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finbot/internal/models"
	"finbot/internal/parsererror"
)

// SaveTransaction inserts one transaction record and fills in its id.
func (s *Store) SaveTransaction(ctx context.Context, record *models.TransactionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, category, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.UserID, record.Amount, record.Kind,
		record.Category, record.Description, record.CreatedAt,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "insert transaction", Err: err}
	}
	return nil
}

// ListTransactionsSince returns the user's transactions created at or after
// since, newest first.
func (s *Store) ListTransactionsSince(ctx context.Context, userID int64, since time.Time) ([]models.TransactionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, amount, type, category, description, created_at
		 FROM transactions
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list transactions", Err: err}
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.Kind, &r.Category, &r.Description, &r.CreatedAt); err != nil {
			return nil, &parsererror.PersistenceError{Operation: "scan transaction", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &parsererror.PersistenceError{Operation: "list transactions", Err: err}
	}
	return records, nil
}

// ListTransactions returns all of the user's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]models.TransactionRecord, error) {
	return s.ListTransactionsSince(ctx, userID, time.Time{})
}

// DeleteTransaction removes one of the user's transactions.
func (s *Store) DeleteTransaction(ctx context.Context, userID int64, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return &parsererror.PersistenceError{Operation: "delete transaction", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
