// Package store persists domain records in PostgreSQL through pgx. Every
// query that touches user data filters on the owner id, so a record can never
// leak across users regardless of what the handlers pass in.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"finbot/internal/logging"
)

// ErrNotFound reports that no record matched the query for this owner.
var ErrNotFound = errors.New("record not found")

// Store is the PostgreSQL-backed persistence layer.
type Store struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string, logger logging.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
