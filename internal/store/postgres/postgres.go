// Package postgres implements store.Store on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/store"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// Store runs every unit of work in a SERIALIZABLE transaction, retrying on serialization failures.
type Store struct {
	pool       *pgxpool.Pool
	maxRetries int
	logger     *zap.Logger
}

// New creates a Postgres store. maxRetries bounds re-runs after a serialization failure.
func New(pool *pgxpool.Pool, maxRetries int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Store{pool: pool, maxRetries: maxRetries, logger: logger}
}

// InTx runs fn in a new transaction and commits when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !retryable(err) {
			return err
		}
		s.logger.Debug("retrying transaction", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	ptx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &tx{tx: ptx}); err != nil {
		if rErr := ptx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			return errors.Join(err, rErr)
		}
		return err
	}
	if err := ptx.Commit(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// mapError translates driver errors to store sentinels. Retryable errors keep their PgError in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

var _ store.Tx = (*tx)(nil)

type tx struct {
	tx pgx.Tx
}

// execOne runs a write that must touch exactly one row.
func (t *tx) execOne(ctx context.Context, q string, args ...any) error {
	tag, err := t.tx.Exec(ctx, q, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
