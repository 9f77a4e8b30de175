package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mreyes/confluence/internal/contracts"
)

// BlacklistRepository implements contracts.BlacklistStore on Postgres.
// The bounded failure history rides along as a jsonb column.
type BlacklistRepository struct {
	pool *pgxpool.Pool
}

// NewBlacklistRepository creates a new blacklist repository.
func NewBlacklistRepository(pool *pgxpool.Pool) *BlacklistRepository {
	return &BlacklistRepository{pool: pool}
}

// Get retrieves one entry by normalized ticker. Returns (nil, nil)
// when the ticker is not blacklisted.
func (r *BlacklistRepository) Get(ctx context.Context, ticker string) (*contracts.BlacklistEntry, error) {
	query := `
		SELECT ticker, failure_count, failure_type, reason, error_code, last_failure, history
		FROM guard.blacklist
		WHERE ticker = $1
	`

	var entry contracts.BlacklistEntry
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&entry.Ticker,
		&entry.FailureCount,
		&entry.FailureType,
		&entry.Reason,
		&entry.ErrorCode,
		&entry.LastFailure,
		&entry.History,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
	}
	return &entry, nil
}

// Put inserts or replaces the entry for its ticker.
func (r *BlacklistRepository) Put(ctx context.Context, entry *contracts.BlacklistEntry) error {
	query := `
		INSERT INTO guard.blacklist
			(ticker, failure_count, failure_type, reason, error_code, last_failure, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker) DO UPDATE SET
			failure_count = EXCLUDED.failure_count,
			failure_type  = EXCLUDED.failure_type,
			reason        = EXCLUDED.reason,
			error_code    = EXCLUDED.error_code,
			last_failure  = EXCLUDED.last_failure,
			history       = EXCLUDED.history
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Ticker,
		entry.FailureCount,
		entry.FailureType,
		entry.Reason,
		entry.ErrorCode,
		entry.LastFailure,
		entry.History,
	)
	if err != nil {
		return fmt.Errorf("failed to put blacklist entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a ticker. Deleting an absent ticker is
// not an error.
func (r *BlacklistRepository) Delete(ctx context.Context, ticker string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM guard.blacklist WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete blacklist entry: %w", err)
	}
	return nil
}

// List returns every entry ordered by ticker.
func (r *BlacklistRepository) List(ctx context.Context) ([]*contracts.BlacklistEntry, error) {
	query := `
		SELECT ticker, failure_count, failure_type, reason, error_code, last_failure, history
		FROM guard.blacklist
		ORDER BY ticker
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer rows.Close()

	var entries []*contracts.BlacklistEntry
	for rows.Next() {
		var entry contracts.BlacklistEntry
		err := rows.Scan(
			&entry.Ticker,
			&entry.FailureCount,
			&entry.FailureType,
			&entry.Reason,
			&entry.ErrorCode,
			&entry.LastFailure,
			&entry.History,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blacklist row: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blacklist rows: %w", err)
	}
	return entries, nil
}
