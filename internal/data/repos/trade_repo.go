package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mreyes/confluence/internal/contracts"
)

// TradeRepository implements contracts.TradeRepository on Postgres.
// Rows are append-only; replayed disclosures hit the unique key on
// (ticker, actor, trade_date) and are dropped.
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

const tradeColumns = `
	ticker, actor, trade_date, transaction_type, amount, conviction_score,
	party, chamber, status_at_trade, weight_at_trade, last_updated
`

// Exists reports whether the (ticker, actor, trade_date) row is
// already recorded.
func (r *TradeRepository) Exists(ctx context.Context, ticker, actor string, tradeDate time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM trust.trades
			WHERE ticker = $1 AND actor = $2 AND trade_date = $3
		)`,
		ticker, actor, tradeDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}
	return exists, nil
}

// Insert records one trade. A duplicate key is a no-op so a replayed
// disclosure batch never rewrites the frozen weight.
func (r *TradeRepository) Insert(ctx context.Context, record *contracts.TradeRecord) error {
	query := `
		INSERT INTO trust.trades (` + tradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker, actor, trade_date) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		record.Ticker,
		record.Actor,
		record.TradeDate,
		record.TransactionType,
		record.Amount,
		record.ConvictionScore,
		record.Party,
		record.Chamber,
		record.StatusAtTrade,
		record.WeightAtTrade,
		record.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// ListByActor returns the recorded trades of one actor, newest first.
func (r *TradeRepository) ListByActor(ctx context.Context, actor string) ([]*contracts.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trust.trades WHERE actor = $1 ORDER BY trade_date DESC`
	return r.listTrades(ctx, query, actor)
}

// ListByTicker returns the recorded trades on one ticker, newest first.
func (r *TradeRepository) ListByTicker(ctx context.Context, ticker string) ([]*contracts.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trust.trades WHERE ticker = $1 ORDER BY trade_date DESC`
	return r.listTrades(ctx, query, ticker)
}

func (r *TradeRepository) listTrades(ctx context.Context, query string, arg string) ([]*contracts.TradeRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var records []*contracts.TradeRecord
	for rows.Next() {
		record, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return records, nil
}

func scanTrade(row pgx.Row) (*contracts.TradeRecord, error) {
	var record contracts.TradeRecord
	err := row.Scan(
		&record.Ticker,
		&record.Actor,
		&record.TradeDate,
		&record.TransactionType,
		&record.Amount,
		&record.ConvictionScore,
		&record.Party,
		&record.Chamber,
		&record.StatusAtTrade,
		&record.WeightAtTrade,
		&record.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
