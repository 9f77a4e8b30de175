package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mreyes/confluence/internal/contracts"
)

// SignalRepository implements contracts.SignalRepository on Postgres.
// One fusion pass becomes one fusion.runs row plus its fusion.signals
// rows; the per-source details ride along as jsonb.
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// SaveRun persists one fusion pass atomically.
func (r *SignalRepository) SaveRun(ctx context.Context, result *contracts.TieredResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO fusion.runs (generated_at, degraded, degraded_reason, clusters_analyzed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		result.GeneratedAt,
		result.Degraded,
		result.DegradedReason,
		result.ClustersAnalyzed,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, signal := range result.All() {
		_, err := tx.Exec(ctx,
			`INSERT INTO fusion.signals
				(run_id, ticker, tier, signal_count, combined_score,
				 insider, actor, institutional, squeeze)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID,
			signal.Ticker,
			int(signal.Tier),
			signal.SignalCount,
			signal.CombinedScore,
			signal.Insider,
			signal.Actor,
			signal.Institutional,
			signal.Squeeze,
		)
		if err != nil {
			return fmt.Errorf("failed to insert signal %s: %w", signal.Ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// LatestRun loads the most recent fusion pass. Returns (nil, nil) when
// no run has been persisted yet.
func (r *SignalRepository) LatestRun(ctx context.Context) (*contracts.TieredResult, error) {
	var runID int64
	result := &contracts.TieredResult{
		Tier0: []*contracts.Signal{},
		Tier1: []*contracts.Signal{},
		Tier2: []*contracts.Signal{},
		Tier3: []*contracts.Signal{},
		Tier4: []*contracts.Signal{},
	}

	err := r.pool.QueryRow(ctx,
		`SELECT id, generated_at, degraded, degraded_reason, clusters_analyzed
		 FROM fusion.runs
		 ORDER BY generated_at DESC, id DESC
		 LIMIT 1`,
	).Scan(&runID, &result.GeneratedAt, &result.Degraded, &result.DegradedReason, &result.ClustersAnalyzed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ticker, tier, signal_count, combined_score,
			insider, actor, institutional, squeeze
		 FROM fusion.signals
		 WHERE run_id = $1
		 ORDER BY tier, combined_score DESC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run signals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var signal contracts.Signal
		var tier int
		err := rows.Scan(
			&signal.Ticker,
			&tier,
			&signal.SignalCount,
			&signal.CombinedScore,
			&signal.Insider,
			&signal.Actor,
			&signal.Institutional,
			&signal.Squeeze,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %w", err)
		}
		signal.Tier = contracts.Tier(tier)

		switch signal.Tier {
		case contracts.Tier0:
			result.Tier0 = append(result.Tier0, &signal)
		case contracts.Tier1:
			result.Tier1 = append(result.Tier1, &signal)
		case contracts.Tier2:
			result.Tier2 = append(result.Tier2, &signal)
		case contracts.Tier3:
			result.Tier3 = append(result.Tier3, &signal)
		default:
			result.Tier4 = append(result.Tier4, &signal)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}

	return result, nil
}
