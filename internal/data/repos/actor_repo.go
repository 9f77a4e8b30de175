package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mreyes/confluence/internal/contracts"
)

// ActorRepository implements contracts.ActorRepository on Postgres.
type ActorRepository struct {
	pool *pgxpool.Pool
}

// NewActorRepository creates a new actor repository.
func NewActorRepository(pool *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{pool: pool}
}

const actorColumns = `
	name, party, chamber, state, base_weight, status,
	term_ended, retirement_announced, performance_score, total_trades_tracked
`

// Get retrieves one actor by full name. Returns (nil, nil) when the
// actor is not tracked.
func (r *ActorRepository) Get(ctx context.Context, name string) (*contracts.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM trust.actors WHERE name = $1`

	actor, err := scanActor(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return actor, nil
}

// Upsert inserts or replaces the actor row keyed by name.
func (r *ActorRepository) Upsert(ctx context.Context, actor *contracts.Actor) error {
	query := `
		INSERT INTO trust.actors (` + actorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE SET
			party                = EXCLUDED.party,
			chamber              = EXCLUDED.chamber,
			state                = EXCLUDED.state,
			base_weight          = EXCLUDED.base_weight,
			status               = EXCLUDED.status,
			term_ended           = EXCLUDED.term_ended,
			retirement_announced = EXCLUDED.retirement_announced,
			performance_score    = EXCLUDED.performance_score,
			total_trades_tracked = EXCLUDED.total_trades_tracked
	`

	_, err := r.pool.Exec(ctx, query,
		actor.Name,
		actor.Party,
		actor.Chamber,
		actor.State,
		actor.BaseWeight,
		actor.Status,
		actor.TermEnded,
		actor.RetirementAnnounced,
		actor.PerformanceScore,
		actor.TotalTradesTracked,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert actor: %w", err)
	}
	return nil
}

// List returns every tracked actor ordered by name.
func (r *ActorRepository) List(ctx context.Context) ([]*contracts.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM trust.actors ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []*contracts.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan actor row: %w", err)
		}
		actors = append(actors, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actor rows: %w", err)
	}
	return actors, nil
}

// LastAutomatedCheck reads the registry-level reconciliation stamp.
// Returns the zero time when no reconciliation has run yet.
func (r *ActorRepository) LastAutomatedCheck(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT checked_at FROM trust.registry_meta WHERE id = 1`,
	).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last automated check: %w", err)
	}
	return at, nil
}

// SetLastAutomatedCheck stamps the reconciliation time.
func (r *ActorRepository) SetLastAutomatedCheck(ctx context.Context, at time.Time) error {
	query := `
		INSERT INTO trust.registry_meta (id, checked_at)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET checked_at = EXCLUDED.checked_at
	`
	if _, err := r.pool.Exec(ctx, query, at); err != nil {
		return fmt.Errorf("failed to set last automated check: %w", err)
	}
	return nil
}

func scanActor(row pgx.Row) (*contracts.Actor, error) {
	var actor contracts.Actor
	err := row.Scan(
		&actor.Name,
		&actor.Party,
		&actor.Chamber,
		&actor.State,
		&actor.BaseWeight,
		&actor.Status,
		&actor.TermEnded,
		&actor.RetirementAnnounced,
		&actor.PerformanceScore,
		&actor.TotalTradesTracked,
	)
	if err != nil {
		return nil, err
	}
	return &actor, nil
}
