package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookscope/internal/domain"
)

// SimulationStore implements domain.SimulationStore using PostgreSQL. The
// order request and resulting metrics are stored as JSONB so the row survives
// metric additions without a migration.
type SimulationStore struct {
	pool *pgxpool.Pool
}

// NewSimulationStore creates a SimulationStore backed by the given pool.
func NewSimulationStore(pool *pgxpool.Pool) *SimulationStore {
	return &SimulationStore{pool: pool}
}

// Insert persists one simulation run.
func (s *SimulationStore) Insert(ctx context.Context, rec domain.SimulationRecord) error {
	reqJSON, err := json.Marshal(rec.Request)
	if err != nil {
		return fmt.Errorf("postgres: marshal simulation request: %w", err)
	}
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("postgres: marshal simulation metrics: %w", err)
	}

	const query = `
		INSERT INTO simulations (id, venue, symbol, request, metrics, book_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Venue, rec.Symbol, reqJSON, metricsJSON, rec.BookAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert simulation %s: %w", rec.ID, err)
	}
	return nil
}

// GetByID returns one simulation run. It returns domain.ErrNotFound when no
// row exists for the ID.
func (s *SimulationStore) GetByID(ctx context.Context, id string) (domain.SimulationRecord, error) {
	const query = `
		SELECT id, venue, symbol, request, metrics, book_at, created_at
		FROM simulations WHERE id = $1`

	rec, err := scanSimulation(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SimulationRecord{}, fmt.Errorf("postgres: simulation %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SimulationRecord{}, fmt.Errorf("postgres: get simulation %s: %w", id, err)
	}
	return rec, nil
}

// List returns simulation runs newest first, optionally filtered by venue and
// by the time range in opts.
func (s *SimulationStore) List(ctx context.Context, venue string, opts domain.ListOpts) ([]domain.SimulationRecord, error) {
	query := `
		SELECT id, venue, symbol, request, metrics, book_at, created_at
		FROM simulations WHERE 1=1`
	args := []any{}
	argIdx := 1

	if venue != "" {
		query += fmt.Sprintf(" AND venue = $%d", argIdx)
		args = append(args, venue)
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list simulations: %w", err)
	}
	defer rows.Close()

	return collectSimulations(rows)
}

// ListBefore returns up to limit runs created strictly before the cutoff,
// oldest first, for archival batching. The id tie-break makes the ordering
// total, so a cap-truncated batch always ends at a well-defined row.
func (s *SimulationStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.SimulationRecord, error) {
	const query = `
		SELECT id, venue, symbol, request, metrics, book_at, created_at
		FROM simulations WHERE created_at < $1
		ORDER BY created_at, id LIMIT $2`

	rows, err := s.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list simulations before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return collectSimulations(rows)
}

// DeleteByIDs removes exactly the given runs and returns the number of rows
// deleted. The archiver deletes by ID rather than by timestamp so rows that
// share a created_at with the last archived row can never be swept away
// unarchived.
func (s *SimulationStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM simulations WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete %d simulations: %w", len(ids), err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of stored runs.
func (s *SimulationStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count simulations: %w", err)
	}
	return n, nil
}

func scanSimulation(row pgx.Row) (domain.SimulationRecord, error) {
	var rec domain.SimulationRecord
	var reqJSON, metricsJSON []byte

	if err := row.Scan(&rec.ID, &rec.Venue, &rec.Symbol, &reqJSON, &metricsJSON, &rec.BookAt, &rec.CreatedAt); err != nil {
		return domain.SimulationRecord{}, err
	}
	if err := json.Unmarshal(reqJSON, &rec.Request); err != nil {
		return domain.SimulationRecord{}, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
		return domain.SimulationRecord{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return rec, nil
}

func collectSimulations(rows pgx.Rows) ([]domain.SimulationRecord, error) {
	var recs []domain.SimulationRecord
	for rows.Next() {
		rec, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan simulation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: simulations rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.SimulationStore = (*SimulationStore)(nil)
