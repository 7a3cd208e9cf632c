package mapping

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/demandprep/internal/contracts"
)

// PostgresStore keeps mappings in the feature_mappings table
// Rows are append-only: Save inserts codes not yet present and never rewrites one.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load returns ErrMappingNotFound when the feature has no rows
func (s *PostgresStore) Load(ctx context.Context, feature string) (contracts.Mapping, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT raw_value, encoded_value FROM feature_mappings WHERE feature = $1`, feature)
	if err != nil {
		return nil, fmt.Errorf("query mapping %s: %w", feature, err)
	}
	defer rows.Close()

	m := make(contracts.Mapping)
	for rows.Next() {
		var raw string
		var code int
		if err := rows.Scan(&raw, &code); err != nil {
			return nil, fmt.Errorf("scan mapping %s: %w", feature, err)
		}
		m[raw] = code
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping %s: %w", feature, err)
	}

	if len(m) == 0 {
		return nil, fmt.Errorf("feature %s: %w", feature, contracts.ErrMappingNotFound)
	}
	return m, nil
}

// Save persists every entry of m in one transaction
func (s *PostgresStore) Save(ctx context.Context, feature string, m contracts.Mapping) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin mapping tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for raw, code := range m {
		batch.Queue(`
			INSERT INTO feature_mappings (feature, raw_value, encoded_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (feature, raw_value) DO NOTHING`,
			feature, raw, code)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert mapping %s: %w", feature, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit mapping %s: %w", feature, err)
	}
	return nil
}
