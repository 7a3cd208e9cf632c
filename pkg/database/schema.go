package database

import (
	"context"
	"fmt"
)

// migrations are applied in order; each statement is idempotent
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS feature_mappings (
		feature       TEXT        NOT NULL,
		raw_value     TEXT        NOT NULL,
		encoded_value INTEGER     NOT NULL CHECK (encoded_value > 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (feature, raw_value)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS feature_mappings_code_idx
		ON feature_mappings (feature, encoded_value)`,
	`CREATE TABLE IF NOT EXISTS processed_sales (
		product_id          TEXT          NOT NULL,
		sale_date           DATE          NOT NULL,
		original_product_id TEXT          NOT NULL DEFAULT '',
		product_name        TEXT          NOT NULL,
		category            TEXT          NOT NULL,
		quantity            INTEGER       NOT NULL,
		per_item_value      NUMERIC(14,4) NOT NULL,
		in_stock            SMALLINT      NOT NULL,
		run_id              TEXT          NOT NULL,
		PRIMARY KEY (product_id, sale_date)
	)`,
	`CREATE INDEX IF NOT EXISTS processed_sales_date_idx ON processed_sales (sale_date)`,
}

// EnsureSchema creates the mapping and processed-data tables when missing
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
