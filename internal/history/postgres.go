package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// PostgresStore mirrors processed rows in the processed_sales table
// Only identity, quantity, price and stock are kept; derived features are
// recomputed on merge.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var salesColumns = []string{
	"product_id", "sale_date", "original_product_id", "product_name",
	"category", "quantity", "per_item_value", "in_stock", "run_id",
}

// Load returns rows dated in [from, to)
func (s *PostgresStore) Load(ctx context.Context, from, to time.Time) (*dataset.Dataset, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM processed_sales`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count processed sales: %w", err)
	}
	if total == 0 {
		return nil, fmt.Errorf("processed_sales: %w", contracts.ErrNoHistory)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_id, sale_date, original_product_id, product_name,
		       category, quantity, per_item_value, in_stock
		FROM processed_sales
		WHERE sale_date >= $1 AND sale_date < $2
		ORDER BY product_id, sale_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query processed sales: %w", err)
	}
	defer rows.Close()

	ds := dataset.New(
		dataset.ColOriginalProductID, dataset.ColProductID, dataset.ColProductName,
		dataset.ColCategory, dataset.ColQuantity, dataset.ColPerItemValue,
		dataset.ColInStock, dataset.ColDate,
	)
	for rows.Next() {
		r := &dataset.Record{QuantityKnown: true}
		var price decimal.Decimal
		if err := rows.Scan(&r.ProductID, &r.Date, &r.OriginalProductID, &r.ProductName,
			&r.Category, &r.Quantity, &price, &r.InStock); err != nil {
			return nil, fmt.Errorf("scan processed sale: %w", err)
		}
		r.Date = r.Date.UTC()
		r.PerItemValue = price.InexactFloat64()
		ds.Records = append(ds.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed sales: %w", err)
	}
	return ds, nil
}

// Save upserts every row with a known quantity using COPY into a staging table
func (s *PostgresStore) Save(ctx context.Context, ds *dataset.Dataset, runID string) (SaveResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE processed_sales_stage
		(LIKE processed_sales INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return SaveResult{}, fmt.Errorf("create staging table: %w", err)
	}

	var rows [][]any
	for _, r := range ds.Records {
		if !r.QuantityKnown || r.Date.IsZero() {
			continue
		}
		rows = append(rows, []any{
			r.ProductID, r.Date, r.OriginalProductID, r.ProductName,
			r.Category, r.Quantity, decimal.NewFromFloat(r.PerItemValue), r.InStock, runID,
		})
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"processed_sales_stage"}, salesColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return SaveResult{}, fmt.Errorf("copy processed sales: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO processed_sales
		SELECT * FROM processed_sales_stage
		ON CONFLICT (product_id, sale_date) DO UPDATE SET
			original_product_id = EXCLUDED.original_product_id,
			product_name        = EXCLUDED.product_name,
			category            = EXCLUDED.category,
			quantity            = EXCLUDED.quantity,
			per_item_value      = EXCLUDED.per_item_value,
			in_stock            = EXCLUDED.in_stock,
			run_id              = EXCLUDED.run_id`); err != nil {
		return SaveResult{}, fmt.Errorf("upsert processed sales: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveResult{}, fmt.Errorf("commit history: %w", err)
	}

	return SaveResult{Location: "postgres:processed_sales", Rows: int(copied)}, nil
}
