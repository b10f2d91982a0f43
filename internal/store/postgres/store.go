// Package postgres provides a Postgres-backed ProductStore.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool backing the store.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querierCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// Store persists product records in a Postgres table.
type Store struct {
	pool  querierCloser
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool querierCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Reset drops and recreates the product table so the next crawl writes
// a fresh snapshot.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
		return fmt.Errorf("drop product table: %w", err)
	}
	create := fmt.Sprintf(`
CREATE TABLE %s (
	product_category TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_price DOUBLE PRECISION NOT NULL,
	product_qty INTEGER NOT NULL,
	product_stock TEXT NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("create product table: %w", err)
	}
	return nil
}

// InsertProducts writes a batch of product records in a single
// transaction, so a failure mid-batch persists nothing from it.
func (s *Store) InsertProducts(ctx context.Context, records []catalog.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	product_category,
	product_id,
	product_name,
	product_price,
	product_qty,
	product_stock
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		args := []any{
			rec.Category,
			rec.ProductID,
			rec.Name,
			rec.Price,
			rec.Quantity,
			rec.Stock,
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert product %s: %w", rec.ProductID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// BestSellers returns in-stock products with quantity at most
// store.BestSellerMaxQty, highest quantity first.
func (s *Store) BestSellers(ctx context.Context) ([]catalog.ProductRecord, error) {
	query := fmt.Sprintf(`
%s WHERE product_qty <= $1 AND product_stock = $2
ORDER BY product_qty DESC`, s.selectClause())
	return s.queryProducts(ctx, query, store.BestSellerMaxQty, catalog.StockInStock)
}

// CommonItems returns in-stock products with quantity at least
// store.CommonItemMinQty, highest quantity first.
func (s *Store) CommonItems(ctx context.Context) ([]catalog.ProductRecord, error) {
	query := fmt.Sprintf(`
%s WHERE product_qty >= $1 AND product_stock = $2
ORDER BY product_qty DESC`, s.selectClause())
	return s.queryProducts(ctx, query, store.CommonItemMinQty, catalog.StockInStock)
}

// ByStock returns products with the given stock status ordered by name.
func (s *Store) ByStock(ctx context.Context, status catalog.StockStatus) ([]catalog.ProductRecord, error) {
	query := fmt.Sprintf(`
%s WHERE product_stock = $1
ORDER BY product_name ASC`, s.selectClause())
	return s.queryProducts(ctx, query, status)
}

// Categories returns the distinct non-empty category names.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
SELECT DISTINCT product_category FROM %s
WHERE product_category <> ''
ORDER BY product_category ASC`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	return out, nil
}

func (s *Store) selectClause() string {
	return fmt.Sprintf(`
SELECT
	product_category,
	product_id,
	product_name,
	product_price,
	product_qty,
	product_stock
FROM %s`, s.table)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]catalog.ProductRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.ProductRecord, 0)
	for rows.Next() {
		var rec catalog.ProductRecord
		if err := rows.Scan(
			&rec.Category,
			&rec.ProductID,
			&rec.Name,
			&rec.Price,
			&rec.Quantity,
			&rec.Stock,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return out, nil
}
