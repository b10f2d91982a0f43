// Package sqlite provides a SQLite-backed ProductStore suitable for
// single-process deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/store"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	product_category TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	product_price REAL NOT NULL,
	product_qty INTEGER NOT NULL,
	product_stock TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_stock ON products(product_stock);
CREATE INDEX IF NOT EXISTS idx_products_qty ON products(product_qty);
`

const selectColumns = `
SELECT
	product_category,
	product_id,
	product_name,
	product_price,
	product_qty,
	product_stock
FROM products`

// Store persists product records in a SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage.path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection prevents lock conflicts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute pragma %s: %w", pragma, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops and recreates the product table so the next crawl writes
// a fresh snapshot.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS products`); err != nil {
		return fmt.Errorf("drop product table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("recreate product table: %w", err)
	}
	return nil
}

// InsertProducts writes a batch of records in a single transaction.
func (s *Store) InsertProducts(ctx context.Context, records []catalog.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products (
	product_category,
	product_id,
	product_name,
	product_price,
	product_qty,
	product_stock
) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Category,
			rec.ProductID,
			rec.Name,
			rec.Price,
			rec.Quantity,
			string(rec.Stock),
		); err != nil {
			return fmt.Errorf("insert product %s: %w", rec.ProductID, err)
		}
	}
	return tx.Commit()
}

// BestSellers returns in-stock products with quantity at most
// store.BestSellerMaxQty, highest quantity first.
func (s *Store) BestSellers(ctx context.Context) ([]catalog.ProductRecord, error) {
	query := selectColumns + `
WHERE product_qty <= ? AND product_stock = ?
ORDER BY product_qty DESC`
	return s.queryProducts(ctx, query, store.BestSellerMaxQty, string(catalog.StockInStock))
}

// CommonItems returns in-stock products with quantity at least
// store.CommonItemMinQty, highest quantity first.
func (s *Store) CommonItems(ctx context.Context) ([]catalog.ProductRecord, error) {
	query := selectColumns + `
WHERE product_qty >= ? AND product_stock = ?
ORDER BY product_qty DESC`
	return s.queryProducts(ctx, query, store.CommonItemMinQty, string(catalog.StockInStock))
}

// ByStock returns products with the given stock status ordered by name.
func (s *Store) ByStock(ctx context.Context, status catalog.StockStatus) ([]catalog.ProductRecord, error) {
	query := selectColumns + `
WHERE product_stock = ?
ORDER BY product_name ASC`
	return s.queryProducts(ctx, query, string(status))
}

// Categories returns the distinct non-empty category names.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT product_category FROM products
WHERE product_category <> ''
ORDER BY product_category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]catalog.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]catalog.ProductRecord, 0)
	for rows.Next() {
		var rec catalog.ProductRecord
		var stock string
		if err := rows.Scan(
			&rec.Category,
			&rec.ProductID,
			&rec.Name,
			&rec.Price,
			&rec.Quantity,
			&stock,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		rec.Stock = catalog.StockStatus(stock)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return out, nil
}
