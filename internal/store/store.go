// Package store defines the persistence contract for crawled product
// records and the fixed filtered reads served by the API.
package store

import (
	"context"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

// Quantity thresholds for the fixed read queries.
const (
	// BestSellerMaxQty is the highest quantity an in-stock product may
	// carry and still count as a best seller.
	BestSellerMaxQty = 70
	// CommonItemMinQty is the lowest quantity that marks a product as a
	// common, well-stocked item.
	CommonItemMinQty = 100
)

// ProductStore persists product records and serves the fixed filtered
// reads. Reset drops all existing rows so a crawl always replaces the
// previous snapshot.
type ProductStore interface {
	// Reset clears all stored products, recreating backing structures
	// as needed.
	Reset(ctx context.Context) error
	// InsertProducts appends a batch of records, typically one category
	// worth at a time.
	InsertProducts(ctx context.Context, records []catalog.ProductRecord) error
	// BestSellers returns in-stock products with quantity at most
	// BestSellerMaxQty, highest quantity first.
	BestSellers(ctx context.Context) ([]catalog.ProductRecord, error)
	// CommonItems returns in-stock products with quantity at least
	// CommonItemMinQty, highest quantity first.
	CommonItems(ctx context.Context) ([]catalog.ProductRecord, error)
	// ByStock returns products with the given stock status, ordered by
	// name.
	ByStock(ctx context.Context, status catalog.StockStatus) ([]catalog.ProductRecord, error)
	// Categories returns the distinct non-empty category names present
	// in the stored snapshot.
	Categories(ctx context.Context) ([]string, error)
	// Close releases any underlying resources.
	Close() error
}
