// Package catalog defines core types shared across the crawler subsystems.
package catalog

import "time"

// StockStatus is the coarse availability classification derived from the
// free-form stock text on a product listing.
type StockStatus string

// Stock status values persisted in the product store. The first four are the
// literal phrases the catalog markup uses; Unknown covers listings with no
// stock block at all.
const (
	StockInStock      StockStatus = "IN STOCK"
	StockOutOfStock   StockStatus = "OUT OF STOCK"
	StockDiscontinued StockStatus = "DISCONTINUED"
	StockComingSoon   StockStatus = "COMING SOON"
	StockUnknown      StockStatus = "UNKNOWN"
)

// CategoryLink is one hyperlink discovered on the master categories page.
type CategoryLink struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// RawProduct holds the fields pulled from a single product listing block
// before normalization. Name is already markup-stripped plain text; the
// price and stock fields are the raw text as it appeared in the page, with
// "" meaning the element was absent.
type RawProduct struct {
	ID            string
	Name          string
	PriceText     string
	SalePriceText string
	StockText     string
}

// ProductRecord is the persisted unit produced by a crawl run.
type ProductRecord struct {
	Category  string      `json:"category" db:"product_category"`
	ProductID string      `json:"product_id" db:"product_id"`
	Name      string      `json:"name" db:"product_name"`
	Price     float64     `json:"price" db:"product_price"`
	Quantity  int         `json:"quantity" db:"product_qty"`
	Stock     StockStatus `json:"stock" db:"product_stock"`
}

// CrawlStatus represents the lifecycle state of a crawl run.
type CrawlStatus string

// Crawl run states reported by the engine.
const (
	CrawlIdle        CrawlStatus = "idle"
	CrawlDiscovering CrawlStatus = "discovering"
	CrawlExtracting  CrawlStatus = "extracting"
	CrawlDone        CrawlStatus = "done"
	CrawlAborted     CrawlStatus = "aborted"
)

// CrawlReport summarizes one crawl run.
type CrawlReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	Categories int       `json:"categories"`
	Products   int       `json:"products"`
	Error      string    `json:"error,omitempty"`
}
