// Package crawler orchestrates a catalog crawl: discover the category
// pages, scrape each one, normalize the listings and persist the
// resulting snapshot.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/clock/system"
	"github.com/printdhruv/adafruit-crawler/internal/metrics"
	"github.com/printdhruv/adafruit-crawler/internal/normalize"
	"github.com/printdhruv/adafruit-crawler/internal/scrape"
	"github.com/printdhruv/adafruit-crawler/internal/store"
)

// ErrCrawlInProgress is returned when a crawl is requested while another
// run is still active.
var ErrCrawlInProgress = errors.New("crawl already in progress")

// PageArchiver stores raw page bodies for later inspection. A nil
// archiver disables archiving.
type PageArchiver interface {
	SavePage(pageURL string, fetchedAt time.Time, body []byte) (string, error)
}

// Config holds the crawl parameters.
type Config struct {
	// MasterURL is the categories index page where discovery starts.
	MasterURL string
}

// Engine runs crawls one at a time and remembers the latest report.
type Engine struct {
	cfg     Config
	fetcher catalog.Fetcher
	store   store.ProductStore
	archive PageArchiver
	clock   catalog.Clock
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	status  catalog.CrawlStatus
	last    *catalog.CrawlReport
}

// New constructs an Engine. The archiver may be nil.
func New(
	cfg Config,
	fetcher catalog.Fetcher,
	st store.ProductStore,
	archive PageArchiver,
	clk catalog.Clock,
	logger *zap.Logger,
) (*Engine, error) {
	if cfg.MasterURL == "" {
		return nil, fmt.Errorf("crawler.master_url is required")
	}
	if _, err := url.ParseRequestURI(cfg.MasterURL); err != nil {
		return nil, fmt.Errorf("parse crawler.master_url: %w", err)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if st == nil {
		return nil, fmt.Errorf("product store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = system.Clock{}
	}
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		store:   st,
		archive: archive,
		clock:   clk,
		logger:  logger,
		status:  catalog.CrawlIdle,
	}, nil
}

// Status reports the current lifecycle state of the engine.
func (e *Engine) Status() catalog.CrawlStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastReport returns the report of the most recently finished run, or
// nil when no run has completed yet.
func (e *Engine) LastReport() *catalog.CrawlReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	report := *e.last
	return &report
}

// Run executes a crawl and blocks until it finishes.
func (e *Engine) Run(ctx context.Context) (catalog.CrawlReport, error) {
	if err := e.begin(); err != nil {
		return catalog.CrawlReport{}, err
	}
	return e.run(ctx)
}

// Start launches a crawl in the background. It returns
// ErrCrawlInProgress when a run is already active.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	go func() {
		if _, err := e.run(ctx); err != nil {
			e.logger.Error("crawl failed", zap.Error(err))
		}
	}()
	return nil
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrCrawlInProgress
	}
	e.running = true
	e.status = catalog.CrawlDiscovering
	return nil
}

func (e *Engine) run(ctx context.Context) (catalog.CrawlReport, error) {
	started := e.clock.Now()
	report := catalog.CrawlReport{StartedAt: started}

	err := e.crawl(ctx, &report)

	finished := e.clock.Now()
	report.FinishedAt = finished
	report.ElapsedMs = finished.Sub(started).Milliseconds()

	e.mu.Lock()
	e.running = false
	if err != nil {
		report.Error = err.Error()
		e.status = catalog.CrawlAborted
	} else {
		e.status = catalog.CrawlDone
	}
	last := report
	e.last = &last
	e.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = "aborted"
	}
	metrics.ObserveRun(outcome, finished.Sub(started))
	e.logger.Info("crawl finished",
		zap.String("outcome", outcome),
		zap.Int("categories", report.Categories),
		zap.Int("products", report.Products),
		zap.Int64("elapsed_ms", report.ElapsedMs),
	)
	return report, err
}

func (e *Engine) crawl(ctx context.Context, report *catalog.CrawlReport) error {
	base, err := url.Parse(e.cfg.MasterURL)
	if err != nil {
		return fmt.Errorf("parse master url: %w", err)
	}

	body, err := e.fetchPage(ctx, e.cfg.MasterURL)
	if err != nil {
		return fmt.Errorf("fetch master page: %w", err)
	}

	disc, err := scrape.DiscoverCategories(body, base)
	if err != nil {
		return err
	}
	e.logger.Info("categories discovered", zap.Int("count", len(disc.Links)))

	e.setStatus(catalog.CrawlExtracting)

	// The snapshot replaces whatever the previous run stored. Categories
	// processed before an abort survive.
	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset product store: %w", err)
	}

	for _, link := range disc.Links {
		n, err := e.processCategory(ctx, link.URL, disc.Names[link.URL])
		if err != nil {
			return fmt.Errorf("category %s: %w", link.URL, err)
		}
		report.Categories++
		report.Products += n
	}
	return nil
}

func (e *Engine) processCategory(ctx context.Context, pageURL, name string) (int, error) {
	body, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	raws, err := scrape.ExtractProducts(body)
	if err != nil {
		return 0, err
	}

	records := make([]catalog.ProductRecord, 0, len(raws))
	for _, raw := range raws {
		status, qty := normalize.Stock(raw.StockText)
		records = append(records, catalog.ProductRecord{
			Category:  name,
			ProductID: raw.ID,
			Name:      raw.Name,
			Price:     normalize.Price(raw.PriceText, raw.SalePriceText),
			Quantity:  qty,
			Stock:     status,
		})
	}
	if err := e.store.InsertProducts(ctx, records); err != nil {
		return 0, err
	}
	metrics.ObserveProducts(len(records))
	e.logger.Debug("category processed",
		zap.String("url", pageURL),
		zap.String("name", name),
		zap.Int("products", len(records)),
	)
	return len(records), nil
}

func (e *Engine) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		metrics.ObservePage("error")
		return nil, err
	}
	metrics.ObservePage("ok")
	if e.archive != nil {
		if _, err := e.archive.SavePage(pageURL, e.clock.Now(), body); err != nil {
			e.logger.Warn("archive page", zap.String("url", pageURL), zap.Error(err))
		}
	}
	return body, nil
}

func (e *Engine) setStatus(s catalog.CrawlStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}
