package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/metrics"
	"github.com/printdhruv/adafruit-crawler/internal/store/memory"
)

const masterURL = "https://shop.example.com/categories"

const masterHTML = `
<html><body>
  <a href="/category/leds">LEDs</a>
  <a href="/category/kits">Kits</a>
  <a href="/category/all">More</a>
</body></html>`

const ledsHTML = `
<div class="product-listing-right">
  <a class="ec_click_product" data-pid="10" data-name="NeoPixel Ring">x</a>
  <span class="normal-price">$9.95</span>
  <div class="stock">12 IN STOCK</div>
</div>
<div class="product-listing-right">
  <a class="ec_click_product" data-pid="11" data-name="LED Strip">x</a>
  <span class="normal-price">$24.95</span>
  <span class="red-sale-price">$19.95</span>
  <div class="stock">OUT OF STOCK</div>
</div>`

const kitsHTML = `
<div class="product-listing-right">
  <a class="ec_click_product" data-pid="20" data-name="Starter Kit"></a>
  <span class="normal-price">$45.00</span>
  <div class="stock">150 IN STOCK</div>
</div>`

const moreHTML = `
<div class="product-listing-right">
  <a class="ec_click_product" data-pid="90" data-name="Grab Bag"></a>
  <span class="normal-price">$5.00</span>
  <div class="stock">7 IN STOCK</div>
</div>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][]byte
	fail  map[string]error
	gate  chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[pageURL]; ok {
		return nil, err
	}
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", pageURL)
	}
	return body, nil
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

func sitePages() map[string][]byte {
	return map[string][]byte{
		masterURL:                                []byte(masterHTML),
		"https://shop.example.com/category/leds": []byte(ledsHTML),
		"https://shop.example.com/category/kits": []byte(kitsHTML),
		"https://shop.example.com/category/all":  []byte(moreHTML),
	}
}

func newTestEngine(t *testing.T, fetcher catalog.Fetcher, st *memory.Store) *Engine {
	t.Helper()
	metrics.Init()
	e, err := New(
		Config{MasterURL: masterURL},
		fetcher,
		st,
		nil,
		&stepClock{t: time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return e
}

func TestRunCrawlsAllCategories(t *testing.T) {
	st := memory.New()
	e := newTestEngine(t, &fakeFetcher{pages: sitePages()}, st)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Categories)
	require.Equal(t, 4, report.Products)
	require.Empty(t, report.Error)
	require.Positive(t, report.ElapsedMs)
	require.Equal(t, catalog.CrawlDone, e.Status())

	last := e.LastReport()
	require.NotNil(t, last)
	require.Equal(t, report, *last)

	cats, err := st.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Kits", "LEDs"}, cats)

	// The "More" page is crawled but its products carry no category name.
	best, err := st.BestSellers(context.Background())
	require.NoError(t, err)
	var grabBag *catalog.ProductRecord
	for i := range best {
		if best[i].ProductID == "90" {
			grabBag = &best[i]
		}
	}
	require.NotNil(t, grabBag)
	require.Empty(t, grabBag.Category)
	require.Equal(t, 7, grabBag.Quantity)
}

func TestRunNormalizesRecords(t *testing.T) {
	st := memory.New()
	e := newTestEngine(t, &fakeFetcher{pages: sitePages()}, st)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	oos, err := st.ByStock(context.Background(), catalog.StockOutOfStock)
	require.NoError(t, err)
	require.Len(t, oos, 1)
	require.Equal(t, catalog.ProductRecord{
		Category:  "LEDs",
		ProductID: "11",
		Name:      "LED Strip",
		Price:     19.95,
		Quantity:  0,
		Stock:     catalog.StockOutOfStock,
	}, oos[0])
}

func TestSecondRunReplacesSnapshot(t *testing.T) {
	st := memory.New()
	fetcher := &fakeFetcher{pages: sitePages()}
	e := newTestEngine(t, fetcher, st)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.pages["https://shop.example.com/category/leds"] = []byte(`
<div class="product-listing-right">
  <a class="ec_click_product" data-pid="12" data-name="LED Matrix"></a>
  <span class="normal-price">$34.95</span>
  <div class="stock">5 IN STOCK</div>
</div>`)
	fetcher.mu.Unlock()

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Products)

	best, err := st.BestSellers(context.Background())
	require.NoError(t, err)
	for _, p := range best {
		require.NotEqual(t, "10", p.ProductID, "records from the first run must be gone")
	}
}

func TestAbortKeepsCompletedCategories(t *testing.T) {
	st := memory.New()
	fetcher := &fakeFetcher{
		pages: sitePages(),
		fail: map[string]error{
			"https://shop.example.com/category/kits": errors.New("upstream 503"),
		},
	}
	e := newTestEngine(t, fetcher, st)

	report, err := e.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, catalog.CrawlAborted, e.Status())
	require.Contains(t, report.Error, "upstream 503")
	require.Equal(t, 1, report.Categories)
	require.Equal(t, 2, report.Products)

	// LEDs finished before the failure and must still be stored.
	cats, catErr := st.Categories(context.Background())
	require.NoError(t, catErr)
	require.Equal(t, []string{"LEDs"}, cats)
}

func TestMasterFetchFailureLeavesStoreUntouched(t *testing.T) {
	st := memory.New()
	require.NoError(t, st.InsertProducts(context.Background(), []catalog.ProductRecord{
		{Category: "Old", ProductID: "1", Name: "Old Item", Quantity: 5, Stock: catalog.StockInStock},
	}))

	fetcher := &fakeFetcher{fail: map[string]error{masterURL: errors.New("connection refused")}}
	e := newTestEngine(t, fetcher, st)

	_, err := e.Run(context.Background())
	require.Error(t, err)

	cats, catErr := st.Categories(context.Background())
	require.NoError(t, catErr)
	require.Equal(t, []string{"Old"}, cats, "failed discovery must not reset the store")
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &fakeFetcher{pages: sitePages(), gate: gate}
	e := newTestEngine(t, fetcher, memory.New())

	require.NoError(t, e.Start(context.Background()))
	require.ErrorIs(t, e.Start(context.Background()), ErrCrawlInProgress)
	require.ErrorIs(t, func() error { _, err := e.Run(context.Background()); return err }(), ErrCrawlInProgress)

	close(gate)
	require.Eventually(t, func() bool {
		return e.Status() == catalog.CrawlDone
	}, 5*time.Second, 10*time.Millisecond)
}
