package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init() // must not panic on duplicate registration

	ObservePage("ok")
	ObservePage("error")
	ObserveProducts(12)
	ObserveProducts(0)
	ObserveRun("done", 3*time.Second)
	ObserveHTTPRequest("GET", "/v1/categories", 200, 10*time.Millisecond)
}

func TestObserveHelpersBeforeInitAreNoops(t *testing.T) {
	savedPages := crawlerPagesTotal
	savedProducts := crawlerProductsTotal
	savedRuns := crawlerRunsTotal
	savedDuration := crawlerRunDurationSeconds
	savedHTTPTotal := httpRequestsTotal
	savedHTTPDuration := httpRequestDuration
	t.Cleanup(func() {
		crawlerPagesTotal = savedPages
		crawlerProductsTotal = savedProducts
		crawlerRunsTotal = savedRuns
		crawlerRunDurationSeconds = savedDuration
		httpRequestsTotal = savedHTTPTotal
		httpRequestDuration = savedHTTPDuration
	})

	crawlerPagesTotal = nil
	crawlerProductsTotal = nil
	crawlerRunsTotal = nil
	crawlerRunDurationSeconds = nil
	httpRequestsTotal = nil
	httpRequestDuration = nil

	// Must not panic without Init.
	ObservePage("ok")
	ObserveProducts(3)
	ObserveRun("done", time.Second)
	ObserveHTTPRequest("GET", "/healthz", 200, time.Millisecond)
}

func TestHandlerServesCollectors(t *testing.T) {
	Init()
	ObservePage("ok")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"crawler_pages_total", "crawler_runs_total", "http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q", want)
		}
	}
}
