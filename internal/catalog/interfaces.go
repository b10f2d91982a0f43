package catalog

import (
	"context"
	"time"
)

// Fetcher retrieves a page's raw markup. Implementations return a
// *FetchError for transport failures and non-success statuses.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
