// Package memory provides an in-memory ProductStore for development
// and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
	"github.com/printdhruv/adafruit-crawler/internal/store"
)

// Store keeps product records in memory behind a mutex.
type Store struct {
	mu       sync.RWMutex
	products []catalog.ProductRecord
}

// New constructs an empty Store.
func New() *Store {
	return &Store{}
}

// Reset discards all stored products.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	return nil
}

// InsertProducts appends a batch of records.
func (s *Store) InsertProducts(_ context.Context, records []catalog.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, records...)
	return nil
}

// BestSellers returns in-stock products with quantity at most
// store.BestSellerMaxQty, highest quantity first.
func (s *Store) BestSellers(_ context.Context) ([]catalog.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(p catalog.ProductRecord) bool {
		return p.Quantity <= store.BestSellerMaxQty && p.Stock == catalog.StockInStock
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	return out, nil
}

// CommonItems returns in-stock products with quantity at least
// store.CommonItemMinQty, highest quantity first.
func (s *Store) CommonItems(_ context.Context) ([]catalog.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(p catalog.ProductRecord) bool {
		return p.Quantity >= store.CommonItemMinQty && p.Stock == catalog.StockInStock
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	return out, nil
}

// ByStock returns products with the given stock status ordered by name.
func (s *Store) ByStock(_ context.Context, status catalog.StockStatus) ([]catalog.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.filter(func(p catalog.ProductRecord) bool {
		return p.Stock == status
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Categories returns the distinct non-empty category names, sorted.
func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range s.products {
		if p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) filter(keep func(catalog.ProductRecord) bool) []catalog.ProductRecord {
	out := make([]catalog.ProductRecord, 0)
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
