package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "products.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.InsertProducts(context.Background(), []catalog.ProductRecord{
		{Category: "LEDs", ProductID: "10", Name: "NeoPixel Ring", Price: 9.95, Quantity: 12, Stock: catalog.StockInStock},
		{Category: "LEDs", ProductID: "11", Name: "LED Strip", Price: 24.95, Quantity: 65, Stock: catalog.StockInStock},
		{Category: "Kits", ProductID: "20", Name: "Starter Kit", Price: 45.00, Quantity: 150, Stock: catalog.StockInStock},
		{Category: "Sensors", ProductID: "30", Name: "Zenith Probe", Price: 12.50, Quantity: 0, Stock: catalog.StockOutOfStock},
		{Category: "Sensors", ProductID: "31", Name: "Altimeter", Price: 19.95, Quantity: 0, Stock: catalog.StockOutOfStock},
		{Category: "Power", ProductID: "50", Name: "Retired Supply", Price: 5.00, Quantity: 300, Stock: catalog.StockDiscontinued},
	})
	require.NoError(t, err)
}

func TestQueries(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	best, err := s.BestSellers(ctx)
	require.NoError(t, err)
	require.Len(t, best, 2)
	require.Equal(t, "LED Strip", best[0].Name)
	require.Equal(t, "NeoPixel Ring", best[1].Name)

	common, err := s.CommonItems(ctx)
	require.NoError(t, err)
	require.Len(t, common, 1, "discontinued items do not count as common")
	require.Equal(t, "Starter Kit", common[0].Name)

	oos, err := s.ByStock(ctx, catalog.StockOutOfStock)
	require.NoError(t, err)
	require.Len(t, oos, 2)
	require.Equal(t, "Altimeter", oos[0].Name)
	require.Equal(t, "Zenith Probe", oos[1].Name)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Kits", "LEDs", "Power", "Sensors"}, cats)
}

func TestRoundTripPreservesFields(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := catalog.ProductRecord{
		Category:  "Power",
		ProductID: "4026",
		Name:      "Battery Pack",
		Price:     2499.00,
		Quantity:  3,
		Stock:     catalog.StockInStock,
	}
	require.NoError(t, s.InsertProducts(context.Background(), []catalog.ProductRecord{want}))

	got, err := s.BestSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want, got[0])
}

func TestResetReplacesSnapshot(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Reset(ctx))

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	require.Empty(t, cats)

	require.NoError(t, s.InsertProducts(ctx, []catalog.ProductRecord{
		{Category: "Audio", ProductID: "50", Name: "Speaker", Price: 3.95, Quantity: 40, Stock: catalog.StockInStock},
	}))
	cats, err = s.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Audio"}, cats)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.InsertProducts(context.Background(), nil))
}
