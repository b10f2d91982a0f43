package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdhruv/adafruit-crawler/internal/catalog"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	err := s.InsertProducts(context.Background(), []catalog.ProductRecord{
		{Category: "LEDs", ProductID: "10", Name: "NeoPixel Ring", Price: 9.95, Quantity: 12, Stock: catalog.StockInStock},
		{Category: "LEDs", ProductID: "11", Name: "LED Strip", Price: 24.95, Quantity: 65, Stock: catalog.StockInStock},
		{Category: "Kits", ProductID: "20", Name: "Starter Kit", Price: 45.00, Quantity: 150, Stock: catalog.StockInStock},
		{Category: "Kits", ProductID: "21", Name: "Beta Kit", Price: 30.00, Quantity: 0, Stock: catalog.StockComingSoon},
		{Category: "Sensors", ProductID: "30", Name: "Zenith Probe", Price: 12.50, Quantity: 0, Stock: catalog.StockOutOfStock},
		{Category: "Sensors", ProductID: "31", Name: "Altimeter", Price: 19.95, Quantity: 0, Stock: catalog.StockOutOfStock},
		{Category: "", ProductID: "40", Name: "Uncategorized", Price: 1.00, Quantity: 200, Stock: catalog.StockInStock},
		{Category: "Power", ProductID: "50", Name: "Retired Supply", Price: 5.00, Quantity: 300, Stock: catalog.StockDiscontinued},
	})
	require.NoError(t, err)
	return s
}

func TestBestSellers(t *testing.T) {
	t.Parallel()

	got, err := seededStore(t).BestSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "LED Strip", got[0].Name)
	require.Equal(t, "NeoPixel Ring", got[1].Name)
}

func TestCommonItems(t *testing.T) {
	t.Parallel()

	got, err := seededStore(t).CommonItems(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "discontinued items do not count as common")
	require.Equal(t, "Uncategorized", got[0].Name)
	require.Equal(t, "Starter Kit", got[1].Name)
}

func TestByStockOrdersByName(t *testing.T) {
	t.Parallel()

	got, err := seededStore(t).ByStock(context.Background(), catalog.StockOutOfStock)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Altimeter", got[0].Name)
	require.Equal(t, "Zenith Probe", got[1].Name)
}

func TestCategoriesDistinctNonEmpty(t *testing.T) {
	t.Parallel()

	got, err := seededStore(t).Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Kits", "LEDs", "Power", "Sensors"}, got)
}

func TestResetClearsSnapshot(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	require.NoError(t, s.Reset(context.Background()))

	got, err := s.Categories(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.InsertProducts(context.Background(), []catalog.ProductRecord{
		{Category: "Audio", ProductID: "50", Name: "Speaker", Price: 3.95, Quantity: 40, Stock: catalog.StockInStock},
	}))
	got, err = s.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Audio"}, got)
}
