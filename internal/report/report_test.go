package report

import (
	"testing"
	"time"

	"gudangku/internal/domain"
)

func sampleItems() []domain.Item {
	return []domain.Item{
		{Name: "Rice", Unit: 10, BuyingPrice: 2, SellingPrice: 4, UnitsSold: 5,
			DateSold: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Name: "Sugar", Unit: 3, BuyingPrice: 5, SellingPrice: 7.5, UnitsSold: 8,
			DateSold: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Salt", Unit: 20, BuyingPrice: 1},
	}
}

func TestTotals(t *testing.T) {
	items := sampleItems()

	if got := TotalRevenue(items); got != 80 {
		t.Fatalf("TotalRevenue = %v, want 80", got)
	}
	if got := TotalBuyingCost(items); got != 10*2+3*5+20*1 {
		t.Fatalf("TotalBuyingCost = %v, want 55", got)
	}
	if got := TotalUnitsSold(items); got != 13 {
		t.Fatalf("TotalUnitsSold = %d, want 13", got)
	}
	if got := TotalItemsInInventory(items); got != 3 {
		t.Fatalf("TotalItemsInInventory = %d, want 3", got)
	}
}

func TestAverageSellingPrice(t *testing.T) {
	items := sampleItems()
	if got, want := AverageSellingPrice(items), 80.0/13.0; got != want {
		t.Fatalf("AverageSellingPrice = %v, want %v", got, want)
	}
	if got := AverageSellingPrice(nil); got != 0 {
		t.Fatalf("AverageSellingPrice(empty) = %v, want 0", got)
	}
	if got := AverageSellingPrice([]domain.Item{{Name: "Salt", Unit: 5}}); got != 0 {
		t.Fatalf("AverageSellingPrice(no sales) = %v, want 0", got)
	}
}

func TestLowStockItems(t *testing.T) {
	items := sampleItems()
	low := LowStockItems(items, DefaultLowStockThreshold)
	if len(low) != 1 {
		t.Fatalf("low stock count = %d, want 1", len(low))
	}
	if low[0].Name != "Sugar" || low[0].Remaining != 3 {
		t.Fatalf("low stock = %+v", low[0])
	}
}

func TestTopSellers(t *testing.T) {
	items := sampleItems()

	top := TopSellers(items, 1)
	if len(top) != 1 {
		t.Fatalf("top count = %d, want 1", len(top))
	}
	if top[0].Name != "Sugar" || top[0].UnitsSold != 8 {
		t.Fatalf("top seller = %+v, want Sugar with 8", top[0])
	}

	all := TopSellers(items, 5)
	if len(all) != 3 {
		t.Fatalf("top(5) count = %d, want 3", len(all))
	}
	if all[0].Name != "Sugar" || all[1].Name != "Rice" || all[2].Name != "Salt" {
		t.Fatalf("top order = %v", all)
	}
}

func TestTopSellersStableTies(t *testing.T) {
	items := []domain.Item{
		{Name: "A", UnitsSold: 2},
		{Name: "B", UnitsSold: 2},
		{Name: "C", UnitsSold: 2},
	}
	top := TopSellers(items, 3)
	if top[0].Name != "A" || top[1].Name != "B" || top[2].Name != "C" {
		t.Fatalf("tied order not stable: %v", top)
	}
}

func TestSalesOverTime(t *testing.T) {
	points := SalesOverTime(sampleItems())
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Name != "Sugar" || points[1].Name != "Rice" {
		t.Fatalf("points not in date order: %v", points)
	}
	if points[0].Revenue != 60 {
		t.Fatalf("revenue = %v, want 60", points[0].Revenue)
	}
}

func TestBuildSummary(t *testing.T) {
	s := BuildSummary(sampleItems())
	if s.TotalRevenue != 80 || s.TotalUnitsSold != 13 || s.TotalItemsInInventory != 3 {
		t.Fatalf("summary = %+v", s)
	}
}
