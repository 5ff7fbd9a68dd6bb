// Package report computes aggregates over an inventory snapshot. All
// functions are pure; nothing is cached or stored.
package report

import (
	"sort"
	"time"

	"gudangku/internal/domain"
)

// DefaultLowStockThreshold matches the ledger's notification level.
const DefaultLowStockThreshold = 5

type StockLevel struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
}

type SellerStat struct {
	Name      string  `json:"name"`
	UnitsSold int     `json:"unitsSold"`
	Revenue   float64 `json:"revenue"`
}

type SalesPoint struct {
	Name      string    `json:"name"`
	DateSold  time.Time `json:"dateSold"`
	UnitsSold int       `json:"unitsSold"`
	Revenue   float64   `json:"revenue"`
}

type Summary struct {
	TotalRevenue          float64 `json:"totalRevenue"`
	TotalBuyingCost       float64 `json:"totalBuyingCost"`
	TotalUnitsSold        int     `json:"totalUnitsSold"`
	TotalItemsInInventory int     `json:"totalItemsInInventory"`
	AverageSellingPrice   float64 `json:"averageSellingPrice"`
}

// TotalRevenue sums last-sale price times cumulative units sold per item.
func TotalRevenue(items []domain.Item) float64 {
	var total float64
	for _, it := range items {
		total += it.SellingPrice * float64(it.UnitsSold)
	}
	return total
}

// TotalBuyingCost sums buying price times remaining units per item.
func TotalBuyingCost(items []domain.Item) float64 {
	var total float64
	for _, it := range items {
		total += it.BuyingPrice * float64(it.Unit)
	}
	return total
}

func TotalUnitsSold(items []domain.Item) int {
	var total int
	for _, it := range items {
		total += it.UnitsSold
	}
	return total
}

func TotalItemsInInventory(items []domain.Item) int {
	return len(items)
}

// AverageSellingPrice is total revenue divided by total units sold, or 0
// when nothing has been sold.
func AverageSellingPrice(items []domain.Item) float64 {
	sold := TotalUnitsSold(items)
	if sold == 0 {
		return 0
	}
	return TotalRevenue(items) / float64(sold)
}

// LowStockItems lists items at or below the threshold, in inventory order.
func LowStockItems(items []domain.Item, threshold int) []StockLevel {
	var out []StockLevel
	for _, it := range items {
		if it.Unit <= threshold {
			out = append(out, StockLevel{Name: it.Name, Remaining: it.Unit})
		}
	}
	return out
}

// TopSellers returns up to n items ordered by units sold, highest first.
// Ties keep their inventory order.
func TopSellers(items []domain.Item, n int) []SellerStat {
	stats := make([]SellerStat, 0, len(items))
	for _, it := range items {
		stats = append(stats, SellerStat{
			Name:      it.Name,
			UnitsSold: it.UnitsSold,
			Revenue:   it.SellingPrice * float64(it.UnitsSold),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].UnitsSold > stats[j].UnitsSold
	})
	if n >= 0 && n < len(stats) {
		stats = stats[:n]
	}
	return stats
}

// SalesOverTime returns one point per item with recorded sales, ordered
// by last sale date ascending.
func SalesOverTime(items []domain.Item) []SalesPoint {
	var out []SalesPoint
	for _, it := range items {
		if it.UnitsSold <= 0 {
			continue
		}
		out = append(out, SalesPoint{
			Name:      it.Name,
			DateSold:  it.DateSold,
			UnitsSold: it.UnitsSold,
			Revenue:   it.SellingPrice * float64(it.UnitsSold),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateSold.Before(out[j].DateSold)
	})
	return out
}

func BuildSummary(items []domain.Item) Summary {
	return Summary{
		TotalRevenue:          TotalRevenue(items),
		TotalBuyingCost:       TotalBuyingCost(items),
		TotalUnitsSold:        TotalUnitsSold(items),
		TotalItemsInInventory: TotalItemsInInventory(items),
		AverageSellingPrice:   AverageSellingPrice(items),
	}
}
