package stats

import (
	"sort"

	"github.com/zombor/grocery-ledger/internal/grocery"
)

// UnknownStore is the store name used for receipts without one.
const UnknownStore = "Inconnu"

// MonthTotal is the receipt spend of one calendar month.
type MonthTotal struct {
	Month string  `json:"month"` // YYYY-MM
	Total float64 `json:"total"`
}

// SpendByCategory sums line spend per category. Lines without a category
// are classified from their label. Lines that cannot be tracked as a product
// still count.
func SpendByCategory(receipts []grocery.Receipt) map[string]float64 {
	spend := make(map[string]float64)
	for _, r := range receipts {
		for _, line := range r.Lines {
			category := line.Category
			if category == "" {
				category = grocery.MapCategoryHeuristic(line.RawLabel)
			}
			qty := 1.0
			if line.Quantity != nil && *line.Quantity > 0 {
				qty = *line.Quantity
			}
			spend[category] += purchaseSpend(line.LineTotal, line.UnitPrice, qty)
		}
	}
	return roundAll(spend)
}

// SpendByStore sums receipt totals per store.
func SpendByStore(receipts []grocery.Receipt) map[string]float64 {
	spend := make(map[string]float64)
	for _, r := range receipts {
		store := r.StoreName
		if store == "" {
			store = UnknownStore
		}
		spend[store] += receiptTotal(r)
	}
	return roundAll(spend)
}

// MonthlyTrend sums receipt totals per month, oldest month first. Receipts
// without a purchase date are left out.
func MonthlyTrend(receipts []grocery.Receipt) []MonthTotal {
	byMonth := make(map[string]float64)
	for _, r := range receipts {
		if r.PurchaseAt == nil {
			continue
		}
		month := r.PurchaseAt.Format("2006-01")
		byMonth[month] += receiptTotal(r)
	}

	trend := make([]MonthTotal, 0, len(byMonth))
	for month, total := range byMonth {
		trend = append(trend, MonthTotal{Month: month, Total: round3(total)})
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Month < trend[j].Month
	})
	return trend
}

func receiptTotal(r grocery.Receipt) float64 {
	if r.Total == nil {
		return 0
	}
	return *r.Total
}

func roundAll(m map[string]float64) map[string]float64 {
	for k, v := range m {
		m[k] = round3(v)
	}
	return m
}
