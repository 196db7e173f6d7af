// Package stats computes purchase history and spending statistics from a
// user's receipts. Every function is pure and recomputes from scratch.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/zombor/grocery-ledger/internal/grocery"
)

// ProductPurchase is one receipt line seen as a purchase of a product.
type ProductPurchase struct {
	ProductKey      string     `json:"product_key"`
	RawLabel        string     `json:"raw_label"`
	NormalizedLabel string     `json:"normalized_label,omitempty"`
	PurchaseAt      *time.Time `json:"purchase_at,omitempty"`
	StoreName       string     `json:"store_name,omitempty"`
	Quantity        float64    `json:"quantity"`
	UnitPrice       *float64   `json:"unit_price,omitempty"`
	LineTotal       *float64   `json:"line_total,omitempty"`
	Currency        string     `json:"currency,omitempty"`
}

// LastPurchase summarizes the most recent purchase of a product.
type LastPurchase struct {
	LastPurchasedAt *time.Time `json:"last_purchased_at,omitempty"`
	LastUnitPrice   *float64   `json:"last_unit_price,omitempty"`
	LastStoreName   string     `json:"last_store_name,omitempty"`
}

// ProductTotal is the spend and quantity bought of one product.
type ProductTotal struct {
	ProductKey string  `json:"product_key"`
	Label      string  `json:"label"`
	TotalSpend float64 `json:"total_spend"`
	TotalQty   float64 `json:"total_qty"`
	Purchases  int     `json:"purchases"`
}

var epoch = time.Unix(0, 0).UTC()

func purchaseTime(t *time.Time) time.Time {
	if t == nil {
		return epoch
	}
	return *t
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// FlattenPurchases returns one purchase per trackable line. Lines whose
// label normalizes to an empty key are skipped.
func FlattenPurchases(receipts []grocery.Receipt) []ProductPurchase {
	purchases := make([]ProductPurchase, 0)
	for _, r := range receipts {
		for _, line := range r.Lines {
			key := grocery.LineKey(line.ReceiptLine)
			if key == "" {
				continue
			}
			qty := 1.0
			if line.Quantity != nil && *line.Quantity > 0 {
				qty = *line.Quantity
			}
			purchases = append(purchases, ProductPurchase{
				ProductKey:      key,
				RawLabel:        line.RawLabel,
				NormalizedLabel: line.NormalizedLabel,
				PurchaseAt:      r.PurchaseAt,
				StoreName:       r.StoreName,
				Quantity:        qty,
				UnitPrice:       line.UnitPrice,
				LineTotal:       line.LineTotal,
				Currency:        r.Currency,
			})
		}
	}
	return purchases
}

// LastPurchaseByProduct returns the latest purchase of every product. On
// equal dates the purchase seen last wins.
func LastPurchaseByProduct(purchases []ProductPurchase) map[string]LastPurchase {
	latest := make(map[string]ProductPurchase)
	for _, p := range purchases {
		prev, ok := latest[p.ProductKey]
		if !ok || !purchaseTime(p.PurchaseAt).Before(purchaseTime(prev.PurchaseAt)) {
			latest[p.ProductKey] = p
		}
	}

	out := make(map[string]LastPurchase, len(latest))
	for key, p := range latest {
		unitPrice := p.UnitPrice
		if unitPrice == nil && p.LineTotal != nil && p.Quantity > 0 {
			unitPrice = grocery.Float(*p.LineTotal / p.Quantity)
		}
		out[key] = LastPurchase{
			LastPurchasedAt: p.PurchaseAt,
			LastUnitPrice:   unitPrice,
			LastStoreName:   p.StoreName,
		}
	}
	return out
}

// GroupHistoryByProduct groups purchases per product, newest first.
// Purchases without a date sort as the oldest.
func GroupHistoryByProduct(purchases []ProductPurchase) map[string][]ProductPurchase {
	groups := make(map[string][]ProductPurchase)
	for _, p := range purchases {
		groups[p.ProductKey] = append(groups[p.ProductKey], p)
	}
	for _, history := range groups {
		sort.SliceStable(history, func(i, j int) bool {
			return purchaseTime(history[i].PurchaseAt).After(purchaseTime(history[j].PurchaseAt))
		})
	}
	return groups
}

// purchaseSpend is the amount paid for a purchase: the line total, else unit
// price times quantity, else nothing.
func purchaseSpend(lineTotal, unitPrice *float64, quantity float64) float64 {
	if lineTotal != nil {
		return *lineTotal
	}
	if unitPrice != nil {
		return *unitPrice * quantity
	}
	return 0
}

// ProductTotals sums spend and quantity per product. The result is unsorted;
// see TopProducts.
func ProductTotals(purchases []ProductPurchase) map[string]ProductTotal {
	totals := make(map[string]ProductTotal)
	for _, p := range purchases {
		t := totals[p.ProductKey]
		t.ProductKey = p.ProductKey
		if t.Label == "" {
			t.Label = p.RawLabel
		}
		t.TotalSpend += purchaseSpend(p.LineTotal, p.UnitPrice, p.Quantity)
		t.TotalQty += p.Quantity
		t.Purchases++
		totals[p.ProductKey] = t
	}
	for key, t := range totals {
		t.TotalSpend = round3(t.TotalSpend)
		t.TotalQty = round3(t.TotalQty)
		totals[key] = t
	}
	return totals
}

// TopProducts ranks totals by spend, highest first, ties broken by product
// key. A non-positive n returns every product.
func TopProducts(totals map[string]ProductTotal, n int) []ProductTotal {
	ranked := make([]ProductTotal, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalSpend != ranked[j].TotalSpend {
			return ranked[i].TotalSpend > ranked[j].TotalSpend
		}
		return ranked[i].ProductKey < ranked[j].ProductKey
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
