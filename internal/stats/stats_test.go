package stats

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/grocery-ledger/internal/grocery"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
	return &t
}

func line(label string, qty, unitPrice, lineTotal *float64) grocery.EnrichedLine {
	return grocery.EnrichedLine{ReceiptLine: grocery.ReceiptLine{
		RawLabel:  label,
		Quantity:  qty,
		UnitPrice: unitPrice,
		LineTotal: lineTotal,
	}}
}

var f = grocery.Float

var _ = Describe("Aggregator", func() {
	var receipts []grocery.Receipt

	BeforeEach(func() {
		receipts = []grocery.Receipt{
			{
				ID:         "r1",
				StoreName:  "Carrefour",
				PurchaseAt: date(2024, 1, 15),
				Currency:   "TND",
				Total:      f(10),
				Lines: []grocery.EnrichedLine{
					line("Lait Gloria", f(6), f(1.2), f(7.2)),
					line("Pain", nil, f(0.2), nil),
					line("--- TVA ---", nil, nil, f(2.6)),
				},
			},
			{
				ID:         "r2",
				StoreName:  "Monoprix",
				PurchaseAt: date(2024, 3, 1),
				Total:      f(20),
				Lines: []grocery.EnrichedLine{
					line("LAIT GLORIA", f(0), nil, f(1.3)),
				},
			},
			{
				ID:    "r3",
				Total: f(5.5),
				Lines: []grocery.EnrichedLine{line("Savon", f(2), nil, nil)},
			},
		}
	})

	Describe("FlattenPurchases", func() {
		var purchases []ProductPurchase

		JustBeforeEach(func() {
			purchases = FlattenPurchases(receipts)
		})

		It("skips lines without a product key", func() {
			Expect(purchases).To(HaveLen(4))
		})

		It("carries receipt fields onto each purchase", func() {
			Expect(purchases[0].ProductKey).To(Equal("lait gloria"))
			Expect(purchases[0].StoreName).To(Equal("Carrefour"))
			Expect(purchases[0].Currency).To(Equal("TND"))
			Expect(*purchases[0].PurchaseAt).To(Equal(*date(2024, 1, 15)))
		})

		It("defaults missing or non-positive quantities to one", func() {
			Expect(purchases[1].Quantity).To(Equal(1.0))
			Expect(purchases[2].Quantity).To(Equal(1.0))
		})

		It("returns an empty slice for no receipts", func() {
			Expect(FlattenPurchases(nil)).To(BeEmpty())
		})
	})

	Describe("LastPurchaseByProduct", func() {
		var last map[string]LastPurchase

		JustBeforeEach(func() {
			last = LastPurchaseByProduct(FlattenPurchases(receipts))
		})

		It("picks the latest purchase", func() {
			Expect(last["lait gloria"].LastStoreName).To(Equal("Monoprix"))
			Expect(*last["lait gloria"].LastPurchasedAt).To(Equal(*date(2024, 3, 1)))
		})

		It("derives the unit price from the total when missing", func() {
			Expect(*last["lait gloria"].LastUnitPrice).To(BeNumerically("~", 1.3, 1e-9))
		})

		It("keeps undated purchases", func() {
			Expect(last).To(HaveKey("savon"))
			Expect(last["savon"].LastPurchasedAt).To(BeNil())
			Expect(last["savon"].LastUnitPrice).To(BeNil())
		})

		It("lets the last of equal dates win", func() {
			purchases := []ProductPurchase{
				{ProductKey: "riz", PurchaseAt: date(2024, 2, 1), StoreName: "A"},
				{ProductKey: "riz", PurchaseAt: date(2024, 2, 1), StoreName: "B"},
			}
			Expect(LastPurchaseByProduct(purchases)["riz"].LastStoreName).To(Equal("B"))
		})

		It("returns an empty map for no purchases", func() {
			Expect(LastPurchaseByProduct(nil)).To(BeEmpty())
		})
	})

	Describe("GroupHistoryByProduct", func() {
		It("sorts each history newest first with undated purchases last", func() {
			history := GroupHistoryByProduct([]ProductPurchase{
				{ProductKey: "riz", StoreName: "undated"},
				{ProductKey: "riz", PurchaseAt: date(2024, 1, 1), StoreName: "old"},
				{ProductKey: "riz", PurchaseAt: date(2024, 6, 1), StoreName: "new"},
				{ProductKey: "sel", PurchaseAt: date(2024, 6, 1)},
			})
			Expect(history).To(HaveLen(2))
			Expect(history["riz"]).To(HaveLen(3))
			Expect(history["riz"][0].StoreName).To(Equal("new"))
			Expect(history["riz"][1].StoreName).To(Equal("old"))
			Expect(history["riz"][2].StoreName).To(Equal("undated"))
		})

		It("returns an empty map for no purchases", func() {
			Expect(GroupHistoryByProduct(nil)).To(BeEmpty())
		})
	})

	Describe("SpendByCategory", func() {
		It("sums line spend per category", func() {
			spend := SpendByCategory(receipts)
			Expect(spend["Frais"]).To(BeNumerically("~", 8.5, 1e-9))
			Expect(spend["Boulangerie"]).To(BeNumerically("~", 0.2, 1e-9))
			Expect(spend["Hygiène"]).To(Equal(0.0))
			Expect(spend).To(HaveKey("Hygiène"))
		})

		It("counts lines without a product key", func() {
			spend := SpendByCategory(receipts)
			Expect(spend[grocery.DefaultCategory]).To(BeNumerically("~", 2.6, 1e-9))
		})

		It("prefers a pre-assigned category", func() {
			receipts[0].Lines[1].Category = "Petit-déjeuner"
			Expect(SpendByCategory(receipts)).To(HaveKey("Petit-déjeuner"))
		})

		It("returns an empty map for no receipts", func() {
			Expect(SpendByCategory(nil)).To(BeEmpty())
		})
	})

	Describe("SpendByStore", func() {
		It("sums receipt totals per store", func() {
			spend := SpendByStore([]grocery.Receipt{
				{StoreName: "A", Total: f(10.000)},
				{StoreName: "A", Total: f(5.500)},
			})
			Expect(spend).To(Equal(map[string]float64{"A": 15.5}))
		})

		It("files receipts without a store as unknown", func() {
			Expect(SpendByStore(receipts)).To(HaveKeyWithValue(UnknownStore, 5.5))
		})

		It("returns an empty map for no receipts", func() {
			Expect(SpendByStore(nil)).To(BeEmpty())
		})
	})

	Describe("MonthlyTrend", func() {
		It("orders months ascending and skips undated receipts", func() {
			trend := MonthlyTrend([]grocery.Receipt{
				{PurchaseAt: date(2024, 3, 1), Total: f(20)},
				{PurchaseAt: date(2024, 1, 15), Total: f(10)},
				{Total: f(99)},
			})
			Expect(trend).To(Equal([]MonthTotal{
				{Month: "2024-01", Total: 10},
				{Month: "2024-03", Total: 20},
			}))
		})

		It("returns an empty slice for no receipts", func() {
			Expect(MonthlyTrend(nil)).To(BeEmpty())
		})
	})

	Describe("ProductTotals", func() {
		var totals map[string]ProductTotal

		JustBeforeEach(func() {
			totals = ProductTotals(FlattenPurchases(receipts))
		})

		It("sums spend and quantity per product", func() {
			Expect(totals["lait gloria"].TotalSpend).To(BeNumerically("~", 8.5, 1e-9))
			Expect(totals["lait gloria"].TotalQty).To(Equal(7.0))
			Expect(totals["lait gloria"].Purchases).To(Equal(2))
		})

		It("uses unit price times quantity without a total", func() {
			Expect(totals["pain"].TotalSpend).To(BeNumerically("~", 0.2, 1e-9))
		})

		It("ranks products by spend", func() {
			top := TopProducts(totals, 2)
			Expect(top).To(HaveLen(2))
			Expect(top[0].ProductKey).To(Equal("lait gloria"))
			Expect(top[1].ProductKey).To(Equal("pain"))
		})

		It("returns every product without a limit", func() {
			Expect(TopProducts(totals, 0)).To(HaveLen(3))
		})

		It("returns an empty map for no purchases", func() {
			Expect(ProductTotals(nil)).To(BeEmpty())
		})
	})
})
