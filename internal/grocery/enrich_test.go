package grocery

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockPacks is a mock implementation of QuantityLookup
type mockPacks struct {
	entries map[string]int
	calls   int
}

func (m *mockPacks) Get(productKey, storeName string) (int, bool) {
	m.calls++
	if q, ok := m.entries[storeName+"|"+productKey]; ok {
		return q, true
	}
	q, ok := m.entries[productKey]
	return q, ok
}

var _ = Describe("Enricher", func() {
	var (
		packs     *mockPacks
		enricher  *Enricher
		line      ReceiptLine
		storeName string
		enriched  EnrichedLine
		inference Inference
	)

	BeforeEach(func() {
		packs = &mockPacks{entries: map[string]int{}}
		enricher = NewEnricher(nil, packs, DefaultThresholds())
		storeName = "Carrefour"
	})

	JustBeforeEach(func() {
		enriched, inference = enricher.Enrich(line, storeName)
	})

	When("the label carries a full pack notation", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "Eau 6x0.5=3.000"}
		})

		It("adopts the pack count", func() {
			Expect(*enriched.Quantity).To(Equal(6.0))
		})

		It("sets the unit to pieces", func() {
			Expect(enriched.Unit).To(Equal(UnitPiece))
		})

		It("adopts the unit price", func() {
			Expect(*enriched.UnitPrice).To(Equal(0.5))
		})

		It("adopts the line total", func() {
			Expect(*enriched.LineTotal).To(Equal(3.0))
		})

		It("records the pattern strategy", func() {
			Expect(inference.Strategy).To(Equal(StrategyPattern))
			Expect(inference.Learnable()).To(BeTrue())
		})

		It("computes a standard unit price per piece", func() {
			Expect(enriched.StdUnit).To(Equal(UnitPiece))
			Expect(enriched.StdQty).To(Equal(6.0))
			Expect(*enriched.StandardUnitPrice).To(BeNumerically("~", 0.5, 1e-9))
		})
	})

	When("the label has a pack notation without a total", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "Yaourt 4 x 0,35"}
		})

		It("derives the total from count and price", func() {
			Expect(*enriched.LineTotal).To(Equal(1.4))
		})
	})

	When("the pack notation contradicts explicit fields", func() {
		BeforeEach(func() {
			line = ReceiptLine{
				RawLabel:  "Lait 6x0.9",
				Quantity:  Float(12),
				Unit:      "u",
				UnitPrice: Float(0.85),
				LineTotal: Float(10.2),
			}
		})

		It("never downgrades a multi-unit quantity", func() {
			Expect(*enriched.Quantity).To(Equal(12.0))
		})

		It("keeps the explicit unit and prices", func() {
			Expect(enriched.Unit).To(Equal("u"))
			Expect(*enriched.UnitPrice).To(Equal(0.85))
			Expect(*enriched.LineTotal).To(Equal(10.2))
		})

		It("records the extracted strategy", func() {
			Expect(inference.Strategy).To(Equal(StrategyExtracted))
			Expect(inference.Learnable()).To(BeFalse())
		})
	})

	When("the pack count is out of the plausible range", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "Article 500x0.2"}
		})

		It("ignores the pattern", func() {
			Expect(*enriched.Quantity).To(Equal(1.0))
			Expect(enriched.UnitPrice).To(BeNil())
			Expect(enriched.LineTotal).To(BeNil())
		})
	})

	When("only unit price and line total are known", func() {
		BeforeEach(func() {
			line = ReceiptLine{
				RawLabel:  "Yaourt nature",
				UnitPrice: Float(1.2),
				LineTotal: Float(4.8),
			}
		})

		It("reconciles the quantity", func() {
			Expect(*enriched.Quantity).To(Equal(4.0))
			Expect(inference.Strategy).To(Equal(StrategyArithmetic))
		})
	})

	When("the division is not close to an integer", func() {
		BeforeEach(func() {
			line = ReceiptLine{
				RawLabel:  "Tomates",
				Quantity:  Float(1),
				UnitPrice: Float(2.0),
				LineTotal: Float(3.1),
			}
		})

		It("keeps the extracted quantity", func() {
			Expect(*enriched.Quantity).To(Equal(1.0))
			Expect(inference.Strategy).To(Equal(StrategyExtracted))
		})
	})

	When("the unit price is zero", func() {
		BeforeEach(func() {
			line = ReceiptLine{
				RawLabel:  "Cadeau",
				UnitPrice: Float(0),
				LineTotal: Float(0),
			}
		})

		It("does not divide", func() {
			Expect(*enriched.Quantity).To(Equal(1.0))
		})
	})

	When("a pack size was learned for this store", func() {
		BeforeEach(func() {
			packs.entries["Carrefour|lait gloria"] = 6
			line = ReceiptLine{RawLabel: "LAIT GLORIA", Quantity: Float(1)}
		})

		It("adopts the learned quantity", func() {
			Expect(*enriched.Quantity).To(Equal(6.0))
			Expect(inference.Strategy).To(Equal(StrategyLearned))
		})

		It("does not offer it for learning again", func() {
			Expect(inference.Learnable()).To(BeFalse())
		})
	})

	When("a smaller pack size was learned", func() {
		BeforeEach(func() {
			packs.entries["lait gloria"] = 6
			line = ReceiptLine{RawLabel: "Lait Gloria", Quantity: Float(12)}
		})

		It("keeps the larger extracted quantity", func() {
			Expect(*enriched.Quantity).To(Equal(12.0))
		})
	})

	When("the label has no product key", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "--- kg ---"}
		})

		It("does not consult the learned store", func() {
			Expect(packs.calls).To(Equal(0))
			Expect(inference.ProductKey).To(BeEmpty())
		})
	})

	When("nothing is known about the line", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "xyz-unknown-item"}
		})

		It("defaults to one piece", func() {
			Expect(*enriched.Quantity).To(Equal(1.0))
			Expect(enriched.StdUnit).To(Equal(UnitPiece))
			Expect(enriched.StdQty).To(Equal(1.0))
		})

		It("falls back to the default category", func() {
			Expect(enriched.Category).To(Equal(DefaultCategory))
		})

		It("has no standard unit price", func() {
			Expect(enriched.StandardUnitPrice).To(BeNil())
		})
	})

	When("the category was pre-assigned", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "Lait", Category: "Petit-déjeuner"}
		})

		It("keeps it", func() {
			Expect(enriched.Category).To(Equal("Petit-déjeuner"))
		})
	})

	When("the label carries a weight", func() {
		BeforeEach(func() {
			line = ReceiptLine{RawLabel: "Café moulu 250g", LineTotal: Float(5)}
		})

		It("prices per kilogram", func() {
			Expect(enriched.StdUnit).To(Equal(UnitKilogram))
			Expect(*enriched.StandardUnitPrice).To(BeNumerically("~", 20.0, 1e-9))
		})
	})

	When("a weighed line has a fractional quantity", func() {
		BeforeEach(func() {
			line = ReceiptLine{
				RawLabel:  "Poulet entier",
				Quantity:  Float(0.98),
				Unit:      "kg",
				UnitPrice: Float(10),
				LineTotal: Float(9.8),
			}
		})

		It("keeps the weight", func() {
			Expect(*enriched.Quantity).To(Equal(0.98))
			Expect(inference.Strategy).To(Equal(StrategyExtracted))
			Expect(enriched.StdUnit).To(Equal(UnitKilogram))
			Expect(enriched.StdQty).To(BeNumerically("~", 0.98, 1e-9))
			Expect(*enriched.StandardUnitPrice).To(BeNumerically("~", 10.0, 1e-9))
		})
	})

	When("no learned store is configured", func() {
		BeforeEach(func() {
			enricher = NewEnricher(nil, nil, DefaultThresholds())
			line = ReceiptLine{RawLabel: "Lait Gloria"}
		})

		It("still enriches the line", func() {
			Expect(*enriched.Quantity).To(Equal(1.0))
			Expect(enriched.Category).To(Equal("Frais"))
		})
	})

	Describe("EnrichAll", func() {
		It("returns one result per line", func() {
			lines, inferences := enricher.EnrichAll([]ReceiptLine{
				{RawLabel: "Eau 6x0.5"},
				{RawLabel: "Pain"},
			}, "Monoprix")
			Expect(lines).To(HaveLen(2))
			Expect(inferences).To(HaveLen(2))
			Expect(inferences[0].ProductKey).To(Equal("eau 6x0 5"))
		})
	})
})

var _ = Describe("Thresholds", func() {
	It("honors a custom pack bound", func() {
		enricher := NewEnricher(nil, nil, Thresholds{MaxPackCount: 10, ReconcileTolerance: 0.05})
		enriched, _ := enricher.Enrich(ReceiptLine{RawLabel: "Oeufs 30x0.3"}, "")
		Expect(*enriched.Quantity).To(Equal(1.0))
	})

	It("honors a custom tolerance", func() {
		enricher := NewEnricher(nil, nil, Thresholds{MaxPackCount: 200, ReconcileTolerance: 0.2})
		enriched, _ := enricher.Enrich(ReceiptLine{RawLabel: "Pommes", UnitPrice: Float(1), LineTotal: Float(2.9)}, "")
		Expect(*enriched.Quantity).To(Equal(3.0))
	})
})

var _ = Describe("ComputeStandardUnitPrice", func() {
	It("requires a positive standard quantity", func() {
		Expect(ComputeStandardUnitPrice(EnrichedLine{
			ReceiptLine: ReceiptLine{UnitPrice: Float(2)},
		})).To(BeNil())
	})

	It("requires some price", func() {
		Expect(ComputeStandardUnitPrice(EnrichedLine{StdQty: 2})).To(BeNil())
	})

	It("divides the unit price when the total is missing", func() {
		price := ComputeStandardUnitPrice(EnrichedLine{
			ReceiptLine: ReceiptLine{UnitPrice: Float(3)},
			StdQty:      1.5,
		})
		Expect(*price).To(BeNumerically("~", 2.0, 1e-9))
	})

	It("resolves the unit price from total and quantity", func() {
		price := ComputeStandardUnitPrice(EnrichedLine{
			ReceiptLine: ReceiptLine{Quantity: Float(2), LineTotal: Float(4)},
			StdQty:      0.5,
		})
		Expect(*price).To(BeNumerically("~", 8.0, 1e-9))
	})
})
