package grocery

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeUnit", func() {
	DescribeTable("resolves the standard unit",
		func(quantity *float64, unit, label, expectedUnit string, expectedQty float64) {
			std := NormalizeUnit(quantity, unit, label)
			Expect(std.Unit).To(Equal(expectedUnit))
			Expect(std.Qty).To(BeNumerically("~", expectedQty, 1e-9))
		},
		Entry("explicit kg", Float(2), "kg", "", UnitKilogram, 2.0),
		Entry("explicit grams", Float(500), "g", "", UnitKilogram, 0.5),
		Entry("explicit gr", Float(250), "GR", "", UnitKilogram, 0.25),
		Entry("explicit liters", Float(1.5), "l", "", UnitLiter, 1.5),
		Entry("explicit lt", Float(2), "lt", "", UnitLiter, 2.0),
		Entry("explicit ml", Float(330), "ml", "", UnitLiter, 0.33),
		Entry("explicit pieces", Float(3), "pièce", "", UnitPiece, 3.0),
		Entry("explicit u", Float(4), "u", "", UnitPiece, 4.0),
		Entry("label kg", nil, "", "Sucre 1kg", UnitKilogram, 1.0),
		Entry("label grams with comma", nil, "", "Beurre 0,25 g doux", UnitKilogram, 0.00025),
		Entry("label grams", nil, "", "Farine 500 g", UnitKilogram, 0.5),
		Entry("label gr is not grams", nil, "", "Fromage 200gr", UnitPiece, 1.0),
		Entry("label liters", nil, "", "Eau 1,5L", UnitLiter, 1.5),
		Entry("label ml", nil, "", "Soda 330ml", UnitLiter, 0.33),
		Entry("label multiplier", nil, "", "Yaourt x4", UnitPiece, 4.0),
		Entry("label spaced multiplier", nil, "", "Pack x 6", UnitPiece, 6.0),
		Entry("x inside a word is not a multiplier", nil, "", "Flex 3", UnitPiece, 1.0),
		Entry("unknown unit falls through to label", Float(2), "bt", "Huile 1L", UnitLiter, 1.0),
		Entry("fallback to quantity", Float(3), "", "Pain", UnitPiece, 3.0),
		Entry("fallback to one", nil, "", "Pain", UnitPiece, 1.0),
		Entry("zero quantity falls back to one", Float(0), "kg", "Pomme", UnitPiece, 1.0),
		Entry("negative quantity falls back to one", Float(-2), "", "", UnitPiece, 1.0),
		Entry("zero size in label is skipped", nil, "", "Sac 0kg", UnitPiece, 1.0),
	)

	It("never returns a non-positive quantity", func() {
		quantities := []*float64{nil, Float(0), Float(-1), Float(math.NaN()), Float(math.Inf(1)), Float(0.2), Float(12)}
		units := []string{"", "kg", "g", "ml", "l", "pcs", "???"}
		labels := []string{"", "x0", "0ml", "Lait 1L", "Riz 5 kg", "garbage"}
		for _, q := range quantities {
			for _, u := range units {
				for _, l := range labels {
					std := NormalizeUnit(q, u, l)
					Expect([]string{UnitKilogram, UnitLiter, UnitPiece}).To(ContainElement(std.Unit))
					Expect(std.Qty).To(BeNumerically(">", 0))
					Expect(math.IsInf(std.Qty, 0)).To(BeFalse())
				}
			}
		}
	})
})
