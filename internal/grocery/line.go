package grocery

import "time"

// Standard units a line quantity is normalized to.
const (
	UnitKilogram = "kg"
	UnitLiter    = "L"
	UnitPiece    = "pcs"
)

// DefaultCategory is assigned when no keyword matches a label.
const DefaultCategory = "Autres"

// ReceiptLine is a line item as returned by the extraction service.
// Every field except RawLabel is optional.
type ReceiptLine struct {
	RawLabel        string   `json:"raw_label"`
	NormalizedLabel string   `json:"normalized_label,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	UnitPrice       *float64 `json:"unit_price,omitempty"`
	LineTotal       *float64 `json:"line_total,omitempty"`
	VATRate         *float64 `json:"vat_rate,omitempty"`
	Barcode         string   `json:"barcode,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// EnrichedLine is a ReceiptLine after normalization and quantity inference.
type EnrichedLine struct {
	ReceiptLine
	StdUnit           string   `json:"std_unit"`
	StdQty            float64  `json:"std_qty"`
	StandardUnitPrice *float64 `json:"standard_unit_price,omitempty"`
}

// Receipt is a grocery receipt with enriched lines.
type Receipt struct {
	ID         string         `json:"id"`
	StoreName  string         `json:"store_name,omitempty"`
	PurchaseAt *time.Time     `json:"purchase_at,omitempty"`
	Currency   string         `json:"currency,omitempty"`
	Total      *float64       `json:"total,omitempty"`
	Subtotal   *float64       `json:"subtotal,omitempty"`
	TaxTotal   *float64       `json:"tax_total,omitempty"`
	Lines      []EnrichedLine `json:"lines"`
	Confidence float64        `json:"confidence"`
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
