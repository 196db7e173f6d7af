package scanning

import "github.com/zombor/grocery-ledger/internal/grocery"

// ReceiptData contains extracted information from a receipt. Every field is
// a best-effort guess and may be missing.
type ReceiptData struct {
	StoreName  string                `json:"store_name"`
	Date       string                `json:"date"` // YYYY-MM-DD, empty when unknown
	Currency   string                `json:"currency"`
	Total      *float64              `json:"total"`
	Subtotal   *float64              `json:"subtotal"`
	TaxTotal   *float64              `json:"tax_total"`
	Confidence float64               `json:"confidence"`
	Lines      []grocery.ReceiptLine `json:"lines"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts metadata and line items
	ScanReceipt(imageData []byte, contentType string) (*ReceiptData, error)
	// Close closes the scanner and releases resources
	Close() error
}
