package receipt

import (
	"errors"
	"time"

	"github.com/zombor/grocery-ledger/internal/grocery"
	"github.com/zombor/grocery-ledger/internal/stats"
)

// ErrNotFound is returned when a receipt or product does not exist
var ErrNotFound = errors.New("not found")

// Receipt is a stored receipt: the enriched purchase plus the uploaded file
type Receipt struct {
	grocery.Receipt
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductSummary is the spend on a product together with its last purchase
type ProductSummary struct {
	stats.ProductTotal
	stats.LastPurchase
}
