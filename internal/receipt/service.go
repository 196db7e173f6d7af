package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/grocery-ledger/internal/grocery"
	"github.com/zombor/grocery-ledger/internal/learned"
	"github.com/zombor/grocery-ledger/internal/scanning"
	"github.com/zombor/grocery-ledger/internal/stats"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt ingestion and the statistics built from receipts
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	packs       *learned.Store
	classifier  *grocery.Classifier
	thresholds  grocery.Thresholds
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage, thresholds grocery.Thresholds) *Service {
	return NewServiceWithDeps(db, scanner, storage, thresholds, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, thresholds grocery.Thresholds, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		packs:       learned.NewStoreWithClock(db, timeSrc.Now),
		classifier:  grocery.NewClassifier(nil),
		thresholds:  thresholds,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce very long names
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + unsafeFilenameChars.ReplaceAllString(ext, "")
}

// parsePurchaseDate reads the scanner's YYYY-MM-DD date; unknown stays nil
func parsePurchaseDate(date string) *time.Time {
	if date == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	return &t
}

// ProcessReceipt stores the upload, scans it, enriches every line and saves
// the receipt. Pack sizes inferred with confidence are then remembered for
// the user; failing to remember them does not fail the upload.
func (s *Service) ProcessReceipt(userID, filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s/%s_%s", userID, id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	scanned, err := s.scanner.ScanReceipt(data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"user", userID,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	// Without learned packs the other strategies still apply
	var lookup grocery.QuantityLookup
	packs, err := s.packs.ForUser(userID)
	if err != nil {
		slog.Warn("Failed to load learned packs", "user", userID, "error", err)
	} else {
		lookup = packs
	}

	enricher := grocery.NewEnricher(s.classifier, lookup, s.thresholds)
	lines, inferences := enricher.EnrichAll(scanned.Lines, scanned.StoreName)

	receipt := &Receipt{
		Receipt: grocery.Receipt{
			ID:         id,
			StoreName:  scanned.StoreName,
			PurchaseAt: parsePurchaseDate(scanned.Date),
			Currency:   scanned.Currency,
			Total:      scanned.Total,
			Subtotal:   scanned.Subtotal,
			TaxTotal:   scanned.TaxTotal,
			Lines:      lines,
			Confidence: scanned.Confidence,
		},
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(userID, receipt); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	if packs != nil {
		for _, inf := range inferences {
			if !inf.Learnable() {
				continue
			}
			if err := packs.Learn(inf.ProductKey, inf.Quantity, scanned.StoreName); err != nil {
				slog.Warn("Failed to learn pack size",
					"user", userID,
					"product", inf.ProductKey,
					"quantity", inf.Quantity,
					"error", err,
				)
			}
		}
	}

	slog.Info("Receipt processed",
		"user", userID,
		"id", id,
		"store", scanned.StoreName,
		"lines", len(lines),
	)
	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(userID, id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, most recent purchase first
func (s *Service) ListReceipts(userID string) ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts(userID)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receiptTime(receipts[i]).After(receiptTime(receipts[j]))
	})
	return receipts, nil
}

func receiptTime(r *Receipt) time.Time {
	if r.PurchaseAt != nil {
		return *r.PurchaseAt
	}
	return r.CreatedAt
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(userID, id string) error {
	receipt, err := s.db.GetReceipt(userID, id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(userID, id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(userID, id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(userID, id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// allReceipts loads the user's receipts in the shape the aggregator expects
func (s *Service) allReceipts(userID string) ([]grocery.Receipt, error) {
	stored, err := s.ListReceipts(userID)
	if err != nil {
		return nil, err
	}
	receipts := make([]grocery.Receipt, 0, len(stored))
	for _, r := range stored {
		receipts = append(receipts, r.Receipt)
	}
	return receipts, nil
}

// SpendByCategory returns line spend per category
func (s *Service) SpendByCategory(userID string) (map[string]float64, error) {
	receipts, err := s.allReceipts(userID)
	if err != nil {
		return nil, err
	}
	return stats.SpendByCategory(receipts), nil
}

// SpendByStore returns receipt spend per store
func (s *Service) SpendByStore(userID string) (map[string]float64, error) {
	receipts, err := s.allReceipts(userID)
	if err != nil {
		return nil, err
	}
	return stats.SpendByStore(receipts), nil
}

// MonthlyTrend returns receipt spend per month, oldest first
func (s *Service) MonthlyTrend(userID string) ([]stats.MonthTotal, error) {
	receipts, err := s.allReceipts(userID)
	if err != nil {
		return nil, err
	}
	return stats.MonthlyTrend(receipts), nil
}

// Products ranks products by spend, with their last purchase. A
// non-positive limit returns every product.
func (s *Service) Products(userID string, limit int) ([]ProductSummary, error) {
	receipts, err := s.allReceipts(userID)
	if err != nil {
		return nil, err
	}
	purchases := stats.FlattenPurchases(receipts)
	last := stats.LastPurchaseByProduct(purchases)

	ranked := stats.TopProducts(stats.ProductTotals(purchases), limit)
	summaries := make([]ProductSummary, 0, len(ranked))
	for _, t := range ranked {
		summaries = append(summaries, ProductSummary{
			ProductTotal: t,
			LastPurchase: last[t.ProductKey],
		})
	}
	return summaries, nil
}

// ProductHistory returns every purchase of a product, newest first. The
// product may be given as a key or as any label that normalizes to it.
func (s *Service) ProductHistory(userID, product string) ([]stats.ProductPurchase, error) {
	key := grocery.NormalizeProductKey(product)
	if key == "" {
		return nil, fmt.Errorf("product %q: %w", product, ErrNotFound)
	}
	receipts, err := s.allReceipts(userID)
	if err != nil {
		return nil, err
	}
	history, ok := stats.GroupHistoryByProduct(stats.FlattenPurchases(receipts))[key]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", key, ErrNotFound)
	}
	return history, nil
}

// LearnedPacks lists the pack sizes remembered for the user
func (s *Service) LearnedPacks(userID string) ([]learned.Entry, error) {
	packs, err := s.packs.ForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading learned packs: %w", err)
	}
	return packs.Entries(), nil
}

// IsNotFound reports whether err means the requested record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
