package grocery

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Thresholds tune quantity inference against OCR noise.
type Thresholds struct {
	// MaxPackCount is the largest plausible retail quantity. Candidates
	// outside [1, MaxPackCount] are ignored, not clamped.
	MaxPackCount int
	// ReconcileTolerance is how far lineTotal/unitPrice may sit from an
	// integer and still be read as that integer.
	ReconcileTolerance float64
}

// DefaultThresholds returns the thresholds tuned against observed receipts.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxPackCount: 200, ReconcileTolerance: 0.05}
}

// Strategy names which inference step settled a line's quantity.
type Strategy string

const (
	StrategyExtracted  Strategy = "extracted"
	StrategyPattern    Strategy = "pattern"
	StrategyArithmetic Strategy = "arithmetic"
	StrategyLearned    Strategy = "learned"
)

// Inference describes how a line's quantity was obtained.
type Inference struct {
	ProductKey string
	Strategy   Strategy
	Quantity   float64
}

// QuantityLookup returns a previously learned pack quantity.
type QuantityLookup interface {
	Get(productKey, storeName string) (int, bool)
}

// "6x0.5=3.000", "2 x 1.250", "12x0.35 = 4.2"
var packPattern = regexp.MustCompile(`(\d{1,3})\s*x\s*(\d+(?:\.\d+)?)(?:\s*=\s*(\d+(?:\.\d+)?))?`)

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func (t Thresholds) inRange(n float64) bool {
	return n >= 1 && n <= float64(t.MaxPackCount)
}

func isSingle(q *float64) bool {
	return q == nil || *q <= 1
}

// inferFromPattern reads an "N x P(=T)" notation out of the label.
func (t Thresholds) inferFromPattern(line *ReceiptLine) bool {
	text := strings.ReplaceAll(strings.ToLower(line.RawLabel), ",", ".")
	m := packPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || !t.inRange(n) {
		return false
	}
	price, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return false
	}

	adopted := false
	if isSingle(line.Quantity) {
		line.Quantity = Float(n)
		adopted = true
	}
	if line.Unit == "" {
		line.Unit = UnitPiece
	}
	if line.UnitPrice == nil {
		line.UnitPrice = Float(price)
	}
	if line.LineTotal == nil {
		if m[3] != "" {
			if total, err := strconv.ParseFloat(m[3], 64); err == nil {
				line.LineTotal = Float(total)
			}
		} else if total := round3(n * price); !math.IsInf(total, 0) && !math.IsNaN(total) {
			line.LineTotal = Float(total)
		}
	}
	return adopted
}

// inferFromArithmetic recovers the quantity as lineTotal / unitPrice when
// that division lands on an integer. Fractional quantities are weights and
// are left alone.
func (t Thresholds) inferFromArithmetic(line *ReceiptLine) bool {
	if (line.Quantity != nil && *line.Quantity != 1) || line.UnitPrice == nil || line.LineTotal == nil || *line.UnitPrice <= 0 {
		return false
	}
	q := round3(*line.LineTotal / *line.UnitPrice)
	qi := math.Round(q)
	if !t.inRange(qi) || math.Abs(q-qi) >= t.ReconcileTolerance {
		return false
	}
	line.Quantity = Float(qi)
	return true
}

// inferFromLearned applies a remembered pack size for this product.
func inferFromLearned(line *ReceiptLine, packs QuantityLookup, key, storeName string) bool {
	if packs == nil || key == "" {
		return false
	}
	learned, ok := packs.Get(key, storeName)
	if !ok {
		return false
	}
	if !isSingle(line.Quantity) && float64(learned) <= *line.Quantity {
		return false
	}
	line.Quantity = Float(float64(learned))
	return true
}
