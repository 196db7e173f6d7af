package grocery

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// StdQuantity is a quantity expressed in one of the standard units.
type StdQuantity struct {
	Unit string  `json:"std_unit"`
	Qty  float64 `json:"std_qty"`
}

type unitFactor struct {
	unit   string
	factor float64
}

var explicitUnits = map[string]unitFactor{
	"kg":    {UnitKilogram, 1},
	"g":     {UnitKilogram, 0.001},
	"gr":    {UnitKilogram, 0.001},
	"l":     {UnitLiter, 1},
	"lt":    {UnitLiter, 1},
	"ml":    {UnitLiter, 0.001},
	"pcs":   {UnitPiece, 1},
	"piece": {UnitPiece, 1},
	"pièce": {UnitPiece, 1},
	"un":    {UnitPiece, 1},
	"u":     {UnitPiece, 1},
}

type labelPattern struct {
	re     *regexp.Regexp
	unit   string
	factor float64
}

// Tried in order. RE2 has no lookahead, so "g not followed by r" and
// "l not followed by t" consume the next character or end of input.
var labelPatterns = []labelPattern{
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*kg`), UnitKilogram, 1},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g(?:[^r]|$)`), UnitKilogram, 0.001},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*l(?:[^t]|$)`), UnitLiter, 1},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*ml`), UnitLiter, 0.001},
	{regexp.MustCompile(`(?:^|[^a-z])x\s*(\d+)`), UnitPiece, 1},
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// NormalizeUnit converts a quantity into kg, L or pcs. The explicit quantity
// and unit win when both are usable; otherwise the label is searched for an
// embedded size ("500g", "1,5L", "x6"). The result always has a positive Qty.
func NormalizeUnit(quantity *float64, unit, label string) StdQuantity {
	if quantity != nil && unit != "" {
		if uf, ok := explicitUnits[strings.ToLower(strings.TrimSpace(unit))]; ok {
			if q := *quantity * uf.factor; positive(q) {
				return StdQuantity{Unit: uf.unit, Qty: q}
			}
		}
	}

	text := strings.ReplaceAll(strings.ToLower(label), ",", ".")
	for _, p := range labelPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if q := v * p.factor; positive(q) {
			return StdQuantity{Unit: p.unit, Qty: q}
		}
	}

	if quantity != nil && positive(*quantity) {
		return StdQuantity{Unit: UnitPiece, Qty: *quantity}
	}
	return StdQuantity{Unit: UnitPiece, Qty: 1}
}
