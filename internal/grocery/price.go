package grocery

// ComputeStandardUnitPrice returns the price per kg, L or piece, or nil when
// there is no positive standard quantity or no price to divide.
func ComputeStandardUnitPrice(line EnrichedLine) *float64 {
	if !positive(line.StdQty) {
		return nil
	}

	unitPrice := line.UnitPrice
	if unitPrice == nil && line.LineTotal != nil && line.Quantity != nil && *line.Quantity != 0 {
		unitPrice = Float(*line.LineTotal / *line.Quantity)
	}
	if unitPrice == nil {
		return nil
	}

	if line.LineTotal != nil {
		return Float(*line.LineTotal / line.StdQty)
	}
	return Float(*unitPrice / line.StdQty)
}
