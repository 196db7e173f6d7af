package grocery

// Enricher turns extracted receipt lines into enriched lines: category,
// recovered quantity, standard unit and standard unit price.
type Enricher struct {
	classifier *Classifier
	packs      QuantityLookup
	thresholds Thresholds
}

// NewEnricher creates an Enricher. packs may be nil when no learned
// quantities are available; a nil classifier uses the default table.
func NewEnricher(classifier *Classifier, packs QuantityLookup, thresholds Thresholds) *Enricher {
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Enricher{
		classifier: classifier,
		packs:      packs,
		thresholds: thresholds,
	}
}

// LineKey is the product key of a line, preferring the extraction service's
// normalized label over the raw one.
func LineKey(line ReceiptLine) string {
	if line.NormalizedLabel != "" {
		if key := NormalizeProductKey(line.NormalizedLabel); key != "" {
			return key
		}
	}
	return NormalizeProductKey(line.RawLabel)
}

// Enrich runs the inference strategies in order (label pattern, arithmetic
// reconciliation, learned pack size) and never fails: with nothing to go on
// the extracted quantity is kept, defaulting to 1.
func (e *Enricher) Enrich(line ReceiptLine, storeName string) (EnrichedLine, Inference) {
	key := LineKey(line)
	strategy := StrategyExtracted

	if e.thresholds.inferFromPattern(&line) {
		strategy = StrategyPattern
	}
	if e.thresholds.inferFromArithmetic(&line) {
		strategy = StrategyArithmetic
	}
	if inferFromLearned(&line, e.packs, key, storeName) {
		strategy = StrategyLearned
	}

	if line.Quantity == nil {
		line.Quantity = Float(1)
	}
	if line.Category == "" {
		label := line.RawLabel
		if line.NormalizedLabel != "" {
			label = line.NormalizedLabel
		}
		line.Category = e.classifier.Classify(label)
	}

	std := NormalizeUnit(line.Quantity, line.Unit, line.RawLabel)
	enriched := EnrichedLine{
		ReceiptLine: line,
		StdUnit:     std.Unit,
		StdQty:      std.Qty,
	}
	enriched.StandardUnitPrice = ComputeStandardUnitPrice(enriched)

	return enriched, Inference{
		ProductKey: key,
		Strategy:   strategy,
		Quantity:   *line.Quantity,
	}
}

// EnrichAll enriches every line of one receipt.
func (e *Enricher) EnrichAll(lines []ReceiptLine, storeName string) ([]EnrichedLine, []Inference) {
	enriched := make([]EnrichedLine, 0, len(lines))
	inferences := make([]Inference, 0, len(lines))
	for _, line := range lines {
		el, inf := e.Enrich(line, storeName)
		enriched = append(enriched, el)
		inferences = append(inferences, inf)
	}
	return enriched, inferences
}

// Learnable reports whether an inference is confident enough to remember
// as a pack size.
func (i Inference) Learnable() bool {
	return i.ProductKey != "" && i.Quantity > 1 &&
		(i.Strategy == StrategyPattern || i.Strategy == StrategyArithmetic)
}
