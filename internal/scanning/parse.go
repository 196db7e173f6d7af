package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts the model has been seen to answer with, day-first before
// month-first since the receipts are French.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// extractJSONObject strips markdown fences and any prose around the first
// JSON object in text.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}
	return text[startIdx : endIdx+1], nil
}

// normalizeDate returns date as YYYY-MM-DD, or "" when it cannot be read.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// parseReceiptJSON parses the JSON answer of an extraction model
func parseReceiptJSON(text string) (*ReceiptData, error) {
	text, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var data ReceiptData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.StoreName = strings.TrimSpace(data.StoreName)
	data.Currency = strings.ToUpper(strings.TrimSpace(data.Currency))
	data.Date = normalizeDate(data.Date)

	if data.Confidence < 0 {
		data.Confidence = 0
	} else if data.Confidence > 1 {
		data.Confidence = 1
	}

	// A line without a label cannot be enriched
	lines := data.Lines[:0]
	for _, line := range data.Lines {
		line.RawLabel = strings.TrimSpace(line.RawLabel)
		if line.RawLabel == "" {
			continue
		}
		line.NormalizedLabel = strings.TrimSpace(line.NormalizedLabel)
		line.Unit = strings.TrimSpace(line.Unit)
		line.Barcode = strings.TrimSpace(line.Barcode)
		line.Category = strings.TrimSpace(line.Category)
		lines = append(lines, line)
	}
	data.Lines = lines

	return &data, nil
}
