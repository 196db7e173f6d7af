package grocery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	ligatures = strings.NewReplacer("œ", "oe", "æ", "ae", "ß", "ss")

	// Unit and commerce words that say nothing about the product itself.
	keyStopwords = map[string]struct{}{
		"kg": {}, "g": {}, "l": {}, "litre": {}, "litres": {},
		"piece": {}, "pcs": {}, "pack": {},
		"promo": {}, "offre": {}, "tva": {}, "ttc": {}, "ht": {},
	}
)

// stripDiacritics decomposes s and drops combining marks.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeProductKey turns a raw label into the key used to join the same
// product across receipts, stores and time. An empty result means the label
// cannot be tracked as a product.
func NormalizeProductKey(label string) string {
	s := ligatures.Replace(strings.ToLower(label))
	s = strings.ToLower(stripDiacritics(s))
	s = nonAlnum.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := keyStopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
