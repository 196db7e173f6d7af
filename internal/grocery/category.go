package grocery

import "strings"

// CategoryRule maps a spending category to the label fragments that select it.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// DefaultCategoryRules is the built-in table. Order matters: when a label
// matches several rules, the earliest one wins.
var DefaultCategoryRules = []CategoryRule{
	{Name: "Frais", Keywords: []string{"lait", "yaourt", "yogourt", "fromage", "beurre", "creme", "crème", "oeuf", "œuf", "jambon", "mozzarella"}},
	{Name: "Boucherie", Keywords: []string{"viande", "boeuf", "bœuf", "veau", "agneau", "poulet", "dinde", "steak", "merguez", "escalope", "hache", "haché"}},
	{Name: "Poisson", Keywords: []string{"poisson", "thon", "sardine", "saumon", "crevette", "dorade", "calamar", "loup de mer"}},
	{Name: "Boulangerie", Keywords: []string{"pain", "baguette", "croissant", "brioche", "gateau", "gâteau", "viennoiserie"}},
	{Name: "Boissons", Keywords: []string{"eau", "jus", "soda", "cola", "boisson", "limonade", "biere", "bière", "vin rouge", "vin blanc"}},
	{Name: "Hygiène", Keywords: []string{"savon", "shampo", "dentifrice", "deodorant", "déodorant", "gel douche", "papier toilette", "mouchoir", "rasoir", "coton"}},
	{Name: "Entretien", Keywords: []string{"lessive", "javel", "detergent", "détergent", "vaisselle", "nettoyant", "eponge", "éponge", "sac poubelle", "desodorisant"}},
	{Name: "Bébé", Keywords: []string{"bebe", "bébé", "couche", "biberon", "lingette"}},
	{Name: "Animaux", Keywords: []string{"chat", "chien", "croquette", "litiere", "litière"}},
	{Name: "Maison", Keywords: []string{"ampoule", "bougie", "assiette", "casserole", "serviette", "verre"}},
	{Name: "Électronique", Keywords: []string{"pile", "batterie", "chargeur", "cable", "câble", "ecouteur", "écouteur", "usb"}},
	{Name: "Epicerie", Keywords: []string{"riz", "pate", "pâte", "farine", "sucre", "sel", "huile", "conserve", "tomate", "cafe", "café", "thé", "biscuit", "chocolat", "confiture", "semoule", "couscous", "epice", "épice"}},
}

// Classifier assigns a spending category from a product label.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier creates a Classifier over rules. A nil table uses DefaultCategoryRules.
func NewClassifier(rules []CategoryRule) *Classifier {
	if rules == nil {
		rules = DefaultCategoryRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the first category whose keywords appear in label, or
// DefaultCategory when none do.
func (c *Classifier) Classify(label string) string {
	lower := strings.ToLower(label)
	if lower == "" {
		return DefaultCategory
	}
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return rule.Name
			}
		}
	}
	return DefaultCategory
}

var defaultClassifier = NewClassifier(nil)

// MapCategoryHeuristic classifies label with the default table.
func MapCategoryHeuristic(label string) string {
	return defaultClassifier.Classify(label)
}
