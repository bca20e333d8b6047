// Package catalog lists the SEO tools offered by the service and the category
// filter used to browse them.
package catalog

// Tool identifiers.
const (
	KeywordResearch  = "keyword-research"
	SiteAudit        = "site-audit"
	MetaGenerator    = "meta-generator"
	PageSpeed        = "page-speed"
	BacklinkAnalyzer = "backlink-analyzer"
	MobileTest       = "mobile-test"
)

// AllCategories is the unfiltered category label.
const AllCategories = "Tous"

// Tool describes one entry of the catalogue
type Tool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Color       string `json:"color"`
}

var tools = []Tool{
	{
		ID:          KeywordResearch,
		Name:        "Recherche de Mots-Clés",
		Description: "Trouvez des mots-clés rentables et analysez la concurrence",
		Category:    "Recherche",
		Color:       "blue",
	},
	{
		ID:          SiteAudit,
		Name:        "Audit de Site",
		Description: "Analyse technique complète de votre site web",
		Category:    "Technique",
		Color:       "purple",
	},
	{
		ID:          MetaGenerator,
		Name:        "Générateur Meta Tags",
		Description: "Créez des meta tags optimisés pour le SEO",
		Category:    "Contenu",
		Color:       "green",
	},
	{
		ID:          PageSpeed,
		Name:        "Test de Vitesse",
		Description: "Analysez les performances de votre site",
		Category:    "Performance",
		Color:       "yellow",
	},
	{
		ID:          BacklinkAnalyzer,
		Name:        "Analyseur de Backlinks",
		Description: "Analysez votre profil de liens entrants",
		Category:    "Analyse",
		Color:       "pink",
	},
	{
		ID:          MobileTest,
		Name:        "Test Mobile-Friendly",
		Description: "Vérifiez l'optimisation mobile de votre site",
		Category:    "Technique",
		Color:       "orange",
	},
}

var categories = []string{AllCategories, "Recherche", "Contenu", "Technique", "Performance", "Analyse"}

// Tools returns every tool in display order.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// Categories returns the category labels in display order, starting with AllCategories.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsCategory reports whether label is one of the known categories.
func IsCategory(label string) bool {
	for _, c := range categories {
		if c == label {
			return true
		}
	}
	return false
}

// Lookup finds a tool by id.
func Lookup(id string) (Tool, bool) {
	for _, t := range tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}

// Filter returns the tools visible under category. AllCategories shows every
// tool; an unknown category shows none.
func Filter(category string) []Tool {
	if category == AllCategories {
		return Tools()
	}
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}
