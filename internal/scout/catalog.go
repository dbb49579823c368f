package scout

import (
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Category names a group of catalog queries.
type Category string

const (
	CategoryPlatforms Category = "platforms"
	CategoryNews      Category = "news"
	CategoryDistress  Category = "distress"
)

// AllCategories lists every catalog category, in catalog order.
var AllCategories = []Category{CategoryPlatforms, CategoryNews, CategoryDistress}

// CatalogQuery pairs a search query with the discovery channel credited
// for its hits.
type CatalogQuery struct {
	Query   string `yaml:"query"`
	Channel string `yaml:"channel"`
}

// Catalog maps categories to their search queries.
type Catalog map[Category][]CatalogQuery

// Categories returns the catalog's categories in stable order: the
// built-in categories first, then any file-added ones sorted by name.
func (c Catalog) Categories() []Category {
	out := make([]Category, 0, len(c))
	for _, cat := range AllCategories {
		if _, ok := c[cat]; ok {
			out = append(out, cat)
		}
	}
	extra := make([]Category, 0, len(c))
	for cat := range c {
		if !slices.Contains(AllCategories, cat) {
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// DefaultCatalog returns the built-in query catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		// Platform-focused queries (actual listings).
		CategoryPlatforms: {
			{Query: "site:loopnet.com college campus for sale", Channel: "exa_loopnet"},
			{Query: "site:crexi.com institutional property for sale", Channel: "exa_crexi"},
			{Query: "site:auction.com commercial property foreclosure", Channel: "exa_auction"},
			{Query: "site:ten-x.com hotel resort auction", Channel: "exa_tenx"},
			{Query: "site:landwatch.com large acreage retreat center", Channel: "exa_landwatch"},
			{Query: "site:landsofamerica.com campus dormitory for sale", Channel: "exa_landsofamerica"},
		},
		// Local news monitoring.
		CategoryNews: {
			{Query: "college closing announcement campus for sale", Channel: "exa_news"},
			{Query: "university shutdown bankruptcy real estate", Channel: "exa_news"},
			{Query: "resort hotel foreclosure auction rural", Channel: "exa_news"},
			{Query: "summer camp property sale closing", Channel: "exa_news"},
			{Query: "boarding school closing campus available", Channel: "exa_news"},
			{Query: "monastery convent sold conversion opportunity", Channel: "exa_news"},
		},
		// Distress signals.
		CategoryDistress: {
			{Query: "WARN Act notice college layoffs closure", Channel: "exa_legal"},
			{Query: "Chapter 11 bankruptcy college university campus", Channel: "exa_legal"},
			{Query: "foreclosure rural hotel resort property", Channel: "exa_foreclosure"},
			{Query: "abandoned institutional building redevelopment", Channel: "exa_distress"},
		},
	}
}

// secondaryQueries is the fixed query set for the secondary provider,
// credited to its own discovery channel.
var secondaryQueries = []string{
	"college campus for sale closing 2025 2026",
	"rural resort hotel foreclosure auction",
	"summer camp property sale available",
}

// LoadCatalogFile reads extra catalog entries from a YAML file and merges
// them after the built-in queries of each category. Unknown categories in
// the file become new categories.
func LoadCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scout: read catalog file %s", path)
	}

	var extra Catalog
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, eris.Wrapf(err, "scout: parse catalog file %s", path)
	}

	merged := DefaultCatalog()
	for cat, queries := range extra {
		merged[cat] = append(merged[cat], queries...)
	}
	return merged, nil
}
