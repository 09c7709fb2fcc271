package event

import "strings"

// Category is one of the fixed event categories
type Category string

const (
	CategoryEvent    Category = "Event"
	CategoryArt      Category = "Art"
	CategoryMusic    Category = "Music"
	CategoryFestival Category = "Festival"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryEvent,
	CategoryArt,
	CategoryMusic,
	CategoryFestival,
	CategoryOther,
}

// KeywordRule maps a category to the substrings that trigger it
type KeywordRule struct {
	Category Category
	Keywords []string
}

// KeywordTable is tested in order; the first rule with a matching keyword wins
var KeywordTable = []KeywordRule{
	{Category: CategoryArt, Keywords: []string{"art", "gallery", "exhibit", "museum", "painting", "sculpture"}},
	{Category: CategoryMusic, Keywords: []string{"music", "concert", "band", "live show", "performance"}},
	{Category: CategoryFestival, Keywords: []string{"festival", "fair", "celebration", "parade"}},
}

// Classify returns the category for an event name.
// Names that match no keyword default to CategoryEvent.
func Classify(name string) Category {
	lower := strings.ToLower(name)
	for _, rule := range KeywordTable {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return CategoryEvent
}

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}
