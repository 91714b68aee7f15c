package matching

import (
	"strings"

	"github.com/samber/lo"
)

// industrySynonyms maps a preference industry to the keywords searched for in
// contract text. Adding an industry is a data change only.
var industrySynonyms = map[string][]string{
	"Information Technology": {"ict", "computer", "software", "technology", "it", "digital"},
	"Construction":           {"construction", "building", "infrastructure", "civil"},
	"Healthcare":             {"health", "medical", "hospital", "clinic"},
	"Education":              {"education", "school", "university", "learning"},
	"Transportation":         {"transport", "logistics", "shipping", "delivery"},
}

// IndustryKeywords expands an industry preference into its lowercase search
// keywords. Unknown industries fall back to the industry name itself.
func IndustryKeywords(industry string) []string {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return nil
	}

	keywords, ok := industrySynonyms[industry]
	if !ok {
		return []string{strings.ToLower(industry)}
	}

	return lo.Uniq(lo.Map(keywords, func(kw string, _ int) string {
		return strings.ToLower(kw)
	}))
}
