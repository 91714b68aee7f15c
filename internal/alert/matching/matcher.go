// Package matching decides which user preference profiles a contract
// announcement should notify. It is pure: no I/O, no clocks, and the same
// inputs always produce the same result.
package matching

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
)

// Result explains why a profile matched.
type Result struct {
	Reasons []string
}

// Match reports whether the contract satisfies the profile. The industry,
// location, and contract type criteria are independent: a match on any one
// of them qualifies the profile. A profile with none of the three set
// matches everything. The value range is a filter on top: a contract priced
// outside it never matches, however the text criteria scored.
func Match(profile entity.UserPreferenceProfile, contract entity.ContractAnnouncement) (Result, bool) {
	if !matchValueRange(profile, contract.EstimatedValue) {
		return Result{}, false
	}

	var reasons []string

	if len(profile.Industries) > 0 {
		if industry, ok := matchIndustry(profile.Industries, contract); ok {
			reasons = append(reasons, "industry: "+industry)
		}
	}

	if len(profile.Locations) > 0 {
		if location, ok := matchAny(profile.Locations, contract.Location); ok {
			reasons = append(reasons, "location: "+location)
		}
	}

	if len(profile.ContractTypes) > 0 {
		if ct, ok := matchAny(profile.ContractTypes, contract.ProcurementType); ok {
			reasons = append(reasons, "contract type: "+ct)
		}
	}

	hasCriteria := len(profile.Industries) > 0 || len(profile.Locations) > 0 || len(profile.ContractTypes) > 0
	if hasCriteria && len(reasons) == 0 {
		return Result{}, false
	}
	if contract.EstimatedValue != nil && (profile.MinValue != nil || profile.MaxValue != nil) {
		reasons = append(reasons, fmt.Sprintf("value within range: %d", *contract.EstimatedValue))
	}

	return Result{Reasons: reasons}, true
}

func matchIndustry(industries []string, contract entity.ContractAnnouncement) (string, bool) {
	text := strings.ToLower(contract.Title + " " + contract.Category)

	for _, industry := range industries {
		keyword, ok := lo.Find(IndustryKeywords(industry), func(kw string) bool {
			return containsEitherWay(text, kw)
		})
		if ok {
			return industry + " (" + keyword + ")", true
		}
	}

	return "", false
}

func matchAny(wanted []string, actual string) (string, bool) {
	actual = strings.ToLower(strings.TrimSpace(actual))

	return lo.Find(wanted, func(w string) bool {
		return containsEitherWay(actual, strings.ToLower(strings.TrimSpace(w)))
	})
}

// matchValueRange passes when the contract has no estimated value or the
// value sits inside the inclusive [min, max] bounds the profile sets.
func matchValueRange(profile entity.UserPreferenceProfile, value *int64) bool {
	if value == nil {
		return true
	}
	if profile.MinValue != nil && *value < *profile.MinValue {
		return false
	}
	if profile.MaxValue != nil && *value > *profile.MaxValue {
		return false
	}
	return true
}

func containsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
