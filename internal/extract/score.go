package extract

import (
	"strings"

	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// Score rates a normalized breadcrumb trail 0..100. It is a pure function of
// (breadcrumbs, retailer, url); the dispatcher early-stops at >= 50 and keeps
// the best below-threshold candidate otherwise. Deliberately crude, but
// stable.
func Score(breadcrumbs []string, id types.RetailerID, _ string) int {
	if len(breadcrumbs) == 0 {
		return 0
	}

	score := 50

	// Length.
	n := len(breadcrumbs)
	switch {
	case n >= 3 && n <= 6:
		score += 25
	case n >= 2 && n <= 7:
		score += 15
	case n > 8:
		score -= 20
	}

	retailerName := strings.ToLower(retailers.Get(id).DisplayName)
	for i, item := range breadcrumbs {
		lower := strings.ToLower(item)

		switch {
		case containsAny(lower, specificProductTokens):
			score += 20
		case containsAny(lower, foodCategoryTokens):
			score += 15
		case containsAny(lower, otherCategoryTokens):
			score += 10
		}

		if containsAny(lower, promoTokens) {
			score -= 40
		}
		if isGenericNav(item) {
			score -= 10
		}
		if i > 0 && lower == retailerName {
			score -= 15
		}
	}

	// Depth.
	switch n {
	case 6:
		score += 15
	case 5:
		score += 20
	case 4:
		score += 10
	}

	// Hierarchy progression: general-to-specific adjacent pairs.
	progression := 0
	for i := 0; i+1 < len(breadcrumbs); i++ {
		if progressionPair(strings.ToLower(breadcrumbs[i]), strings.ToLower(breadcrumbs[i+1])) {
			progression += 10
		}
	}
	if progression > 30 {
		progression = 30
	}
	score += progression

	// Perfect pattern over the joined trail.
	joined := strings.ToLower(strings.Join(breadcrumbs, " > "))
	for _, pattern := range perfectPatterns {
		if strings.Contains(joined, pattern) {
			score += 25
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// progressionPair reports whether (current, next) reads as a
// general-to-specific step in the curated table.
func progressionPair(current, next string) bool {
	for _, p := range progressionTable {
		if strings.Contains(current, p.general) && strings.Contains(next, p.specific) {
			return true
		}
	}
	return false
}

// specificProductTokens mark leaf-level product categories.
var specificProductTokens = []string{
	"milk", "cheese", "butter", "yogurt", "yoghurt", "eggs", "bread",
	"chicken", "beef", "pork", "salmon", "bananas", "apples", "pasta",
	"rice", "cereal", "coffee", "tea bags", "toothpaste", "shampoo",
	"dog food", "cat food",
}

// foodCategoryTokens mark mid-level food aisles.
var foodCategoryTokens = []string{
	"fresh", "frozen", "dairy", "bakery", "meat", "fish", "poultry",
	"fruit", "vegetable", "produce", "cupboard", "snacks", "drinks",
	"beverages", "confectionery", "deli", "ready meals", "world foods",
}

// otherCategoryTokens mark non-food aisles that still carry real hierarchy.
var otherCategoryTokens = []string{
	"household", "cleaning", "laundry", "health", "beauty", "baby",
	"toiletries", "skincare", "haircare", "pet", "garden", "stationery",
}

// promoTokens mark promotional labels that leak into breadcrumb containers.
var promoTokens = []string{
	"fill your freezer", "big savings", "organic september", "price promise",
	"coupons", "top offers", "wine sale", "half price",
}

// progressionTable is the curated general-to-specific vocabulary. Matching
// is by substring on both sides of an adjacent pair.
var progressionTable = []struct{ general, specific string }{
	{"home", "fresh"},
	{"home", "food"},
	{"home", "health"},
	{"food", "dairy"},
	{"food", "bakery"},
	{"food", "frozen"},
	{"fresh", "dairy"},
	{"fresh", "meat"},
	{"fresh", "fruit"},
	{"dairy", "milk"},
	{"dairy", "cheese"},
	{"dairy", "butter"},
	{"bakery", "bread"},
	{"meat", "chicken"},
	{"meat", "beef"},
	{"drinks", "wine"},
	{"drinks", "juice"},
	{"health", "vitamins"},
	{"beauty", "skincare"},
	{"eye make up", "eye shadow"},
	{"pet", "dog"},
	{"pet", "cat"},
}

// perfectPatterns are joined-trail fragments that almost always indicate a
// genuine grocery hierarchy.
var perfectPatterns = []string{
	"home > fresh",
	"food > dairy",
	"dairy > milk",
	"fresh food > dairy",
	"food cupboard >",
	"frozen > ",
	"bakery > bread",
	"health & beauty >",
}
