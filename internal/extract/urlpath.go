package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// segmentRewrites map well-known URL slugs to their display form where plain
// title-casing gets it wrong.
var segmentRewrites = map[string]string{
	"cough-cold-flu":       "Cough, Cold & Flu",
	"health-beauty":        "Health & Beauty",
	"health-and-beauty":    "Health & Beauty",
	"food-cupboard":        "Food Cupboard",
	"food-drink":           "Food & Drink",
	"fruit-veg":            "Fruit & Vegetables",
	"home-garden":          "Home & Garden",
	"baby-child":           "Baby & Child",
	"toiletries-health":    "Toiletries & Health",
	"electrical-lighting":  "Electrical & Lighting",
	"vitamins-supplements": "Vitamins & Supplements",
	"skincare-suncare":     "Skincare & Suncare",
	"mother-baby":          "Mother & Baby",
	"pet-care":             "Pet Care",
}

// fillerSegments are path components that structure the URL without naming a
// category.
var fillerSegments = map[string]struct{}{
	"p": {}, "product": {}, "products": {}, "prod": {}, "pd": {},
	"shop": {}, "browse": {}, "c": {}, "cat": {}, "category": {},
	"groceries": {}, "en-gb": {}, "en": {}, "uk": {}, "www": {},
	"item": {}, "items": {}, "detail": {}, "details": {},
}

var numericSegment = regexp.MustCompile(`^[0-9]+$`)
var trailingID = regexp.MustCompile(`-[0-9]{4,}$`)

// extractURLPath infers categories from the URL path. Only retailers whose
// URLs genuinely encode hierarchy opt in; for everyone else an inferred
// trail is a fabrication.
func extractURLPath(u *url.URL) []string {
	if u == nil {
		return nil
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return nil
	}
	// The final segment is the product slug, not a category.
	segments = segments[:len(segments)-1]

	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.ToLower(seg)
		if seg == "" || numericSegment.MatchString(seg) {
			continue
		}
		if _, filler := fillerSegments[seg]; filler {
			continue
		}
		seg = trailingID.ReplaceAllString(seg, "")
		label, ok := segmentRewrites[seg]
		if !ok {
			label = titleCaseSlug(seg)
		}
		if IsCategoryLike(label) {
			out = append(out, label)
		}
	}
	return out
}

func titleCaseSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		if w == "and" {
			words[i] = "&"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
