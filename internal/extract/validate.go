package extract

import (
	"regexp"
	"strings"
)

// promoPatterns match navigation chrome and promotional labels that retailer
// pages render inside breadcrumb-shaped containers.
var promoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\boffers?\b`),
	regexp.MustCompile(`(?i)\bdeals?\b`),
	regexp.MustCompile(`(?i)\bsave\b`),
	regexp.MustCompile(`(?i)%\s*off`),
	regexp.MustCompile(`(?i)half\s*price`),
	regexp.MustCompile(`(?i)\bdiscount\b`),
	regexp.MustCompile(`(?i)\bdelivery\b`),
	regexp.MustCompile(`(?i)\bpass\b`),
	regexp.MustCompile(`(?i)\baccount\b`),
	regexp.MustCompile(`(?i)\blog\s*in\b`),
	regexp.MustCompile(`(?i)\bsign\s*in\b`),
	regexp.MustCompile(`(?i)\bbasket\b`),
	regexp.MustCompile(`(?i)\bcheckout\b`),
	regexp.MustCompile(`(?i)\bsearch\b`),
	regexp.MustCompile(`(?i)\bmenu\b`),
	regexp.MustCompile(`(?i)^back$`),
	regexp.MustCompile(`(?i)\bprevious\b`),
	regexp.MustCompile(`(?i)free\s+delivery`),
	regexp.MustCompile(`(?i)click\s+and\s+collect`),
	regexp.MustCompile(`(?i)store\s+finder`),
	regexp.MustCompile(`(?i)^my\s+\w+`),
}

var hasLetter = regexp.MustCompile(`[a-zA-Z]`)

// IsCategoryLike reports whether a string could plausibly be a category
// label: non-empty, 2..100 runes, contains a letter, and matches none of the
// promo/navigation patterns.
func IsCategoryLike(text string) bool {
	trimmed := strings.TrimSpace(text)
	n := len([]rune(trimmed))
	if n < 2 || n > 100 {
		return false
	}
	if !hasLetter.MatchString(trimmed) {
		return false
	}
	for _, re := range promoPatterns {
		if re.MatchString(trimmed) {
			return false
		}
	}
	return true
}

// genericNavTokens are labels that carry no category information. "home" is
// special-cased by the normalizer: kept only at position 0.
var genericNavTokens = map[string]struct{}{
	"home":        {},
	"homepage":    {},
	"shop":        {},
	"browse":      {},
	"all":         {},
	"categories":  {},
	"departments": {},
	"groceries":   {},
	"products":    {},
}

// isGenericNav reports whether the label is pure site navigation.
func isGenericNav(text string) bool {
	_, ok := genericNavTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
