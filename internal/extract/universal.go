package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Method tags for the winning strategy, recorded on the outcome.
const (
	MethodJSONLD      = "jsonld"
	MethodMicrodata   = "microdata"
	MethodDOM         = "dom"
	MethodXPath       = "xpath"
	MethodEmbeddedJS  = "js"
	MethodWindowState = "window_state"
	MethodMeta        = "meta"
	MethodTitle       = "title"
	MethodURLPath     = "url"
)

// defaultSelectors are breadcrumb containers that work across most retail
// platforms. Retailer extractors prepend their own tuned selectors.
var defaultSelectors = []string{
	`nav[aria-label*="readcrumb"] a`,
	`ol.breadcrumb a`,
	`.breadcrumb a`,
	`.breadcrumbs a`,
	`[data-testid*="breadcrumb"] a`,
	`[data-test*="breadcrumb"] a`,
	`ul.breadcrumbs li`,
	`.breadcrumb li`,
}

// extractJSONLD walks every ld+json script for a BreadcrumbList, a Product
// with a breadcrumb property, or a Product category string.
func extractJSONLD(doc *goquery.Document) []string {
	var fromProduct []string

	var result []string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		for _, node := range decodeJSONLD(raw) {
			if crumbs := breadcrumbListNames(node); len(crumbs) > 0 {
				result = crumbs
				return false
			}
			if typeOf(node) == "Product" {
				if crumbs := productBreadcrumbs(node); len(crumbs) > 0 && fromProduct == nil {
					fromProduct = crumbs
				}
			}
		}
		return true
	})
	if len(result) > 0 {
		return result
	}
	return fromProduct
}

// decodeJSONLD tolerates a single object, an array, and @graph wrappers.
func decodeJSONLD(raw string) []map[string]any {
	var out []map[string]any

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		out = append(out, obj)
		if graph, ok := obj["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
		return out
	}

	var arr []map[string]any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		out = append(out, arr...)
	}
	return out
}

func typeOf(node map[string]any) string {
	switch t := node["@type"].(type) {
	case string:
		return t
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// breadcrumbListNames collects itemListElement names in position order.
func breadcrumbListNames(node map[string]any) []string {
	if typeOf(node) != "BreadcrumbList" {
		return nil
	}
	elements, ok := node["itemListElement"].([]any)
	if !ok {
		return nil
	}

	type crumb struct {
		pos  float64
		name string
	}
	crumbs := make([]crumb, 0, len(elements))
	for i, el := range elements {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		pos, _ := m["position"].(float64)
		if pos == 0 {
			pos = float64(i + 1)
		}
		name, _ := m["name"].(string)
		if name == "" {
			if item, ok := m["item"].(map[string]any); ok {
				name, _ = item["name"].(string)
			}
		}
		if name != "" {
			crumbs = append(crumbs, crumb{pos: pos, name: name})
		}
	}
	sort.SliceStable(crumbs, func(i, j int) bool { return crumbs[i].pos < crumbs[j].pos })

	out := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		out = append(out, c.name)
	}
	return out
}

// productBreadcrumbs handles Product nodes carrying either a breadcrumb
// property (string or nested BreadcrumbList) or a category string.
func productBreadcrumbs(node map[string]any) []string {
	switch bc := node["breadcrumb"].(type) {
	case string:
		return splitDelimited(bc)
	case map[string]any:
		if crumbs := breadcrumbListNames(bc); len(crumbs) > 0 {
			return crumbs
		}
	}
	if category, ok := node["category"].(string); ok {
		return splitDelimited(category)
	}
	return nil
}

// extractMicrodata reads itemprop names inside a BreadcrumbList scope.
func extractMicrodata(doc *goquery.Document) []string {
	var out []string
	doc.Find(`[itemtype*="BreadcrumbList"]`).First().Find(`[itemprop="name"]`).Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			name, _ = sel.Attr("content")
		}
		if name != "" {
			out = append(out, name)
		}
	})
	return out
}

// extractDOM tries each selector in order, returning the first that yields
// at least two plausible crumbs. A single hit is usually a stray "Back"
// link or logo anchor.
func extractDOM(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		var out []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if IsCategoryLike(text) || strings.EqualFold(text, "home") {
				out = append(out, text)
			}
		})
		if len(out) >= 2 {
			return out
		}
	}
	return nil
}

var (
	reBreadcrumbArray = regexp.MustCompile(`"breadcrumbs?"\s*:\s*(\[[^\]]*\])`)
	reCategoryName    = regexp.MustCompile(`"categoryName"\s*:\s*"([^"]+)"`)
	reCategoryPath    = regexp.MustCompile(`"categoryPath"\s*:\s*"([^"]+)"`)
	reCategoryString  = regexp.MustCompile(`"category"\s*:\s*"([^"]+)"`)
)

// extractEmbeddedJS scans raw script bodies for breadcrumb-shaped literals.
func extractEmbeddedJS(body []byte) []string {
	text := string(body)

	if m := reBreadcrumbArray.FindStringSubmatch(text); m != nil {
		if crumbs := decodeCrumbArray(m[1]); len(crumbs) > 0 {
			return crumbs
		}
	}
	if m := reCategoryPath.FindStringSubmatch(text); m != nil {
		if crumbs := splitDelimited(m[1]); len(crumbs) > 1 {
			return crumbs
		}
	}
	if m := reCategoryName.FindStringSubmatch(text); m != nil {
		if crumbs := splitDelimited(m[1]); len(crumbs) > 0 {
			return crumbs
		}
	}
	if m := reCategoryString.FindStringSubmatch(text); m != nil {
		if crumbs := splitDelimited(m[1]); len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

// decodeCrumbArray parses a JSON array of strings or of objects carrying a
// name-like field.
func decodeCrumbArray(raw string) []string {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			for _, key := range []string{"name", "label", "title", "displayName"} {
				if s, ok := v[key].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

var windowStateMarkers = []string{
	"window.__INITIAL_STATE__",
	"window.__PRELOADED_STATE__",
	"__NEXT_DATA__",
}

// breadcrumbKeys are the state-object keys worth descending into.
var breadcrumbKeys = []string{"breadcrumbs", "breadcrumb", "categories", "category", "hierarchy", "categoryPath"}

// extractWindowState parses serialized client-side state and searches it
// recursively for breadcrumb-shaped values.
func extractWindowState(doc *goquery.Document, body []byte) []string {
	// Next.js ships its state in a dedicated script tag.
	if raw := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).Text()); raw != "" {
		var state any
		if err := json.Unmarshal([]byte(raw), &state); err == nil {
			if crumbs := searchState(state, 0); len(crumbs) > 0 {
				return crumbs
			}
		}
	}

	text := string(body)
	for _, marker := range windowStateMarkers {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		blob := balancedJSON(text[idx:])
		if blob == "" {
			continue
		}
		var state any
		if err := json.Unmarshal([]byte(blob), &state); err != nil {
			continue
		}
		if crumbs := searchState(state, 0); len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

// balancedJSON returns the first balanced {...} object after an assignment
// marker, respecting string literals.
func balancedJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

const maxStateDepth = 12

// searchState walks a decoded state tree looking for breadcrumb keys and
// pulls name-like fields out of whatever shape it finds there.
func searchState(node any, depth int) []string {
	if depth > maxStateDepth {
		return nil
	}
	switch v := node.(type) {
	case map[string]any:
		for _, key := range breadcrumbKeys {
			if val, ok := v[key]; ok {
				if crumbs := crumbsFromValue(val); len(crumbs) > 0 {
					return crumbs
				}
			}
		}
		for _, val := range v {
			if crumbs := searchState(val, depth+1); len(crumbs) > 0 {
				return crumbs
			}
		}
	case []any:
		for _, item := range v {
			if crumbs := searchState(item, depth+1); len(crumbs) > 0 {
				return crumbs
			}
		}
	}
	return nil
}

// crumbsFromValue converts a breadcrumb-keyed value into strings: a
// delimited string, an array of strings, or an array of name-bearing
// objects.
func crumbsFromValue(val any) []string {
	switch v := val.(type) {
	case string:
		if crumbs := splitDelimited(v); len(crumbs) > 1 {
			return crumbs
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				for _, key := range []string{"name", "label", "title", "displayName", "categoryName"} {
					if s, ok := it[key].(string); ok && s != "" {
						out = append(out, s)
						break
					}
				}
			}
		}
		if len(out) > 1 {
			return out
		}
	}
	return nil
}

// extractMeta reads breadcrumb/category meta tags.
func extractMeta(doc *goquery.Document) []string {
	selectors := []string{
		`meta[name="breadcrumb"]`, `meta[name="breadcrumbs"]`, `meta[name="category"]`,
		`meta[property="breadcrumb"]`, `meta[property="category"]`,
		`meta[itemprop="breadcrumb"]`, `meta[itemprop="category"]`,
	}
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if crumbs := splitDelimited(content); len(crumbs) > 0 {
				return crumbs
			}
		}
	}
	return nil
}

// extractTitle mines "Product | Cat | Site" shaped titles: the outer
// segments are product and site names, the middle ones may be categories.
func extractTitle(doc *goquery.Document) []string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return nil
	}
	var parts []string
	switch {
	case strings.Contains(title, "|"):
		parts = strings.Split(title, "|")
	case strings.Contains(title, ":"):
		parts = strings.Split(title, ":")
	default:
		return nil
	}
	if len(parts) < 3 {
		return nil
	}
	var out []string
	for _, part := range parts[1 : len(parts)-1] {
		part = strings.TrimSpace(part)
		if IsCategoryLike(part) {
			out = append(out, part)
		}
	}
	return out
}

// splitDelimited breaks a category string on ">", "/", or "|".
func splitDelimited(s string) []string {
	var sep string
	switch {
	case strings.Contains(s, ">"):
		sep = ">"
	case strings.Contains(s, "/"):
		sep = "/"
	case strings.Contains(s, "|"):
		sep = "|"
	default:
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
