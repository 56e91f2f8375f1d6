package extract

import (
	"bytes"
	"strings"

	"github.com/antchfx/htmlquery"
)

// defaultXPaths cover breadcrumb markup that CSS selectors miss, mostly
// older server-rendered templates with positional structure.
var defaultXPaths = []string{
	`//nav[contains(@aria-label, "readcrumb")]//a`,
	`//div[contains(@class, "breadcrumb")]//a`,
	`//ol[contains(@class, "breadcrumb")]/li`,
	`//*[@id="breadcrumb"]//a`,
	`//ul[contains(@class, "breadcrumb")]//a`,
}

// extractXPath evaluates each expression until one yields at least two
// plausible crumbs.
func extractXPath(body []byte, xpaths []string) []string {
	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	for _, xp := range xpaths {
		nodes, err := htmlquery.QueryAll(root, xp)
		if err != nil {
			continue
		}
		var out []string
		for _, n := range nodes {
			text := strings.TrimSpace(htmlquery.InnerText(n))
			if IsCategoryLike(text) || strings.EqualFold(text, "home") {
				out = append(out, text)
			}
		}
		if len(out) >= 2 {
			return out
		}
	}
	return nil
}
