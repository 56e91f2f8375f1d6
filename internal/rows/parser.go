package rows

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// ParseStoreLinks decodes the store-links cell of an input row. The cell is
// a serialized mapping of retailer name to an object carrying a store_link
// URL, but upstream exports are sloppy: single quotes, stray double braces,
// embedded apostrophes, partial truncation. This is a total function: it
// returns whatever links it can recover and nil when it can recover nothing.
func ParseStoreLinks(cell string) map[types.RetailerID]string {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "{}", "nan", "none", "null":
		return nil
	}
	if links := decodeLinkMap(cell); len(links) > 0 {
		return links
	}
	if links := decodeLinkMap(repairQuotes(cell)); len(links) > 0 {
		return links
	}

	// Brace de-doubling is a repair, never a pre-pass: the canonical nested
	// cell legitimately ends in "}}" and must reach the decoders untouched.
	dedoubled := dedoubleBraces(cell)
	if dedoubled != cell {
		if links := decodeLinkMap(dedoubled); len(links) > 0 {
			return links
		}
		if links := decodeLinkMap(repairQuotes(dedoubled)); len(links) > 0 {
			return links
		}
	}

	if links := recoverLinks(cell); len(links) > 0 {
		return links
	}
	return recoverLinks(dedoubled)
}

func dedoubleBraces(s string) string {
	s = strings.ReplaceAll(s, "{{", "{")
	return strings.ReplaceAll(s, "}}", "}")
}

// decodeLinkMap tries strict JSON and flattens the accepted value shapes.
func decodeLinkMap(s string) map[types.RetailerID]string {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	out := make(map[types.RetailerID]string, len(m))
	for name, v := range m {
		link := linkFromValue(v)
		if link == "" {
			continue
		}
		out[retailers.Normalize(name)] = link
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// linkFromValue accepts either a bare URL string or an object with a
// store_link-like field.
func linkFromValue(v any) string {
	switch val := v.(type) {
	case string:
		if isHTTPURL(val) {
			return val
		}
	case map[string]any:
		for _, key := range []string{"store_link", "storelink", "link", "url"} {
			if s, ok := val[key].(string); ok && isHTTPURL(s) {
				return s
			}
		}
	}
	return ""
}

// repairQuotes converts Python-literal syntax to JSON. Apostrophes inside
// values (retailer names like "sainsbury's") survive because a quote only
// terminates a string when followed by a structural character.
func repairQuotes(s string) string {
	replaced := strings.NewReplacer("None", "null", "True", "true", "False", "false").Replace(s)

	var b strings.Builder
	b.Grow(len(replaced))
	inString := false
	for i := 0; i < len(replaced); i++ {
		c := replaced[i]
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if !inString {
			inString = true
			b.WriteByte('"')
			continue
		}
		if terminatesString(replaced, i) {
			inString = false
			b.WriteByte('"')
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func terminatesString(s string, i int) bool {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case ' ', '\t':
			continue
		case ':', ',', '}', ']':
			return true
		default:
			return false
		}
	}
	return true
}

// linkFragment recovers '<name>': ... 'store_link': '<url>' pairs from
// cells too mangled for any structured decode.
var linkFragment = regexp.MustCompile(`'([^':]+)'\s*:\s*\{[^{}]*?'(?:store_link|link|url)'\s*:\s*'(https?://[^']+)'`)

// bareFragment recovers flat '<name>': '<url>' pairs.
var bareFragment = regexp.MustCompile(`'([^':]+)'\s*:\s*'(https?://[^']+)'`)

func recoverLinks(cell string) map[types.RetailerID]string {
	out := make(map[types.RetailerID]string)
	for _, re := range []*regexp.Regexp{linkFragment, bareFragment} {
		for _, m := range re.FindAllStringSubmatch(cell, -1) {
			id := retailers.Normalize(m[1])
			if _, exists := out[id]; !exists && isHTTPURL(m[2]) {
				out[id] = m[2]
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
