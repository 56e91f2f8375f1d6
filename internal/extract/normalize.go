package extract

import (
	"strings"

	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// MaxDepth caps a normalized breadcrumb trail.
const MaxDepth = 6

var whitespaceCollapser = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Normalize cleans a raw breadcrumb list into its canonical form:
// whitespace collapsed, non-category and retailer-name items dropped,
// generic navigation removed (except a leading "Home"), deduplicated,
// truncated to MaxDepth. Normalizing an already-normalized list is the
// identity.
func Normalize(raw []string, id types.RetailerID) []string {
	profile := retailers.Get(id)

	retailerNames := map[string]struct{}{
		strings.ToLower(string(profile.ID)):  {},
		strings.ToLower(profile.DisplayName): {},
	}
	for _, a := range profile.Aliases {
		retailerNames[strings.ToLower(a)] = struct{}{}
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{})
	for _, item := range raw {
		item = collapseSpace(item)
		if !IsCategoryLike(item) {
			continue
		}
		lower := strings.ToLower(item)
		if _, isRetailer := retailerNames[lower]; isRetailer {
			continue
		}
		if isGenericNav(item) {
			// "Home" survives only as the leading element.
			if !(lower == "home" && len(out) == 0) {
				continue
			}
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, item)
		if len(out) == MaxDepth {
			break
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(whitespaceCollapser.Replace(s)), " ")
}
