package retailers

import (
	"sort"
	"strings"
	"time"

	"github.com/aislescout/aislescout/internal/types"
)

// Profile is the immutable per-retailer configuration. Profiles are shared
// read-only; the fetcher and dispatcher never mutate them.
type Profile struct {
	ID          types.RetailerID
	DisplayName string

	// PriorityRank orders retailers within a row; lower is processed first.
	PriorityRank int

	// DefaultDelay is the minimum spacing between requests to this retailer
	// before jitter is applied.
	DefaultDelay time.Duration

	// DefaultTimeout bounds a single HTTP attempt. Browser attempts carry
	// their own longer timeout.
	DefaultTimeout time.Duration

	// NeedsBrowserFallback appends the headless-browser strategy for hosts
	// that serve interstitials to non-browser clients.
	NeedsBrowserFallback bool

	// SkipBrowser disables the browser strategy for hosts where chromedriver
	// is known to wedge or be unreliable.
	SkipBrowser bool

	// PreferExternalRenderer prepends the paid renderer in Phase 2 ordering.
	PreferExternalRenderer bool

	// SkipExternalRenderer excludes the host from Phase 2 entirely.
	SkipExternalRenderer bool

	// URLHasCategories opts the retailer into URL-path category inference.
	// Retailers whose URLs carry no category structure must leave this off
	// so the extractor never fabricates breadcrumbs.
	URLHasCategories bool

	// WarmupPaths are visited before the product page in browser and
	// TLS-client strategies (homepage first, then a section page).
	WarmupPaths []string

	// StrictWindow enables the sliding-window cooling rule for heavily
	// monitored hosts: after StrictWindowRequests requests inside 10 minutes
	// the rate limiter forces a long pause.
	StrictWindow         bool
	StrictWindowRequests int

	// Aliases are accepted spellings in input data, lowercased.
	Aliases []string
}

// Normalize maps a free-form retailer name from input data to its canonical
// ID. Unknown names pass through lowercased with whitespace stripped.
func Normalize(name string) types.RetailerID {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := aliasIndex[key]; ok {
		return id
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case ' ', '\t', '\'', '’', '"':
		default:
			b.WriteRune(r)
		}
	}
	return types.RetailerID(b.String())
}

// Get returns the profile for a retailer ID. Unknown retailers get a default
// profile so the pipeline degrades to the universal extractor and plain HTTP.
func Get(id types.RetailerID) *Profile {
	if p, ok := profileIndex[id]; ok {
		return p
	}
	return &Profile{
		ID:             id,
		DisplayName:    string(id),
		PriorityRank:   unknownRank,
		DefaultDelay:   3 * time.Second,
		DefaultTimeout: 20 * time.Second,
	}
}

// Known reports whether the retailer has a curated profile.
func Known(id types.RetailerID) bool {
	_, ok := profileIndex[id]
	return ok
}

// All returns every curated profile in priority order.
func All() []*Profile {
	out := make([]*Profile, len(profiles))
	copy(out, profiles)
	return out
}

// SortByPriority orders retailer IDs by rank; unlisted retailers sort last in
// stable (input) order.
func SortByPriority(ids []types.RetailerID) []types.RetailerID {
	out := make([]types.RetailerID, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		return Get(out[i]).PriorityRank < Get(out[j]).PriorityRank
	})
	return out
}

// unknownRank sorts retailers without a curated profile after every curated
// one.
const unknownRank = 1 << 20

var (
	aliasIndex   = make(map[string]types.RetailerID)
	profileIndex = make(map[types.RetailerID]*Profile)
)

func init() {
	for _, p := range profiles {
		profileIndex[p.ID] = p
		aliasIndex[string(p.ID)] = p.ID
		aliasIndex[strings.ToLower(p.DisplayName)] = p.ID
		for _, a := range p.Aliases {
			aliasIndex[a] = p.ID
		}
	}
}
