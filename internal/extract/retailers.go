package extract

import (
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// retailerSelectors are tuned CSS selectors tried before the defaults.
var retailerSelectors = map[types.RetailerID][]string{
	"tesco":        {`[data-auto="breadcrumbs"] a`, `.breadcrumbs li a`},
	"sainsburys":   {`nav.ln-c-breadcrumbs a`, `.breadcrumbs__list a`},
	"asda":         {`[data-auto-id="breadcrumb"] a`, `.breadcrumb__list a`},
	"morrisons":    {`[data-test="breadcrumb"] a`, `.bop-breadcrumbs a`},
	"ocado":        {`ul[class*="breadcrumb"] a`, `.breadcrumbs a`},
	"waitrose":     {`nav[aria-label="Breadcrumb"] a`, `.breadcrumbs a`},
	"aldi":         {`.breadcrumb-list a`},
	"iceland":      {`.breadcrumb a span`, `.breadcrumb a`},
	"coop":         {`nav[aria-label="breadcrumb"] a`},
	"boots":        {`.oct-breadcrumbs a`, `#breadcrumb a`},
	"superdrug":    {`.breadcrumbs__item a`, `.breadcrumb a`},
	"wilko":        {`.breadcrumbs a`},
	"homebargains": {`.breadcrumb-item a`},
	"poundland":    {`.breadcrumbs .item a`},
	"amazon":       {`#wayfinding-breadcrumbs_feature_div a`},
}

// retailerXPaths supplement the default expressions for templates whose
// breadcrumb structure CSS cannot pick apart cleanly.
var retailerXPaths = map[types.RetailerID][]string{
	"lidl":     {`//ol[contains(@class, "s-breadcrumb")]//a`},
	"bmstores": {`//div[@class="breadcrumb"]//a`},
	"savers":   {`//nav[contains(@class, "breadcrumb")]//a`},
}

// urlFirstRetailers encode their hierarchy in the URL more reliably than in
// the page markup; their cascade tries path inference before anything else.
var urlFirstRetailers = map[types.RetailerID]struct{}{
	"boots":     {},
	"superdrug": {},
	"savers":    {},
}

// stateFirstRetailers render breadcrumbs only client-side; the serialized
// window state is the primary source and the DOM a fallback.
var stateFirstRetailers = map[types.RetailerID]struct{}{
	"morrisons": {},
	"asda":      {},
}

// cascadeFor builds the ordered strategy list for one retailer.
func cascadeFor(id types.RetailerID) []step {
	profile := retailers.Get(id)
	selectors := combined(retailerSelectors[id], defaultSelectors)
	xpaths := combined(retailerXPaths[id], defaultXPaths)

	steps := universalSteps(profile, selectors, xpaths)

	if _, ok := urlFirstRetailers[id]; ok && profile.URLHasCategories {
		steps = promote(steps, MethodURLPath)
	}
	if _, ok := stateFirstRetailers[id]; ok {
		steps = promote(steps, MethodWindowState)
	}
	return steps
}

// promote moves the named strategy to the front, preserving the rest of the
// order.
func promote(steps []step, method string) []step {
	for i, s := range steps {
		if s.method == method {
			out := make([]step, 0, len(steps))
			out = append(out, s)
			out = append(out, steps[:i]...)
			out = append(out, steps[i+1:]...)
			return out
		}
	}
	return steps
}

func combined(primary, fallback []string) []string {
	out := make([]string, 0, len(primary)+len(fallback))
	out = append(out, primary...)
	out = append(out, fallback...)
	return out
}
