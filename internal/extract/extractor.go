package extract

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// AcceptScore is the quality bar for accepting a trail without trying the
// remaining strategies.
const AcceptScore = 50

// Result is a scored, normalized breadcrumb trail and the strategy that
// produced it.
type Result struct {
	Breadcrumbs []string
	Method      string
	Score       int
}

// pageContext bundles the parsed document with everything a strategy might
// consult. The document is parsed once per page.
type pageContext struct {
	doc     *goquery.Document
	body    []byte
	url     *url.URL
	profile *retailers.Profile
}

// step is one strategy in a retailer's cascade.
type step struct {
	method string
	run    func(pc *pageContext) []string
}

// Extract runs the retailer's strategy cascade over a fetched page. Each
// candidate trail is normalized and scored; the first to reach AcceptScore
// wins, otherwise the best-scoring candidate is returned. A nil result means
// no strategy produced a usable trail.
func Extract(body []byte, rawURL string, id types.RetailerID) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractError{URL: rawURL, Strategy: "parse", Err: err}
	}

	pc := &pageContext{
		doc:     doc,
		body:    body,
		profile: retailers.Get(id),
	}
	if u, err := url.Parse(rawURL); err == nil {
		pc.url = u
	}

	var best *Result
	for _, s := range cascadeFor(id) {
		raw := s.run(pc)
		if len(raw) == 0 {
			continue
		}
		crumbs := Normalize(raw, id)
		if len(crumbs) == 0 {
			continue
		}
		candidate := &Result{
			Breadcrumbs: crumbs,
			Method:      s.method,
			Score:       Score(crumbs, id, rawURL),
		}
		if candidate.Score >= AcceptScore {
			return candidate, nil
		}
		if best == nil || candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, nil
}

// universalSteps is the fallback cascade, ordered by reliability. URL-path
// inference joins only for opted-in retailers.
func universalSteps(profile *retailers.Profile, selectors []string, xpaths []string) []step {
	steps := []step{
		{MethodJSONLD, func(pc *pageContext) []string { return extractJSONLD(pc.doc) }},
		{MethodMicrodata, func(pc *pageContext) []string { return extractMicrodata(pc.doc) }},
		{MethodDOM, func(pc *pageContext) []string { return extractDOM(pc.doc, selectors) }},
		{MethodXPath, func(pc *pageContext) []string { return extractXPath(pc.body, xpaths) }},
		{MethodWindowState, func(pc *pageContext) []string { return extractWindowState(pc.doc, pc.body) }},
		{MethodEmbeddedJS, func(pc *pageContext) []string { return extractEmbeddedJS(pc.body) }},
		{MethodMeta, func(pc *pageContext) []string { return extractMeta(pc.doc) }},
		{MethodTitle, func(pc *pageContext) []string { return extractTitle(pc.doc) }},
	}
	if profile.URLHasCategories {
		steps = append(steps, step{MethodURLPath, func(pc *pageContext) []string { return extractURLPath(pc.url) }})
	}
	return steps
}
