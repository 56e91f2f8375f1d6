package types

import "time"

// RetailerID is a normalized lowercase retailer token (e.g. "tesco",
// "sainsburys"). Normalization lives in the retailers package.
type RetailerID string

func (r RetailerID) String() string { return string(r) }

// ProductRow is one unit of input: a product code and its per-retailer
// product-page URLs.
type ProductRow struct {
	ProductCode string
	StoreLinks  map[RetailerID]string
}

// OutcomeStatus classifies the result of one retailer extraction.
type OutcomeStatus string

const (
	StatusSuccess       OutcomeStatus = "success"
	StatusNoBreadcrumbs OutcomeStatus = "no_breadcrumbs"
	StatusFetchFailed   OutcomeStatus = "fetch_failed"
	StatusSkipped       OutcomeStatus = "skipped"
	StatusError         OutcomeStatus = "error"
)

// ExtractionOutcome is the result of annotating one (retailer, URL) pair.
type ExtractionOutcome struct {
	Retailer    RetailerID
	URL         string
	Breadcrumbs []string
	Method      string
	Score       int
	Status      OutcomeStatus
	Debug       string
}

// Succeeded reports whether the outcome carries usable breadcrumbs.
func (o *ExtractionOutcome) Succeeded() bool {
	return o != nil && o.Status == StatusSuccess && len(o.Breadcrumbs) > 0
}

// RowOutcome aggregates the per-retailer outcomes for one product row.
type RowOutcome struct {
	ProductCode string
	PerRetailer map[RetailerID]*ExtractionOutcome
	Best        *ExtractionOutcome
	Elapsed     time.Duration
}

// Record is one line of output: the sink emits exactly one per store link.
// Aisle is the joined breadcrumb trail, or the literal "FAILED". AisleID is
// the matched taxonomy ID when a reference taxonomy is loaded, else empty.
type Record struct {
	ProductCode string
	Store       RetailerID
	StoreLink   string
	Aisle       string
	AisleID     string
}

// FailedAisle is the sentinel written when no breadcrumbs were obtained.
const FailedAisle = "FAILED"
