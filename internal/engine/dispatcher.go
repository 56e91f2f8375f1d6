package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/extract"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// PageFetcher is the fetch surface the dispatcher depends on. Fetch is
// Phase 1 (local strategies), RenderFetch is Phase 2 (paid renderer).
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, id types.RetailerID) *types.FetchResult
	RenderFetch(ctx context.Context, rawURL string, id types.RetailerID) *types.FetchResult
}

// Dispatcher annotates one product row at a time. Retailers within a row are
// always processed sequentially in priority order so the early-stop rule is
// deterministic.
type Dispatcher struct {
	cfg     *config.EngineConfig
	fetcher PageFetcher
	skip    map[types.RetailerID]struct{}
	logger  *slog.Logger
}

func NewDispatcher(cfg *config.EngineConfig, fetcher PageFetcher, logger *slog.Logger) *Dispatcher {
	skip := make(map[types.RetailerID]struct{}, len(cfg.SkipRetailers))
	for _, name := range cfg.SkipRetailers {
		skip[retailers.Normalize(name)] = struct{}{}
	}
	return &Dispatcher{
		cfg:     cfg,
		fetcher: fetcher,
		skip:    skip,
		logger:  logger.With("component", "dispatcher"),
	}
}

// ProcessRow runs the two-phase cascade for one product. Phase 1 walks the
// retailers in priority order and stops as soon as a trail clears the score
// threshold. Phase 2 replays, through the paid renderer, only the hosts that
// were observed blocked while processing this row, and only if Phase 1 never
// cleared the threshold.
func (d *Dispatcher) ProcessRow(ctx context.Context, row types.ProductRow) *types.RowOutcome {
	start := time.Now()
	out := &types.RowOutcome{
		ProductCode: row.ProductCode,
		PerRetailer: make(map[types.RetailerID]*types.ExtractionOutcome, len(row.StoreLinks)),
	}

	order := make([]types.RetailerID, 0, len(row.StoreLinks))
	for id := range row.StoreLinks {
		order = append(order, id)
	}
	order = retailers.SortByPriority(order)

	var rowBlocked []types.RetailerID

	for _, id := range order {
		rawURL := row.StoreLinks[id]
		outcome := &types.ExtractionOutcome{Retailer: id, URL: rawURL}
		out.PerRetailer[id] = outcome

		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			outcome.Status = types.StatusError
			outcome.Debug = "invalid store link"
			continue
		}
		if _, skipped := d.skip[id]; skipped {
			outcome.Status = types.StatusSkipped
			continue
		}
		if d.reachedThreshold(out.Best) {
			outcome.Status = types.StatusSkipped
			outcome.Debug = "early stop"
			continue
		}
		if ctx.Err() != nil {
			outcome.Status = types.StatusError
			outcome.Debug = "run stopped"
			continue
		}

		result := d.fetcher.Fetch(ctx, rawURL, id)
		if result.Status == types.FetchBlocked {
			rowBlocked = append(rowBlocked, id)
		}
		d.resolve(outcome, result, id, rawURL)
		d.updateBest(out, outcome)
	}

	// Phase 2: paid renderer, only for hosts blocked while processing this
	// row, and only when Phase 1 never produced a good-enough trail.
	if len(rowBlocked) > 0 && !d.reachedThreshold(out.Best) && ctx.Err() == nil {
		d.renderPass(ctx, row, rowBlocked, out)
	}

	out.Elapsed = time.Since(start)
	d.logRow(out)
	return out
}

func (d *Dispatcher) renderPass(ctx context.Context, row types.ProductRow, blocked []types.RetailerID, out *types.RowOutcome) {
	// Hosts that historically render only through the paid API go first;
	// renderer credits are scarce, so they are spent where Phase 1 never
	// works before falling back to the row's priority order.
	ordered := make([]types.RetailerID, 0, len(blocked))
	for _, id := range blocked {
		if retailers.Get(id).PreferExternalRenderer {
			ordered = append(ordered, id)
		}
	}
	for _, id := range blocked {
		if !retailers.Get(id).PreferExternalRenderer {
			ordered = append(ordered, id)
		}
	}

	for _, id := range ordered {
		if d.reachedThreshold(out.Best) || ctx.Err() != nil {
			return
		}
		rawURL := row.StoreLinks[id]
		result := d.fetcher.RenderFetch(ctx, rawURL, id)
		if !result.OK() {
			continue
		}
		outcome := out.PerRetailer[id]
		d.resolve(outcome, result, id, rawURL)
		d.updateBest(out, outcome)
	}
}

// resolve maps a fetch result onto the outcome, running extraction when
// there is a body to extract from.
func (d *Dispatcher) resolve(outcome *types.ExtractionOutcome, result *types.FetchResult, id types.RetailerID, rawURL string) {
	switch result.Status {
	case types.FetchOK:
		d.extractInto(outcome, result, id, rawURL)
	case types.FetchEmpty:
		// A near-empty body can still carry categories in the URL for
		// retailers that opt in.
		if retailers.Get(id).URLHasCategories {
			d.extractInto(outcome, result, id, rawURL)
			if outcome.Status == types.StatusSuccess {
				return
			}
			outcome.Status = types.StatusNoBreadcrumbs
			outcome.Debug = "empty body"
			return
		}
		outcome.Status = types.StatusFetchFailed
		outcome.Debug = "empty body"
	case types.FetchBlocked:
		outcome.Status = types.StatusFetchFailed
		outcome.Debug = "blocked"
	default:
		outcome.Status = types.StatusFetchFailed
	}
}

func (d *Dispatcher) extractInto(outcome *types.ExtractionOutcome, result *types.FetchResult, id types.RetailerID, rawURL string) {
	extracted, err := extract.Extract(result.Body, rawURL, id)
	if err != nil {
		outcome.Status = types.StatusError
		outcome.Debug = err.Error()
		return
	}
	if extracted == nil {
		outcome.Status = types.StatusNoBreadcrumbs
		return
	}
	outcome.Breadcrumbs = extracted.Breadcrumbs
	outcome.Method = result.Method + "+" + extracted.Method
	outcome.Score = extracted.Score
	outcome.Status = types.StatusSuccess
}

func (d *Dispatcher) updateBest(out *types.RowOutcome, outcome *types.ExtractionOutcome) {
	if !outcome.Succeeded() {
		return
	}
	if out.Best == nil || outcome.Score > out.Best.Score {
		out.Best = outcome
	}
}

func (d *Dispatcher) reachedThreshold(best *types.ExtractionOutcome) bool {
	return best != nil && best.Score >= d.cfg.ScoreThreshold
}

func (d *Dispatcher) logRow(out *types.RowOutcome) {
	if out.Best != nil {
		d.logger.Info("row annotated",
			"product", out.ProductCode,
			"retailer", out.Best.Retailer,
			"score", out.Best.Score,
			"method", out.Best.Method,
			"elapsed", out.Elapsed)
		return
	}
	d.logger.Warn("row failed", "product", out.ProductCode, "elapsed", out.Elapsed)
}
