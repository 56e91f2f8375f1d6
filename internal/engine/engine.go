package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aislescout/aislescout/internal/aisleid"
	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/sink"
	"github.com/aislescout/aislescout/internal/types"
)

// Engine drives a run: it feeds product rows through the dispatcher and
// writes the resulting records to every configured sink.
type Engine struct {
	cfg        *config.EngineConfig
	dispatcher *Dispatcher
	sinks      []sink.Sink
	matcher    *aisleid.Matcher
	logger     *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// Stats summarizes a run.
type Stats struct {
	Rows      int
	Annotated int
	Failed    int
	Records   int
	Elapsed   time.Duration
}

func New(cfg *config.EngineConfig, dispatcher *Dispatcher, sinks []sink.Sink, matcher *aisleid.Matcher, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		dispatcher: dispatcher,
		sinks:      sinks,
		matcher:    matcher,
		logger:     logger.With("component", "engine"),
	}
}

// Run processes every row. Rows run in parallel up to Concurrency; within a
// row retailers stay sequential. Cancellation is honored at row boundaries:
// in-flight rows finish and are written, queued rows are abandoned.
func (e *Engine) Run(ctx context.Context, rows []types.ProductRow) Stats {
	start := time.Now()
	workers := e.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	feed := make(chan types.ProductRow)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range feed {
				e.processOne(ctx, row)
			}
		}()
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			e.logger.Warn("run stopped early", "remaining", len(rows)-e.rowCount())
			break
		}
		feed <- row
	}
	close(feed)
	wg.Wait()

	e.mu.Lock()
	e.stats.Elapsed = time.Since(start)
	out := e.stats
	e.mu.Unlock()

	e.logger.Info("run complete",
		"rows", out.Rows,
		"annotated", out.Annotated,
		"failed", out.Failed,
		"records", out.Records,
		"elapsed", out.Elapsed)
	return out
}

func (e *Engine) processOne(ctx context.Context, row types.ProductRow) {
	outcome := e.dispatcher.ProcessRow(ctx, row)
	records := e.buildRecords(row, outcome)

	for _, s := range e.sinks {
		if err := s.Write(ctx, records); err != nil {
			e.logger.Error("sink write failed", "sink", s.Name(), "product", row.ProductCode, "error", err)
		}
	}

	e.mu.Lock()
	e.stats.Rows++
	e.stats.Records += len(records)
	if outcome.Best != nil {
		e.stats.Annotated++
	} else {
		e.stats.Failed++
	}
	e.mu.Unlock()
}

// buildRecords emits exactly one record per store link. Links whose
// extraction did not succeed carry the FAILED sentinel so downstream
// consumers see every link accounted for.
func (e *Engine) buildRecords(row types.ProductRow, outcome *types.RowOutcome) []types.Record {
	records := make([]types.Record, 0, len(row.StoreLinks))
	for id, link := range row.StoreLinks {
		record := types.Record{
			ProductCode: row.ProductCode,
			Store:       id,
			StoreLink:   link,
			Aisle:       types.FailedAisle,
		}
		if o := outcome.PerRetailer[id]; o.Succeeded() {
			record.Aisle = strings.Join(o.Breadcrumbs, " > ")
			if e.matcher != nil {
				if aisleID, confidence, ok := e.matcher.Match(o.Breadcrumbs); ok {
					record.AisleID = aisleID
					e.logger.Debug("aisle matched",
						"product", row.ProductCode, "aisle_id", aisleID, "confidence", confidence)
				}
			}
		}
		records = append(records, record)
	}
	return records
}

func (e *Engine) rowCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Rows
}
