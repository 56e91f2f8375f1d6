package sink

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"sync"

	"github.com/aislescout/aislescout/internal/types"
)

// previewHeader matches the layout downstream spreadsheets expect.
var previewHeader = []string{"product code", "Store", "Store_link", "aisle", "aisle_id"}

// Preview writes every record to a local CSV so a run can be inspected
// before anything touches the database.
type Preview struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	logger *slog.Logger
	count  int
}

func NewPreview(path string, logger *slog.Logger) (*Preview, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.SinkError{Backend: "preview", Err: err}
	}
	w := csv.NewWriter(f)
	if err := w.Write(previewHeader); err != nil {
		f.Close()
		return nil, &types.SinkError{Backend: "preview", Err: err}
	}
	return &Preview{file: f, writer: w, logger: logger.With("component", "sink", "backend", "preview")}, nil
}

func (p *Preview) Name() string { return "preview" }

func (p *Preview) Write(_ context.Context, records []types.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range records {
		row := []string{r.ProductCode, string(r.Store), r.StoreLink, r.Aisle, r.AisleID}
		if err := p.writer.Write(row); err != nil {
			return &types.SinkError{Backend: "preview", Err: err}
		}
		p.count++
	}
	// Flush per batch so a crashed run still leaves a usable preview.
	p.writer.Flush()
	if err := p.writer.Error(); err != nil {
		return &types.SinkError{Backend: "preview", Err: err}
	}
	return nil
}

func (p *Preview) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer.Flush()
	p.logger.Info("preview written", "records", p.count, "path", p.file.Name())
	if err := p.file.Close(); err != nil {
		return &types.SinkError{Backend: "preview", Err: err}
	}
	return nil
}
