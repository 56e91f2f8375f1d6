package sink

import (
	"context"
	"log/slog"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/types"
)

// Sink receives annotation records. Writes are batched per product row; a
// sink must tolerate being handed the same (product_code, store) key again
// on a re-run and overwrite the previous aisle.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []types.Record) error
	Close(ctx context.Context) error
}

// Open builds the configured sinks: the CSV preview always, plus the
// persistent backend unless preview-only mode is on.
func Open(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) ([]Sink, error) {
	preview, err := NewPreview(cfg.PreviewPath, logger)
	if err != nil {
		return nil, err
	}
	sinks := []Sink{preview}

	if cfg.PreviewOnly {
		logger.Info("preview-only mode, persistent writes disabled")
		return sinks, nil
	}

	switch cfg.Type {
	case "postgres":
		pg, err := NewPostgres(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pg)
	case "mongo":
		mg, err := NewMongo(ctx, &cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, mg)
	case "", "none":
	default:
		logger.Warn("unknown storage type, preview only", "type", cfg.Type)
	}
	return sinks, nil
}
