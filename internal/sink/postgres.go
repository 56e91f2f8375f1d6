package sink

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/types"
)

// Postgres upserts records keyed on (product_code, store) so re-runs refresh
// aisles in place.
type Postgres struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

func NewPostgres(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.Database)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &types.SinkError{Backend: "postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &types.SinkError{Backend: "postgres", Err: err}
	}

	pg := &Postgres{
		pool:   pool,
		table:  cfg.Table,
		logger: logger.With("component", "sink", "backend", "postgres"),
	}
	if err := pg.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pg, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			product_code  TEXT NOT NULL,
			store         TEXT NOT NULL,
			store_link    TEXT,
			aisle         TEXT,
			aisle_id      TEXT,
			modified_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (product_code, store)
		)`, pgx.Identifier{p.table}.Sanitize())
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return &types.SinkError{Backend: "postgres", Err: err}
	}
	return nil
}

func (p *Postgres) Write(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(`
		INSERT INTO %s (product_code, store, store_link, aisle, aisle_id, modified_date)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_code, store) DO UPDATE
		SET store_link = EXCLUDED.store_link,
		    aisle = EXCLUDED.aisle,
		    aisle_id = EXCLUDED.aisle_id,
		    modified_date = now()`, pgx.Identifier{p.table}.Sanitize())

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(stmt, r.ProductCode, string(r.Store), r.StoreLink, r.Aisle, r.AisleID)
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return &types.SinkError{Backend: "postgres", Err: err}
		}
	}
	p.logger.Debug("records upserted", "count", len(records))
	return nil
}

func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}
