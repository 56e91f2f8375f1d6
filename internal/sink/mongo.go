package sink

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/types"
)

// Mongo is the document-store alternative to Postgres, upserting one
// document per (product_code, store).
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

func NewMongo(ctx context.Context, cfg *config.MongoConfig, logger *slog.Logger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.SinkError{Backend: "mongo", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &types.SinkError{Backend: "mongo", Err: err}
	}
	return &Mongo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With("component", "sink", "backend", "mongo"),
	}, nil
}

func (m *Mongo) Name() string { return "mongo" }

func (m *Mongo) Write(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		filter := bson.M{"product_code": r.ProductCode, "store": string(r.Store)}
		doc := bson.M{
			"product_code":  r.ProductCode,
			"store":         string(r.Store),
			"store_link":    r.StoreLink,
			"aisle":         r.Aisle,
			"aisle_id":      r.AisleID,
			"modified_date": time.Now().UTC(),
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(filter).SetReplacement(doc).SetUpsert(true))
	}
	if _, err := m.collection.BulkWrite(ctx, models); err != nil {
		return &types.SinkError{Backend: "mongo", Err: err}
	}
	m.logger.Debug("records upserted", "count", len(records))
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return &types.SinkError{Backend: "mongo", Err: err}
	}
	return nil
}
