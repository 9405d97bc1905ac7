// Package catalog is the durable document store: five MongoDB collections
// backing Version, Upload, UploadChunk, UpdateFile, and Server, plus the
// CAS-upsert and transactional operations the rest of the core depends on.
// It exposes primitives only; the state-machine decisions that combine them
// (epoch rotation, publish orchestration) live in the packages that own
// that business logic (pkg/upload, pkg/pipeline, pkg/resolver).
package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config configures the Mongo connection and database name.
type Config struct {
	URI      string
	Database string
}

// Catalog wraps a Mongo client, its five entity collections, and the
// counters collection used for version-tuple allocation.
type Catalog struct {
	client *mongo.Client
	db     *mongo.Database

	versions *mongo.Collection
	uploads  *mongo.Collection
	chunks   *mongo.Collection
	files    *mongo.Collection
	servers  *mongo.Collection
	counters *mongo.Collection
}

const countersDocID = "version_tuple"

// Connect dials Mongo, verifies connectivity, and returns a ready Catalog.
// The process owns the returned *Catalog for its lifetime; Close on
// shutdown.
func Connect(ctx context.Context, cfg Config) (*Catalog, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("catalog: database name is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}

	db := client.Database(cfg.Database)
	c := &Catalog{
		client:   client,
		db:       db,
		versions: db.Collection("versions"),
		uploads:  db.Collection("uploads"),
		chunks:   db.Collection("chunks"),
		files:    db.Collection("files"),
		servers:  db.Collection("servers"),
		counters: db.Collection("counters"),
	}
	return c, nil
}

// Close disconnects the underlying Mongo client.
func (c *Catalog) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Healthcheck pings the underlying Mongo client, for the HTTP API's
// readiness probe.
func (c *Catalog) Healthcheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the unique indexes the data model relies on. Safe
// to call repeatedly; Mongo index creation is idempotent.
func (c *Catalog) EnsureIndexes(ctx context.Context) error {
	if _, err := c.versions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "major", Value: 1},
			{Key: "minor", Value: 1},
			{Key: "revision", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("catalog: versions index: %w", err)
	}
	if _, err := c.uploads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "version_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("catalog: uploads index: %w", err)
	}
	if _, err := c.chunks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "upload_id", Value: 1},
			{Key: "concurrent_id", Value: 1},
			{Key: "offset", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("catalog: chunks index: %w", err)
	}
	if _, err := c.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "version_id", Value: 1},
			{Key: "local_path", Value: 1},
			{Key: "category", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("catalog: files local_path index: %w", err)
	}
	if _, err := c.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "file_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("catalog: files file_name index: %w", err)
	}
	return nil
}
