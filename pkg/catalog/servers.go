package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
)

// ListServers returns every advertised update server endpoint, oldest first.
func (c *Catalog) ListServers(ctx context.Context) ([]domain.Server, error) {
	cur, err := c.servers.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	defer cur.Close(ctx)

	var servers []domain.Server
	if err := cur.All(ctx, &servers); err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	return servers, nil
}

// AddServer registers a new update server endpoint. No HTTP or gRPC route
// exposes it.
func (c *Catalog) AddServer(ctx context.Context, url string) (domain.Server, error) {
	s := domain.Server{
		ServerID:  domain.NewID(),
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := c.servers.InsertOne(ctx, s); err != nil {
		return domain.Server{}, errs.Unavailable("catalog", err)
	}
	return s, nil
}

// RemoveServer deletes an advertised server endpoint by id.
func (c *Catalog) RemoveServer(ctx context.Context, id domain.ID) error {
	res, err := c.servers.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errs.Unavailable("catalog", err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFoundf("server %s not found", id)
	}
	return nil
}
