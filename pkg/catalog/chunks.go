package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
)

// InsertChunkIfAbsent upserts a chunk row with $setOnInsert semantics: a
// duplicate offset in the same epoch is a silent no-op rather than an
// overwrite, matching the chunk-upload idempotency requirement.
func (c *Catalog) InsertChunkIfAbsent(ctx context.Context, chunk domain.UploadChunk) error {
	filter := bson.D{
		{Key: "upload_id", Value: chunk.UploadID},
		{Key: "concurrent_id", Value: chunk.ConcurrentID},
		{Key: "offset", Value: chunk.Offset},
	}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "length", Value: chunk.Length},
	}}}
	if _, err := c.chunks.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return errs.Unavailable("catalog", err)
	}
	return nil
}

// CountChunks returns the number of stored chunk rows for (uploadID,
// concurrentID).
func (c *Catalog) CountChunks(ctx context.Context, uploadID, concurrentID domain.ID) (int64, error) {
	n, err := c.chunks.CountDocuments(ctx, bson.D{
		{Key: "upload_id", Value: uploadID},
		{Key: "concurrent_id", Value: concurrentID},
	})
	if err != nil {
		return 0, errs.Unavailable("catalog", err)
	}
	return n, nil
}

// PresentOffsets returns the stored chunk offsets for (uploadID,
// concurrentID), used to recompute missing_ranges on a StartUpload retry.
func (c *Catalog) PresentOffsets(ctx context.Context, uploadID, concurrentID domain.ID) ([]int64, error) {
	filter := bson.D{
		{Key: "upload_id", Value: uploadID},
		{Key: "concurrent_id", Value: concurrentID},
	}
	cur, err := c.chunks.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "offset", Value: 1}}))
	if err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Offset int64 `bson:"offset"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	offsets := make([]int64, len(rows))
	for i, r := range rows {
		offsets[i] = r.Offset
	}
	return offsets, nil
}

// DeleteChunks removes every chunk row for (uploadID, concurrentID). The
// caller separately removes the corresponding blob prefix.
func (c *Catalog) DeleteChunks(ctx context.Context, uploadID, concurrentID domain.ID) error {
	filter := bson.D{
		{Key: "upload_id", Value: uploadID},
		{Key: "concurrent_id", Value: concurrentID},
	}
	if _, err := c.chunks.DeleteMany(ctx, filter); err != nil {
		return errs.Unavailable("catalog", err)
	}
	return nil
}
