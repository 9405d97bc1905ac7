package catalog

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
)

// FindUploadByVersion finds the (at most one) Upload row for versionID.
func (c *Catalog) FindUploadByVersion(ctx context.Context, versionID domain.ID) (domain.Upload, error) {
	var u domain.Upload
	err := c.uploads.FindOne(ctx, bson.D{{Key: "version_id", Value: versionID}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Upload{}, errs.NotFoundf("no upload for version %s", versionID)
	}
	if err != nil {
		return domain.Upload{}, errs.Unavailable("catalog", err)
	}
	return u, nil
}

// FindUpload finds an Upload by its primary key, additionally checking that
// concurrentID matches the stored epoch.
func (c *Catalog) FindUpload(ctx context.Context, uploadID, concurrentID domain.ID) (domain.Upload, error) {
	var u domain.Upload
	err := c.uploads.FindOne(ctx, bson.D{
		{Key: "_id", Value: uploadID},
		{Key: "concurrent_id", Value: concurrentID},
	}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Upload{}, errs.NotFoundf("no upload %s at epoch %s", uploadID, concurrentID)
	}
	if err != nil {
		return domain.Upload{}, errs.Unavailable("catalog", err)
	}
	return u, nil
}

// InsertUpload inserts a brand-new Upload row. Returns errs.Conflict if a
// row for the same version_id was inserted concurrently (unique index).
func (c *Catalog) InsertUpload(ctx context.Context, u domain.Upload) error {
	if _, err := c.uploads.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflictf("upload already exists for version %s", u.VersionID)
		}
		return errs.Unavailable("catalog", err)
	}
	return nil
}

// RotateUploadEpoch CAS-updates an existing Upload row to a fresh
// concurrent_id, hash, chunk_size, and file_size, resetting state to NONE.
// The filter pins both the primary key and the caller's observed
// concurrent_id so a racing rotation loses instead of silently clobbering.
func (c *Catalog) RotateUploadEpoch(ctx context.Context, uploadID, observedConcurrentID, newConcurrentID domain.ID, hash string, chunkSize, fileSize int64) (domain.Upload, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.Upload
	err := c.uploads.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: uploadID}, {Key: "concurrent_id", Value: observedConcurrentID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "concurrent_id", Value: newConcurrentID},
			{Key: "hash", Value: hash},
			{Key: "chunk_size", Value: chunkSize},
			{Key: "file_size", Value: fileSize},
			{Key: "state", Value: domain.UploadNone},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		opts,
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Upload{}, errs.Conflictf("upload %s epoch changed concurrently", uploadID)
	}
	if err != nil {
		return domain.Upload{}, errs.Unavailable("catalog", err)
	}
	return updated, nil
}

// CASUploadState compare-and-sets an Upload's state from `from` to `to`.
func (c *Catalog) CASUploadState(ctx context.Context, uploadID, concurrentID domain.ID, from, to domain.UploadState) error {
	res, err := c.uploads.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: uploadID},
			{Key: "concurrent_id", Value: concurrentID},
			{Key: "state", Value: from},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "state", Value: to},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return errs.Unavailable("catalog", err)
	}
	if res.MatchedCount == 0 {
		return errs.Conflictf("upload %s is not in state %s at epoch %s", uploadID, from, concurrentID)
	}
	return nil
}

// DeleteUpload removes the Upload row. Chunk rows are deleted separately via
// DeleteChunks by the caller, which also owns blob-prefix cleanup.
func (c *Catalog) DeleteUpload(ctx context.Context, uploadID domain.ID) error {
	if _, err := c.uploads.DeleteOne(ctx, bson.D{{Key: "_id", Value: uploadID}}); err != nil {
		return errs.Unavailable("catalog", err)
	}
	return nil
}
