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

// allocateTuple atomically reads the current max (major, minor, revision)
// from the single counters document and writes the tuple incremented at
// bump's slot, in one aggregation-pipeline upsert. No separate lock
// collection is involved.
func (c *Catalog) allocateTuple(ctx context.Context, bump domain.BumpType) (major, minor, revision int, err error) {
	filter := bson.D{{Key: "_id", Value: countersDocID}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "major", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$$bump", int(domain.BumpMajor)}}},
				bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$major", 0}}}, 1}}},
				bson.D{{Key: "$ifNull", Value: bson.A{"$major", 0}}},
			}}}},
			{Key: "minor", Value: bson.D{{Key: "$switch", Value: bson.D{
				{Key: "branches", Value: bson.A{
					bson.D{
						{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{"$$bump", int(domain.BumpMajor)}}}},
						{Key: "then", Value: 0},
					},
					bson.D{
						{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{"$$bump", int(domain.BumpMinor)}}}},
						{Key: "then", Value: bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$minor", 0}}}, 1}}}},
					},
				}},
				{Key: "default", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$minor", 0}}}},
			}}}},
			{Key: "revision", Value: bson.D{{Key: "$switch", Value: bson.D{
				{Key: "branches", Value: bson.A{
					bson.D{
						{Key: "case", Value: bson.D{{Key: "$in", Value: bson.A{"$$bump", bson.A{int(domain.BumpMajor), int(domain.BumpMinor)}}}}},
						{Key: "then", Value: 0},
					},
				}},
				{Key: "default", Value: bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$revision", 0}}}, 1}}}},
			}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetLet(bson.M{"bump": int(bump)})

	var doc struct {
		Major    int `bson:"major"`
		Minor    int `bson:"minor"`
		Revision int `bson:"revision"`
	}
	if err := c.counters.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&doc); err != nil {
		return 0, 0, 0, errs.Unavailable("catalog", err)
	}
	return doc.Major, doc.Minor, doc.Revision, nil
}

// CreateVersion allocates the next semantic tuple for bump and inserts a new
// PENDING Version.
func (c *Catalog) CreateVersion(ctx context.Context, bump domain.BumpType, description string) (domain.Version, error) {
	major, minor, revision, err := c.allocateTuple(ctx, bump)
	if err != nil {
		return domain.Version{}, err
	}

	now := time.Now().UTC()
	v := domain.Version{
		VersionID:   domain.NewID(),
		Major:       major,
		Minor:       minor,
		Revision:    revision,
		Description: description,
		State:       domain.VersionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := c.versions.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Version{}, errs.Conflictf("version %s already allocated", v.String())
		}
		return domain.Version{}, errs.Unavailable("catalog", err)
	}
	return v, nil
}

// FetchVersion finds a Version by its primary key.
func (c *Catalog) FetchVersion(ctx context.Context, id domain.ID) (domain.Version, error) {
	var v domain.Version
	err := c.versions.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Version{}, errs.NotFoundf("version %s not found", id)
	}
	if err != nil {
		return domain.Version{}, errs.Unavailable("catalog", err)
	}
	return v, nil
}

// EditVersionDescription updates a Version's description in place.
func (c *Catalog) EditVersionDescription(ctx context.Context, id domain.ID, description string) error {
	res, err := c.versions.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "description", Value: description},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return errs.Unavailable("catalog", err)
	}
	if res.MatchedCount == 0 {
		return errs.NotFoundf("version %s not found", id)
	}
	return nil
}

// ListVersions returns a page of Versions ordered by created_at descending
// (newest first, matching the manager UI's expectation), plus the total
// count across all pages.
func (c *Catalog) ListVersions(ctx context.Context, page, size int64) ([]domain.Version, int64, error) {
	total, err := c.versions.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, errs.Unavailable("catalog", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page * size).
		SetLimit(size)
	cur, err := c.versions.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, 0, errs.Unavailable("catalog", err)
	}
	defer cur.Close(ctx)

	var versions []domain.Version
	if err := cur.All(ctx, &versions); err != nil {
		return nil, 0, errs.Unavailable("catalog", err)
	}
	return versions, total, nil
}

// CASVersionState compare-and-sets a Version's state from `from` to `to`,
// returning errs.Conflict if the document is not currently in `from`.
func (c *Catalog) CASVersionState(ctx context.Context, id domain.ID, from, to domain.VersionState) error {
	res, err := c.versions.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "state", Value: from}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "state", Value: to},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return errs.Unavailable("catalog", err)
	}
	if res.MatchedCount == 0 {
		return errs.Conflictf("version %s is not in state %s", id, from)
	}
	return nil
}

// ReadyVersionsAfter returns READY versions whose tuple strictly exceeds
// (major, minor, revision), ordered by created_at ascending — the candidate
// set the resolver walks from source to target.
func (c *Catalog) ReadyVersionsAfter(ctx context.Context, major, minor, revision int) ([]domain.Version, error) {
	filter := bson.D{
		{Key: "state", Value: domain.VersionReady},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "major", Value: bson.D{{Key: "$gt", Value: major}}}},
			bson.D{
				{Key: "major", Value: major},
				{Key: "minor", Value: bson.D{{Key: "$gt", Value: minor}}},
			},
			bson.D{
				{Key: "major", Value: major},
				{Key: "minor", Value: minor},
				{Key: "revision", Value: bson.D{{Key: "$gt", Value: revision}}},
			},
		}},
	}
	cur, err := c.versions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	defer cur.Close(ctx)

	var versions []domain.Version
	if err := cur.All(ctx, &versions); err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	return versions, nil
}

// PublishVersion runs the publish transaction: insert every UpdateFile row
// and CAS the Version from PROCESSING to READY, atomically. Any failure
// aborts the transaction and leaves the Version in PROCESSING for re-drive.
func (c *Catalog) PublishVersion(ctx context.Context, versionID domain.ID, files []domain.UpdateFile) error {
	session, err := c.client.StartSession()
	if err != nil {
		return errs.Unavailable("catalog", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		if len(files) > 0 {
			docs := make([]any, len(files))
			for i := range files {
				docs[i] = files[i]
			}
			if _, err := c.files.InsertMany(sessCtx, docs); err != nil {
				return nil, errs.Unavailable("catalog", err)
			}
		}

		res, err := c.versions.UpdateOne(sessCtx,
			bson.D{{Key: "_id", Value: versionID}, {Key: "state", Value: domain.VersionProcessing}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "state", Value: domain.VersionReady},
				{Key: "updated_at", Value: time.Now().UTC()},
			}}},
		)
		if err != nil {
			return nil, errs.Unavailable("catalog", err)
		}
		if res.MatchedCount == 0 {
			return nil, errs.Conflictf("version %s is not in state %s", versionID, domain.VersionProcessing)
		}
		return nil, nil
	})
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return e
		}
		return errs.Unavailable("catalog", err)
	}
	return nil
}
