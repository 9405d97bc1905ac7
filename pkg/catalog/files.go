package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
)

// ListFilesForVersions streams every UpdateFile row belonging to one of
// versionIDs whose category is in the relevant set, forming the resolver's
// candidate set. Reads here are outside any transaction and are
// read-committed.
func (c *Catalog) ListFilesForVersions(ctx context.Context, versionIDs []domain.ID, relevant map[domain.Category]bool) ([]domain.UpdateFile, error) {
	categories := make([]domain.Category, 0, len(relevant))
	for cat, ok := range relevant {
		if ok {
			categories = append(categories, cat)
		}
	}

	filter := bson.D{
		{Key: "version_id", Value: bson.D{{Key: "$in", Value: versionIDs}}},
		{Key: "category", Value: bson.D{{Key: "$in", Value: categories}}},
	}
	cur, err := c.files.Find(ctx, filter)
	if err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	defer cur.Close(ctx)

	var files []domain.UpdateFile
	if err := cur.All(ctx, &files); err != nil {
		return nil, errs.Unavailable("catalog", err)
	}
	return files, nil
}

// CountFiles returns the number of UpdateFile rows belonging to versionID,
// used by the version-fetch response's filesCount field.
func (c *Catalog) CountFiles(ctx context.Context, versionID domain.ID) (int64, error) {
	n, err := c.files.CountDocuments(ctx, bson.D{{Key: "version_id", Value: versionID}})
	if err != nil {
		return 0, errs.Unavailable("catalog", err)
	}
	return n, nil
}
