// Package resolver computes delta-update manifests: given a client's
// current version tuple, OS, and texture family, it returns the
// deduplicated set of files the client must fetch to reach the newest READY
// version, memoizing the result in the manifest cache.
package resolver

import (
	"context"

	"github.com/nextmu/updateservice/internal/telemetry"
	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/manifestcache"
)

// Resolver computes manifests against the catalog, memoizing through cache.
type Resolver struct {
	catalog *catalog.Catalog
	cache   *manifestcache.Cache
}

// New builds a Resolver.
func New(cat *catalog.Catalog, cache *manifestcache.Cache) *Resolver {
	return &Resolver{catalog: cat, cache: cache}
}

// Resolve walks the READY versions above the client's tuple, collects the
// files relevant to its platform, dedups them newest-wins by local path,
// and returns the manifest targeting the newest version.
func (r *Resolver) Resolve(ctx context.Context, major, minor, revision int, os domain.OS, texture domain.Texture) (domain.Manifest, error) {
	ctx, span := telemetry.StartResolveSpan(ctx, int(os), int(texture),
		telemetry.VersionTuple(domain.FormatVersionTuple(major, minor, revision)))
	defer span.End()

	versions, err := r.catalog.ReadyVersionsAfter(ctx, major, minor, revision)
	if err != nil {
		return domain.Manifest{}, err
	}
	if len(versions) == 0 {
		return domain.Manifest{
			Version: domain.FormatVersionTuple(major, minor, revision),
			Files:   []domain.ManifestFile{},
		}, nil
	}

	source := versions[0]
	target := versions[len(versions)-1]
	cacheKey := manifestcache.Key(source.String(), target.String(), os, texture)

	if cached, hit, err := r.cache.Get(ctx, cacheKey); err != nil {
		return domain.Manifest{}, err
	} else if hit {
		telemetry.SetAttributes(ctx, telemetry.CacheHit(true), telemetry.CacheKey(cacheKey))
		return *cached, nil
	}
	telemetry.SetAttributes(ctx, telemetry.CacheHit(false), telemetry.CacheKey(cacheKey))

	relevant := domain.RelevantCategories(os, texture)

	versionIDs := make([]domain.ID, len(versions))
	createdAt := make(map[domain.ID]int64, len(versions))
	for i, v := range versions {
		versionIDs[i] = v.VersionID
		createdAt[v.VersionID] = v.CreatedAt.UnixNano()
	}

	rows, err := r.catalog.ListFilesForVersions(ctx, versionIDs, relevant)
	if err != nil {
		return domain.Manifest{}, err
	}

	manifest := domain.Manifest{Version: target.String(), Files: dedupNewestWins(rows, createdAt)}
	if err := r.cache.Set(ctx, cacheKey, manifest); err != nil {
		return domain.Manifest{}, err
	}
	return manifest, nil
}

// dedupNewestWins collapses the candidate rows by local_path, keeping the
// file whose owning version has the latest created_at (createdAt maps each
// version id to its creation time in nanoseconds). The returned order is
// unspecified; callers treat the file list as a set.
func dedupNewestWins(rows []domain.UpdateFile, createdAt map[domain.ID]int64) []domain.ManifestFile {
	deduped := make(map[string]domain.UpdateFile, len(rows))
	for _, f := range rows {
		existing, ok := deduped[f.LocalPath]
		if !ok || createdAt[f.VersionID] > createdAt[existing.VersionID] {
			deduped[f.LocalPath] = f
		}
	}

	files := make([]domain.ManifestFile, 0, len(deduped))
	for _, f := range deduped {
		files = append(files, domain.ManifestFile{
			UrlPath:      f.VersionID.Upper(),
			LocalPath:    f.LocalPath,
			Filename:     f.FileName,
			Extension:    f.Extension,
			PackedSize:   f.PackedSize,
			OriginalSize: f.FileSize,
			CRC32:        f.CRC32,
		})
	}
	return files
}
