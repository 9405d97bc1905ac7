package config

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nextmu/updateservice/pkg/storage"
	"github.com/nextmu/updateservice/pkg/storage/gcs"
	"github.com/nextmu/updateservice/pkg/storage/local"
	"github.com/nextmu/updateservice/pkg/storage/s3"
)

// BuildStorage dispatches a StorageConfig to the concrete storage.Store its
// Provider selects, the application-shell side of storage.New's dispatch
// table. Stores are process-singletons built at startup and injected into
// the core components.
func BuildStorage(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	kind, err := storageKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return storage.New(ctx, storage.Config{
		Kind:    kind,
		Bucket:  cfg.Bucket,
		Subpath: cfg.Subpath,
		Local: local.Config{
			RootDir: cfg.RootDir,
		},
		AWS: s3.Config{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			ForcePathStyle:  cfg.ForcePathStyle,
			PartSize:        int64(cfg.PartSize),
		},
		GCP: gcs.Config{
			CredentialsFile: cfg.CredentialsFile,
		},
	})
}

func storageKind(p StorageProvider) (storage.Kind, error) {
	switch p {
	case StorageLocal:
		return storage.Local, nil
	case StorageAWS:
		return storage.AWS, nil
	case StorageGCP:
		return storage.GCP, nil
	default:
		return "", fmt.Errorf("config: unknown storage provider %q", p)
	}
}

// BuildRedisClient constructs the shared Redis client backing the manifest
// cache and the job queue; both read the same REDIS_* connection block.
func BuildRedisClient(cfg RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.User,
		Password: cfg.Pass,
	}
	if cfg.SSL {
		opts.TLSConfig = tlsConfigForRedis()
	}
	return redis.NewClient(opts)
}

func tlsConfigForRedis() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}
