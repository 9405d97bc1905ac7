package storage

import (
	"context"
	"fmt"

	"github.com/nextmu/updateservice/pkg/storage/gcs"
	"github.com/nextmu/updateservice/pkg/storage/local"
	"github.com/nextmu/updateservice/pkg/storage/s3"
)

// Config selects and configures one backend. Exactly one of the
// provider-specific sub-configs is read, chosen by Kind.
type Config struct {
	Kind Kind

	Bucket  string
	Subpath string

	Local local.Config
	AWS   s3.Config
	GCP   gcs.Config
}

// New dispatches to the constructor for cfg.Kind. This is the single
// dispatch table the tagged union is modeled through — no type assertions
// or interface-embedding polymorphism anywhere else in the codebase.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case Local:
		lc := cfg.Local
		if lc.RootDir == "" {
			lc.RootDir = cfg.Subpath
		}
		return lc.Build()
	case AWS:
		ac := cfg.AWS
		ac.Bucket = cfg.Bucket
		ac.KeyPrefix = cfg.Subpath
		return ac.Build(ctx)
	case GCP:
		gc := cfg.GCP
		gc.Bucket = cfg.Bucket
		gc.KeyPrefix = cfg.Subpath
		return gc.Build(ctx)
	default:
		return nil, fmt.Errorf("storage: unknown backend kind %q", cfg.Kind)
	}
}
