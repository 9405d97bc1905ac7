// Package gcs implements the GCP Store backend on Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/nextmu/updateservice/pkg/bufpool"
	updatestorage "github.com/nextmu/updateservice/pkg/storage"
)

// Config configures the GCP backend.
type Config struct {
	Bucket          string
	KeyPrefix       string
	CredentialsFile string
}

// Build constructs a GCS client and verifies bucket access.
func (c Config) Build(ctx context.Context) (*Store, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}

	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}

	bucket := client.Bucket(c.Bucket)
	if _, err := bucket.Attrs(ctx); err != nil {
		return nil, fmt.Errorf("gcs: access bucket %q: %w", c.Bucket, err)
	}

	return &Store{client: client, bucket: bucket, keyPrefix: c.KeyPrefix}, nil
}

// Store is a GCP Cloud Storage storage.Store.
type Store struct {
	client    *storage.Client
	bucket    *storage.BucketHandle
	keyPrefix string
}

var _ updatestorage.Store = (*Store)(nil)

func (s *Store) key(k string) string {
	k = updatestorage.NormalizeKey(k)
	if s.keyPrefix == "" {
		return k
	}
	return strings.TrimSuffix(s.keyPrefix, "/") + "/" + strings.TrimPrefix(k, "/")
}

// DeleteFolder removes every object under prefix.
func (s *Store) DeleteFolder(ctx context.Context, prefix string) error {
	fullPrefix := s.key(prefix)
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: fullPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gcs: list objects under %q: %w", prefix, err)
		}
		if err := s.bucket.Object(attrs.Name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			return fmt.Errorf("gcs: delete object %q: %w", attrs.Name, err)
		}
	}
}

// DownloadFile fetches srcKey into dstPath atomically.
func (s *Store) DownloadFile(ctx context.Context, srcKey, dstPath string, progress updatestorage.ProgressFunc) error {
	if progress == nil {
		progress = updatestorage.NoProgress
	}
	r, err := s.bucket.Object(s.key(srcKey)).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("gcs: get object %q: %w", srcKey, err)
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("gcs: mkdir for download: %w", err)
	}
	tmp := dstPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("gcs: create temp file: %w", err)
	}
	if _, err := bufpool.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("gcs: download %q: %w", srcKey, err)
	}
	f.Close()
	if err := os.Rename(tmp, dstPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gcs: finalize download %q: %w", srcKey, err)
	}
	progress(1.0)
	return nil
}

// DownloadFolder downloads every object under srcPrefix into dstDir with
// bounded fan-out.
func (s *Store) DownloadFolder(ctx context.Context, srcPrefix, dstDir string, progress updatestorage.ProgressFunc) error {
	if progress == nil {
		progress = updatestorage.NoProgress
	}
	fullPrefix := s.key(srcPrefix)

	var names []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: fullPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("gcs: list objects under %q: %w", srcPrefix, err)
		}
		names = append(names, attrs.Name)
	}

	return fanOut(ctx, len(names), func(i int) error {
		name := names[i]
		rel := strings.TrimPrefix(strings.TrimPrefix(name, fullPrefix), "/")
		dst := filepath.Join(dstDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		r, err := s.bucket.Object(name).NewReader(ctx)
		if err != nil {
			return fmt.Errorf("gcs: get object %q: %w", name, err)
		}
		defer r.Close()
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = bufpool.Copy(f, r)
		return err
	}, progress)
}

// UploadFile uploads srcPath to dstKey.
func (s *Store) UploadFile(ctx context.Context, srcPath, dstKey string, progress updatestorage.ProgressFunc) error {
	if progress == nil {
		progress = updatestorage.NoProgress
	}
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("gcs: open %q: %w", srcPath, err)
	}
	defer f.Close()

	w := s.bucket.Object(s.key(dstKey)).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("gcs: upload %q: %w", dstKey, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: finalize upload %q: %w", dstKey, err)
	}
	progress(1.0)
	return nil
}

// UploadBuffer uploads an in-memory buffer to dstKey.
func (s *Store) UploadBuffer(ctx context.Context, data []byte, dstKey string, progress updatestorage.ProgressFunc) error {
	if progress == nil {
		progress = updatestorage.NoProgress
	}
	w := s.bucket.Object(s.key(dstKey)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("gcs: upload buffer %q: %w", dstKey, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: finalize upload buffer %q: %w", dstKey, err)
	}
	progress(1.0)
	return nil
}

// UploadFolder uploads every file under srcDir to dstPrefix with bounded
// fan-out.
func (s *Store) UploadFolder(ctx context.Context, srcDir, dstPrefix string, progress updatestorage.ProgressFunc) error {
	if progress == nil {
		progress = updatestorage.NoProgress
	}

	var files []string
	err := filepath.WalkDir(srcDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(srcDir, p)
			if relErr != nil {
				return relErr
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gcs: enumerate upload dir %q: %w", srcDir, err)
	}

	return fanOut(ctx, len(files), func(i int) error {
		rel := files[i]
		dstKey := strings.TrimSuffix(dstPrefix, "/") + "/" + filepath.ToSlash(rel)
		return s.UploadFile(ctx, filepath.Join(srcDir, rel), dstKey, updatestorage.NoProgress)
	}, progress)
}

func fanOut(ctx context.Context, n int, fn func(i int) error, progress updatestorage.ProgressFunc) error {
	if n == 0 {
		progress(1.0)
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(updatestorage.MaxFolderConcurrency)

	var mu sync.Mutex
	done := 0
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
			mu.Lock()
			done++
			progress(float64(done) / float64(n))
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
