// Package s3 implements the AWS (and S3-compatible) Store backend.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/nextmu/updateservice/pkg/bufpool"
	"github.com/nextmu/updateservice/pkg/storage"
)

// Config configures the AWS backend.
type Config struct {
	Bucket    string
	KeyPrefix string

	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool

	// PartSize controls the multipart upload threshold and part size.
	// Files >= PartSize use multipart upload. Must be between 5MB and 5GB.
	// Default: 5MB, matching the AWS minimum part size.
	PartSize int64
}

const (
	defaultPartSize = 5 * 1024 * 1024
	minPartSize     = 5 * 1024 * 1024
	maxPartSize     = 5 * 1024 * 1024 * 1024
)

// Build constructs an S3 client from cfg and verifies bucket access.
func (c Config) Build(ctx context.Context) (*Store, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	partSize := c.PartSize
	if partSize == 0 {
		partSize = defaultPartSize
	}
	if partSize < minPartSize || partSize > maxPartSize {
		return nil, fmt.Errorf("s3: part size must be between 5MB and 5GB, got %d", partSize)
	}

	client, err := newClient(ctx, c)
	if err != nil {
		return nil, err
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.Bucket)}); err != nil {
		return nil, fmt.Errorf("s3: access bucket %q: %w", c.Bucket, err)
	}

	return &Store{
		client:    client,
		bucket:    c.Bucket,
		keyPrefix: c.KeyPrefix,
		partSize:  partSize,
	}, nil
}

func newClient(ctx context.Context, c Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.ForcePathStyle
	}), nil
}

// Store is an AWS S3 (or S3-compatible) storage.Store.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	partSize  int64
}

var _ storage.Store = (*Store)(nil)

func (s *Store) key(k string) string {
	k = storage.NormalizeKey(k)
	if s.keyPrefix == "" {
		return k
	}
	return strings.TrimSuffix(s.keyPrefix, "/") + "/" + strings.TrimPrefix(k, "/")
}

// DeleteFolder removes all objects under prefix in batches of 1000 (the S3
// DeleteObjects limit).
func (s *Store) DeleteFolder(ctx context.Context, prefix string) error {
	fullPrefix := s.key(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3: list objects for delete %q: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		objs := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objs = append(objs, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objs},
		})
		if err != nil {
			return fmt.Errorf("s3: delete objects under %q: %w", prefix, err)
		}
	}
	return nil
}

// DownloadFile fetches srcKey into dstPath atomically.
func (s *Store) DownloadFile(ctx context.Context, srcKey, dstPath string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(srcKey)),
	})
	if err != nil {
		return fmt.Errorf("s3: get object %q: %w", srcKey, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("s3: mkdir for download: %w", err)
	}
	tmp := dstPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("s3: create temp file: %w", err)
	}
	if _, err := bufpool.Copy(f, out.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("s3: download %q: %w", srcKey, err)
	}
	f.Close()
	if err := os.Rename(tmp, dstPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("s3: finalize download %q: %w", srcKey, err)
	}
	progress(1.0)
	return nil
}

// DownloadFolder downloads every object under srcPrefix into dstDir with
// bounded fan-out.
func (s *Store) DownloadFolder(ctx context.Context, srcPrefix, dstDir string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	fullPrefix := s.key(srcPrefix)

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3: list objects for download %q: %w", srcPrefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return fanOut(ctx, len(keys), func(i int) error {
		fullKey := keys[i]
		rel := strings.TrimPrefix(strings.TrimPrefix(fullKey, fullPrefix), "/")
		dst := filepath.Join(dstDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(fullKey)})
		if err != nil {
			return fmt.Errorf("s3: get object %q: %w", fullKey, err)
		}
		defer out.Body.Close()
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = bufpool.Copy(f, out.Body)
		return err
	}, progress)
}

// UploadFile uploads srcPath to dstKey, using multipart when the file is at
// least partSize.
func (s *Store) UploadFile(ctx context.Context, srcPath, dstKey string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("s3: stat %q: %w", srcPath, err)
	}
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if info.Size() < s.partSize {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(dstKey)),
			Body:   f,
		})
		if err != nil {
			return fmt.Errorf("s3: put object %q: %w", dstKey, err)
		}
		progress(1.0)
		return nil
	}
	return s.multipartUpload(ctx, f, info.Size(), dstKey, progress)
}

// UploadBuffer uploads an in-memory buffer to dstKey.
func (s *Store) UploadBuffer(ctx context.Context, data []byte, dstKey string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(dstKey)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3: put buffer %q: %w", dstKey, err)
	}
	progress(1.0)
	return nil
}

// UploadFolder uploads every file under srcDir to dstPrefix with bounded
// fan-out.
func (s *Store) UploadFolder(ctx context.Context, srcDir, dstPrefix string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
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
		return fmt.Errorf("s3: enumerate upload dir %q: %w", srcDir, err)
	}

	return fanOut(ctx, len(files), func(i int) error {
		rel := files[i]
		dstKey := strings.TrimSuffix(dstPrefix, "/") + "/" + filepath.ToSlash(rel)
		return s.UploadFile(ctx, filepath.Join(srcDir, rel), dstKey, storage.NoProgress)
	}, progress)
}

func fanOut(ctx context.Context, n int, fn func(i int) error, progress storage.ProgressFunc) error {
	if n == 0 {
		progress(1.0)
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storage.MaxFolderConcurrency)

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
