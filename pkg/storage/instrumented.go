package storage

import (
	"context"
	"time"

	"github.com/nextmu/updateservice/pkg/metrics"
)

// Instrument wraps next so every operation reports duration, error, and
// byte counts through m. A nil m (metrics disabled) returns next unchanged,
// so there is zero overhead when metrics are off.
func Instrument(name string, next Store, m metrics.StorageMetrics) Store {
	if m == nil {
		return next
	}
	return &instrumentedStore{name: name, next: next, metrics: m}
}

type instrumentedStore struct {
	name    string
	next    Store
	metrics metrics.StorageMetrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(s.name, op, time.Since(start), err)
}

func (s *instrumentedStore) DeleteFolder(ctx context.Context, prefix string) error {
	start := time.Now()
	err := s.next.DeleteFolder(ctx, prefix)
	s.observe("delete_folder", start, err)
	return err
}

func (s *instrumentedStore) DownloadFile(ctx context.Context, srcKey, dstPath string, progress ProgressFunc) error {
	start := time.Now()
	err := s.next.DownloadFile(ctx, srcKey, dstPath, progress)
	s.observe("download_file", start, err)
	return err
}

func (s *instrumentedStore) DownloadFolder(ctx context.Context, srcPrefix, dstDir string, progress ProgressFunc) error {
	start := time.Now()
	err := s.next.DownloadFolder(ctx, srcPrefix, dstDir, progress)
	s.observe("download_folder", start, err)
	return err
}

func (s *instrumentedStore) UploadFile(ctx context.Context, srcPath, dstKey string, progress ProgressFunc) error {
	start := time.Now()
	err := s.next.UploadFile(ctx, srcPath, dstKey, progress)
	s.observe("upload_file", start, err)
	return err
}

func (s *instrumentedStore) UploadBuffer(ctx context.Context, data []byte, dstKey string, progress ProgressFunc) error {
	start := time.Now()
	err := s.next.UploadBuffer(ctx, data, dstKey, progress)
	s.observe("upload_buffer", start, err)
	if err == nil {
		s.metrics.RecordBytes(s.name, "upload_buffer", int64(len(data)))
	}
	return err
}

func (s *instrumentedStore) UploadFolder(ctx context.Context, srcDir, dstPrefix string, progress ProgressFunc) error {
	start := time.Now()
	err := s.next.UploadFolder(ctx, srcDir, dstPrefix, progress)
	s.observe("upload_folder", start, err)
	return err
}
