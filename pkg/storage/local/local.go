// Package local implements the filesystem Store backend.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nextmu/updateservice/pkg/bufpool"
	"github.com/nextmu/updateservice/pkg/storage"
)

// Config configures the filesystem backend. RootDir is the local directory
// blob keys are resolved relative to.
type Config struct {
	RootDir string

	// DirMode is the permission mode for created directories. Default: 0755.
	DirMode os.FileMode
	// FileMode is the permission mode for written files. Default: 0644.
	FileMode os.FileMode
}

// Build constructs a Store backed by this config, creating RootDir if
// needed.
func (c Config) Build() (*Store, error) {
	if c.RootDir == "" {
		return nil, errors.New("local: root directory is required")
	}
	if c.DirMode == 0 {
		c.DirMode = 0755
	}
	if c.FileMode == 0 {
		c.FileMode = 0644
	}
	if err := os.MkdirAll(c.RootDir, c.DirMode); err != nil {
		return nil, fmt.Errorf("local: create root dir: %w", err)
	}
	return &Store{root: c.RootDir, dirMode: c.DirMode, fileMode: c.FileMode}, nil
}

// Store is a filesystem-backed storage.Store. Keys are joined onto root
// after normalizing to forward slashes and converting to the host's
// separator. Writes go through a temp file and a rename, so concurrent
// transfers of distinct keys need no locking.
type Store struct {
	root     string
	dirMode  os.FileMode
	fileMode os.FileMode
}

var _ storage.Store = (*Store)(nil)

func (s *Store) path(key string) string {
	clean := storage.NormalizeKey(key)
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// DeleteFolder removes everything under prefix. Idempotent: a missing
// directory is not an error.
func (s *Store) DeleteFolder(_ context.Context, prefix string) error {
	err := os.RemoveAll(s.path(prefix))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local: delete folder %q: %w", prefix, err)
	}
	return nil
}

// DownloadFile copies srcKey to dstPath, writing to a temp file first and
// renaming into place so a failed copy never leaves a partial destination.
func (s *Store) DownloadFile(ctx context.Context, srcKey, dstPath string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	srcPath := s.path(srcKey)

	if err := os.MkdirAll(filepath.Dir(dstPath), s.dirMode); err != nil {
		return fmt.Errorf("local: mkdir for download: %w", err)
	}

	tmp := dstPath + ".tmp"
	if err := copyFile(ctx, srcPath, tmp, s.fileMode, progress); err != nil {
		os.Remove(tmp)
		os.Remove(dstPath)
		return fmt.Errorf("local: download %q: %w", srcKey, err)
	}
	if err := os.Rename(tmp, dstPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local: finalize download %q: %w", srcKey, err)
	}
	progress(1.0)
	return nil
}

// DownloadFolder copies every regular file under srcPrefix into dstDir,
// preserving relative structure, with bounded fan-out.
func (s *Store) DownloadFolder(ctx context.Context, srcPrefix, dstDir string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	root := s.path(srcPrefix)

	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return relErr
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			progress(1.0)
			return nil
		}
		return fmt.Errorf("local: enumerate folder %q: %w", srcPrefix, err)
	}

	return fanOut(ctx, len(files), func(i int) error {
		rel := files[i]
		dst := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), s.dirMode); err != nil {
			return err
		}
		return copyFile(ctx, filepath.Join(root, rel), dst, s.fileMode, storage.NoProgress)
	}, progress)
}

// UploadFile copies srcPath to dstKey.
func (s *Store) UploadFile(ctx context.Context, srcPath, dstKey string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	dst := s.path(dstKey)
	if err := os.MkdirAll(filepath.Dir(dst), s.dirMode); err != nil {
		return fmt.Errorf("local: mkdir for upload: %w", err)
	}
	tmp := dst + ".tmp"
	if err := copyFile(ctx, srcPath, tmp, s.fileMode, progress); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local: upload %q: %w", dstKey, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local: finalize upload %q: %w", dstKey, err)
	}
	progress(1.0)
	return nil
}

// UploadBuffer writes an in-memory buffer to dstKey.
func (s *Store) UploadBuffer(_ context.Context, data []byte, dstKey string, progress storage.ProgressFunc) error {
	if progress == nil {
		progress = storage.NoProgress
	}
	dst := s.path(dstKey)
	if err := os.MkdirAll(filepath.Dir(dst), s.dirMode); err != nil {
		return fmt.Errorf("local: mkdir for upload: %w", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, s.fileMode); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local: upload buffer %q: %w", dstKey, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("local: finalize upload buffer %q: %w", dstKey, err)
	}
	progress(1.0)
	return nil
}

// UploadFolder uploads every regular file under srcDir to dstPrefix,
// preserving relative structure, with bounded fan-out.
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
		return fmt.Errorf("local: enumerate upload dir %q: %w", srcDir, err)
	}

	return fanOut(ctx, len(files), func(i int) error {
		rel := files[i]
		dstKey := strings.TrimSuffix(dstPrefix, "/") + "/" + filepath.ToSlash(rel)
		return s.UploadFile(ctx, filepath.Join(srcDir, rel), dstKey, storage.NoProgress)
	}, progress)
}

func copyFile(ctx context.Context, srcPath, dstPath string, mode os.FileMode, progress storage.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := bufpool.Copy(dst, src); err != nil {
		return err
	}
	progress(1.0)
	return nil
}

// fanOut runs fn(i) for i in [0,n) with bounded concurrency, reporting
// coarse-grained progress as each item completes.
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
