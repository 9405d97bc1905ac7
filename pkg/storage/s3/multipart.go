package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/nextmu/updateservice/pkg/bufpool"
	"github.com/nextmu/updateservice/pkg/storage"
)

// multipartUpload performs a bounded-concurrency multipart upload of r
// (sized size) to dstKey, aborting the session on any part failure.
func (s *Store) multipartUpload(ctx context.Context, r io.ReaderAt, size int64, dstKey string, progress storage.ProgressFunc) error {
	key := s.key(dstKey)

	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: create multipart upload %q: %w", dstKey, err)
	}
	uploadID := aws.ToString(created.UploadId)

	numParts := int((size + s.partSize - 1) / s.partSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storage.MaxFolderConcurrency)

	var mu sync.Mutex
	parts := make([]types.CompletedPart, 0, numParts)
	var uploaded int64

	for part := 0; part < numParts; part++ {
		part := part
		g.Go(func() error {
			offset := int64(part) * s.partSize
			length := s.partSize
			if offset+length > size {
				length = size - offset
			}
			buf := bufpool.Get(int(length))
			defer bufpool.Put(buf)
			if _, err := r.ReadAt(buf, offset); err != nil && err != io.EOF {
				return fmt.Errorf("s3: read part %d: %w", part+1, err)
			}

			out, err := s.client.UploadPart(gctx, &s3.UploadPartInput{
				Bucket:     aws.String(s.bucket),
				Key:        aws.String(key),
				UploadId:   aws.String(uploadID),
				PartNumber: aws.Int32(int32(part + 1)),
				Body:       bytes.NewReader(buf),
			})
			if err != nil {
				return fmt.Errorf("s3: upload part %d: %w", part+1, err)
			}

			mu.Lock()
			parts = append(parts, types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(int32(part + 1))})
			uploaded += length
			progress(float64(uploaded) / float64(size))
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_, _ = s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket: aws.String(s.bucket), Key: aws.String(key), UploadId: aws.String(uploadID),
		})
		return err
	}

	sort.Slice(parts, func(i, j int) bool { return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber) })

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return fmt.Errorf("s3: complete multipart upload %q: %w", dstKey, err)
	}
	return nil
}
