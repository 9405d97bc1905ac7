package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/nextmu/updateservice/cmd/updatectl/cmdutil"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/rpcapi"
	"github.com/spf13/cobra"
)

var uploadChunkSize int64

var uploadCmd = &cobra.Command{
	Use:   "upload <id> <file>",
	Short: "Upload a release payload in chunks over gRPC",
	Long: `Upload a version's packaged zip archive, splitting it into
fixed-size chunks and driving StartUploadVersion/UploadVersionChunk over
the gRPC surface rather than the REST API.

If a previous attempt with the same hash and chunk size was interrupted,
only the missing ranges are resent. Changing the file (a different hash)
or the chunk size rotates the upload's concurrent epoch and restarts it
from scratch.

Examples:
  updatectl upload 60f1a9c3... build.zip
  updatectl upload 60f1a9c3... build.zip --chunk-size 65536`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Int64Var(&uploadChunkSize, "chunk-size", domain.MinChunkSize*4, "Chunk size in bytes, a power of two in [16KiB, 512KiB]")
}

func runUpload(cmd *cobra.Command, args []string) error {
	versionID := args[0]
	path := args[1]

	if !domain.ValidChunkSize(uploadChunkSize) {
		return fmt.Errorf("--chunk-size must be a power of two between %d and %d", domain.MinChunkSize, domain.MaxChunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	fileSize := info.Size()
	if !domain.ValidFileSize(fileSize) {
		return fmt.Errorf("%s is %d bytes, outside the allowed range [%d, %d]", path, fileSize, domain.MinFileSize, domain.MaxFileSize)
	}

	hash, err := hashFile(f)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	addr, err := cmdutil.GetGRPCAddr()
	if err != nil {
		return err
	}
	token, err := cmdutil.GetToken()
	if err != nil {
		return err
	}

	client, err := rpcapi.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer func() { _ = client.Close() }()
	client = client.WithToken(token)

	ctx := context.Background()
	start, err := client.StartUploadVersion(ctx, &rpcapi.StartUploadVersionRequest{
		VersionID: versionID,
		Hash:      hash,
		ChunkSize: uploadChunkSize,
		FileSize:  fileSize,
	})
	if err != nil {
		return fmt.Errorf("failed to start upload: %w", err)
	}

	if len(start.MissingRanges) == 0 {
		fmt.Println("Nothing to upload, all chunks already present.")
		return nil
	}

	total := 0
	for _, r := range start.MissingRanges {
		total += int(r.End-r.Start) + 1
	}
	fmt.Printf("Uploading %d/%d missing chunks...\n", total, domain.ChunksCount(fileSize, uploadChunkSize))

	sent := 0
	for _, r := range start.MissingRanges {
		for offset := r.Start; offset <= r.End; offset++ {
			chunk, err := readChunk(f, offset, uploadChunkSize, fileSize)
			if err != nil {
				return fmt.Errorf("failed to read chunk %d: %w", offset, err)
			}

			resp, err := client.UploadVersionChunk(ctx, &rpcapi.UploadVersionChunkRequest{
				UploadID:     start.UploadID,
				ConcurrentID: start.ConcurrentID,
				Offset:       offset,
				Data:         chunk,
			})
			if err != nil {
				return fmt.Errorf("failed to upload chunk %d: %w", offset, err)
			}
			sent++
			if resp.Finished {
				fmt.Printf("Uploaded %d/%d chunks. Upload complete, version will move to READY once processed.\n", sent, total)
				return nil
			}
		}
	}

	fmt.Printf("Uploaded %d/%d chunks.\n", sent, total)
	return nil
}

func hashFile(f *os.File) (string, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readChunk(f *os.File, offset, chunkSize, fileSize int64) ([]byte, error) {
	chunksCount := domain.ChunksCount(fileSize, chunkSize)
	length := domain.ChunkByteLength(offset, chunksCount, chunkSize, fileSize)
	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset*chunkSize); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
