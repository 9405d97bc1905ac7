package rpcapi

import (
	"context"

	"github.com/nextmu/updateservice/pkg/catalog"
	"github.com/nextmu/updateservice/pkg/domain"
	"github.com/nextmu/updateservice/pkg/errs"
	"github.com/nextmu/updateservice/pkg/queue"
	"github.com/nextmu/updateservice/pkg/upload"
)

// Server implements UpdateService's RPC bodies against the same core
// components the HTTP handlers use (pkg/api.Handlers), so the two
// transports never drift in behavior.
type Server struct {
	catalog     *catalog.Catalog
	coordinator *upload.Coordinator
	queue       *queue.Queue
}

// New builds a Server.
func New(cat *catalog.Catalog, coord *upload.Coordinator, q *queue.Queue) *Server {
	return &Server{catalog: cat, coordinator: coord, queue: q}
}

func toFetchVersionResponse(v domain.Version, filesCount int64) FetchVersionResponse {
	return FetchVersionResponse{
		ID:            v.VersionID.String(),
		Version:       v.String(),
		Description:   v.Description,
		State:         string(v.State),
		FilesCount:    filesCount,
		CreatedAtUnix: v.CreatedAt.Unix(),
		UpdatedAtUnix: v.UpdatedAt.Unix(),
	}
}

func (s *Server) CreateVersion(ctx context.Context, req *CreateVersionRequest) (*CreateVersionResponse, error) {
	bump, ok := domain.ParseBumpType(req.Type)
	if !ok {
		return nil, errs.Validation("type", "must be one of 0, 1, 2")
	}
	v, err := s.catalog.CreateVersion(ctx, bump, req.Description)
	if err != nil {
		return nil, err
	}
	return &CreateVersionResponse{ID: v.VersionID.String(), Version: v.String()}, nil
}

func (s *Server) EditVersion(ctx context.Context, req *EditVersionRequest) (*EditVersionResponse, error) {
	id, err := domain.ParseID(req.ID)
	if err != nil {
		return nil, errs.Validation("id", "malformed id")
	}
	if err := s.catalog.EditVersionDescription(ctx, id, req.Description); err != nil {
		return nil, err
	}
	return &EditVersionResponse{Success: true}, nil
}

func (s *Server) FetchVersion(ctx context.Context, req *FetchVersionRequest) (*FetchVersionResponse, error) {
	id, err := domain.ParseID(req.ID)
	if err != nil {
		return nil, errs.Validation("id", "malformed id")
	}
	v, err := s.catalog.FetchVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	filesCount, err := s.catalog.CountFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toFetchVersionResponse(v, filesCount)
	return &resp, nil
}

func (s *Server) ListVersions(ctx context.Context, req *ListVersionsRequest) (*ListVersionsResponse, error) {
	if req.Page < 0 {
		return nil, errs.Validation("page", "must be >= 0")
	}
	size := req.Size
	if size == 0 {
		size = 20
	}
	if size < 4 || size > 50 {
		return nil, errs.Validation("size", "must be in [4,50]")
	}
	versions, total, err := s.catalog.ListVersions(ctx, req.Page, size)
	if err != nil {
		return nil, err
	}
	out := make([]FetchVersionResponse, len(versions))
	for i, v := range versions {
		filesCount, err := s.catalog.CountFiles(ctx, v.VersionID)
		if err != nil {
			return nil, err
		}
		out[i] = toFetchVersionResponse(v, filesCount)
	}
	return &ListVersionsResponse{Versions: out, Total: total}, nil
}

func (s *Server) FetchUploads(ctx context.Context, req *FetchUploadsRequest) (*FetchUploadsResponse, error) {
	versionID, err := domain.ParseID(req.VersionID)
	if err != nil {
		return nil, errs.Validation("version_id", "malformed id")
	}
	u, err := s.catalog.FindUploadByVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return &FetchUploadsResponse{
		UploadID:     u.UploadID.String(),
		ConcurrentID: u.ConcurrentID.String(),
		State:        string(u.State),
		ChunkSize:    u.ChunkSize,
		FileSize:     u.FileSize,
	}, nil
}

func (s *Server) StartUploadVersion(ctx context.Context, req *StartUploadVersionRequest) (*StartUploadVersionResponse, error) {
	versionID, err := domain.ParseID(req.VersionID)
	if err != nil {
		return nil, errs.Validation("version_id", "malformed id")
	}
	result, err := s.coordinator.StartUpload(ctx, versionID, req.Hash, req.ChunkSize, req.FileSize)
	if err != nil {
		return nil, err
	}
	ranges := make([]Range, len(result.MissingRanges))
	for i, rg := range result.MissingRanges {
		ranges[i] = Range{Start: rg.Start, End: rg.End}
	}
	return &StartUploadVersionResponse{
		UploadID:      result.UploadID.String(),
		ConcurrentID:  result.ConcurrentID.String(),
		MissingRanges: ranges,
	}, nil
}

func (s *Server) UploadVersionChunk(ctx context.Context, req *UploadVersionChunkRequest) (*UploadVersionChunkResponse, error) {
	uploadID, err := domain.ParseID(req.UploadID)
	if err != nil {
		return nil, errs.Validation("upload_id", "malformed id")
	}
	concurrentID, err := domain.ParseID(req.ConcurrentID)
	if err != nil {
		return nil, errs.Validation("concurrent_id", "malformed id")
	}
	result, err := s.coordinator.UploadChunk(ctx, uploadID, concurrentID, req.Offset, req.Data)
	if err != nil {
		return nil, err
	}
	return &UploadVersionChunkResponse{Finished: result.Finished}, nil
}

func (s *Server) ProcessVersion(ctx context.Context, req *ProcessVersionRequest) (*ProcessVersionResponse, error) {
	id, err := domain.ParseID(req.ID)
	if err != nil {
		return nil, errs.Validation("id", "malformed id")
	}
	if _, err := s.catalog.FetchVersion(ctx, id); err != nil {
		return nil, err
	}
	jobID := queue.ProcessPublishJobID(id)
	job := queue.Job{Kind: queue.KindProcessPublish, ProcessPublish: &queue.ProcessPublishPayload{VersionID: id}}
	if err := s.queue.Enqueue(ctx, jobID, job); err != nil {
		return nil, err
	}
	return &ProcessVersionResponse{JobID: jobID}, nil
}
