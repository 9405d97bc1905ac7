package rpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client is a hand-written UpdateService client mirroring ServiceDesc's
// method set. There is no protoc-generated stub in this repo, so cmd/updatectl
// drives the chunked-upload RPCs through this instead of plain REST.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// DialOption configures Dial.
type DialOption func(*dialConfig)

type dialConfig struct {
	tls bool
}

// WithTLS dials over TLS instead of plaintext.
func WithTLS() DialOption {
	return func(c *dialConfig) { c.tls = true }
}

// Dial connects to an UpdateService gRPC endpoint at addr (host:port).
func Dial(addr string, opts ...DialOption) (*Client, error) {
	cfg := &dialConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var creds grpc.DialOption
	if cfg.tls {
		creds = grpc.WithTransportCredentials(credentials.NewTLS(nil))
	} else {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}

	conn, err := grpc.NewClient(addr, creds,
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))
	if err != nil {
		return nil, fmt.Errorf("rpcapi: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// WithToken returns a client that attaches token as a bearer credential on
// every call, matching UnaryAuthInterceptor's expected metadata key.
func (c *Client) WithToken(token string) *Client {
	return &Client{conn: c.conn, token: token}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ctx(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	fullMethod := fmt.Sprintf("/%s/%s", ServiceName, method)
	if err := c.conn.Invoke(c.ctx(ctx), fullMethod, req, resp); err != nil {
		return fmt.Errorf("rpcapi: %s: %w", method, err)
	}
	return nil
}

func (c *Client) CreateVersion(ctx context.Context, req *CreateVersionRequest) (*CreateVersionResponse, error) {
	resp := new(CreateVersionResponse)
	if err := c.invoke(ctx, "CreateVersion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) EditVersion(ctx context.Context, req *EditVersionRequest) (*EditVersionResponse, error) {
	resp := new(EditVersionResponse)
	if err := c.invoke(ctx, "EditVersion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) FetchVersion(ctx context.Context, req *FetchVersionRequest) (*FetchVersionResponse, error) {
	resp := new(FetchVersionResponse)
	if err := c.invoke(ctx, "FetchVersion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListVersions(ctx context.Context, req *ListVersionsRequest) (*ListVersionsResponse, error) {
	resp := new(ListVersionsResponse)
	if err := c.invoke(ctx, "ListVersions", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) FetchUploads(ctx context.Context, req *FetchUploadsRequest) (*FetchUploadsResponse, error) {
	resp := new(FetchUploadsResponse)
	if err := c.invoke(ctx, "FetchUploads", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) StartUploadVersion(ctx context.Context, req *StartUploadVersionRequest) (*StartUploadVersionResponse, error) {
	resp := new(StartUploadVersionResponse)
	if err := c.invoke(ctx, "StartUploadVersion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UploadVersionChunk(ctx context.Context, req *UploadVersionChunkRequest) (*UploadVersionChunkResponse, error) {
	resp := new(UploadVersionChunkResponse)
	if err := c.invoke(ctx, "UploadVersionChunk", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ProcessVersion(ctx context.Context, req *ProcessVersionRequest) (*ProcessVersionResponse, error) {
	resp := new(ProcessVersionResponse)
	if err := c.invoke(ctx, "ProcessVersion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
