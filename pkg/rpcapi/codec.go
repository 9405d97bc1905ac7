// Package rpcapi is the gRPC transport for the update distribution service.
// It implements proto/update/v1/update.proto's UpdateService directly
// against plain Go structs with a manually built grpc.ServiceDesc — there is
// no protoc-generated stub in this repo.
package rpcapi

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is the registered content-subtype for UpdateService messages:
// the server forces this codec, and the client requests it per call, so the
// two exchange JSON-encoded messages over the gRPC/HTTP2 transport without
// requiring generated proto.Message types. Registering under "json" (not
// "proto") leaves the process-global protobuf codec untouched for other
// gRPC clients in the binary, like the OTLP trace exporter.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func decodeInto(dec func(any) error, v any) error {
	if err := dec(v); err != nil {
		return fmt.Errorf("rpcapi: decode request: %w", err)
	}
	return nil
}
