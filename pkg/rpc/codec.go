// Package rpc defines the splitledger.v1 Connect services: request and
// response messages, procedure names, handler constructors and clients.
//
// Messages are plain Go structs carried as JSON, so no code generation is
// involved. Amounts travel as decimal strings.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is registered in place of Connect's default protobuf JSON codec.
const CodecName = "json"

// JSONCodec marshals messages with encoding/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}
