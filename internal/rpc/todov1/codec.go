// Package todov1 defines the todoguild.v1 RPC surface: message types,
// procedure names, and connect handler and client constructors. Messages are
// plain Go structs carried by a JSON codec.
package todov1

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

const codecName = "json"

type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string {
	return codecName
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithJSON is the codec option both handlers and clients need.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
