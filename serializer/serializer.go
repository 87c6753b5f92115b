// Package serializer abstracts payload encode/decode behind a pluggable
// interface, the way the teacher's codec package abstracts RPCMessage
// serialization (codec.Codec / codec.GetCodec) and the way goridge keys a
// codec table off a one-byte flag (frame.CodecJSON, frame.CodecMsgpack,
// ...). Only JSON is registered by default; spec §4.2 scopes other
// content types as a future extension point, not part of this repo.
package serializer

import (
	"encoding/json"
	"fmt"

	"slacker/packet"
	"slacker/slackererrors"
)

// Serializer encodes and decodes payload bytes for one content type.
type Serializer interface {
	// Serialize encodes v (typically a []any of call arguments, or a
	// single result value) to bytes.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes data into v.
	Deserialize(data []byte, v any) error

	// DeserializeVec decodes data, requiring the top-level value to be a
	// sequence. A non-sequence top-level payload is slackererrors.ErrInvalidData.
	DeserializeVec(data []byte) ([]json.RawMessage, error)
}

// JSON is the default Serializer, registered under packet.JSONContentType.
var JSON Serializer = jsonSerializer{}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerializer) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonSerializer) DeserializeVec(data []byte) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload is not a JSON array", slackererrors.ErrInvalidData)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", slackererrors.ErrInvalidData, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: top-level value is not a JSON array", slackererrors.ErrInvalidData)
	}
	return items, nil
}

// Registry maps a wire content_type byte to the Serializer that handles
// it, mirroring the teacher's codec.GetCodec factory generalized to a
// lookup table so additional content types can be registered without
// touching the dispatcher.
type Registry struct {
	byContentType map[byte]Serializer
}

// NewRegistry returns a Registry with JSON registered under
// packet.JSONContentType.
func NewRegistry() *Registry {
	r := &Registry{byContentType: make(map[byte]Serializer)}
	r.Register(packet.JSONContentType, JSON)
	return r
}

// Register adds or replaces the Serializer for a content type.
func (r *Registry) Register(contentType byte, s Serializer) {
	r.byContentType[contentType] = s
}

// Get returns the Serializer registered for contentType, or false if none is registered.
func (r *Registry) Get(contentType byte) (Serializer, bool) {
	s, ok := r.byContentType[contentType]
	return s, ok
}
