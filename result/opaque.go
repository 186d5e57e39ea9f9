package result

import (
	"encoding/json"
	"fmt"

	"github.com/c360/resultflow/errors"
)

// OpaqueChannel stores arbitrary data without coercion or interpretation.
// Values pass straight through to the sink layer; it is up to the user to
// push something compatible with the storage format in use. Useful for
// ancillary per-point data consumed only by custom analysis code.
type OpaqueChannel struct {
	channelCore
}

// NewOpaqueChannel creates an opaque channel
func NewOpaqueChannel(cfg ChannelConfig, deps Dependencies) (*OpaqueChannel, error) {
	core, err := newChannelCore(cfg, "opaque", coerceOpaque, deps)
	if err != nil {
		return nil, err
	}
	return &OpaqueChannel{channelCore: core}, nil
}

// SubscanChannel stores the scan metadata for a nested subscan, serialized
// to a JSON string for compatibility with string-only storage.
type SubscanChannel struct {
	channelCore
}

// NewSubscanChannel creates a subscan metadata channel
func NewSubscanChannel(cfg ChannelConfig, deps Dependencies) (*SubscanChannel, error) {
	core, err := newChannelCore(cfg, "subscan", coerceSubscan, deps)
	if err != nil {
		return nil, err
	}
	return &SubscanChannel{channelCore: core}, nil
}

func coerceOpaque(raw any) (any, error) {
	return raw, nil
}

func coerceSubscan(raw any) (any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%T: %w", raw, errors.ErrNotSerializable)
	}
	return string(data), nil
}

var (
	_ Channel = (*OpaqueChannel)(nil)
	_ Channel = (*SubscanChannel)(nil)
)
