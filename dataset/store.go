package dataset

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the persistent key-value dataset collaborator that dataset-backed
// sinks write to. Keys are path-like strings; values must be JSON-compatible
// (plain scalars, arrays, and structures for opaque/subscan data).
//
// SetDataset creates or overwrites an entry. The broadcast flag controls
// whether the value is propagated live to observers, or only visible at run
// completion. AppendToDataset appends to an existing array entry; appending
// to a missing key is an error (callers initialize via SetDataset on first
// push). GetDataset reads an entry back, returning ErrKeyNotFound for keys
// never written.
type Store interface {
	SetDataset(ctx context.Context, key string, value any, broadcast bool) error
	AppendToDataset(ctx context.Context, key string, value any) error
	GetDataset(ctx context.Context, key string) (any, error)
}

// Broadcast modes for Update notifications
const (
	ModeSet    = "set"
	ModeAppend = "append"
)

// Update is the notification published for broadcast-mode dataset writes.
// For ModeSet the Value is the full entry; for ModeAppend it is the single
// appended element.
type Update struct {
	Key       string          `json:"key"`
	Mode      string          `json:"mode"`
	Value     json.RawMessage `json:"value"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

func newUpdate(key, mode string, value json.RawMessage) Update {
	return Update{
		Key:       key,
		Mode:      mode,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}
}
