package dataset

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
	"github.com/c360/resultflow/pkg/retry"
)

// DefaultBroadcastPrefix is the NATS subject prefix for live dataset updates
const DefaultBroadcastPrefix = "dataset.broadcast"

// KVStore is a Store backed by a NATS JetStream key-value bucket. Values are
// JSON encoded. Appends use revision-checked read-modify-write with bounded
// retries so concurrent writers to different channels in the same bucket
// cannot lose elements.
//
// Broadcast-mode keys additionally publish each write on a core NATS subject
// derived from the key, for consumption by live observers (plotting front
// ends, the monitor package).
type KVStore struct {
	bucket   jetstream.KeyValue
	conn     *nats.Conn // nil disables broadcast publishing
	prefix   string
	retryCfg retry.Config
	logger   *slog.Logger
	metrics  *metric.Metrics

	mu            sync.Mutex
	broadcastKeys map[string]bool
}

// KVOption configures a KVStore
type KVOption func(*KVStore)

// WithBroadcastConn enables live broadcast publishing over the given NATS
// connection
func WithBroadcastConn(conn *nats.Conn) KVOption {
	return func(s *KVStore) {
		s.conn = conn
	}
}

// WithBroadcastPrefix overrides the broadcast subject prefix
func WithBroadcastPrefix(prefix string) KVOption {
	return func(s *KVStore) {
		s.prefix = strings.TrimSuffix(prefix, ".")
	}
}

// WithRetryConfig overrides the CAS retry configuration
func WithRetryConfig(cfg retry.Config) KVOption {
	return func(s *KVStore) {
		s.retryCfg = cfg
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) KVOption {
	return func(s *KVStore) {
		s.logger = logger
	}
}

// WithMetrics enables write/error instrumentation
func WithMetrics(m *metric.Metrics) KVOption {
	return func(s *KVStore) {
		s.metrics = m
	}
}

// NewKVStore creates a dataset store over an existing KV bucket
func NewKVStore(bucket jetstream.KeyValue, opts ...KVOption) *KVStore {
	s := &KVStore{
		bucket:        bucket,
		prefix:        DefaultBroadcastPrefix,
		retryCfg:      retry.CAS(),
		logger:        slog.Default(),
		broadcastKeys: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDataset creates or overwrites an entry
func (s *KVStore) SetDataset(ctx context.Context, key string, value any, broadcast bool) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.recordError(ModeSet)
		return errors.WrapStorage(err, "KVStore", "SetDataset", "value encoding")
	}

	if _, err := s.bucket.Put(ctx, key, data); err != nil {
		s.recordError(ModeSet)
		return errors.WrapStorage(err, "KVStore", "SetDataset", "kv put")
	}
	s.recordWrite(ModeSet)

	s.mu.Lock()
	s.broadcastKeys[key] = broadcast
	s.mu.Unlock()

	if broadcast {
		s.publish(key, ModeSet, data)
	}
	return nil
}

// AppendToDataset appends a value to an existing array entry
func (s *KVStore) AppendToDataset(ctx context.Context, key string, value any) error {
	elem, err := json.Marshal(value)
	if err != nil {
		s.recordError(ModeAppend)
		return errors.WrapStorage(err, "KVStore", "AppendToDataset", "value encoding")
	}

	err = retry.Do(ctx, s.retryCfg, func() error {
		entry, err := s.bucket.Get(ctx, key)
		if err != nil {
			if stderrors.Is(err, jetstream.ErrKeyNotFound) {
				return retry.NonRetryable(fmt.Errorf("append to %q: %w", key, errors.ErrKeyNotFound))
			}
			return fmt.Errorf("kv get %s: %w", key, err)
		}

		var arr []json.RawMessage
		if err := json.Unmarshal(entry.Value(), &arr); err != nil {
			return retry.NonRetryable(fmt.Errorf("entry %q is not an array: %w", key, err))
		}
		arr = append(arr, elem)

		data, err := json.Marshal(arr)
		if err != nil {
			return retry.NonRetryable(err)
		}

		if _, err := s.bucket.Update(ctx, key, data, entry.Revision()); err != nil {
			if isConflict(err) {
				// Another writer got in between; re-read and retry.
				return err
			}
			return fmt.Errorf("kv update %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		s.recordError(ModeAppend)
		return errors.WrapStorage(err, "KVStore", "AppendToDataset", "kv append")
	}
	s.recordWrite(ModeAppend)

	s.mu.Lock()
	broadcast := s.broadcastKeys[key]
	s.mu.Unlock()

	if broadcast {
		s.publish(key, ModeAppend, elem)
	}
	return nil
}

// GetDataset reads an entry back
func (s *KVStore) GetDataset(ctx context.Context, key string) (any, error) {
	entry, err := s.bucket.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.WrapStorage(
				fmt.Errorf("get %q: %w", key, errors.ErrKeyNotFound),
				"KVStore", "GetDataset", "kv get")
		}
		return nil, errors.WrapStorage(err, "KVStore", "GetDataset", "kv get")
	}

	var value any
	if err := json.Unmarshal(entry.Value(), &value); err != nil {
		return nil, errors.WrapStorage(err, "KVStore", "GetDataset", "value decoding")
	}
	return value, nil
}

// BroadcastSubject returns the NATS subject live updates for a key are
// published on. Path separators in keys map to subject token separators.
func (s *KVStore) BroadcastSubject(key string) string {
	return s.prefix + "." + subjectToken(key)
}

func (s *KVStore) publish(key, mode string, value json.RawMessage) {
	if s.conn == nil {
		return
	}

	update := newUpdate(key, mode, value)
	data, err := json.Marshal(update)
	if err != nil {
		s.logger.Error("broadcast encode failed", "key", key, "error", err)
		return
	}

	// Fire-and-forget: broadcast is best-effort by contract, persistence
	// already happened in the KV bucket.
	if err := s.conn.Publish(s.BroadcastSubject(key), data); err != nil {
		s.logger.Error("broadcast publish failed", "key", key, "error", err)
	}
}

func (s *KVStore) recordWrite(mode string) {
	if s.metrics != nil {
		s.metrics.RecordStoreWrite(mode)
	}
}

func (s *KVStore) recordError(mode string) {
	if s.metrics != nil {
		s.metrics.RecordStoreError(mode)
	}
}

func subjectToken(key string) string {
	token := strings.ReplaceAll(key, "/", ".")
	token = strings.ReplaceAll(token, " ", "_")
	token = strings.ReplaceAll(token, "*", "_")
	token = strings.ReplaceAll(token, ">", "_")
	return token
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "wrong last sequence") ||
		strings.Contains(msg, "10071")
}

var _ Store = (*KVStore)(nil)
