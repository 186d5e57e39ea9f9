package result

import (
	"context"
	"fmt"

	"github.com/c360/resultflow/dataset"
	"github.com/c360/resultflow/errors"
)

// AppendingDatasetSink persists the full push history to a dataset store
// entry. The entry is created as a one-element array on the first push and
// appended to afterwards; the sink tracks locally whether any push has
// happened, since the store cannot distinguish "never written" from "empty"
// before initialization.
type AppendingDatasetSink struct {
	store     dataset.Store
	key       string
	broadcast bool
	lastValue any
	pushed    bool
}

// NewAppendingDatasetSink creates a sink persisting to the given store key.
// The broadcast flag selects whether the store propagates values live to
// observers or only at run completion.
func NewAppendingDatasetSink(store dataset.Store, key string, broadcast bool) (*AppendingDatasetSink, error) {
	if store == nil {
		return nil, errors.WrapUsage(errors.ErrNilSink, "AppendingDatasetSink", "New", "store check")
	}
	if key == "" {
		return nil, errors.WrapConfig(errors.ErrInvalidConfig, "AppendingDatasetSink", "New", "empty key")
	}
	return &AppendingDatasetSink{store: store, key: key, broadcast: broadcast}, nil
}

// Push persists the value, initializing the store entry on first use
func (s *AppendingDatasetSink) Push(ctx context.Context, value any) error {
	if value == nil {
		return errors.WrapUsage(errors.ErrNilValue, "AppendingDatasetSink", "Push", "value check")
	}

	if !s.pushed {
		if err := s.store.SetDataset(ctx, s.key, []any{value}, s.broadcast); err != nil {
			return errors.Wrap(err, "AppendingDatasetSink", "Push", "dataset init")
		}
	} else {
		if err := s.store.AppendToDataset(ctx, s.key, value); err != nil {
			return errors.Wrap(err, "AppendingDatasetSink", "Push", "dataset append")
		}
	}

	s.lastValue = value
	s.pushed = true
	return nil
}

// GetLast returns the last pushed value, or nil if none yet. It reads the
// local copy, not the store.
func (s *AppendingDatasetSink) GetLast() any {
	return s.lastValue
}

// GetAll reads the previously pushed values back from the store entry
func (s *AppendingDatasetSink) GetAll(ctx context.Context) ([]any, error) {
	if !s.pushed {
		return []any{}, nil
	}

	value, err := s.store.GetDataset(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "AppendingDatasetSink", "GetAll", "dataset read")
	}

	arr, ok := value.([]any)
	if !ok {
		return nil, errors.WrapStorage(
			fmt.Errorf("entry %q is not an array", s.key),
			"AppendingDatasetSink", "GetAll", "entry type check")
	}
	return arr, nil
}

// Key returns the store key the sink writes to
func (s *AppendingDatasetSink) Key() string {
	return s.key
}

// ScalarDatasetSink persists only the most recent value, overwriting the
// store entry on each push.
type ScalarDatasetSink struct {
	store     dataset.Store
	key       string
	broadcast bool
	pushed    bool
}

// NewScalarDatasetSink creates a sink overwriting the given store key on
// each push
func NewScalarDatasetSink(store dataset.Store, key string, broadcast bool) (*ScalarDatasetSink, error) {
	if store == nil {
		return nil, errors.WrapUsage(errors.ErrNilSink, "ScalarDatasetSink", "New", "store check")
	}
	if key == "" {
		return nil, errors.WrapConfig(errors.ErrInvalidConfig, "ScalarDatasetSink", "New", "empty key")
	}
	return &ScalarDatasetSink{store: store, key: key, broadcast: broadcast}, nil
}

// Push overwrites the store entry with the value
func (s *ScalarDatasetSink) Push(ctx context.Context, value any) error {
	if err := s.store.SetDataset(ctx, s.key, value, s.broadcast); err != nil {
		return errors.Wrap(err, "ScalarDatasetSink", "Push", "dataset write")
	}
	s.pushed = true
	return nil
}

// GetLast reads the current value back from the store, or returns nil if
// nothing has been pushed yet
func (s *ScalarDatasetSink) GetLast(ctx context.Context) (any, error) {
	if !s.pushed {
		return nil, nil
	}

	value, err := s.store.GetDataset(ctx, s.key)
	if err != nil {
		return nil, errors.Wrap(err, "ScalarDatasetSink", "GetLast", "dataset read")
	}
	return value, nil
}

// Key returns the store key the sink writes to
func (s *ScalarDatasetSink) Key() string {
	return s.key
}

var (
	_ Sink = (*AppendingDatasetSink)(nil)
	_ Sink = (*ScalarDatasetSink)(nil)
)
