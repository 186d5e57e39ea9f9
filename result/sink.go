package result

import (
	"context"

	"github.com/c360/resultflow/errors"
)

// Sink is a pluggable receptacle implementing a retention policy for pushed
// values. Code consuming results relies on exactly one Push per sink per
// logical data point, so implementations must record every accepted value;
// the only permitted failures are usage errors (such as pushing twice to a
// SingleUseSink) and host-side storage failures, which stop at the dispatch
// boundary and are never observed by the producing side.
//
// Sinks perform no locking. The owning channel serializes pushes, and reads
// that race a pending asynchronous dispatch must be ordered behind a queue
// Flush.
type Sink interface {
	Push(ctx context.Context, value any) error
}

// SingleUseSink holds at most one value; a second Push before Reset is a
// usage error.
type SingleUseSink struct {
	isSet bool
	value any
}

// NewSingleUseSink creates an empty single-use sink
func NewSingleUseSink() *SingleUseSink {
	return &SingleUseSink{}
}

// Push records the value, failing if one is already held
func (s *SingleUseSink) Push(_ context.Context, value any) error {
	if s.isSet {
		return errors.WrapUsage(errors.ErrAlreadyPushed, "SingleUseSink", "Push", "value record")
	}
	s.value = value
	s.isSet = true
	return nil
}

// IsSet reports whether a value has been pushed
func (s *SingleUseSink) IsSet() bool {
	return s.isSet
}

// Get returns the held value, failing if none has been pushed
func (s *SingleUseSink) Get() (any, error) {
	if !s.isSet {
		return nil, errors.WrapUsage(errors.ErrNoValuePushed, "SingleUseSink", "Get", "value read")
	}
	return s.value, nil
}

// GetLast is an alias of Get, kept for callers that treat every sink through
// the last-value API; "last" is misleading for a single-use sink.
func (s *SingleUseSink) GetLast() (any, error) {
	return s.Get()
}

// Reset clears the sink so it can accept a value again
func (s *SingleUseSink) Reset() {
	s.value = nil
	s.isSet = false
}

// LastValueSink accepts any number of pushes but retains only the most
// recent value.
type LastValueSink struct {
	value any
}

// NewLastValueSink creates an empty last-value sink
func NewLastValueSink() *LastValueSink {
	return &LastValueSink{}
}

// Push records the value, replacing any previous one
func (s *LastValueSink) Push(_ context.Context, value any) error {
	s.value = value
	return nil
}

// GetLast returns the last-pushed value, or nil if none yet
func (s *LastValueSink) GetLast() any {
	return s.value
}

// ArraySink stores the full ordered history of pushed values.
type ArraySink struct {
	data []any
}

// NewArraySink creates an empty array sink
func NewArraySink() *ArraySink {
	return &ArraySink{}
}

// Push appends the value to the history
func (s *ArraySink) Push(_ context.Context, value any) error {
	s.data = append(s.data, value)
	return nil
}

// GetAll returns all previously pushed values in push order
func (s *ArraySink) GetAll() []any {
	return s.data
}

// GetLast returns the last-pushed value, or nil if none yet
func (s *ArraySink) GetLast() any {
	if len(s.data) == 0 {
		return nil
	}
	return s.data[len(s.data)-1]
}

// Clear discards the history
func (s *ArraySink) Clear() {
	s.data = nil
}

var (
	_ Sink = (*SingleUseSink)(nil)
	_ Sink = (*LastValueSink)(nil)
	_ Sink = (*ArraySink)(nil)
)
