package result

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/resultflow/dispatch"
	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
)

func TestChannel_EmptyPathRejected(t *testing.T) {
	_, err := NewOpaqueChannel(ChannelConfig{}, Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyPath)

	_, err = NewFloatChannel(NumericConfig{}, Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyPath)
}

func TestChannel_PushWithoutSinkDiscards(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{})
	require.NoError(t, err)

	assert.False(t, ch.IsMuted())
	assert.NoError(t, ch.Push(context.Background(), 0.5))
}

func TestChannel_IsMutedTracksSink(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{Path: "aux"}, Dependencies{})
	require.NoError(t, err)

	assert.False(t, ch.IsMuted())
	ch.SetSink(NewLastValueSink())
	assert.True(t, ch.IsMuted())
	ch.SetSink(nil)
	assert.False(t, ch.IsMuted())
}

func TestChannel_SetSinkReplaces(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{Path: "aux"}, Dependencies{})
	require.NoError(t, err)
	ctx := context.Background()

	first := NewArraySink()
	second := NewArraySink()

	ch.SetSink(first)
	require.NoError(t, ch.Push(ctx, 1))

	ch.SetSink(second)
	require.NoError(t, ch.Push(ctx, 2))

	assert.Equal(t, []any{1}, first.GetAll())
	assert.Equal(t, []any{2}, second.GetAll())
}

func TestChannel_SynchronousDelivery(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{})
	require.NoError(t, err)

	sink := NewArraySink()
	ch.SetSink(sink)

	require.NoError(t, ch.Push(context.Background(), "3"))
	assert.Equal(t, []any{3.0}, sink.GetAll())
}

func TestChannel_AsyncDeliveryThroughQueue(t *testing.T) {
	queue := dispatch.NewQueue()
	defer queue.Close(context.Background())

	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{Queue: queue})
	require.NoError(t, err)

	sink := NewArraySink()
	ch.SetSink(sink)
	ctx := context.Background()

	require.NoError(t, ch.Push(ctx, 1.0))
	require.NoError(t, ch.Push(ctx, 2.0))
	require.NoError(t, queue.Flush(ctx))

	assert.Equal(t, []any{1.0, 2.0}, sink.GetAll())
}

func TestChannel_Describe(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{
		Path:        "aux/debug",
		Description: "Debug data",
		DisplayHints: map[string]any{
			HintPriority: -1,
		},
	}, Dependencies{})
	require.NoError(t, err)

	desc := ch.Describe()
	assert.Equal(t, "aux/debug", desc.Path)
	assert.Equal(t, "Debug data", desc.Description)
	assert.Equal(t, "opaque", desc.Type)
	assert.Equal(t, map[string]any{HintPriority: -1}, desc.DisplayHints)
	assert.Nil(t, desc.Scale)
}

func TestChannel_DescribeOmitsEmptyHints(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{Path: "aux"}, Dependencies{})
	require.NoError(t, err)

	data, err := json.Marshal(ch.Describe())
	require.NoError(t, err)
	assert.JSONEq(t, `{"path": "aux", "description": "", "type": "opaque"}`, string(data))
}

func TestChannel_SaveByDefault(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{Path: "a"}, Dependencies{})
	require.NoError(t, err)
	assert.True(t, ch.SaveByDefault())

	disabled := false
	ch, err = NewOpaqueChannel(ChannelConfig{Path: "a", SaveByDefault: &disabled}, Dependencies{})
	require.NoError(t, err)
	assert.False(t, ch.SaveByDefault())
}

func TestOpaqueChannel_PassesValuesThrough(t *testing.T) {
	ch, err := NewOpaqueChannel(ChannelConfig{Path: "aux"}, Dependencies{})
	require.NoError(t, err)

	sink := NewLastValueSink()
	ch.SetSink(sink)

	payload := map[string]any{"a": 1}
	require.NoError(t, ch.Push(context.Background(), payload))
	assert.Equal(t, payload, sink.GetLast())
}

func TestSubscanChannel_SerializesToJSON(t *testing.T) {
	ch, err := NewSubscanChannel(ChannelConfig{Path: "subscan"}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "subscan", ch.TypeString())

	sink := NewLastValueSink()
	ch.SetSink(sink)

	require.NoError(t, ch.Push(context.Background(), map[string]any{"axes": []any{"x"}}))

	stored, ok := sink.GetLast().(string)
	require.True(t, ok, "subscan values must be stored as strings")
	assert.JSONEq(t, `{"axes": ["x"]}`, stored)
}

func TestSubscanChannel_UnserializableValue(t *testing.T) {
	ch, err := NewSubscanChannel(ChannelConfig{Path: "subscan"}, Dependencies{})
	require.NoError(t, err)

	err = ch.Push(context.Background(), make(chan int))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotSerializable)
	assert.True(t, errors.IsCoercion(err))
}

func TestChannel_CoercionMetrics(t *testing.T) {
	registry := metric.NewRegistry()
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{Metrics: registry.Metrics})
	require.NoError(t, err)
	ch.SetSink(NewArraySink())
	ctx := context.Background()

	require.NoError(t, ch.Push(ctx, 1.0))
	require.Error(t, ch.Push(ctx, "not a number"))

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, family := range families {
		if len(family.GetMetric()) > 0 {
			found[family.GetName()] = true
		}
	}
	assert.True(t, found["resultflow_channels_pushes_total"])
	assert.True(t, found["resultflow_channels_coercion_errors_total"])
}
