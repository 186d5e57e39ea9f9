package result

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/resultflow/dispatch"
	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/units"
)

func floatPtr(v float64) *float64 { return &v }

func TestFloatChannel_Coercion(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "float", ch.TypeString())

	sink := NewArraySink()
	ch.SetSink(sink)
	ctx := context.Background()

	require.NoError(t, ch.Push(ctx, "3"))
	require.NoError(t, ch.Push(ctx, 2))
	require.NoError(t, ch.Push(ctx, 1.5))

	assert.Equal(t, []any{3.0, 2.0, 1.5}, sink.GetAll())
}

func TestFloatChannel_RejectsNonNumeric(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{})
	require.NoError(t, err)
	ch.SetSink(NewArraySink())

	err = ch.Push(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotNumeric)
	assert.True(t, errors.IsCoercion(err))

	err = ch.Push(context.Background(), struct{}{})
	require.Error(t, err)
	assert.True(t, errors.IsCoercion(err))
}

func TestIntChannel_Coercion(t *testing.T) {
	ch, err := NewIntChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "counts"},
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "int", ch.TypeString())

	sink := NewArraySink()
	ch.SetSink(sink)
	ctx := context.Background()

	// Float input truncates toward zero.
	require.NoError(t, ch.Push(ctx, 3.7))
	require.NoError(t, ch.Push(ctx, -3.7))
	require.NoError(t, ch.Push(ctx, "12"))

	assert.Equal(t, []any{int64(3), int64(-3), int64(12)}, sink.GetAll())
}

func TestIntChannel_RejectsFloatString(t *testing.T) {
	ch, err := NewIntChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "counts"},
	}, Dependencies{})
	require.NoError(t, err)
	ch.SetSink(NewArraySink())

	err = ch.Push(context.Background(), "3.7")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotNumeric)
}

func TestNumericChannel_UnitResolution(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "freq"},
		Unit:          "kHz",
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, 1e3, ch.Scale())
	assert.Equal(t, "kHz", ch.Unit())
}

func TestNumericChannel_UnknownUnitFails(t *testing.T) {
	_, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "freq"},
		Unit:          "furlongs",
	}, Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownUnit)
	assert.True(t, errors.IsConfig(err))
}

func TestNumericChannel_ExplicitScaleSkipsLookup(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "freq"},
		Unit:          "furlongs",
		Scale:         floatPtr(201.168),
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, 201.168, ch.Scale())
}

func TestNumericChannel_CustomUnitTable(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "clicks"},
		Unit:          "clicks",
		Units:         units.Default().Merge(units.Table{"clicks": 7.0}),
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, ch.Scale())
}

func TestNumericChannel_NoUnitDefaultsToUnitScale(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "p"},
	}, Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ch.Scale())
}

func TestNumericChannel_GetLastCache(t *testing.T) {
	queue := dispatch.NewQueue()
	defer queue.Close(context.Background())

	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{Queue: queue})
	require.NoError(t, err)
	ch.SetSink(NewArraySink())

	_, err = ch.GetLast()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoValuePushed)

	// The cache is readable immediately, without flushing the queue.
	require.NoError(t, ch.Push(context.Background(), 0.75))
	value, err := ch.GetLast()
	require.NoError(t, err)
	assert.Equal(t, 0.75, value)
}

func TestNumericChannel_CacheHoldsRawValue(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "readout/p"},
	}, Dependencies{})
	require.NoError(t, err)

	sink := NewArraySink()
	ch.SetSink(sink)

	require.NoError(t, ch.Push(context.Background(), "3"))

	// Sink sees the coerced value, the cache the raw one.
	assert.Equal(t, []any{3.0}, sink.GetAll())
	value, err := ch.GetLast()
	require.NoError(t, err)
	assert.Equal(t, "3", value)
}

func TestNumericChannel_Describe(t *testing.T) {
	ch, err := NewFloatChannel(NumericConfig{
		ChannelConfig: ChannelConfig{
			Path:        "readout/p",
			Description: "Excitation probability",
		},
		Unit: "ms",
		Min:  floatPtr(0),
		Max:  floatPtr(10),
	}, Dependencies{})
	require.NoError(t, err)

	desc := ch.Describe()
	assert.Equal(t, "readout/p", desc.Path)
	assert.Equal(t, "float", desc.Type)
	require.NotNil(t, desc.Scale)
	assert.Equal(t, 1e-3, *desc.Scale)
	require.NotNil(t, desc.Min)
	assert.Equal(t, 0.0, *desc.Min)
	require.NotNil(t, desc.Max)
	assert.Equal(t, 10.0, *desc.Max)
	assert.Equal(t, "ms", desc.Unit)
}

func TestNumericChannel_DescribeAlwaysIncludesScale(t *testing.T) {
	ch, err := NewIntChannel(NumericConfig{
		ChannelConfig: ChannelConfig{Path: "counts"},
	}, Dependencies{})
	require.NoError(t, err)

	data, err := json.Marshal(ch.Describe())
	require.NoError(t, err)
	assert.JSONEq(t, `{"path": "counts", "description": "", "type": "int", "scale": 1}`, string(data))
}
