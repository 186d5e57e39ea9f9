package result

import (
	"context"
	"fmt"
	"strconv"

	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/units"
)

// NumericConfig holds the construction parameters for numeric channels.
type NumericConfig struct {
	ChannelConfig `yaml:",inline"`

	// Min and Max are optional soft bounds for display purposes; they are
	// not enforced on push
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	// Unit names the unit results are given in (e.g. "ms", "kHz")
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	// Scale overrides the unit table lookup; required when Unit is not in
	// the table
	Scale *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	// Units is the table used to resolve Unit; defaults to units.Default()
	Units units.Table `json:"-" yaml:"-"`
}

func (c *NumericConfig) table() units.Table {
	if c.Units != nil {
		return c.Units
	}
	return units.Default()
}

// NumericChannel carries the scale/unit semantics and the synchronous
// last-value cache shared by FloatChannel and IntChannel.
//
// The cache exists because sink deliveries cross the asynchronous dispatch
// boundary and are not observable from the pushing context; callers needing
// an immediate read-back of the last pushed value use GetLast, which never
// touches the sink.
type NumericChannel struct {
	channelCore

	min   *float64
	max   *float64
	unit  string
	scale float64

	valuePushed bool
	lastValue   any
}

func newNumericChannel(cfg NumericConfig, typeString string, coerce coerceFunc, deps Dependencies) (NumericChannel, error) {
	core, err := newChannelCore(cfg.ChannelConfig, typeString, coerce, deps)
	if err != nil {
		return NumericChannel{}, err
	}

	scale, err := cfg.table().Resolve(cfg.Unit, cfg.Scale)
	if err != nil {
		return NumericChannel{}, err
	}

	// The cache starts as the typed zero so its dynamic type is fixed for
	// the channel's lifetime.
	zero, err := coerce(0)
	if err != nil {
		return NumericChannel{}, err
	}

	return NumericChannel{
		channelCore: core,
		min:         cfg.Min,
		max:         cfg.Max,
		unit:        cfg.Unit,
		scale:       scale,
		lastValue:   zero,
	}, nil
}

// Push updates the local cache before dispatching to the sink, so the value
// is synchronously readable via GetLast regardless of dispatch latency.
func (c *NumericChannel) Push(ctx context.Context, raw any) error {
	c.valuePushed = true
	c.lastValue = raw
	return c.channelCore.Push(ctx, raw)
}

// GetLast returns the last raw value pushed to this channel, read from the
// local cache. It fails if nothing has been pushed yet.
func (c *NumericChannel) GetLast() (any, error) {
	if !c.valuePushed {
		return nil, errors.WrapUsage(errors.ErrNoValuePushed, "NumericChannel", "GetLast", "cache read")
	}
	return c.lastValue, nil
}

// Scale returns the resolved unit scale
func (c *NumericChannel) Scale() float64 {
	return c.scale
}

// Unit returns the unit name
func (c *NumericChannel) Unit() string {
	return c.unit
}

// Describe extends the base description with scale, bounds and unit
func (c *NumericChannel) Describe() Description {
	desc := c.channelCore.Describe()
	scale := c.scale
	desc.Scale = &scale
	desc.Min = c.min
	desc.Max = c.max
	desc.Unit = c.unit
	return desc
}

// FloatChannel is a numeric channel accepting floating-point results.
type FloatChannel struct {
	NumericChannel
}

// NewFloatChannel creates a float channel
func NewFloatChannel(cfg NumericConfig, deps Dependencies) (*FloatChannel, error) {
	nc, err := newNumericChannel(cfg, "float", coerceFloat, deps)
	if err != nil {
		return nil, err
	}
	return &FloatChannel{NumericChannel: nc}, nil
}

// IntChannel is a numeric channel accepting integer results.
type IntChannel struct {
	NumericChannel
}

// NewIntChannel creates an int channel
func NewIntChannel(cfg NumericConfig, deps Dependencies) (*IntChannel, error) {
	nc, err := newNumericChannel(cfg, "int", coerceInt, deps)
	if err != nil {
		return nil, err
	}
	return &IntChannel{NumericChannel: nc}, nil
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", v, errors.ErrNotNumeric)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%T: %w", raw, errors.ErrNotNumeric)
	}
}

func coerceInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		// Truncation toward zero, matching integer conversion semantics
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", v, errors.ErrNotNumeric)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("%T: %w", raw, errors.ErrNotNumeric)
	}
}

var (
	_ Channel = (*FloatChannel)(nil)
	_ Channel = (*IntChannel)(nil)
)
