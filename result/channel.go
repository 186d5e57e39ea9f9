package result

import (
	"context"

	"github.com/c360/resultflow/dispatch"
	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
)

// Display hint keys understood by plotting front ends. The hint mapping is
// open-ended; these are the keys with defined meaning.
const (
	// HintCoordinateType describes the coordinate system of numeric values
	// (e.g. "cyclic" for phases between min and max)
	HintCoordinateType = "coordinate_type"
	// HintErrorBarFor names the channel this one provides error bars for
	HintErrorBarFor = "error_bar_for"
	// HintPriority sorts channels for display, highest first; negative
	// priorities are hidden by default
	HintPriority = "priority"
	// HintShareAxisWith names the channel to share a plot axis with
	HintShareAxisWith = "share_axis_with"
	// HintSharePaneWith names the channel to share a plot pane with
	HintSharePaneWith = "share_pane_with"
)

// Description is the static channel metadata exported for visualization and
// analysis tooling. It is stable and JSON-serializable.
type Description struct {
	Path         string         `json:"path"`
	Description  string         `json:"description"`
	Type         string         `json:"type"`
	DisplayHints map[string]any `json:"display_hints,omitempty"`
	Scale        *float64       `json:"scale,omitempty"`
	Min          *float64       `json:"min,omitempty"`
	Max          *float64       `json:"max,omitempty"`
	Unit         string         `json:"unit,omitempty"`
}

// Channel is a named, typed endpoint that receives experiment result values
// and forwards them to a sink. A channel owns a reference to at most one
// sink at a time; pushing with no sink attached discards the value silently.
type Channel interface {
	// Path returns the channel's slash-separated identity, e.g. "readout/p"
	Path() string
	// TypeString returns the channel's fixed value type ("float", "int",
	// "opaque" or "subscan")
	TypeString() string
	// Describe exports the channel's static metadata
	Describe() Description
	// SetSink replaces the current sink reference; the sink's lifetime is
	// managed by the caller
	SetSink(sink Sink)
	// IsMuted reports whether a sink is currently attached, i.e. whether
	// pushes are being captured rather than discarded
	IsMuted() bool
	// Push coerces the raw value to the channel type and forwards it to the
	// sink, asynchronously when a dispatch queue is configured. The error
	// return covers coercion failures; sink failures past the dispatch
	// boundary are logged and counted, not returned.
	Push(ctx context.Context, raw any) error
	// SaveByDefault reports whether channel output should persist unless
	// explicitly routed to a discarding sink
	SaveByDefault() bool
}

// ChannelConfig holds the construction parameters common to every channel
// kind.
type ChannelConfig struct {
	// Path is the channel's identity within its owning scope; required
	Path string `json:"path" yaml:"path"`
	// Description is a human-readable name, preferred over the path in
	// plot axis labels when non-empty
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// DisplayHints carries optional visualization hints; see the Hint
	// constants
	DisplayHints map[string]any `json:"display_hints,omitempty" yaml:"display_hints,omitempty"`
	// SaveByDefault defaults to true when nil
	SaveByDefault *bool `json:"save_by_default,omitempty" yaml:"save_by_default,omitempty"`
}

// Validate checks the configuration for errors
func (c *ChannelConfig) Validate() error {
	if c.Path == "" {
		return errors.WrapConfig(errors.ErrEmptyPath, "ChannelConfig", "Validate", "path check")
	}
	return nil
}

// Dependencies holds the runtime collaborators injected into channels.
// All fields are optional: without a Queue, sink deliveries run
// synchronously in the caller; without Metrics, instrumentation is skipped.
type Dependencies struct {
	Queue   *dispatch.Queue
	Metrics *metric.Metrics
}

// coerceFunc converts a raw pushed value to the channel's declared type
type coerceFunc func(raw any) (any, error)

// channelCore implements the sink handling and push plumbing shared by all
// channel kinds.
type channelCore struct {
	path          string
	description   string
	displayHints  map[string]any
	saveByDefault bool
	typeString    string
	coerce        coerceFunc
	deps          Dependencies
	sink          Sink
}

func newChannelCore(cfg ChannelConfig, typeString string, coerce coerceFunc, deps Dependencies) (channelCore, error) {
	if err := cfg.Validate(); err != nil {
		return channelCore{}, err
	}

	saveByDefault := true
	if cfg.SaveByDefault != nil {
		saveByDefault = *cfg.SaveByDefault
	}

	return channelCore{
		path:          cfg.Path,
		description:   cfg.Description,
		displayHints:  cfg.DisplayHints,
		saveByDefault: saveByDefault,
		typeString:    typeString,
		coerce:        coerce,
		deps:          deps,
	}, nil
}

// Path returns the channel's identity
func (c *channelCore) Path() string {
	return c.path
}

// TypeString returns the channel's fixed value type
func (c *channelCore) TypeString() string {
	return c.typeString
}

// SaveByDefault reports whether channel output should persist by default
func (c *channelCore) SaveByDefault() bool {
	return c.saveByDefault
}

// SetSink replaces the current sink reference
func (c *channelCore) SetSink(sink Sink) {
	c.sink = sink
}

// IsMuted reports whether a sink is currently attached
func (c *channelCore) IsMuted() bool {
	return c.sink != nil
}

// Describe exports the channel's static metadata
func (c *channelCore) Describe() Description {
	desc := Description{
		Path:        c.path,
		Description: c.description,
		Type:        c.typeString,
	}
	if len(c.displayHints) > 0 {
		desc.DisplayHints = c.displayHints
	}
	return desc
}

// Push coerces and forwards one data point
func (c *channelCore) Push(ctx context.Context, raw any) error {
	value, err := c.coerce(raw)
	if err != nil {
		if c.deps.Metrics != nil {
			c.deps.Metrics.RecordCoercionError(c.path, c.typeString)
		}
		return errors.WrapCoercion(err, "Channel", "Push", "value coercion")
	}
	return c.forward(ctx, value)
}

// forward hands a coerced value to the sink, through the dispatch queue
// when one is configured. With no sink attached the value is discarded
// silently; this is the documented behavior, not an error.
func (c *channelCore) forward(ctx context.Context, value any) error {
	if c.sink == nil {
		return nil
	}

	if c.deps.Metrics != nil {
		c.deps.Metrics.RecordPush(c.path, c.typeString)
	}

	if c.deps.Queue == nil {
		return c.sink.Push(ctx, value)
	}

	sink := c.sink
	return c.deps.Queue.Submit(dispatch.Task{
		Channel: c.path,
		Do: func(taskCtx context.Context) error {
			return sink.Push(taskCtx, value)
		},
	})
}
