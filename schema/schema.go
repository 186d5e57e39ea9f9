// Package schema loads declarative channel trees from YAML and constructs
// the corresponding channels and dataset bindings.
//
// A schema document declares the full set of result channels an experiment
// produces, keyed by path:
//
//	channels:
//	  readout/p:
//	    type: float
//	    description: Excitation probability
//	    unit: ms
//	    min: 0
//	    max: 10
//	    display_hints:
//	      priority: 1
//
// Load parses and validates the document; Build constructs the channels;
// BindStore attaches dataset sinks under a per-run key prefix.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/c360/resultflow/dataset"
	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/result"
	"github.com/c360/resultflow/units"
)

// Retention modes for dataset-backed channels.
const (
	// RetentionAppend accumulates every pushed value in a growing sequence
	RetentionAppend = "append"
	// RetentionScalar keeps only the most recent value
	RetentionScalar = "scalar"
)

var channelTypes = map[string]bool{
	"float":   true,
	"int":     true,
	"opaque":  true,
	"subscan": true,
}

// ChannelSpec declares one channel in a schema document.
type ChannelSpec struct {
	// Type selects the channel kind: float, int, opaque or subscan
	Type string `yaml:"type" json:"type"`
	// Description is a human-readable name for display
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Unit, Min, Max and Scale apply to numeric types only
	Unit  string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Min   *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Scale *float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	// DisplayHints carries optional visualization hints
	DisplayHints map[string]any `yaml:"display_hints,omitempty" json:"display_hints,omitempty"`
	// SaveByDefault defaults to true when omitted
	SaveByDefault *bool `yaml:"save_by_default,omitempty" json:"save_by_default,omitempty"`
	// Broadcast marks the channel's dataset entry for live propagation
	Broadcast bool `yaml:"broadcast,omitempty" json:"broadcast,omitempty"`
	// Retention selects the dataset binding mode; defaults to append
	Retention string `yaml:"retention,omitempty" json:"retention,omitempty"`
}

// Validate checks one channel declaration.
func (s *ChannelSpec) Validate(path string) error {
	if path == "" {
		return errors.WrapConfig(errors.ErrEmptyPath, "ChannelSpec", "Validate", "path check")
	}
	if !channelTypes[s.Type] {
		return errors.WrapConfig(
			fmt.Errorf("channel %q: type %q: %w", path, s.Type, errors.ErrInvalidConfig),
			"ChannelSpec", "Validate", "type check")
	}
	if s.Type != "float" && s.Type != "int" {
		if s.Unit != "" || s.Min != nil || s.Max != nil || s.Scale != nil {
			return errors.WrapConfig(
				fmt.Errorf("channel %q: unit/min/max/scale require a numeric type: %w", path, errors.ErrInvalidConfig),
				"ChannelSpec", "Validate", "numeric field check")
		}
	}
	switch s.Retention {
	case "", RetentionAppend, RetentionScalar:
	default:
		return errors.WrapConfig(
			fmt.Errorf("channel %q: retention %q: %w", path, s.Retention, errors.ErrInvalidConfig),
			"ChannelSpec", "Validate", "retention check")
	}
	return nil
}

// Schema is a validated channel-tree declaration bound to a run identity.
type Schema struct {
	Channels map[string]ChannelSpec `yaml:"channels"`

	runID string
}

// Load parses and validates a YAML schema document. Each successful Load
// yields a fresh run identity, so dataset keys from successive runs never
// collide.
func Load(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapConfig(err, "Schema", "Load", "yaml parse")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.runID = uuid.NewString()
	return &s, nil
}

// Validate checks every channel declaration in the schema.
func (s *Schema) Validate() error {
	if len(s.Channels) == 0 {
		return errors.WrapConfig(
			fmt.Errorf("no channels declared: %w", errors.ErrMissingConfig),
			"Schema", "Validate", "channel count check")
	}
	for path, spec := range s.Channels {
		if err := spec.Validate(path); err != nil {
			return err
		}
	}
	return nil
}

// RunPrefix returns the dataset key prefix identifying this run.
func (s *Schema) RunPrefix() string {
	return "results/" + s.runID
}

// DatasetKey returns the dataset key for a channel path within this run.
func (s *Schema) DatasetKey(path string) string {
	return s.RunPrefix() + "/channels/" + path
}

// Option configures channel construction.
type Option func(*buildOptions)

type buildOptions struct {
	units units.Table
	deps  result.Dependencies
}

// WithUnits supplies the unit table used to resolve numeric scales.
func WithUnits(table units.Table) Option {
	return func(o *buildOptions) {
		o.units = table
	}
}

// WithDependencies supplies the dispatch queue and metrics shared by the
// constructed channels.
func WithDependencies(deps result.Dependencies) Option {
	return func(o *buildOptions) {
		o.deps = deps
	}
}

// Build constructs one channel per declaration. Channels come back without
// sinks; attach them directly or via BindStore.
func (s *Schema) Build(opts ...Option) (map[string]result.Channel, error) {
	options := buildOptions{units: units.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	channels := make(map[string]result.Channel, len(s.Channels))
	for path, spec := range s.Channels {
		ch, err := buildChannel(path, spec, options)
		if err != nil {
			return nil, err
		}
		channels[path] = ch
	}
	return channels, nil
}

func buildChannel(path string, spec ChannelSpec, options buildOptions) (result.Channel, error) {
	base := result.ChannelConfig{
		Path:          path,
		Description:   spec.Description,
		DisplayHints:  spec.DisplayHints,
		SaveByDefault: spec.SaveByDefault,
	}

	switch spec.Type {
	case "float", "int":
		cfg := result.NumericConfig{
			ChannelConfig: base,
			Min:           spec.Min,
			Max:           spec.Max,
			Unit:          spec.Unit,
			Scale:         spec.Scale,
			Units:         options.units,
		}
		if spec.Type == "float" {
			return result.NewFloatChannel(cfg, options.deps)
		}
		return result.NewIntChannel(cfg, options.deps)
	case "opaque":
		return result.NewOpaqueChannel(base, options.deps)
	case "subscan":
		return result.NewSubscanChannel(base, options.deps)
	default:
		return nil, errors.WrapConfig(
			fmt.Errorf("channel %q: type %q: %w", path, spec.Type, errors.ErrInvalidConfig),
			"Schema", "Build", "channel construction")
	}
}

// BindStore attaches a dataset sink to every save-by-default channel,
// keyed under the run prefix. Channels declared save_by_default: false are
// left without a sink. The declared retention mode selects between an
// appending and a scalar binding.
func (s *Schema) BindStore(store dataset.Store, channels map[string]result.Channel) error {
	if store == nil {
		return errors.WrapUsage(errors.ErrNilValue, "Schema", "BindStore", "store check")
	}

	for path, ch := range channels {
		if !ch.SaveByDefault() {
			continue
		}
		spec, ok := s.Channels[path]
		if !ok {
			return errors.WrapUsage(
				fmt.Errorf("channel %q not declared in schema: %w", path, errors.ErrInvalidConfig),
				"Schema", "BindStore", "channel lookup")
		}

		key := s.DatasetKey(path)
		var sink result.Sink
		var err error
		if spec.Retention == RetentionScalar {
			sink, err = result.NewScalarDatasetSink(store, key, spec.Broadcast)
		} else {
			sink, err = result.NewAppendingDatasetSink(store, key, spec.Broadcast)
		}
		if err != nil {
			return err
		}
		ch.SetSink(sink)
	}
	return nil
}

// DescribeAll exports the metadata document for a set of channels as JSON,
// keyed by path. Plotting front ends consume this to lay out axes before any
// data arrives.
func DescribeAll(channels map[string]result.Channel) ([]byte, error) {
	descriptions := make(map[string]result.Description, len(channels))
	for path, ch := range channels {
		descriptions[path] = ch.Describe()
	}
	data, err := json.Marshal(descriptions)
	if err != nil {
		return nil, errors.WrapUsage(err, "schema", "DescribeAll", "json encode")
	}
	return data, nil
}

// Paths returns the declared channel paths in sorted order.
func (s *Schema) Paths() []string {
	paths := make([]string, 0, len(s.Channels))
	for path := range s.Channels {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// WriteDescriptions stores the channel metadata document under the run
// prefix so observers can discover the channel set for a live run.
func (s *Schema) WriteDescriptions(ctx context.Context, store dataset.Store, channels map[string]result.Channel) error {
	data, err := DescribeAll(channels)
	if err != nil {
		return err
	}
	var doc map[string]result.Description
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.WrapUsage(err, "Schema", "WriteDescriptions", "json decode")
	}
	return store.SetDataset(ctx, s.RunPrefix()+"/channel_descriptions", doc, true)
}
