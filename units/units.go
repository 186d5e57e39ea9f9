// Package units provides the unit table used by numeric result channels to
// resolve display scales at construction time.
package units

import (
	"fmt"

	"github.com/c360/resultflow/errors"
)

// Table maps unit names (e.g. "ms", "kHz") to numeric scale factors relative
// to the corresponding SI base unit.
type Table map[string]float64

// Default returns the standard unit table shipped with the framework,
// covering the SI-prefixed time, frequency, voltage, current and power units
// commonly used in experiment code.
func Default() Table {
	return Table{
		// Time
		"ps": 1e-12,
		"ns": 1e-9,
		"us": 1e-6,
		"ms": 1e-3,
		"s":  1.0,

		// Frequency
		"mHz": 1e-3,
		"Hz":  1.0,
		"kHz": 1e3,
		"MHz": 1e6,
		"GHz": 1e9,

		// Voltage
		"uV": 1e-6,
		"mV": 1e-3,
		"V":  1.0,
		"kV": 1e3,

		// Current
		"uA": 1e-6,
		"mA": 1e-3,
		"A":  1.0,

		// Power
		"uW": 1e-6,
		"mW": 1e-3,
		"W":  1.0,

		// Dimensionless
		"dB": 1.0,
	}
}

// Resolve determines the scale for a channel given its unit name and an
// optional explicit scale. An explicit scale always wins. An empty unit
// resolves to 1.0. Otherwise the unit is looked up in the table; an unknown
// name is a configuration error and the caller must supply the scale
// explicitly.
func (t Table) Resolve(unit string, scale *float64) (float64, error) {
	if scale != nil {
		return *scale, nil
	}
	if unit == "" {
		return 1.0, nil
	}

	s, ok := t[unit]
	if !ok {
		return 0, errors.WrapConfig(
			fmt.Errorf("unit %q: %w", unit, errors.ErrUnknownUnit),
			"Table", "Resolve", "unit lookup")
	}
	return s, nil
}

// Merge returns a copy of the table with entries from other overlaid on top.
// Used to extend the default table with experiment-specific units.
func (t Table) Merge(other Table) Table {
	merged := make(Table, len(t)+len(other))
	for name, scale := range t {
		merged[name] = scale
	}
	for name, scale := range other {
		merged[name] = scale
	}
	return merged
}
