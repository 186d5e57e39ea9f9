package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/resultflow/errors"
)

func TestDefault_KnownUnits(t *testing.T) {
	table := Default()

	tests := []struct {
		unit  string
		scale float64
	}{
		{"ns", 1e-9},
		{"ms", 1e-3},
		{"s", 1.0},
		{"kHz", 1e3},
		{"MHz", 1e6},
		{"mV", 1e-3},
		{"dB", 1.0},
	}

	for _, test := range tests {
		t.Run(test.unit, func(t *testing.T) {
			scale, err := table.Resolve(test.unit, nil)
			require.NoError(t, err)
			assert.Equal(t, test.scale, scale)
		})
	}
}

func TestResolve_EmptyUnit(t *testing.T) {
	scale, err := Default().Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scale)
}

func TestResolve_ExplicitScaleWins(t *testing.T) {
	explicit := 42.0

	// Explicit scale bypasses the lookup even for unknown units.
	scale, err := Default().Resolve("clicks", &explicit)
	require.NoError(t, err)
	assert.Equal(t, 42.0, scale)

	scale, err = Default().Resolve("ms", &explicit)
	require.NoError(t, err)
	assert.Equal(t, 42.0, scale)
}

func TestResolve_UnknownUnit(t *testing.T) {
	_, err := Default().Resolve("parsecs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownUnit)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "parsecs")
}

func TestMerge(t *testing.T) {
	table := Default().Merge(Table{"clicks": 7.0, "ms": 2.0})

	scale, err := table.Resolve("clicks", nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, scale)

	// Overlay wins over the default entry.
	scale, err = table.Resolve("ms", nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, scale)

	// Original table is untouched.
	scale, err = Default().Resolve("ms", nil)
	require.NoError(t, err)
	assert.Equal(t, 1e-3, scale)
}
