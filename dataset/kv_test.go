package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastSubject(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"readout/p", "dataset.broadcast.readout.p"},
		{"run.abc.points.readout/p", "dataset.broadcast.run.abc.points.readout.p"},
		{"plain", "dataset.broadcast.plain"},
		{"with space", "dataset.broadcast.with_space"},
	}

	store := NewKVStore(nil)
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, store.BroadcastSubject(test.key))
		})
	}
}

func TestBroadcastSubject_CustomPrefix(t *testing.T) {
	store := NewKVStore(nil, WithBroadcastPrefix("live.datasets."))
	assert.Equal(t, "live.datasets.readout.p", store.BroadcastSubject("readout/p"))
}

func TestIsConflict(t *testing.T) {
	assert.False(t, isConflict(nil))
	assert.False(t, isConflict(fmt.Errorf("some other error")))
	assert.True(t, isConflict(fmt.Errorf("nats: wrong last sequence: 5")))
	assert.True(t, isConflict(fmt.Errorf("API error 10071")))
}
