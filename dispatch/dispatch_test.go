package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
)

func TestQueue_DeliversInOrder(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	var mu sync.Mutex
	var got []int

	for i := 0; i < 100; i++ {
		i := i
		err := q.Submit(Task{Channel: "test", Do: func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}})
		require.NoError(t, err)
	}

	require.NoError(t, q.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueue_FlushOnEmptyQueue(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	assert.NoError(t, q.Flush(context.Background()))
}

func TestQueue_FlushTimesOut(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	release := make(chan struct{})
	err := q.Submit(Task{Channel: "slow", Do: func(context.Context) error {
		<-release
		return nil
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)

	close(release)
}

func TestQueue_TaskFailureDoesNotStopDelivery(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	delivered := false
	require.NoError(t, q.Submit(Task{Channel: "bad", Do: func(context.Context) error {
		return fmt.Errorf("host-side failure")
	}}))
	require.NoError(t, q.Submit(Task{Channel: "good", Do: func(context.Context) error {
		delivered = true
		return nil
	}}))

	require.NoError(t, q.Flush(context.Background()))
	assert.True(t, delivered)
}

func TestQueue_PanicRecovered(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	delivered := false
	require.NoError(t, q.Submit(Task{Channel: "panics", Do: func(context.Context) error {
		panic("boom")
	}}))
	require.NoError(t, q.Submit(Task{Channel: "good", Do: func(context.Context) error {
		delivered = true
		return nil
	}}))

	require.NoError(t, q.Flush(context.Background()))
	assert.True(t, delivered)
}

func TestQueue_SubmitAfterClose(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Close(context.Background()))

	err := q.Submit(Task{Channel: "late", Do: func(context.Context) error { return nil }})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueueClosed)
}

func TestQueue_SubmitNilTask(t *testing.T) {
	q := NewQueue()
	defer q.Close(context.Background())

	err := q.Submit(Task{Channel: "nil"})
	require.Error(t, err)
	assert.True(t, errors.IsUsage(err))
}

func TestQueue_CloseDrainsBacklog(t *testing.T) {
	q := NewQueue()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Submit(Task{Channel: "drain", Do: func(context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		}}))
	}

	require.NoError(t, q.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, count)
}

func TestQueue_Metrics(t *testing.T) {
	registry := metric.NewRegistry()
	q := NewQueue(WithMetrics(registry.Metrics))
	defer q.Close(context.Background())

	require.NoError(t, q.Submit(Task{Channel: "m", Do: func(context.Context) error { return nil }}))
	require.NoError(t, q.Submit(Task{Channel: "m", Do: func(context.Context) error {
		return fmt.Errorf("fail")
	}}))
	require.NoError(t, q.Flush(context.Background()))

	assert.Equal(t, 2.0, promValue(t, registry, "resultflow_dispatch_submitted_total"))
	assert.Equal(t, 1.0, promValue(t, registry, "resultflow_dispatch_delivered_total"))
	assert.Equal(t, 1.0, promValue(t, registry, "resultflow_dispatch_failed_total"))
}

func promValue(t *testing.T, registry *metric.Registry, name string) float64 {
	t.Helper()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
