// Package resultflow provides the result-propagation layer for experiment
// control: typed channels that producers push values into, pluggable sinks
// that decide what happens to those values, and a dataset store that
// persists and optionally broadcasts them live.
//
// # Architecture
//
// Results flow from producers through channels into sinks, crossing an
// asynchronous dispatch boundary on the way to storage:
//
//	┌─────────────────────────────────────┐
//	│           Producer code             │  experiment loop,
//	│   (pushes one value per point)      │  scan runner
//	└─────────────────┬───────────────────┘
//	                  │ Push (typed, coerced)
//	┌─────────────────▼───────────────────┐
//	│            Channels                 │  float, int,
//	│  (result.FloatChannel, ...)         │  opaque, subscan
//	└─────────────────┬───────────────────┘
//	                  │ dispatch.Queue (ordered, non-blocking)
//	┌─────────────────▼───────────────────┐
//	│              Sinks                  │  last-value, array,
//	│  (result.Sink implementations)      │  dataset-backed
//	└─────────────────┬───────────────────┘
//	                  │ dataset.Store
//	┌─────────────────▼───────────────────┐
//	│         Dataset storage             │  memory or NATS
//	│   (+ live broadcast subjects)       │  JetStream KV
//	└─────────────────────────────────────┘
//
// # Packages
//
//   - result: channels and sinks, the core of the layer
//   - dispatch: the ordered fire-and-forget queue between producers and sinks
//   - dataset: the Store interface with in-memory and JetStream KV backends
//   - schema: YAML-declared channel trees and metadata export
//   - monitor: WebSocket fan-out of live dataset updates
//   - units: the unit table numeric channels resolve display scales from
//   - metric: Prometheus instrumentation for the whole pipeline
//   - errors: classified errors shared across packages
//
// # Semantics
//
// Pushing never blocks the producer. Coercion failures surface synchronously
// on Push; sink and storage failures past the dispatch boundary are logged
// and counted instead, because the producing context has already moved on.
// A channel with no sink attached discards pushes silently.
//
// Numeric channels keep a local cache of the last pushed value so producer
// code can read it back immediately, independent of dispatch latency.
//
// # Example
//
//	queue := dispatch.NewQueue()
//	defer queue.Close(context.Background())
//
//	ch, err := result.NewFloatChannel(result.NumericConfig{
//		ChannelConfig: result.ChannelConfig{Path: "readout/p"},
//		Unit:          "ms",
//	}, result.Dependencies{Queue: queue})
//	if err != nil {
//		return err
//	}
//
//	store := dataset.NewMemoryStore()
//	sink, err := result.NewAppendingDatasetSink(store, "run/readout/p", false)
//	if err != nil {
//		return err
//	}
//	ch.SetSink(sink)
//
//	for _, point := range points {
//		if err := ch.Push(ctx, measure(point)); err != nil {
//			return err // a coercion error: the pushed value was malformed
//		}
//	}
package resultflow
