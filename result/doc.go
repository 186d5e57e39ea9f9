// Package result implements typed result channels and the pluggable sinks
// they feed.
//
// # Overview
//
// Experiment code obtains a Channel, optionally attaches a Sink via SetSink,
// and repeatedly calls Push with one data point per run iteration. The
// channel coerces each value to its declared type and forwards it to the
// sink, which applies its retention policy:
//
//   - SingleUseSink: exactly one value, error on a second push
//   - LastValueSink: most recent value only
//   - ArraySink: full ordered history in memory
//   - AppendingDatasetSink: full history, persisted to a dataset store
//   - ScalarDatasetSink: most recent value, persisted (overwritten)
//
// A channel with no sink attached discards pushes silently. Describe()
// exports static metadata (path, description, type, display hints, and for
// numeric channels scale/min/max/unit) for plotting and analysis front ends.
//
// # Channel kinds
//
// FloatChannel and IntChannel perform numeric coercion and carry unit/scale
// metadata; the scale resolves from the unit table at construction, so an
// unknown unit without an explicit scale fails immediately. OpaqueChannel
// passes values through untouched. SubscanChannel serializes values to JSON
// strings for embedding nested-scan metadata in string-only storage.
//
// # Asynchronous delivery
//
// When a dispatch.Queue is injected, Push hands sink deliveries to the
// queue: fire-and-forget, ordered, never dropped. Numeric channels update a
// local last-value cache before dispatching, so GetLast is synchronous even
// though the sink-side bookkeeping lags. Without a queue, deliveries run
// inline, which is the normal mode for tests and simple hosts.
//
// # Concurrency
//
// This layer performs no locking. The host environment serializes pushes
// into a given channel, and a sink is owned by one channel at a time by
// convention. Reads racing a pending dispatch must be ordered behind
// Queue.Flush.
package result
