// Package dataset provides the persistent key-value store that dataset-backed
// result sinks delegate to.
//
// # Overview
//
// The Store interface models the three operations the sink layer needs:
// create/overwrite an entry (SetDataset), append to a growing array entry
// (AppendToDataset), and read an entry back (GetDataset). Keys are path-like
// strings such as "results/3f2a/channels/readout/p"; values are
// JSON-compatible.
//
// Two implementations are provided:
//
//   - MemoryStore: in-process map, for tests and single-process runs.
//   - KVStore: NATS JetStream key-value bucket, for persisted runs. Appends
//     use revision-checked compare-and-swap with bounded retries. Keys
//     written in broadcast mode additionally publish every update on a core
//     NATS subject (dataset.broadcast.<key>) so live observers see values as
//     they arrive rather than at run completion.
//
// # Broadcast
//
// Broadcast is a per-key mode chosen by the writing sink. Updates carry the
// key, the write mode ("set" or "append"), the JSON value and a millisecond
// timestamp. Broadcast publishing is best-effort: the KV write is the source
// of truth and a failed publish is logged, not surfaced.
package dataset
