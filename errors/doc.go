// Package errors provides standardized error handling patterns for resultflow.
//
// # Overview
//
// The errors package implements a four-class error classification system for
// the result-propagation layer: Usage (programmer mistakes such as pushing
// twice to a single-use sink), Config (bad channel or schema configuration,
// surfaced at construction time), Coercion (values incompatible with a
// channel's declared type, surfaced at push time), and Storage (dataset store
// failures past the asynchronous dispatch boundary).
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if s.isSet {
//	    return errors.ErrAlreadyPushed
//	}
//
// Wrap errors with context for debugging:
//
//	if err := store.SetDataset(ctx, key, value, broadcast); err != nil {
//	    return errors.WrapStorage(err, "ScalarDatasetSink", "Push", "dataset write")
//	}
//
// Check classification at handling sites:
//
//	if err := ch.Push(ctx, raw); err != nil {
//	    if errors.IsCoercion(err) {
//	        // reject the data point, the run continues
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Four wrapper functions provide classification-aware wrapping: WrapUsage,
// WrapConfig, WrapCoercion, and WrapStorage. The generic Wrap() adds context
// without changing classification.
//
// Storage-class errors deserve a note: the sink contract promises push never
// fails observably for the producing side. Storage errors therefore stop at
// the dispatcher, which logs and counts them; they are never returned to
// real-time callers.
package errors
