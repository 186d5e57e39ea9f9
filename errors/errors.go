// Package errors provides standardized error handling patterns for resultflow
// components. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping across the result pipeline.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorUsage represents programmer mistakes in how the API was called
	ErrorUsage ErrorClass = iota
	// ErrorConfig represents errors in channel or schema configuration,
	// surfaced at construction time
	ErrorConfig
	// ErrorCoercion represents values that cannot be converted to a
	// channel's declared type, surfaced at push time
	ErrorCoercion
	// ErrorStorage represents dataset store failures past the dispatch
	// boundary; these are logged and counted, never returned to push callers
	ErrorStorage
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorUsage:
		return "usage"
	case ErrorConfig:
		return "config"
	case ErrorCoercion:
		return "coercion"
	case ErrorStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Sink usage errors
	ErrAlreadyPushed = errors.New("sink already holds a value")
	ErrNoValuePushed = errors.New("no value pushed")
	ErrNilValue      = errors.New("nil value")
	ErrNilSink       = errors.New("sink is nil")

	// Channel construction errors
	ErrEmptyPath   = errors.New("channel path is empty")
	ErrUnknownUnit = errors.New("unit is unknown, specify the scale explicitly")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Coercion errors
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrNotSerializable = errors.New("value is not JSON-serializable")

	// Dataset store errors
	ErrKeyNotFound        = errors.New("dataset key not found")
	ErrStorageUnavailable = errors.New("dataset store unavailable")

	// Dispatcher lifecycle errors
	ErrQueueClosed = errors.New("dispatch queue closed")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsUsage checks if an error is a usage error (programmer mistake)
func IsUsage(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUsage
	}

	return errors.Is(err, ErrAlreadyPushed) ||
		errors.Is(err, ErrNoValuePushed) ||
		errors.Is(err, ErrNilValue) ||
		errors.Is(err, ErrNilSink) ||
		errors.Is(err, ErrQueueClosed)
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConfig
	}

	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrEmptyPath) ||
		errors.Is(err, ErrUnknownUnit)
}

// IsCoercion checks if an error is a value coercion error
func IsCoercion(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorCoercion
	}

	return errors.Is(err, ErrNotNumeric) ||
		errors.Is(err, ErrNotSerializable)
}

// IsStorage checks if an error is a dataset store error
func IsStorage(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorStorage
	}

	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrStorageUnavailable)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if IsConfig(err) {
		return ErrorConfig
	}
	if IsCoercion(err) {
		return ErrorCoercion
	}
	if IsStorage(err) {
		return ErrorStorage
	}

	// Everything in this layer is synchronous and local, so an
	// unclassified failure is a caller bug until proven otherwise.
	return ErrorUsage
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapUsage(), WrapConfig(), WrapCoercion()
// or WrapStorage() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapUsage wraps an error as a usage error with context
func WrapUsage(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUsage, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfig, wrappedErr, component, method, wrappedErr.Error())
}

// WrapCoercion wraps an error as a coercion error with context
func WrapCoercion(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorCoercion, wrappedErr, component, method, wrappedErr.Error())
}

// WrapStorage wraps an error as a dataset store error with context
func WrapStorage(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorStorage, wrappedErr, component, method, wrappedErr.Error())
}
