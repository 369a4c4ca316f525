// Package errors provides structured error handling for the Keel runtime.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindChunk indicates a chunk fetch, integrity, or MIME failure.
	KindChunk
	// KindNavigation indicates an aborted route transition.
	KindNavigation
	// KindManifest indicates a deployment manifest parse or lookup failure.
	KindManifest
	// KindBridge indicates a host bridge call failure.
	KindBridge
	// KindConfig indicates a configuration error.
	KindConfig
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindNavigation:
		return "navigation"
	case KindManifest:
		return "manifest"
	case KindBridge:
		return "bridge"
	case KindConfig:
		return "config"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// KeelError represents a structured error in the Keel runtime.
type KeelError struct {
	// Op is the operation that failed (e.g., "chunk.Loader.Load").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Chunk is the logical chunk name, if applicable.
	Chunk string
	// Path is the navigation path, if applicable.
	Path string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *KeelError) Error() string {
	switch {
	case e.Chunk != "":
		return fmt.Sprintf("%s [%s] chunk=%s: %v", e.Op, e.Kind, e.Chunk, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s [%s] path=%s: %v", e.Op, e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *KeelError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "host.Loop.Run").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the Keel runtime.
//
// Aborted navigations that the recovery mechanism does not claim (guard
// rejections, duplicate navigations, unknown routes) end up here.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *KeelError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
