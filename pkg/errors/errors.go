package errors

import (
	"context"
	"fmt"
	"time"
)

// The error types below are the full failure taxonomy of the agent.
// They are always returned as values and branched on with errors.As;
// nothing in this package is ever panicked across a boundary.

type (
	// DuplicateToolError reports an attempt to register a second tool
	// under a name that is already taken. The registry keeps the first
	// registration untouched.
	DuplicateToolError struct {
		Name string
	}

	// UnknownToolError reports a dispatch against a name no tool was
	// registered under.
	UnknownToolError struct {
		Name string
	}

	// NotAvailableError reports a dispatch against a registered tool
	// that is currently disabled, typically for missing credentials.
	NotAvailableError struct {
		Name   string
		Reason string
	}

	// ExecutionError wraps any fault raised inside a tool call, panics
	// included. It never escapes the dispatch boundary undecorated.
	ExecutionError struct {
		Tool string
		Err  error
	}

	// TimeoutError marks a tool call that exceeded its deadline. It
	// unwraps to an ExecutionError so callers that only distinguish
	// "the tool failed" keep working.
	TimeoutError struct {
		Tool    string
		Timeout time.Duration
	}

	// EmbeddingError wraps a failure of the embedding provider. The
	// retrieval pipeline degrades to a context-free prompt on it.
	EmbeddingError struct {
		Err error
	}

	// GenerationError wraps a failure of the completion provider.
	GenerationError struct {
		Err error
	}
)

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

func (e *NotAvailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("tool not available: %s", e.Name)
	}

	return fmt.Sprintf("tool not available: %s (%s)", e.Name, e.Reason)
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s timed out after %s", e.Tool, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return &ExecutionError{Tool: e.Tool, Err: context.DeadlineExceeded}
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
