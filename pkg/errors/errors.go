package errors

import (
	"fmt"
)

// ParseError represents a queue document parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures invalid desired state: malformed documents, kind
// conflicts, or parameters missing for the requested operation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProtocolError reports a query or mutation rejected by the printing service.
type ProtocolError struct {
	Op     string
	Target string
	Err    error
}

// NewProtocolError constructs a ProtocolError for the named operation.
func NewProtocolError(op, target string, err error) error {
	return &ProtocolError{Op: op, Target: target, Err: err}
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("protocol error: %s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("protocol error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the root error.
func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ResourceError indicates a failure to fetch, hash, or release a driver file.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

// NewResourceError constructs a ResourceError.
func NewResourceError(op, path string, err error) error {
	return &ResourceError{Op: op, Path: path, Err: err}
}

func (e *ResourceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("resource error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("resource error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ResourceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
