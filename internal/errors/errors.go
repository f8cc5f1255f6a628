package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// InvalidInput errors - the request was malformed before any work began
	ErrorTypeInvalidInput ErrorType = iota
	// NotFound errors - the requested root directory does not exist
	ErrorTypeNotFound
	// RemoteFetch errors - cloning a remote repository failed
	ErrorTypeRemoteFetch
	// RepositoryAccess errors - a single repository's metadata store is unreadable
	ErrorTypeRepositoryAccess
	// Storage errors - report history persistence failures
	ErrorTypeStorage
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how an error affects the pipeline
type Severity int

const (
	// SeverityWarning - absorbed locally, processing continues
	SeverityWarning Severity = iota
	// SeverityError - the current operation fails but the process survives
	SeverityError
	// SeverityFatal - aborts the whole pipeline
	SeverityFatal
)

// Error is a structured error carrying its pipeline-level consequence.
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for diagnostics
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches errors of the same type, so errors.Is works across wrapping
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error must abort the pipeline
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// DetailedString renders the error with its context for verbose logs
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", typeString(e.Type), e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	for k, v := range e.Context {
		sb.WriteString(fmt.Sprintf("\n  %s: %v", k, v))
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeRemoteFetch:
		return "REMOTE_FETCH"
	case ErrorTypeRepositoryAccess:
		return "REPOSITORY_ACCESS"
	case ErrorTypeStorage:
		return "STORAGE"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
	}
}

// Wrap wraps an existing error, preserving it for errors.Is/As inspection
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// Convenience constructors, one per pipeline error kind

// InvalidInput creates a fatal input-validation error
func InvalidInput(message string) *Error {
	return New(ErrorTypeInvalidInput, SeverityFatal, message)
}

// InvalidInputf creates a fatal input-validation error with formatting
func InvalidInputf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInvalidInput, SeverityFatal, fmt.Sprintf(format, args...))
}

// NotFound creates a fatal missing-root error
func NotFound(message string) *Error {
	return New(ErrorTypeNotFound, SeverityFatal, message)
}

// NotFoundf creates a fatal missing-root error with formatting
func NotFoundf(format string, args ...interface{}) *Error {
	return New(ErrorTypeNotFound, SeverityFatal, fmt.Sprintf(format, args...))
}

// RemoteFetch wraps a failed clone as a fatal error
func RemoteFetch(err error, message string) *Error {
	return Wrap(err, ErrorTypeRemoteFetch, SeverityFatal, message)
}

// RemoteFetchf wraps a failed clone as a fatal error with formatting
func RemoteFetchf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeRemoteFetch, SeverityFatal, fmt.Sprintf(format, args...))
}

// RepositoryAccess wraps a per-repository read failure. Non-fatal: the
// pipeline records it and continues with the remaining repositories.
func RepositoryAccess(err error, message string) *Error {
	return Wrap(err, ErrorTypeRepositoryAccess, SeverityWarning, message)
}

// RepositoryAccessf wraps a per-repository read failure with formatting
func RepositoryAccessf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeRepositoryAccess, SeverityWarning, fmt.Sprintf(format, args...))
}

// Storage wraps a report history persistence error
func Storage(err error, message string) *Error {
	return Wrap(err, ErrorTypeStorage, SeverityError, message)
}

// Storagef wraps a report history persistence error with formatting
func Storagef(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeStorage, SeverityError, fmt.Sprintf(format, args...))
}

// Internal creates an unexpected-state error
func Internal(message string) *Error {
	return New(ErrorTypeInternal, SeverityFatal, message)
}

// Type predicates for callers that branch on error kind

// IsNotFound reports whether err is (or wraps) a NotFound error
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsRemoteFetch reports whether err is (or wraps) a RemoteFetch error
func IsRemoteFetch(err error) bool {
	return hasType(err, ErrorTypeRemoteFetch)
}

// IsRepositoryAccess reports whether err is (or wraps) a RepositoryAccess error
func IsRepositoryAccess(err error) bool {
	return hasType(err, ErrorTypeRepositoryAccess)
}

// IsInvalidInput reports whether err is (or wraps) an InvalidInput error
func IsInvalidInput(err error) bool {
	return hasType(err, ErrorTypeInvalidInput)
}

func hasType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsFatal checks whether an error must abort the pipeline. Unclassified
// errors are treated as fatal; only explicitly absorbed kinds are not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}

	return true
}

// GetType returns the type of an error, unwrapping as needed
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}

	return ErrorTypeInternal
}
