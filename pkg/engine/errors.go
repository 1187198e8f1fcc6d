package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of a cycle error for fatality and
// reporting decisions.
type ErrorClass string

const (
	// ErrorClassCompile indicates the TypeScript compile step failed.
	// Never fatal: the previously compiled artifacts are still synced.
	ErrorClassCompile ErrorClass = "compile"

	// ErrorClassFilesystem indicates a copy, delete, or stat failure while
	// reconciling the deployment tree.
	ErrorClassFilesystem ErrorClass = "filesystem"

	// ErrorClassScan indicates the library reference scan could not run.
	ErrorClassScan ErrorClass = "scan"

	// ErrorClassConfig indicates invalid workspace or project configuration.
	// Fatal before any mutation: a cycle with bad configuration never starts.
	ErrorClassConfig ErrorClass = "config"
)

// CycleError represents a classified error raised during a build cycle.
type CycleError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Project is the name of the project whose cycle raised the error.
	Project string `json:"project,omitempty"`

	// Path is the filesystem path involved, if applicable.
	Path string `json:"path,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Project != "" && e.Path != "" {
		return fmt.Sprintf("[%s] %s (project=%s, path=%s): %s",
			e.Class, e.Message, e.Project, e.Path, e.unwrapMessage())
	}
	if e.Project != "" {
		return fmt.Sprintf("[%s] %s (project=%s): %s",
			e.Class, e.Message, e.Project, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *CycleError) Unwrap() error {
	return e.Err
}

func (e *CycleError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *CycleError) Is(target error) bool {
	t, ok := target.(*CycleError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewCompileError creates a new compile-class error.
func NewCompileError(message string, err error) *CycleError {
	return &CycleError{
		Class:   ErrorClassCompile,
		Message: message,
		Err:     err,
	}
}

// NewFilesystemError creates a new filesystem-class error.
func NewFilesystemError(message string, err error) *CycleError {
	return &CycleError{
		Class:   ErrorClassFilesystem,
		Message: message,
		Err:     err,
	}
}

// NewScanError creates a new scan-class error.
func NewScanError(message string, err error) *CycleError {
	return &CycleError{
		Class:   ErrorClassScan,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new config-class error.
func NewConfigError(message string, err error) *CycleError {
	return &CycleError{
		Class:   ErrorClassConfig,
		Message: message,
		Err:     err,
	}
}

// WithProject adds project context to an error.
func (e *CycleError) WithProject(project string) *CycleError {
	e.Project = project
	return e
}

// WithPath adds path context to an error.
func (e *CycleError) WithPath(path string) *CycleError {
	e.Path = path
	return e
}

// IsFatal returns true if the error must stop processing before any
// mutation. Only configuration errors are fatal; every other class degrades
// to a logged, partially completed cycle.
func IsFatal(err error) bool {
	var e *CycleError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfig
	}
	return false
}

// IsCompileFailure returns true if the error is classified as a compile
// failure.
func IsCompileFailure(err error) bool {
	var e *CycleError
	if errors.As(err, &e) {
		return e.Class == ErrorClassCompile
	}
	return false
}
