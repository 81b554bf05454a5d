package handler

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Loaded Handler engine. Each is wrapped
// into an *InitError (via its Err field) or wrapped with %w by GetFile,
// so callers can use errors.Is against a stable value instead of matching
// on Error() text or an InitFailureReason string.
var (
	ErrHandlerNameEmpty  = errors.New("handler settings: HandlerName is required")
	ErrJobNameEmpty      = errors.New("handler settings: JobName is required")
	ErrGeneratorRequired = errors.New("handler requires a job generator adapter")
	ErrPluginMissing     = errors.New("job initializer missing")
	ErrHandlerMissing    = errors.New("job handler type missing")
	ErrTypeException     = errors.New("job handler type construction failed")
	ErrFileNotFound      = errors.New("requested file not found under package folder")
	ErrPathTraversal     = errors.New("requested path escapes the package folder")
)

// InitFailureReason enumerates the reason codes §6 requires Initialize to
// report on failure.
type InitFailureReason string

const (
	// ReasonCompilationFailed is reserved for Hosts whose Package Loader
	// compiles a job script before calling plugin.Build; this module's
	// reference Build never compiles anything, so it never returns this
	// reason itself, but the value is part of the §6 contract other
	// Initialize implementations may report.
	ReasonCompilationFailed  InitFailureReason = "CompilationFailed"
	ReasonInitializerMissing InitFailureReason = "JobInitializerMissing"
	ReasonTypeException      InitFailureReason = "TypeException"
	ReasonHandlerMissing     InitFailureReason = "JobHandlerMissing"
)

// InitError wraps an InitFailureReason with a descriptive message, the shape
// Initialize returns on failure per §6. Err, when set, lets callers use
// errors.Is against one of this package's sentinel errors.
type InitError struct {
	Reason  InitFailureReason
	Message string
	Err     error
}

func (e *InitError) Error() string {
	return string(e.Reason) + ": " + e.Message
}

func (e *InitError) Unwrap() error { return e.Err }

func newInitError(reason InitFailureReason, sentinel error, format string, args ...any) *InitError {
	return &InitError{Reason: reason, Message: fmt.Sprintf(format, args...), Err: sentinel}
}
