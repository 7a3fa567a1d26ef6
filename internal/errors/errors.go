package errors

import (
	"errors"
	"fmt"
)

// Exit codes for forage-ws
const (
	ExitSuccess              = 0
	ExitGeneralError         = 1
	ExitWorkspaceNotFound    = 2
	ExitNoWorkspaceAvailable = 3
	ExitUnsupportedEnv       = 4
	ExitProvisioningFailed   = 5
	ExitConfigError          = 6
	ExitTeardownFailed       = 7
	ExitRemoteError          = 8
)

// ForageError is the base error type for forage-ws
type ForageError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ForageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ForageError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *ForageError) ExitCode() int {
	return e.Code
}

// New creates a new ForageError
func New(code int, message string) *ForageError {
	return &ForageError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ForageError
func Wrap(code int, message string, cause error) *ForageError {
	return &ForageError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// UnsupportedEnvironment returns an error for a kind the factory cannot build.
func UnsupportedEnvironment(kind string) *ForageError {
	return New(ExitUnsupportedEnv, fmt.Sprintf("workspace environment %q is not supported", kind))
}

// ProvisioningFailed returns an error for a sandbox that could not be started.
func ProvisioningFailed(kind string, cause error) *ForageError {
	return Wrap(ExitProvisioningFailed, fmt.Sprintf("provisioning %s workspace failed", kind), cause)
}

// WorkspaceNotFound returns an error for an identity missing from the registry
func WorkspaceNotFound(id string) *ForageError {
	return New(ExitWorkspaceNotFound, fmt.Sprintf("workspace not found: %s", id))
}

// NoWorkspaceAvailable returns an error when no most-recent workspace exists
func NoWorkspaceAvailable() *ForageError {
	return New(ExitNoWorkspaceAvailable, "no workspace available")
}

// TeardownFailed returns an error for a workspace whose resources could not be released
func TeardownFailed(id string, cause error) *ForageError {
	return Wrap(ExitTeardownFailed, fmt.Sprintf("teardown of workspace %s failed", id), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *ForageError {
	return Wrap(ExitConfigError, message, cause)
}

// RemoteError returns an error for remote sandbox API failures
func RemoteError(message string, cause error) *ForageError {
	return Wrap(ExitRemoteError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *ForageError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var forageErr *ForageError
	if errors.As(err, &forageErr) {
		return forageErr.ExitCode()
	}
	return ExitGeneralError
}

// HasCode reports whether any ForageError in err's chain carries code.
func HasCode(err error, code int) bool {
	for err != nil {
		var forageErr *ForageError
		if !errors.As(err, &forageErr) {
			return false
		}
		if forageErr.Code == code {
			return true
		}
		err = forageErr.Cause
	}
	return false
}

// IsNotFound reports whether err is a workspace lookup miss.
func IsNotFound(err error) bool {
	return HasCode(err, ExitWorkspaceNotFound)
}

// IsNoneAvailable reports whether err signals that no workspace was ever made recent.
func IsNoneAvailable(err error) bool {
	return HasCode(err, ExitNoWorkspaceAvailable)
}

// IsUnsupported reports whether err rejects an environment kind.
func IsUnsupported(err error) bool {
	return HasCode(err, ExitUnsupportedEnv)
}

// IsProvisioning reports whether err is a sandbox provisioning failure.
func IsProvisioning(err error) bool {
	return HasCode(err, ExitProvisioningFailed)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join combines errs, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
