// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Command describes a process to run.
type Command struct {
	Name  string
	Args  []string
	Stdin io.Reader
	// Dir is the working directory; empty means the caller's.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is what a finished command produced. It is populated even when
// Run returns an error.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.Code, msg)
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes cmd to completion. A non-zero exit yields *ExitError.
	Run(ctx context.Context, cmd Command) (*Output, error)
}

var defaultExecutor CommandExecutor = &osExecutor{}

// DefaultExecutor returns the default CommandExecutor implementation.
func DefaultExecutor() CommandExecutor {
	return defaultExecutor
}

// SetDefaultExecutor sets the default CommandExecutor (useful for testing).
func SetDefaultExecutor(exec CommandExecutor) {
	defaultExecutor = exec
}

// ResetDefaults restores the default OS implementations.
func ResetDefaults() {
	defaultExecutor = &osExecutor{}
}
