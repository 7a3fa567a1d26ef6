// Package runtime defines the container runtime interface for forage-ws.
// Docker workspaces drive containers through it, and tests swap in MockRuntime.
package runtime

import (
	"context"
	"errors"
	"io"
)

// LabelWorkspace is set on every container forage-ws creates; its value
// is the owning workspace id.
const LabelWorkspace = "forage-ws.workspace"

// ErrContainerNotFound is wrapped by Exec when the container does not exist.
var ErrContainerNotFound = errors.New("no such container")

// ContainerStatus represents the state of a container
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not-found"
	StatusUnknown  ContainerStatus = "unknown"
)

// ContainerInfo holds information about a container
type ContainerInfo struct {
	Name      string
	Image     string
	Status    ContainerStatus
	StartedAt string
	Labels    map[string]string
}

// ExecResult holds the result of executing a command in a container
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CreateOptions holds options for creating a container
type CreateOptions struct {
	Name       string
	Image      string
	Start      bool              // Start immediately after creation
	Env        []string          // KEY=VALUE entries
	Labels     map[string]string // Extra labels besides LabelWorkspace
	WorkingDir string
	// Command keeps the container alive; defaults to "sleep infinity".
	Command   []string
	ExtraArgs []string // Backend-specific arguments
}

// ExecOptions holds options for executing a command in a container
type ExecOptions struct {
	User       string    // User to run as
	WorkingDir string    // Working directory
	Env        []string  // Environment variables
	Stdin      io.Reader // Standard input
}

// Runtime is the interface that container backends must implement.
// All methods should be safe for concurrent use.
type Runtime interface {
	// Name returns the runtime identifier (e.g., "docker", "podman")
	Name() string

	// Create creates a new container, starting it if opts.Start is set
	Create(ctx context.Context, opts CreateOptions) error

	// Destroy stops and removes a container. A missing container is not an error.
	Destroy(ctx context.Context, name string) error

	// IsRunning checks if a container is currently running
	IsRunning(ctx context.Context, name string) (bool, error)

	// Status returns detailed status of a container
	Status(ctx context.Context, name string) (*ContainerInfo, error)

	// Exec executes a command inside a container. A non-zero exit code is
	// reported in the result, not as an error, unless the container is
	// missing: that wraps ErrContainerNotFound.
	Exec(ctx context.Context, name string, command []string, opts ExecOptions) (*ExecResult, error)

	// List returns all containers managed by this runtime
	List(ctx context.Context) ([]*ContainerInfo, error)
}
