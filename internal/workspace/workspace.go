package workspace

import (
	"context"
	"io"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
)

//go:generate mockgen -destination=mocks/mock_workspace.go -package=mocks github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace Workspace

// State is the lifecycle state of a workspace.
type State string

const (
	StateActive   State = "active"
	StateTornDown State = "torn-down"
)

// ErrTornDown is returned by operations on a workspace after teardown.
var ErrTornDown = errors.New(errors.ExitGeneralError, "workspace has been torn down")

// Workspace is one provisioned sandbox. It exclusively owns its
// underlying resource: a process group, a container, or a remote session.
type Workspace interface {
	// ID is the opaque identity assigned at construction.
	ID() string

	Kind() Kind

	State() State

	CreatedAt() time.Time

	// Exec runs command inside the sandbox. A non-zero exit code is
	// reported in the result, not as an error.
	Exec(ctx context.Context, command []string, opts ExecOptions) (*ExecResult, error)

	// Teardown releases the underlying resource. Only the first call does
	// any work; later calls return nil.
	Teardown(ctx context.Context) error
}

// Constructor provisions a workspace of one kind.
type Constructor func(ctx context.Context, opts Options) (Workspace, error)

// ExecOptions holds options for a single command.
type ExecOptions struct {
	// WorkingDir overrides the directory the command runs in. Host
	// workspaces resolve it inside the workspace directory.
	WorkingDir string
	// Env is added on top of the workspace environment.
	Env   map[string]string
	Stdin io.Reader
}

// ExecResult holds the outcome of Exec.
type ExecResult struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}
