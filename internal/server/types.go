package server

import (
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Workspaces    int      `json:"workspaces"`
	Supported     []string `json:"supported"`
}

// CreateRequest is the body of POST /workspaces.
type CreateRequest struct {
	Kind       string            `json:"kind"`
	Image      string            `json:"image,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	SourceRepo string            `json:"source_repo,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// WorkspaceResponse describes one workspace.
type WorkspaceResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// ListResponse is returned by GET /workspaces.
type ListResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

// ExecRequest is the body of POST /workspaces/{id}/exec.
type ExecRequest struct {
	Command        []string          `json:"command"`
	Env            map[string]string `json:"env,omitempty"`
	WorkingDir     string            `json:"working_dir,omitempty"`
	Stdin          string            `json:"stdin,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

// ExecResponse is the outcome of a command.
type ExecResponse struct {
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMS int64  `json:"duration_ms"`
}

// TeardownResponse is returned by DELETE /workspaces.
type TeardownResponse struct {
	Errors []string `json:"errors"`
}

// ErrorResponse carries an error message and its forage-ws exit code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func toResponse(ws workspace.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID(),
		Kind:      string(ws.Kind()),
		State:     string(ws.State()),
		CreatedAt: ws.CreatedAt(),
	}
}
