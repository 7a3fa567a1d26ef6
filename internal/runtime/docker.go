package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
)

// DockerRuntime implements the Runtime interface using Docker or Podman.
type DockerRuntime struct {
	// Command is the container command to use (docker or podman)
	Command string

	// ContainerPrefix is prepended to workspace ids to form container names
	ContainerPrefix string

	executor system.CommandExecutor
}

// NewDockerRuntime creates a new Docker/Podman runtime.
// An empty command auto-detects podman, then docker.
func NewDockerRuntime(command, containerPrefix string) (*DockerRuntime, error) {
	if command == "" {
		detected, err := detectContainerCommand()
		if err != nil {
			return nil, err
		}
		command = detected
	} else if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", command, err)
	}

	return NewDockerRuntimeWithExecutor(command, containerPrefix, system.DefaultExecutor()), nil
}

// NewDockerRuntimeWithExecutor builds a runtime that runs its CLI through executor.
func NewDockerRuntimeWithExecutor(command, containerPrefix string, executor system.CommandExecutor) *DockerRuntime {
	return &DockerRuntime{
		Command:         command,
		ContainerPrefix: containerPrefix,
		executor:        executor,
	}
}

func detectContainerCommand() (string, error) {
	for _, candidate := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("neither podman nor docker found in PATH")
}

// containerName returns the full container name for a workspace
func (r *DockerRuntime) containerName(name string) string {
	return r.ContainerPrefix + name
}

// Name returns the runtime identifier
func (r *DockerRuntime) Name() string {
	return r.Command
}

func (r *DockerRuntime) exec() system.CommandExecutor {
	if r.executor == nil {
		return system.DefaultExecutor()
	}
	return r.executor
}

// runCmd executes a docker/podman command
func (r *DockerRuntime) runCmd(ctx context.Context, args ...string) (string, error) {
	out, err := r.exec().Run(ctx, system.Command{Name: r.Command, Args: args})
	if err != nil {
		return "", fmt.Errorf("%s %s failed: %s: %w", r.Command, args[0], strings.TrimSpace(string(out.Stderr)), err)
	}
	return string(out.Stdout), nil
}

func isNoSuchContainer(err error) bool {
	return mentionsNoSuchContainer(err.Error())
}

func mentionsNoSuchContainer(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "no such container") || strings.Contains(msg, "no container with name")
}

// Create creates a new container from opts.Image
func (r *DockerRuntime) Create(ctx context.Context, opts CreateOptions) error {
	if opts.Image == "" {
		return fmt.Errorf("image is required")
	}

	containerName := r.containerName(opts.Name)
	logging.Debug("creating container", "name", containerName, "image", opts.Image, "runtime", r.Command)

	args := []string{"create", "--name", containerName, "--label", LabelWorkspace + "=" + opts.Name}

	labelKeys := make([]string, 0, len(opts.Labels))
	for k := range opts.Labels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	for _, k := range labelKeys {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}

	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}

	if opts.WorkingDir != "" {
		args = append(args, "-w", opts.WorkingDir)
	}

	args = append(args, opts.ExtraArgs...)
	args = append(args, opts.Image)

	command := opts.Command
	if len(command) == 0 {
		command = []string{"sleep", "infinity"}
	}
	args = append(args, command...)

	if _, err := r.runCmd(ctx, args...); err != nil {
		return err
	}

	if opts.Start {
		return r.start(ctx, opts.Name)
	}

	return nil
}

func (r *DockerRuntime) start(ctx context.Context, name string) error {
	containerName := r.containerName(name)
	logging.Debug("starting container", "container", containerName)

	_, err := r.runCmd(ctx, "start", containerName)
	return err
}

// Destroy stops and removes a container
func (r *DockerRuntime) Destroy(ctx context.Context, name string) error {
	containerName := r.containerName(name)
	logging.Debug("destroying container", "container", containerName)

	// rm -f stops a running container, so a failed stop is not fatal
	_, _ = r.runCmd(ctx, "stop", "-t", "2", containerName)

	_, err := r.runCmd(ctx, "rm", "-f", containerName)
	if err != nil && isNoSuchContainer(err) {
		return nil
	}

	return err
}

// IsRunning checks if a container is currently running
func (r *DockerRuntime) IsRunning(ctx context.Context, name string) (bool, error) {
	containerName := r.containerName(name)

	output, err := r.runCmd(ctx, "inspect", "-f", "{{.State.Running}}", containerName)
	if err != nil {
		if isNoSuchContainer(err) {
			return false, nil
		}
		return false, err
	}

	return strings.TrimSpace(output) == "true", nil
}

// dockerInspect holds the relevant fields from docker inspect
type dockerInspect struct {
	State struct {
		Status    string `json:"Status"`
		Running   bool   `json:"Running"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	Config struct {
		Image  string            `json:"Image"`
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

// Status returns detailed status of a container
func (r *DockerRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	containerName := r.containerName(name)

	info := &ContainerInfo{
		Name:   name,
		Status: StatusNotFound,
	}

	output, err := r.runCmd(ctx, "inspect", containerName)
	if err != nil {
		if isNoSuchContainer(err) {
			return info, nil
		}
		return nil, err
	}

	var inspects []dockerInspect
	if err := json.Unmarshal([]byte(output), &inspects); err != nil {
		return nil, fmt.Errorf("failed to parse inspect output: %w", err)
	}

	if len(inspects) == 0 {
		return info, nil
	}

	inspect := inspects[0]
	switch inspect.State.Status {
	case "running":
		info.Status = StatusRunning
	case "exited", "stopped", "created":
		info.Status = StatusStopped
	default:
		info.Status = StatusUnknown
	}

	info.StartedAt = inspect.State.StartedAt
	info.Image = inspect.Config.Image
	info.Labels = inspect.Config.Labels

	return info, nil
}

// Exec executes a command inside a container
func (r *DockerRuntime) Exec(ctx context.Context, name string, command []string, opts ExecOptions) (*ExecResult, error) {
	containerName := r.containerName(name)

	args := []string{"exec"}

	if opts.Stdin != nil {
		args = append(args, "-i")
	}

	if opts.User != "" {
		args = append(args, "-u", opts.User)
	}

	if opts.WorkingDir != "" {
		args = append(args, "-w", opts.WorkingDir)
	}

	for _, env := range opts.Env {
		args = append(args, "-e", env)
	}

	args = append(args, containerName)
	args = append(args, command...)

	out, err := r.exec().Run(ctx, system.Command{Name: r.Command, Args: args, Stdin: opts.Stdin})

	result := &ExecResult{
		ExitCode: out.ExitCode,
		Stdout:   string(out.Stdout),
		Stderr:   string(out.Stderr),
	}

	if err != nil {
		var exitErr *system.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("exec failed: %w", err)
		}
		result.ExitCode = exitErr.Code
		// The CLI reports a missing container the same way a failing
		// command reports its own exit status.
		if mentionsNoSuchContainer(result.Stderr) {
			return nil, fmt.Errorf("exec in %s: %w", containerName, ErrContainerNotFound)
		}
	}

	return result, nil
}

// List returns all containers managed by this runtime
func (r *DockerRuntime) List(ctx context.Context) ([]*ContainerInfo, error) {
	output, err := r.runCmd(ctx, "ps", "-a", "--format", "{{.Names}}", "--filter", "label="+LabelWorkspace)
	if err != nil {
		return nil, err
	}

	var containers []*ContainerInfo
	lines := strings.Split(strings.TrimSpace(output), "\n")

	for _, name := range lines {
		if name == "" || !strings.HasPrefix(name, r.ContainerPrefix) {
			continue
		}

		workspaceID := strings.TrimPrefix(name, r.ContainerPrefix)

		info, err := r.Status(ctx, workspaceID)
		if err != nil {
			logging.Debug("failed to inspect container", "container", name, "error", err)
			continue
		}
		containers = append(containers, info)
	}

	return containers, nil
}

// Ensure DockerRuntime implements Runtime
var _ Runtime = (*DockerRuntime)(nil)
