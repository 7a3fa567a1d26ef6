package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
)

// DockerConfig configures docker workspaces.
type DockerConfig struct {
	Runtime runtime.Runtime
	// Image is used when the options carry none.
	Image string
}

// DockerWorkspace runs commands in a container it owns.
type DockerWorkspace struct {
	*lifecycle

	rt         runtime.Runtime
	container  string
	image      string
	workingDir string
}

// NewDockerConstructor returns a Constructor for KindDocker.
func NewDockerConstructor(cfg DockerConfig) Constructor {
	return func(ctx context.Context, opts Options) (Workspace, error) {
		return newDocker(ctx, cfg, opts)
	}
}

func newDocker(ctx context.Context, cfg DockerConfig, opts Options) (*DockerWorkspace, error) {
	if cfg.Runtime == nil {
		return nil, errors.ProvisioningFailed(string(KindDocker), fmt.Errorf("no container runtime available"))
	}

	image := opts.Image
	if image == "" {
		image = cfg.Image
	}
	if image == "" {
		return nil, errors.ProvisioningFailed(string(KindDocker), fmt.Errorf("no container image configured"))
	}

	d := &DockerWorkspace{
		lifecycle:  newLifecycle(KindDocker),
		rt:         cfg.Runtime,
		image:      image,
		workingDir: opts.WorkingDir,
	}
	d.container = d.id

	err := d.rt.Create(ctx, runtime.CreateOptions{
		Name:       d.container,
		Image:      image,
		Start:      true,
		Env:        envList(opts.Env),
		Labels:     opts.Labels,
		WorkingDir: opts.WorkingDir,
	})
	if err != nil {
		// Create may fail after the container exists (e.g. on start).
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if destroyErr := d.rt.Destroy(cleanupCtx, d.container); destroyErr != nil {
			logging.Warn("failed to clean up container after provisioning failure",
				"workspace", d.id, "error", destroyErr)
		}
		return nil, errors.ProvisioningFailed(string(KindDocker), err)
	}

	logging.Debug("container started", "workspace", d.id, "runtime", d.rt.Name(), "image", image)
	return d, nil
}

// Container returns the container name passed to the runtime.
func (d *DockerWorkspace) Container() string {
	return d.container
}

func (d *DockerWorkspace) Image() string {
	return d.image
}

func (d *DockerWorkspace) Exec(ctx context.Context, command []string, opts ExecOptions) (*ExecResult, error) {
	if err := d.checkActive(); err != nil {
		return nil, err
	}
	if len(command) == 0 {
		return nil, errors.ValidationError("command must not be empty")
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = d.workingDir
	}

	start := time.Now()
	res, err := d.rt.Exec(ctx, d.container, command, runtime.ExecOptions{
		WorkingDir: workingDir,
		Env:        envList(opts.Env),
		Stdin:      opts.Stdin,
	})
	if err != nil {
		if errors.Is(err, runtime.ErrContainerNotFound) {
			return nil, d.containerGone(err)
		}
		return nil, err
	}

	// A stopped container also fails exec with a non-zero status.
	if res.ExitCode != 0 {
		running, runErr := d.rt.IsRunning(ctx, d.container)
		if runErr == nil && !running {
			return nil, d.containerGone(fmt.Errorf("container %s is not running", d.container))
		}
	}

	return &ExecResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: time.Since(start),
	}, nil
}

func (d *DockerWorkspace) containerGone(cause error) error {
	logging.Warn("workspace container vanished", "workspace", d.id, "container", d.container)
	return errors.Wrap(errors.ExitGeneralError,
		fmt.Sprintf("container for workspace %s is gone", d.id), cause)
}

func (d *DockerWorkspace) Teardown(ctx context.Context) error {
	return d.teardown(ctx, func(ctx context.Context) error {
		return d.rt.Destroy(ctx, d.container)
	})
}
