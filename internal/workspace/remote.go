package workspace

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/sandboxapi"
)

// RemoteConfig configures remote workspaces.
type RemoteConfig struct {
	Client *sandboxapi.Client
	// Template is used when the options carry no image.
	Template string
}

// RemoteWorkspace is a sandbox on a remote sandbox service, kept attached
// by a session WebSocket.
type RemoteWorkspace struct {
	*lifecycle

	client    *sandboxapi.Client
	sandboxID string
	session   *sandboxapi.Session
	env       map[string]string
	cwd       string
}

// NewRemoteConstructor returns a Constructor for KindRemote.
func NewRemoteConstructor(cfg RemoteConfig) Constructor {
	return func(ctx context.Context, opts Options) (Workspace, error) {
		return newRemote(ctx, cfg, opts)
	}
}

func newRemote(ctx context.Context, cfg RemoteConfig, opts Options) (*RemoteWorkspace, error) {
	if cfg.Client == nil {
		return nil, errors.ProvisioningFailed(string(KindRemote), fmt.Errorf("remote sandbox service is not configured"))
	}

	r := &RemoteWorkspace{
		lifecycle: newLifecycle(KindRemote),
		client:    cfg.Client,
		env:       mergeEnv(nil, opts.Env),
		cwd:       opts.WorkingDir,
	}

	template := opts.Image
	if template == "" {
		template = cfg.Template
	}

	metadata := mergeEnv(opts.Labels, map[string]string{"forage-ws.workspace": r.id})
	sb, err := r.client.CreateSandbox(ctx, sandboxapi.CreateSandboxParams{
		Name:     "forage-ws-" + r.id,
		Template: template,
		Env:      opts.Env,
		Metadata: metadata,
	})
	if err != nil {
		return nil, errors.ProvisioningFailed(string(KindRemote), errors.RemoteError("create sandbox", err))
	}
	r.sandboxID = sb.ID

	session, err := r.client.OpenSession(ctx, sb.ID)
	if err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if delErr := r.client.DeleteSandbox(cleanupCtx, sb.ID, true); delErr != nil && !sandboxapi.IsNotFound(delErr) {
			logging.Warn("failed to delete sandbox after session failure",
				"workspace", r.id, "sandbox", sb.ID, "error", delErr)
		}
		return nil, errors.ProvisioningFailed(string(KindRemote), errors.RemoteError("open session", err))
	}
	r.session = session

	logging.Debug("remote sandbox ready", "workspace", r.id, "sandbox", sb.ID)
	return r, nil
}

// SandboxID returns the identifier assigned by the service.
func (r *RemoteWorkspace) SandboxID() string {
	return r.sandboxID
}

func (r *RemoteWorkspace) Exec(ctx context.Context, command []string, opts ExecOptions) (*ExecResult, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	if len(command) == 0 {
		return nil, errors.ValidationError("command must not be empty")
	}

	req := sandboxapi.RunRequest{
		Command: shellquote.Join(command...),
		Env:     mergeEnv(r.env, opts.Env),
		Cwd:     r.cwd,
	}
	if opts.WorkingDir != "" {
		req.Cwd = opts.WorkingDir
	}
	if opts.Stdin != nil {
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		req.Stdin = string(data)
	}

	start := time.Now()
	res, err := r.client.Run(ctx, r.sandboxID, req)
	if err != nil {
		return nil, errors.RemoteError("run command", err)
	}

	return &ExecResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: time.Since(start),
	}, nil
}

func (r *RemoteWorkspace) Teardown(ctx context.Context) error {
	return r.teardown(ctx, r.release)
}

func (r *RemoteWorkspace) release(ctx context.Context) error {
	var errs []error
	if err := r.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session: %w", err))
	}
	if err := r.client.DeleteSandbox(ctx, r.sandboxID, true); err != nil && !sandboxapi.IsNotFound(err) {
		errs = append(errs, errors.RemoteError("delete sandbox", err))
	}
	return errors.Join(errs...)
}
