package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/vcs"
)

// HostConfig configures host workspaces.
type HostConfig struct {
	// Root is the parent of every workspace directory
	// (default: $TMPDIR/forage-ws).
	Root string
	// Executor runs VCS commands for source checkouts.
	Executor system.CommandExecutor
}

// HostWorkspace runs commands as local processes, each in its own process
// group, inside a private directory.
type HostWorkspace struct {
	*lifecycle

	dir   string
	owned bool
	env   map[string]string

	repo    string
	backend vcs.Backend

	mu     sync.Mutex
	groups map[int]struct{}
}

// NewHostConstructor returns a Constructor for KindHost.
func NewHostConstructor(cfg HostConfig) Constructor {
	return func(ctx context.Context, opts Options) (Workspace, error) {
		return newHost(ctx, cfg, opts)
	}
}

func newHost(ctx context.Context, cfg HostConfig, opts Options) (*HostWorkspace, error) {
	if !procGroupsSupported {
		return nil, errors.ProvisioningFailed(string(KindHost),
			fmt.Errorf("process-group sandboxing is not supported on %s", goruntime.GOOS))
	}

	h := &HostWorkspace{
		lifecycle: newLifecycle(KindHost),
		env:       mergeEnv(nil, opts.Env),
		groups:    make(map[int]struct{}),
	}

	if opts.WorkingDir != "" {
		info, err := os.Stat(opts.WorkingDir)
		if err != nil {
			return nil, errors.ProvisioningFailed(string(KindHost), err)
		}
		if !info.IsDir() {
			return nil, errors.ProvisioningFailed(string(KindHost),
				fmt.Errorf("working directory %s is not a directory", opts.WorkingDir))
		}
		h.dir = opts.WorkingDir
		return h, nil
	}

	root := cfg.Root
	if root == "" {
		root = filepath.Join(os.TempDir(), "forage-ws")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.ProvisioningFailed(string(KindHost), fmt.Errorf("failed to create workspace root: %w", err))
	}

	dir, err := securejoin.SecureJoin(root, h.id)
	if err != nil {
		return nil, errors.ProvisioningFailed(string(KindHost), err)
	}
	h.dir = dir
	h.owned = true

	if opts.SourceRepo != "" {
		backend := vcs.Detect(opts.SourceRepo, cfg.Executor)
		if backend == nil {
			return nil, errors.ProvisioningFailed(string(KindHost),
				fmt.Errorf("%s is not a jj or git repository", opts.SourceRepo))
		}
		if err := backend.Create(ctx, opts.SourceRepo, h.id, dir); err != nil {
			return nil, errors.ProvisioningFailed(string(KindHost), err)
		}
		h.repo = opts.SourceRepo
		h.backend = backend
		logging.Debug("checked out source", "workspace", h.id, "backend", backend.Name(), "path", dir)
		return h, nil
	}

	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, errors.ProvisioningFailed(string(KindHost), fmt.Errorf("failed to create workspace directory: %w", err))
	}
	return h, nil
}

// Dir returns the directory commands run in.
func (h *HostWorkspace) Dir() string {
	return h.dir
}

func (h *HostWorkspace) Exec(ctx context.Context, command []string, opts ExecOptions) (*ExecResult, error) {
	if err := h.checkActive(); err != nil {
		return nil, err
	}
	if len(command) == 0 {
		return nil, errors.ValidationError("command must not be empty")
	}

	dir := h.dir
	if opts.WorkingDir != "" {
		resolved, err := securejoin.SecureJoin(h.dir, opts.WorkingDir)
		if err != nil {
			return nil, fmt.Errorf("invalid working directory: %w", err)
		}
		dir = resolved
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = system.SafeEnviron(mergeEnv(h.env, opts.Env))
	cmd.Stdin = opts.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setupProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command[0], err)
	}

	pgid := cmd.Process.Pid
	if !h.track(pgid) {
		_ = killGroup(pgid)
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	if !groupAlive(pgid) {
		h.untrack(pgid)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if waitErr != nil && cmd.ProcessState == nil {
		return nil, waitErr
	}

	return &ExecResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// track registers a running group. It returns false when the workspace was
// torn down in the meantime; the caller must then kill the group itself.
func (h *HostWorkspace) track(pgid int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.State() == StateTornDown {
		return false
	}
	h.pruneLocked()
	h.groups[pgid] = struct{}{}
	return true
}

// pruneLocked forgets groups with no members left, so a pgid the kernel
// hands to an unrelated session is never signalled. h.mu must be held.
func (h *HostWorkspace) pruneLocked() {
	for pgid := range h.groups {
		if !groupAlive(pgid) {
			delete(h.groups, pgid)
		}
	}
}

func (h *HostWorkspace) untrack(pgid int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups, pgid)
}

func (h *HostWorkspace) Teardown(ctx context.Context) error {
	return h.teardown(ctx, h.release)
}

func (h *HostWorkspace) release(ctx context.Context) error {
	h.mu.Lock()
	h.pruneLocked()
	pgids := make([]int, 0, len(h.groups))
	for pgid := range h.groups {
		pgids = append(pgids, pgid)
	}
	h.groups = make(map[int]struct{})
	h.mu.Unlock()
	sort.Ints(pgids)

	var errs []error
	for _, pgid := range pgids {
		if err := killGroup(pgid); err != nil {
			errs = append(errs, err)
		}
	}

	if h.owned {
		if h.backend != nil {
			if err := h.backend.Remove(ctx, h.repo, h.id, h.dir); err != nil {
				errs = append(errs, err)
			}
		} else if err := os.RemoveAll(h.dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", h.dir, err))
		}
	}

	return errors.Join(errs...)
}
