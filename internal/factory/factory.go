package factory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// Factory is the registry of live workspaces.
type Factory struct {
	ctors    map[workspace.Kind]workspace.Constructor
	recorder audit.Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	index  map[string]workspace.Workspace
	recent workspace.Workspace
	closed bool

	// inflight counts Create calls past the closed check. Add only happens
	// under mu while closed is false.
	inflight sync.WaitGroup
}

// ErrClosed is the cause of provisioning failures once Shutdown has run.
var ErrClosed = errors.New(errors.ExitGeneralError, "workspace factory is shut down")

// Option configures a Factory.
type Option func(*Factory)

// WithConstructor registers the constructor for kind, replacing any
// earlier registration.
func WithConstructor(kind workspace.Kind, ctor workspace.Constructor) Option {
	return func(f *Factory) {
		f.ctors[kind] = ctor
	}
}

// WithRecorder sets where lifecycle events are recorded.
func WithRecorder(r audit.Recorder) Option {
	return func(f *Factory) {
		f.recorder = r
	}
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// New creates an empty factory.
func New(opts ...Option) *Factory {
	f := &Factory{
		ctors:    make(map[workspace.Kind]workspace.Constructor),
		recorder: audit.Nop{},
		index:    make(map[string]workspace.Workspace),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return logging.Logger
}

func (f *Factory) record(t audit.EventType, ws workspace.Workspace, details string) {
	err := f.recorder.Record(audit.Event{
		Type:      t,
		Workspace: ws.ID(),
		Kind:      string(ws.Kind()),
		Details:   details,
	})
	if err != nil {
		f.log().Warn("failed to record audit event", "type", t, "workspace", ws.ID(), "error", err)
	}
}

// Supported lists the kinds with a registered constructor.
func (f *Factory) Supported() []workspace.Kind {
	var kinds []workspace.Kind
	for _, k := range workspace.AllKinds() {
		if _, ok := f.ctors[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// IsSupported reports whether kind has a registered constructor.
func (f *Factory) IsSupported(kind workspace.Kind) bool {
	_, ok := f.ctors[kind]
	return ok
}

// Create provisions a workspace of kind, indexes it and makes it the most
// recent one. Nothing is indexed when provisioning fails. After Shutdown,
// Create fails with ErrClosed, and a workspace that finishes provisioning
// after Shutdown started is torn down instead of indexed.
func (f *Factory) Create(ctx context.Context, kind workspace.Kind, opts ...workspace.Option) (workspace.Workspace, error) {
	ctor, ok := f.ctors[kind]
	if !ok {
		return nil, errors.UnsupportedEnvironment(string(kind))
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, errors.ProvisioningFailed(string(kind), ErrClosed)
	}
	f.inflight.Add(1)
	f.mu.Unlock()
	defer f.inflight.Done()

	start := time.Now()
	ws, err := ctor(ctx, workspace.NewOptions(opts...))
	if err != nil {
		f.log().Warn("workspace provisioning failed", "kind", kind, "error", err)
		if !errors.IsProvisioning(err) {
			err = errors.ProvisioningFailed(string(kind), err)
		}
		return nil, err
	}
	if ws == nil {
		return nil, errors.ProvisioningFailed(string(kind), fmt.Errorf("constructor returned no workspace"))
	}
	elapsed := time.Since(start)

	id := ws.ID()
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		if tdErr := f.teardownOne(ctx, ws); tdErr != nil {
			return nil, errors.ProvisioningFailed(string(kind), errors.Join(ErrClosed, tdErr))
		}
		f.log().Info("released workspace provisioned during shutdown", "workspace", id, "kind", kind)
		return nil, errors.ProvisioningFailed(string(kind), ErrClosed)
	}
	if _, dup := f.index[id]; dup {
		f.mu.Unlock()
		if tdErr := ws.Teardown(ctx); tdErr != nil {
			f.log().Warn("failed to release workspace with duplicate id", "workspace", id, "error", tdErr)
		}
		return nil, errors.ProvisioningFailed(string(kind), fmt.Errorf("duplicate workspace id %s", id))
	}
	f.index[id] = ws
	f.recent = ws
	f.mu.Unlock()

	f.log().Info("workspace created", "workspace", id, "kind", kind, "duration", elapsed.Round(time.Millisecond))
	f.record(audit.EventCreate, ws, fmt.Sprintf("duration=%s", elapsed.Round(time.Millisecond)))
	return ws, nil
}

// Get returns the workspace with the given id and makes it the most recent
// one. An empty id returns the most recent workspace.
func (f *Factory) Get(id string) (workspace.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id == "" {
		if f.recent == nil {
			return nil, errors.NoWorkspaceAvailable()
		}
		return f.recent, nil
	}

	ws, ok := f.index[id]
	if !ok {
		return nil, errors.WorkspaceNotFound(id)
	}
	f.recent = ws
	return ws, nil
}

// Recent returns the most recent workspace.
func (f *Factory) Recent() (workspace.Workspace, error) {
	return f.Get("")
}

// Close tears down the workspace with the given id. Unknown ids are
// ignored. If the workspace was the most recent one, no workspace is most
// recent afterwards. Teardown failures are logged, never returned.
func (f *Factory) Close(ctx context.Context, id string) {
	f.mu.Lock()
	ws, ok := f.index[id]
	if ok {
		delete(f.index, id)
		if f.recent == ws {
			f.recent = nil
		}
	}
	f.mu.Unlock()

	if !ok {
		return
	}

	if err := ws.Teardown(ctx); err != nil {
		f.log().Error("workspace teardown failed", "workspace", id, "kind", ws.Kind(), "error", err)
		f.record(audit.EventError, ws, err.Error())
	}
	f.log().Debug("workspace closed", "workspace", id)
	f.record(audit.EventClose, ws, "")
}

// TeardownAll empties the registry and tears down every workspace it held.
// Every teardown is attempted; failures are returned wrapped with the
// workspace id, in creation order.
func (f *Factory) TeardownAll(ctx context.Context) []error {
	f.mu.Lock()
	snapshot := make([]workspace.Workspace, 0, len(f.index))
	for _, ws := range f.index {
		snapshot = append(snapshot, ws)
	}
	f.index = make(map[string]workspace.Workspace)
	f.recent = nil
	f.mu.Unlock()

	sortByCreation(snapshot)

	failures := make([]error, len(snapshot))
	var wg sync.WaitGroup
	for i, ws := range snapshot {
		wg.Add(1)
		go func(i int, ws workspace.Workspace) {
			defer wg.Done()
			failures[i] = f.teardownOne(ctx, ws)
		}(i, ws)
	}
	wg.Wait()

	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(snapshot) > 0 {
		f.log().Info("tore down workspaces", "count", len(snapshot), "failed", len(errs))
	}
	return errs
}

// Shutdown closes the factory to new workspaces, tears down everything it
// holds and waits for in-flight Create calls to release what they
// provisioned. It is the sweep the shutdown guard runs. If ctx expires
// before in-flight creations finish, that is reported as an error.
func (f *Factory) Shutdown(ctx context.Context) []error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	errs := f.TeardownAll(ctx)

	done := make(chan struct{})
	go func() {
		f.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for in-flight provisioning: %w", ctx.Err()))
	}
	return errs
}

// Closed reports whether Shutdown has run.
func (f *Factory) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// teardownOne recovers panics so one broken variant cannot stop the sweep.
func (f *Factory) teardownOne(ctx context.Context, ws workspace.Workspace) (err error) {
	id := ws.ID()
	defer func() {
		if r := recover(); r != nil {
			err = errors.TeardownFailed(id, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			f.log().Error("workspace teardown failed", "workspace", id, "kind", ws.Kind(), "error", err)
			f.record(audit.EventError, ws, err.Error())
			return
		}
		f.record(audit.EventTeardown, ws, "")
	}()

	if tdErr := ws.Teardown(ctx); tdErr != nil {
		return errors.TeardownFailed(id, tdErr)
	}
	return nil
}

// Exec runs command in the workspace with the given id (empty = most
// recent) and records the outcome.
func (f *Factory) Exec(ctx context.Context, id string, command []string, opts workspace.ExecOptions) (*workspace.ExecResult, error) {
	ws, err := f.Get(id)
	if err != nil {
		return nil, err
	}

	name := ""
	if len(command) > 0 {
		name = command[0]
	}

	res, err := ws.Exec(ctx, command, opts)
	if err != nil {
		f.record(audit.EventError, ws, fmt.Sprintf("exec %s: %v", name, err))
		return nil, err
	}
	f.record(audit.EventExec, ws, fmt.Sprintf("%s exit=%d", name, res.ExitCode))
	return res, nil
}

// List returns the indexed workspaces, oldest first.
func (f *Factory) List() []workspace.Workspace {
	f.mu.Lock()
	out := make([]workspace.Workspace, 0, len(f.index))
	for _, ws := range f.index {
		out = append(out, ws)
	}
	f.mu.Unlock()

	sortByCreation(out)
	return out
}

// Len returns the number of indexed workspaces.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.index)
}

func sortByCreation(list []workspace.Workspace) {
	sort.Slice(list, func(i, j int) bool {
		ti, tj := list[i].CreatedAt(), list[j].CreatedAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return list[i].ID() < list[j].ID()
	})
}
