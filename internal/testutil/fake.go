package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// FakeWorkspace is an in-memory Workspace that counts releases.
type FakeWorkspace struct {
	id        string
	kind      workspace.Kind
	createdAt time.Time
	Opts      workspace.Options

	// TeardownErr is returned by the first Teardown.
	TeardownErr error
	// TeardownDelay makes the release slow.
	TeardownDelay time.Duration
	// ExecFunc answers Exec; the default echoes the command.
	ExecFunc func(command []string) (*workspace.ExecResult, error)

	mu       sync.Mutex
	state    workspace.State
	released atomic.Int32
	calls    atomic.Int32
}

// NewFakeWorkspace returns an active fake with a fresh id.
func NewFakeWorkspace(kind workspace.Kind) *FakeWorkspace {
	return NewFakeWorkspaceWithID(uuid.NewString(), kind)
}

// NewFakeWorkspaceWithID returns an active fake with the given id.
func NewFakeWorkspaceWithID(id string, kind workspace.Kind) *FakeWorkspace {
	return &FakeWorkspace{
		id:        id,
		kind:      kind,
		createdAt: time.Now(),
		state:     workspace.StateActive,
	}
}

func (w *FakeWorkspace) ID() string           { return w.id }
func (w *FakeWorkspace) Kind() workspace.Kind { return w.kind }
func (w *FakeWorkspace) CreatedAt() time.Time { return w.createdAt }

func (w *FakeWorkspace) State() workspace.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *FakeWorkspace) Exec(ctx context.Context, command []string, opts workspace.ExecOptions) (*workspace.ExecResult, error) {
	if w.State() == workspace.StateTornDown {
		return nil, workspace.ErrTornDown
	}
	if w.ExecFunc != nil {
		return w.ExecFunc(command)
	}
	return &workspace.ExecResult{Stdout: fmt.Sprintf("%v", command)}, nil
}

func (w *FakeWorkspace) Teardown(ctx context.Context) error {
	w.calls.Add(1)

	w.mu.Lock()
	if w.state == workspace.StateTornDown {
		w.mu.Unlock()
		return nil
	}
	w.state = workspace.StateTornDown
	w.mu.Unlock()

	if w.TeardownDelay > 0 {
		time.Sleep(w.TeardownDelay)
	}
	w.released.Add(1)
	return w.TeardownErr
}

// Released returns how many times the resource was actually released.
func (w *FakeWorkspace) Released() int {
	return int(w.released.Load())
}

// TeardownCalls returns how many times Teardown was invoked.
func (w *FakeWorkspace) TeardownCalls() int {
	return int(w.calls.Load())
}

// FakeConstructor builds FakeWorkspaces and remembers them.
type FakeConstructor struct {
	Kind workspace.Kind
	// Err fails every construction.
	Err error
	// IDs are handed out in order before falling back to fresh ids.
	IDs []string
	// Setup customizes each workspace before it is returned.
	Setup func(*FakeWorkspace)

	mu      sync.Mutex
	created []*FakeWorkspace
}

// NewFakeConstructor returns a constructor for kind.
func NewFakeConstructor(kind workspace.Kind) *FakeConstructor {
	return &FakeConstructor{Kind: kind}
}

// Constructor adapts the fake to workspace.Constructor.
func (c *FakeConstructor) Constructor() workspace.Constructor {
	return func(ctx context.Context, opts workspace.Options) (workspace.Workspace, error) {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.Err != nil {
			return nil, c.Err
		}

		var ws *FakeWorkspace
		if len(c.IDs) > 0 {
			ws = NewFakeWorkspaceWithID(c.IDs[0], c.Kind)
			c.IDs = c.IDs[1:]
		} else {
			ws = NewFakeWorkspace(c.Kind)
		}
		ws.Opts = opts
		if c.Setup != nil {
			c.Setup(ws)
		}
		c.created = append(c.created, ws)
		return ws, nil
	}
}

// Created returns every workspace built so far.
func (c *FakeConstructor) Created() []*FakeWorkspace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeWorkspace(nil), c.created...)
}

// Fail makes every later construction return err.
func (c *FakeConstructor) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

// Customize sets Setup for later constructions.
func (c *FakeConstructor) Customize(fn func(*FakeWorkspace)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Setup = fn
}
