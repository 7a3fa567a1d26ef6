package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// TestDocker_WorkspaceLifecycle drives a real container through create,
// exec and close.
func TestDocker_WorkspaceLifecycle(t *testing.T) {
	h := NewHarness(t)
	rt := h.RequireRuntime()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ws, err := h.Factory().Create(ctx, workspace.KindDocker,
		workspace.WithEnvVar("GREETING", "hello"),
		workspace.WithLabel("suite", "integration"),
	)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	running, err := rt.IsRunning(ctx, ws.ID())
	if err != nil || !running {
		t.Fatalf("container should be running: running=%v err=%v", running, err)
	}

	info, err := rt.Status(ctx, ws.ID())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if info.Labels[runtime.LabelWorkspace] != ws.ID() {
		t.Errorf("workspace label = %q, want %q", info.Labels[runtime.LabelWorkspace], ws.ID())
	}
	if info.Labels["suite"] != "integration" {
		t.Errorf("suite label = %q", info.Labels["suite"])
	}

	res, err := h.Factory().Exec(ctx, ws.ID(), []string{"sh", "-c", "echo $GREETING; exit 3"}, workspace.ExecOptions{})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("Stdout = %q, want hello", res.Stdout)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}

	h.Factory().Close(ctx, ws.ID())

	if err := h.WaitForGone(ws.ID(), 30*time.Second); err != nil {
		t.Error(err)
	}
	if _, err := h.Factory().Get(ws.ID()); !errors.IsNotFound(err) {
		t.Errorf("Get after close = %v, want not found", err)
	}
}

// TestDocker_TeardownAllRemovesContainers checks that a sweep leaves no
// container behind.
func TestDocker_TeardownAllRemovesContainers(t *testing.T) {
	h := NewHarness(t)
	rt := h.RequireRuntime()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var ids []string
	for range 3 {
		ws, err := h.Factory().Create(ctx, workspace.KindDocker)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, ws.ID())
	}

	if errs := h.Factory().TeardownAll(ctx); len(errs) > 0 {
		t.Fatalf("TeardownAll failed: %v", errs)
	}

	for _, id := range ids {
		if err := h.WaitForGone(id, 30*time.Second); err != nil {
			t.Error(err)
		}
	}

	containers, err := rt.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(containers) != 0 {
		t.Errorf("%d containers left after sweep", len(containers))
	}
}

// TestDocker_BadImage checks that a failed pull surfaces as a provisioning
// error and leaves nothing registered.
func TestDocker_BadImage(t *testing.T) {
	h := NewHarness(t)
	h.RequireRuntime()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, err := h.Factory().Create(ctx, workspace.KindDocker,
		workspace.WithImage("forage-ws.invalid/does-not-exist:never"))
	if !errors.IsProvisioning(err) {
		t.Fatalf("err = %v, want provisioning failure", err)
	}
	if h.Factory().Len() != 0 {
		t.Errorf("registry holds %d workspaces, want 0", h.Factory().Len())
	}
}

// TestHost_AdoptedDirectory runs a real host workspace inside an adopted
// source directory.
func TestHost_AdoptedDirectory(t *testing.T) {
	h := NewHarness(t)
	src := h.CreateSourceDir("project")

	ctx := context.Background()
	ws, err := h.Factory().Create(ctx, workspace.KindHost, workspace.WithWorkingDir(src))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := h.Factory().Exec(ctx, ws.ID(), []string{"cat", "README.md"}, workspace.ExecOptions{})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if !strings.Contains(res.Stdout, "Test Workspace") {
		t.Errorf("Stdout = %q", res.Stdout)
	}

	h.Factory().Close(ctx, ws.ID())
}
