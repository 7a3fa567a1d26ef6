package workspace

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
)

func TestDocker_Provision(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "python:3.12-slim"},
		NewOptions(WithEnvVar("B", "2"), WithEnvVar("A", "1"), WithLabel("team", "infra")))
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}

	if ws.Container() != ws.ID() {
		t.Errorf("Container() = %s, want %s", ws.Container(), ws.ID())
	}
	if !rt.HasContainer(ws.ID()) {
		t.Fatal("container should exist after provisioning")
	}

	calls := rt.GetCallsFor("Create")
	if len(calls) != 1 {
		t.Fatalf("Create calls = %d, want 1", len(calls))
	}
	opts := calls[0].Args[0].(runtime.CreateOptions)
	if !opts.Start {
		t.Error("container should be started on create")
	}
	if opts.Image != "python:3.12-slim" {
		t.Errorf("Image = %q", opts.Image)
	}
	if want := []string{"A=1", "B=2"}; !reflect.DeepEqual(opts.Env, want) {
		t.Errorf("Env = %v, want %v", opts.Env, want)
	}
	if opts.Labels["team"] != "infra" {
		t.Errorf("Labels = %v", opts.Labels)
	}
}

func TestDocker_ImageOptionOverridesConfig(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "default"}, NewOptions(WithImage("alpine:3")))
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	if ws.Image() != "alpine:3" {
		t.Errorf("Image() = %q", ws.Image())
	}
}

func TestDocker_ProvisionFailures(t *testing.T) {
	t.Run("no runtime", func(t *testing.T) {
		_, err := newDocker(context.Background(), DockerConfig{Image: "x"}, Options{})
		if !errors.IsProvisioning(err) {
			t.Errorf("error = %v, want provisioning failure", err)
		}
	})

	t.Run("no image", func(t *testing.T) {
		_, err := newDocker(context.Background(), DockerConfig{Runtime: runtime.NewMockRuntime()}, Options{})
		if !errors.IsProvisioning(err) {
			t.Errorf("error = %v, want provisioning failure", err)
		}
	})

	t.Run("start fails and container is removed", func(t *testing.T) {
		rt := runtime.NewMockRuntime()
		rt.SetError("Start", fmt.Errorf("image not found"))

		_, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "missing"}, Options{})
		if !errors.IsProvisioning(err) {
			t.Fatalf("error = %v, want provisioning failure", err)
		}
		if !strings.Contains(err.Error(), "image not found") {
			t.Errorf("error should carry the cause: %v", err)
		}
		if len(rt.GetCallsFor("Destroy")) != 1 {
			t.Error("partially created container should be destroyed")
		}
		if len(rt.Containers) != 0 {
			t.Errorf("containers left behind: %v", rt.Containers)
		}
	})
}

func TestDocker_Exec(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, NewOptions(WithWorkingDir("/app")))
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	rt.SetExecResult(ws.Container(), &runtime.ExecResult{ExitCode: 2, Stdout: "out", Stderr: "err"})

	res, err := ws.Exec(context.Background(), []string{"ls", "-la"}, ExecOptions{Env: map[string]string{"X": "1"}})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.ExitCode != 2 || res.Stdout != "out" || res.Stderr != "err" {
		t.Errorf("result = %+v", res)
	}

	calls := rt.GetCallsFor("Exec")
	if len(calls) != 1 {
		t.Fatalf("Exec calls = %d", len(calls))
	}
	execOpts := calls[0].Args[2].(runtime.ExecOptions)
	if execOpts.WorkingDir != "/app" {
		t.Errorf("WorkingDir = %q, want workspace default /app", execOpts.WorkingDir)
	}
	if !reflect.DeepEqual(execOpts.Env, []string{"X=1"}) {
		t.Errorf("Env = %v", execOpts.Env)
	}
}

func TestDocker_TeardownIdempotent(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, Options{})
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := ws.Teardown(context.Background()); err != nil {
			t.Fatalf("Teardown %d: %v", i, err)
		}
	}

	if n := len(rt.GetCallsFor("Destroy")); n != 1 {
		t.Errorf("Destroy calls = %d, want 1", n)
	}
	if rt.HasContainer(ws.Container()) {
		t.Error("container should be gone")
	}
	if _, err := ws.Exec(context.Background(), []string{"true"}, ExecOptions{}); err != ErrTornDown {
		t.Errorf("Exec after teardown = %v, want ErrTornDown", err)
	}
}

func TestDocker_TeardownError(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, Options{})
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	rt.SetError("Destroy", fmt.Errorf("daemon unavailable"))

	if err := ws.Teardown(context.Background()); err == nil {
		t.Error("expected teardown error")
	}
	if ws.State() != StateTornDown {
		t.Error("state should be torn down after a failed release")
	}
	if err := ws.Teardown(context.Background()); err != nil {
		t.Errorf("second Teardown = %v, want nil", err)
	}
}

func TestDocker_ExecContainerRemoved(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, Options{})
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	// Removed behind the workspace's back.
	if err := rt.Destroy(context.Background(), ws.Container()); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	res, err := ws.Exec(context.Background(), []string{"true"}, ExecOptions{})
	if err == nil {
		t.Fatalf("Exec = %+v, want error for a removed container", res)
	}
	if !errors.Is(err, runtime.ErrContainerNotFound) {
		t.Errorf("error = %v, want it to wrap ErrContainerNotFound", err)
	}
	if !strings.Contains(err.Error(), ws.ID()) {
		t.Errorf("error should name the workspace: %v", err)
	}
}

func TestDocker_ExecContainerStopped(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, Options{})
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	rt.AddContainer(ws.Container(), runtime.StatusStopped)
	rt.SetExecResult(ws.Container(), &runtime.ExecResult{ExitCode: 1, Stderr: "container is not running"})

	if _, err := ws.Exec(context.Background(), []string{"true"}, ExecOptions{}); err == nil {
		t.Fatal("expected error for a stopped container")
	}
	if n := len(rt.GetCallsFor("IsRunning")); n != 1 {
		t.Errorf("IsRunning calls = %d, want 1", n)
	}
}

func TestDocker_ExecFailureInRunningContainer(t *testing.T) {
	rt := runtime.NewMockRuntime()
	ws, err := newDocker(context.Background(), DockerConfig{Runtime: rt, Image: "img"}, Options{})
	if err != nil {
		t.Fatalf("newDocker: %v", err)
	}
	rt.SetExecResult(ws.Container(), &runtime.ExecResult{ExitCode: 1, Stderr: "no such file"})

	res, err := ws.Exec(context.Background(), []string{"cat", "missing"}, ExecOptions{})
	if err != nil {
		t.Fatalf("a failing command is not an error: %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}
