package runtime

import (
	"context"
	"errors"
	"testing"
)

func TestMockRuntime_Lifecycle(t *testing.T) {
	m := NewMockRuntime()
	ctx := context.Background()

	if err := m.Create(ctx, CreateOptions{Name: "ws", Image: "alpine", Start: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	running, _ := m.IsRunning(ctx, "ws")
	if !running {
		t.Error("container should be running after Create with Start")
	}

	info, _ := m.Status(ctx, "ws")
	if info.Labels[LabelWorkspace] != "ws" {
		t.Errorf("Labels = %v, want workspace label", info.Labels)
	}

	if err := m.Destroy(ctx, "ws"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if m.HasContainer("ws") {
		t.Error("container should be gone after Destroy")
	}

	if got := len(m.GetCallsFor("Create")); got != 1 {
		t.Errorf("Create calls = %d, want 1", got)
	}
}

func TestMockRuntime_ErrorInjection(t *testing.T) {
	m := NewMockRuntime()
	boom := errors.New("boom")
	m.SetError("Destroy", boom)

	if err := m.Destroy(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("Destroy error = %v, want %v", err, boom)
	}
}

func TestMockRuntime_ExecResult(t *testing.T) {
	m := NewMockRuntime()
	m.AddContainer("ws", StatusRunning)
	m.SetExecResult("ws", &ExecResult{ExitCode: 7, Stdout: "out"})

	result, err := m.Exec(context.Background(), "ws", []string{"x"}, ExecOptions{})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if result.ExitCode != 7 || result.Stdout != "out" {
		t.Errorf("result = %+v", result)
	}

	if _, err := m.Exec(context.Background(), "missing", []string{"x"}, ExecOptions{}); err == nil {
		t.Error("Exec on a missing container should fail")
	}
}

func TestMockRuntime_Reset(t *testing.T) {
	m := NewMockRuntime()
	m.AddContainer("a", StatusRunning)
	_, _ = m.List(context.Background())

	m.Reset()

	if len(m.Containers) != 0 || len(m.GetCalls()) != 0 {
		t.Error("Reset should clear containers and calls")
	}
}
