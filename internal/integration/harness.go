package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/factory"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
)

const (
	// EnvEnable turns the harness on.
	EnvEnable = "FORAGE_INTEGRATION_TESTS"
	// EnvImage overrides the container image used by docker workspaces.
	EnvImage = "FORAGE_TEST_IMAGE"

	DefaultImage = "alpine:3.20"
)

// TestHarness provides utilities for integration testing with real containers.
type TestHarness struct {
	t       *testing.T
	tempDir string
	cfg     *config.Config
	app     *app.App
}

// NewHarness creates a new test harness around a freshly built app.
// It will skip the test if FORAGE_INTEGRATION_TESTS is not set.
func NewHarness(t *testing.T, opts ...app.Option) *TestHarness {
	t.Helper()

	if os.Getenv(EnvEnable) != "1" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnvEnable)
	}

	tempDir := t.TempDir()
	cfg := HarnessConfig(tempDir)

	for _, dir := range []string{cfg.StateDir, cfg.Host.Root} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	h := &TestHarness{
		t:       t,
		tempDir: tempDir,
		cfg:     cfg,
		app:     app.New(append([]app.Option{app.WithConfig(cfg)}, opts...)...),
	}

	t.Cleanup(h.Cleanup)

	return h
}

// HarnessConfig returns a configuration rooted at dir with a per-run
// container prefix so parallel runs never share containers.
func HarnessConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.StateDir = filepath.Join(dir, "state")
	cfg.Host.Root = filepath.Join(dir, "host")
	cfg.Docker.ContainerPrefix = fmt.Sprintf("forage-it-%d-", os.Getpid())
	cfg.Docker.Image = DefaultImage
	if image := os.Getenv(EnvImage); image != "" {
		cfg.Docker.Image = image
	}
	return cfg
}

// App returns the app under test.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Config returns the app's configuration.
func (h *TestHarness) Config() *config.Config {
	return h.cfg
}

// Factory returns the app's workspace factory.
func (h *TestHarness) Factory() *factory.Factory {
	return h.app.Factory
}

// RequireRuntime skips the test unless a responsive container runtime was
// detected, and returns it.
func (h *TestHarness) RequireRuntime() runtime.Runtime {
	h.t.Helper()

	rt := h.app.Runtime
	if rt == nil {
		h.t.Skip("no container runtime available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rt.List(ctx); err != nil {
		h.t.Skipf("%s not responsive: %v", rt.Name(), err)
	}
	return rt
}

// CreateSourceDir creates a directory to adopt as a host working directory.
func (h *TestHarness) CreateSourceDir(name string) string {
	h.t.Helper()

	path := filepath.Join(h.tempDir, "src", name)
	if err := os.MkdirAll(path, 0755); err != nil {
		h.t.Fatalf("Failed to create source dir: %v", err)
	}

	// Create a simple file to verify the directory was adopted
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte("# Test Workspace\n"), 0644); err != nil {
		h.t.Fatalf("Failed to create test file: %v", err)
	}

	return path
}

// WaitForGone waits until the container for a workspace no longer exists.
func (h *TestHarness) WaitForGone(id string, timeout time.Duration) error {
	rt := h.app.Runtime
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		info, err := rt.Status(ctx, id)
		if err == nil && info.Status == runtime.StatusNotFound {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("container for workspace %s still present after %v", id, timeout)
		case <-ticker.C:
		}
	}
}

// Cleanup tears down every workspace the app still holds and removes any
// container left behind by this run.
func (h *TestHarness) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, err := range h.app.Shutdown(ctx) {
		h.t.Logf("Warning: %v", err)
	}

	rt := h.app.Runtime
	if rt == nil {
		return
	}
	containers, err := rt.List(ctx)
	if err != nil {
		return
	}
	for _, c := range containers {
		id := c.Labels[runtime.LabelWorkspace]
		if id == "" {
			continue
		}
		if err := rt.Destroy(ctx, id); err != nil {
			h.t.Logf("Warning: failed to destroy leftover container %s: %v", c.Name, err)
		}
	}
}
