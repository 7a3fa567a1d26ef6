package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	Config   *config.Config
	Runtime  *runtime.MockRuntime
	Executor *system.MockExecutor
	Host     *FakeConstructor
	App      *app.App
	cleanup  func()
}

// EnvOption customizes the environment before the app is built.
type EnvOption func(*envOptions)

type envOptions struct {
	realHost bool
	appOpts  []app.Option
}

// WithRealHost keeps the real host constructor instead of a fake one.
func WithRealHost() EnvOption {
	return func(o *envOptions) { o.realHost = true }
}

// WithAppOptions passes extra options to app.New.
func WithAppOptions(opts ...app.Option) EnvOption {
	return func(o *envOptions) { o.appOpts = append(o.appOpts, opts...) }
}

// NewTestEnv creates a new test environment with mock runtime and installs
// its app as app.Default until Cleanup.
func NewTestEnv(t *testing.T, opts ...EnvOption) *TestEnv {
	t.Helper()

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.StateDir = filepath.Join(tmpDir, "state")
	cfg.Host.Root = filepath.Join(tmpDir, "host")

	for _, dir := range []string{cfg.StateDir, cfg.Host.Root} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	mockRuntime := runtime.NewMockRuntime()
	mockExecutor := system.NewMockExecutor()
	host := NewFakeConstructor(workspace.KindHost)

	appOpts := []app.Option{
		app.WithConfig(cfg),
		app.WithRuntime(mockRuntime),
		app.WithExecutor(mockExecutor),
	}
	if !o.realHost {
		appOpts = append(appOpts, app.WithConstructor(workspace.KindHost, host.Constructor()))
	}
	appOpts = append(appOpts, o.appOpts...)

	testApp := app.New(appOpts...)

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		Config:   cfg,
		Runtime:  mockRuntime,
		Executor: mockExecutor,
		Host:     host,
		App:      testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}

	return env
}

// Cleanup tears down leftover workspaces and restores the original app default
func (e *TestEnv) Cleanup() {
	if e.App != nil {
		if errs := e.App.Factory.TeardownAll(e.T.Context()); len(errs) > 0 {
			e.T.Logf("teardown errors during cleanup: %v", errs)
		}
	}
	if e.cleanup != nil {
		e.cleanup()
	}
}

// WriteConfig writes the environment's config to a file and returns its path.
func (e *TestEnv) WriteConfig(name string) string {
	e.T.Helper()

	format := config.FormatTOML
	if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
		format = config.FormatYAML
	}

	path := filepath.Join(e.TmpDir, name)
	f, err := os.Create(path)
	if err != nil {
		e.T.Fatalf("Failed to create config: %v", err)
	}
	defer f.Close()

	if err := e.Config.Encode(f, format); err != nil {
		e.T.Fatalf("Failed to write config: %v", err)
	}
	return path
}
