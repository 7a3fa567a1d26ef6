// Package app provides the application context for forage-ws.
// It allows dependency injection for testing.
package app

import (
	"context"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/factory"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/sandboxapi"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// App holds the application dependencies
type App struct {
	// Config is the effective configuration
	Config *config.Config

	// Runtime is the container runtime; nil when none was detected
	Runtime runtime.Runtime

	// Remote is the sandbox service client; nil unless remote.url is set
	Remote *sandboxapi.Client

	// Audit records workspace lifecycle events
	Audit *audit.Logger

	// Executor runs VCS commands for host checkouts
	Executor system.CommandExecutor

	// Factory is the workspace registry
	Factory *factory.Factory

	ctors map[workspace.Kind]workspace.Constructor
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets the configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithRuntime sets a custom runtime
func WithRuntime(r runtime.Runtime) Option {
	return func(a *App) {
		a.Runtime = r
	}
}

// WithRemoteClient sets the sandbox service client
func WithRemoteClient(c *sandboxapi.Client) Option {
	return func(a *App) {
		a.Remote = c
	}
}

// WithExecutor sets the command executor
func WithExecutor(e system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = e
	}
}

// WithConstructor overrides the constructor for one kind
func WithConstructor(kind workspace.Kind, ctor workspace.Constructor) Option {
	return func(a *App) {
		a.ctors[kind] = ctor
	}
}

// New creates a new App with the given options.
// If runtime is not provided via WithRuntime, it will be auto-detected.
func New(opts ...Option) *App {
	app := &App{
		ctors: make(map[workspace.Kind]workspace.Constructor),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		app.Config = config.Default()
	}
	cfg := app.Config

	if app.Executor == nil {
		app.Executor = system.DefaultExecutor()
	}

	// Initialize runtime if not provided
	if app.Runtime == nil {
		rt, err := runtime.New(runtime.ConfigFor(cfg.Docker.Command, cfg.Docker.ContainerPrefix))
		if err != nil {
			logging.Debug("failed to initialize runtime", "error", err)
		} else {
			app.Runtime = rt
		}
	}

	if app.Remote == nil && cfg.RemoteEnabled() {
		app.Remote = sandboxapi.New(cfg.Remote.URL, sandboxapi.Options{
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout.Std(),
		})
	}

	app.Audit = audit.NewLogger(cfg.StateDir)

	factoryOpts := []factory.Option{
		factory.WithRecorder(app.Audit),
		factory.WithConstructor(workspace.KindHost, workspace.NewHostConstructor(workspace.HostConfig{
			Root:     cfg.Host.Root,
			Executor: app.Executor,
		})),
		factory.WithConstructor(workspace.KindDocker, workspace.NewDockerConstructor(workspace.DockerConfig{
			Runtime: app.Runtime,
			Image:   cfg.Docker.Image,
		})),
	}
	if app.Remote != nil {
		factoryOpts = append(factoryOpts, factory.WithConstructor(workspace.KindRemote,
			workspace.NewRemoteConstructor(workspace.RemoteConfig{
				Client:   app.Remote,
				Template: cfg.Remote.Template,
			})))
	}
	for kind, ctor := range app.ctors {
		factoryOpts = append(factoryOpts, factory.WithConstructor(kind, ctor))
	}
	app.Factory = factory.New(factoryOpts...)

	return app
}

// RuntimeName returns the container runtime name, or "" when none is available
func (a *App) RuntimeName() string {
	if a.Runtime == nil {
		return ""
	}
	return a.Runtime.Name()
}

// Shutdown closes the app's factory and tears down every workspace it still holds
func (a *App) Shutdown(ctx context.Context) []error {
	return a.Factory.Shutdown(ctx)
}

// Default is the application instance used by commands. It is built after
// flags are parsed unless a test installed one first.
var Default *App

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault clears the default application instance
func ResetDefault() {
	Default = nil
}
