// Package app provides the application context for forage-ws.
//
// This package wires the configuration, container runtime, sandbox service
// client, audit log and workspace factory together using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config   *config.Config        // Effective configuration
//	    Runtime  runtime.Runtime       // Container runtime (may be nil)
//	    Remote   *sandboxapi.Client    // Remote sandbox service (may be nil)
//	    Audit    *audit.Logger         // Lifecycle event log
//	    Executor system.CommandExecutor
//	    Factory  *factory.Factory      // Workspace registry
//	}
//
// # Creating an App
//
//	// Production usage
//	a := app.New(app.WithConfig(cfg))
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(testConfig),
//	    app.WithRuntime(mockRuntime),
//	    app.WithConstructor(workspace.KindDocker, fake),
//	)
//
// The host and docker kinds are always registered; remote is registered
// only when remote.url is configured.
package app
