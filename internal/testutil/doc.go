// Package testutil provides test fixtures and utilities.
//
// # Test Environment
//
// NewTestEnv builds an app.App over temporary directories, a mock container
// runtime and a mock command executor, and installs it as app.Default:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//
//	ws, err := env.App.Factory.Create(ctx, workspace.KindDocker)
//
// The host kind is served by a FakeConstructor unless WithRealHost is
// passed, so tests never spawn processes by accident.
//
// # Fakes
//
// FakeWorkspace implements workspace.Workspace in memory and counts how
// often its resource is released. FakeConstructor hands out fakes, with
// optional fixed ids and a construction error:
//
//	ctor := testutil.NewFakeConstructor(workspace.KindDocker)
//	ctor.IDs = []string{"dup", "dup"}
//	f := factory.New(factory.WithConstructor(workspace.KindDocker, ctor.Constructor()))
//
// # Fixtures
//
// Config files are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/valid_config.yaml
//	fixtures/invalid_config.toml
//
//	cfg, err := testutil.ValidConfig()
//	err := testutil.InvalidConfig()
package testutil
