// Package integration provides a test harness for integration tests
// that require an actual container runtime.
//
// Tests built on the harness are skipped unless FORAGE_INTEGRATION_TESTS=1.
// They require docker or podman on PATH and an image that can be pulled
// (FORAGE_TEST_IMAGE, default alpine:3.20).
//
// # Test Harness
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t) // Skips if env var not set
//	    h.RequireRuntime()
//
//	    ws, err := h.Factory().Create(ctx, workspace.KindDocker)
//	    // Run commands, tear down...
//
//	    // Leftover workspaces and containers are removed via t.Cleanup
//	}
//
// The workflow tests in this package run without the environment variable;
// they wire the real app, factory, audit log, guard and HTTP API together
// over the mock runtime and real host workspaces.
//
// # Running Integration Tests
//
//	FORAGE_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
