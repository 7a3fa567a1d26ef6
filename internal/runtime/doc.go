// Package runtime provides a unified interface for container runtimes.
//
// Supported runtimes:
//   - docker: Docker containers (Linux, macOS)
//   - podman: Podman containers, preferred when both are installed
//
// Both are driven through their CLI via DockerRuntime, which runs every
// command through a system.CommandExecutor so tests can script the CLI.
//
// # Runtime Interface
//
// The Runtime interface defines operations common to all container backends:
//   - Create, Destroy: Container lifecycle
//   - IsRunning, Status: Container state queries
//   - Exec: Command execution inside containers
//   - List: Enumerate containers labelled with LabelWorkspace
//
// # Mock Runtime
//
// For testing, use NewMockRuntime() to create a mock implementation that can
// be configured with expected responses and used to verify calls.
package runtime
