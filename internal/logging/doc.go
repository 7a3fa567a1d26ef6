// Package logging provides logging utilities for forage-ws.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("provisioning workspace", "kind", kind, "id", id)
//	logging.Warn("teardown failed", "id", id, "error", err)
//
// Long-lived components take a *slog.Logger of their own, usually
// derived with Component("factory") so records carry their origin.
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Creating %s workspace...", kind)
//	logging.UserSuccess("Workspace %s ready", id)
//	logging.UserWarning("Workspace %s kept for inspection", id)
//	logging.UserError("Failed to create workspace: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: Stdout (os.Stdout by default)
//   - UserWarning, UserError: Stderr (os.Stderr by default)
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
