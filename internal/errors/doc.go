// Package errors provides typed errors with exit codes for forage-ws.
//
// # Error Types
//
// ForageError is the base error type that wraps an error with an exit code:
//
//	type ForageError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
// Defined exit codes for different error categories:
//
//	ExitSuccess              = 0  // Success
//	ExitGeneralError         = 1  // General/unknown errors
//	ExitWorkspaceNotFound    = 2  // Identity not in the registry
//	ExitNoWorkspaceAvailable = 3  // No most-recent workspace
//	ExitUnsupportedEnv       = 4  // Environment kind not implemented
//	ExitProvisioningFailed   = 5  // Sandbox could not be started
//	ExitConfigError          = 6  // Configuration error
//	ExitTeardownFailed       = 7  // Sandbox could not be released
//	ExitRemoteError          = 8  // Remote sandbox API failure
//
// # Error Constructors
//
// Use the provided constructors for consistent error creation:
//
//	errors.UnsupportedEnvironment("flyio")
//	errors.ProvisioningFailed("docker", err)
//	errors.WorkspaceNotFound(id)
//	errors.TeardownFailed(id, err)
//
// Lookup misses and provisioning failures are distinguishable with
// IsNotFound, IsNoneAvailable, IsUnsupported and IsProvisioning, so a
// caller can decide whether retrying creation makes sense.
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
