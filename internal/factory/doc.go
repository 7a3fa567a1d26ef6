// Package factory is the process-wide registry of workspaces.
//
// A Factory creates workspaces through the constructors registered for
// each kind, indexes them by id and tracks the most recently created or
// retrieved one for callers that carry no id:
//
//	f := factory.New(
//	    factory.WithConstructor(workspace.KindHost, workspace.NewHostConstructor(cfg)),
//	    factory.WithRecorder(audit.NewLogger(stateDir)),
//	)
//	ws, err := f.Create(ctx, workspace.KindHost)
//	...
//	f.Close(ctx, ws.ID())
//
// # Locking
//
// One mutex guards the index and the most-recent pointer. It is held only
// while they are read or mutated, never across provisioning or teardown.
// Close and TeardownAll remove entries before tearing them down, so when
// an explicit Close races a sweep exactly one of them releases the
// workspace and the other sees nothing to do.
//
// Shutdown marks the factory closed under the same mutex before sweeping.
// A Create that was still provisioning checks that flag when it takes the
// lock to insert, and tears its workspace down instead of indexing it.
// Shutdown waits for those creations before it returns.
//
// # Recency
//
// Create and Get with an id both make the returned workspace the most
// recent. Closing the most recent workspace clears the pointer: Get("")
// then fails with a no-workspace-available error until another workspace
// is created or retrieved.
package factory
