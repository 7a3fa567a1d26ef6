// Package workspace defines Workspace, the sandbox capability managed by
// the factory, and its variants.
//
// # Variants
//
//	host    local processes in a private directory, one process group per command
//	docker  a container created and destroyed through runtime.Runtime
//	remote  a sandbox on a remote service, held by a session WebSocket
//
// Every variant embeds the same lifecycle: an identity from uuid.NewString,
// a creation time and a teardown that releases the resource at most once.
// Teardown flips the state to StateTornDown before releasing, so Exec calls
// racing a teardown fail with ErrTornDown instead of reaching a half-released
// sandbox.
//
// # Kinds
//
// ParseKind accepts host, docker, remote, flyio and e2b. The last two are
// recognized but have no constructor; the factory rejects them as
// unsupported before provisioning anything.
package workspace
