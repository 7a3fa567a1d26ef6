// Package vcs checks out isolated working copies for host workspaces.
//
// A host workspace created with a source repository gets its working
// directory from one of these backends instead of an empty directory:
//
//	backend := vcs.Detect("/src/project", system.DefaultExecutor())
//	backend.Create(ctx, "/src/project", id, "/tmp/forage-ws/<id>")
//	// git: git worktree add -b forage-ws/<id> /tmp/forage-ws/<id> HEAD
//	// jj:  jj workspace add --name <id> /tmp/forage-ws/<id>
//
// Remove undoes Create when the workspace is torn down. jj is detected
// before git since colocated jj repositories also contain .git.
package vcs
