// Package vcs checks out isolated working copies of a repository for host
// workspaces.
package vcs

import (
	"context"
	"fmt"
	"regexp"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
)

// Backend provides isolated working copies for a version control system
type Backend interface {
	// Name returns the backend name (e.g., "jj", "git-worktree")
	Name() string

	// IsRepo checks if path is a valid repository for this backend
	IsRepo(path string) bool

	// Create checks out an isolated working copy named name at checkoutPath.
	// For git, this creates a worktree on a branch named after the checkout.
	// For jj, this creates a named workspace.
	Create(ctx context.Context, repoPath, name, checkoutPath string) error

	// Remove releases the working copy and any associated refs.
	Remove(ctx context.Context, repoPath, name, checkoutPath string) error
}

// Detect returns the backend for the repository at path, or nil if no
// backend recognizes it. jj is checked first since jj repos also contain .git.
func Detect(path string, executor system.CommandExecutor) Backend {
	jj := &JJBackend{Executor: executor}
	if jj.IsRepo(path) {
		return jj
	}
	git := &GitBackend{Executor: executor}
	if git.IsRepo(path) {
		return git
	}
	return nil
}

// validName matches safe checkout/branch names: alphanumeric, hyphens, underscores, dots.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName checks that a checkout name is safe for use in branch names,
// directory paths, and command arguments.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("checkout name must not be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("checkout name too long (max 128 characters)")
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("checkout name %q contains invalid characters (allowed: alphanumeric, hyphens, underscores, dots)", name)
	}
	return nil
}

func executorOrDefault(e system.CommandExecutor) system.CommandExecutor {
	if e == nil {
		return system.DefaultExecutor()
	}
	return e
}
