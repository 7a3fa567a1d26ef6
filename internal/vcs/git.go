package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
)

const gitBranchPrefix = "forage-ws/"

// GitBackend implements Backend for git repositories using worktrees
type GitBackend struct {
	Executor system.CommandExecutor
}

func (b *GitBackend) Name() string {
	return "git-worktree"
}

func (b *GitBackend) IsRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	// .git is a directory in a normal repo and a file in a worktree
	return info.IsDir() || info.Mode().IsRegular()
}

func (b *GitBackend) git(ctx context.Context, repoPath string, args ...string) (*system.Output, error) {
	return executorOrDefault(b.Executor).Run(ctx, system.Command{
		Name: "git",
		Args: append([]string{"-C", repoPath}, args...),
	})
}

func (b *GitBackend) Create(ctx context.Context, repoPath, name, checkoutPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	branchName := b.BranchName(name)

	out, err := b.git(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	head := strings.TrimSpace(string(out.Stdout))

	var args []string
	if b.branchExists(ctx, repoPath, branchName) {
		args = []string{"worktree", "add", checkoutPath, branchName}
	} else {
		args = []string{"worktree", "add", "-b", branchName, checkoutPath, head}
	}

	if _, err := b.git(ctx, repoPath, args...); err != nil {
		return fmt.Errorf("failed to create git worktree: %w", err)
	}
	return nil
}

func (b *GitBackend) Remove(ctx context.Context, repoPath, name, checkoutPath string) error {
	if checkoutPath != "" {
		if _, err := b.git(ctx, repoPath, "worktree", "remove", "--force", checkoutPath); err != nil {
			return fmt.Errorf("failed to remove worktree: %w", err)
		}
	}

	// The branch may already be gone; the worktree is what holds resources.
	_, _ = b.git(ctx, repoPath, "branch", "-D", b.BranchName(name))
	return nil
}

// BranchName returns the git branch name for a checkout
func (b *GitBackend) BranchName(name string) string {
	return gitBranchPrefix + name
}

func (b *GitBackend) branchExists(ctx context.Context, repoPath, branchName string) bool {
	_, err := b.git(ctx, repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+branchName)
	return err == nil
}
