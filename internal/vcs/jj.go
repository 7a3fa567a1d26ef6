package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/system"
)

// JJBackend implements Backend for jj (Jujutsu) repositories
type JJBackend struct {
	Executor system.CommandExecutor
}

func (b *JJBackend) Name() string {
	return "jj"
}

func (b *JJBackend) IsRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".jj", "repo"))
	return err == nil && info.IsDir()
}

func (b *JJBackend) Create(ctx context.Context, repoPath, name, checkoutPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := executorOrDefault(b.Executor).Run(ctx, system.Command{
		Name: "jj",
		Args: []string{"workspace", "add", "-R", repoPath, "--name", name, checkoutPath},
	})
	if err != nil {
		return fmt.Errorf("failed to create jj workspace: %w", err)
	}
	return nil
}

func (b *JJBackend) Remove(ctx context.Context, repoPath, name, checkoutPath string) error {
	_, err := executorOrDefault(b.Executor).Run(ctx, system.Command{
		Name: "jj",
		Args: []string{"workspace", "forget", name, "-R", repoPath},
	})
	if err != nil {
		return fmt.Errorf("failed to forget jj workspace: %w", err)
	}

	if checkoutPath != "" {
		if err := os.RemoveAll(checkoutPath); err != nil {
			return fmt.Errorf("failed to remove checkout directory: %w", err)
		}
	}
	return nil
}
