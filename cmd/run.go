package cmd

import (
	"context"
	"fmt"
	"io"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/tui"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] (-c <command> | -- <command> [args...])",
	Short: "Run a command in a fresh workspace",
	Long: `Create a workspace, run one command in it and tear it down.

The command's output is copied to stdout and stderr and its exit code becomes
the exit code of forage-ws. Without --kind an interactive terminal gets an
environment picker; otherwise the host environment is used.`,
	Example: `  forage-ws run -- ls -la
  forage-ws run --kind docker --image alpine:3.20 -c 'cat /etc/os-release'
  forage-ws run -e DEBUG=1 -w ./project -- make test`,
	RunE: runRun,
}

var (
	runKind    string
	runImage   string
	runEnv     []string
	runWorkDir string
	runRepo    string
	runKeep    bool
	runCommand string
	runStdin   bool
)

func init() {
	runCmd.Flags().StringVarP(&runKind, "kind", "k", "", "Environment kind (host, docker, remote)")
	runCmd.Flags().StringVar(&runImage, "image", "", "Container image for docker workspaces")
	runCmd.Flags().StringArrayVarP(&runEnv, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	runCmd.Flags().StringVarP(&runWorkDir, "workdir", "w", "", "Working directory inside the workspace")
	runCmd.Flags().StringVar(&runRepo, "repo", "", "Check out a git or jj repository into a host workspace")
	runCmd.Flags().BoolVar(&runKeep, "keep", false, "Leave the workspace up until forage-ws exits")
	runCmd.Flags().StringVarP(&runCommand, "command", "c", "", "Command line to run, split with shell quoting rules")
	runCmd.Flags().BoolVar(&runStdin, "stdin", false, "Forward stdin to the command")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	argv, err := commandArgv(runCommand, args)
	if err != nil {
		return err
	}

	kind, err := chooseKind(runKind)
	if err != nil {
		return err
	}

	env, err := parseEnv(runEnv)
	if err != nil {
		return err
	}

	opts := []workspace.Option{workspace.WithEnv(env)}
	if runImage != "" {
		opts = append(opts, workspace.WithImage(runImage))
	}
	if runWorkDir != "" {
		opts = append(opts, workspace.WithWorkingDir(runWorkDir))
	}
	if runRepo != "" {
		opts = append(opts, workspace.WithSourceRepo(runRepo))
	}

	ctx := cmd.Context()
	f := workspaces()

	ws, err := f.Create(ctx, kind, opts...)
	if err != nil {
		return err
	}
	if runKeep {
		logWarning("Keeping workspace %s (%s) until forage-ws exits", ws.ID(), ws.Kind())
	} else {
		defer f.Close(context.WithoutCancel(ctx), ws.ID())
	}

	var stdin io.Reader
	if runStdin {
		stdin = cmd.InOrStdin()
	}

	result, err := f.Exec(ctx, ws.ID(), argv, workspace.ExecOptions{Stdin: stdin})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)

	logging.Debug("command finished", "id", ws.ID(), "exit_code", result.ExitCode, "duration", result.Duration)

	switch {
	case result.ExitCode == 0:
		return nil
	case result.ExitCode < 0:
		return exitStatus(errors.ExitGeneralError)
	default:
		return exitStatus(result.ExitCode)
	}
}

// commandArgv picks the command from -c or the positional arguments.
func commandArgv(line string, args []string) ([]string, error) {
	if line != "" && len(args) > 0 {
		return nil, errors.ValidationError("use either -c or -- <command>, not both")
	}
	if line != "" {
		argv, err := shellquote.Split(line)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("invalid command line: %v", err))
		}
		args = argv
	}
	if len(args) == 0 {
		return nil, errors.ValidationError("usage: forage-ws run (-c <command> | -- <command> [args...])")
	}
	return args, nil
}

// chooseKind resolves --kind, falling back to the picker on a terminal and
// to the host environment otherwise.
func chooseKind(name string) (workspace.Kind, error) {
	if name != "" {
		return workspace.ParseKind(name)
	}
	if !interactive() {
		return workspace.KindHost, nil
	}

	result, err := tui.RunPicker(workspace.AllKinds(), workspaces().IsSupported)
	if err != nil {
		return "", fmt.Errorf("environment picker failed: %w", err)
	}
	if result.Action != tui.ActionSelect {
		return "", errors.ValidationError("no environment selected")
	}
	return result.Kind, nil
}
