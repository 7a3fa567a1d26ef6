package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/guard"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "forage-ws",
	Short: "Ephemeral execution workspaces",
	Long: `forage-ws creates isolated, short-lived workspaces and runs commands in them.

A workspace is one of:
  - host:   a private directory with commands in their own process groups
  - docker: a container started from an image
  - remote: a sandbox on a remote sandbox service

Every workspace created by the process is torn down when it exits.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)

		if app.Default == nil {
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.ConfigError("failed to load configuration", err)
			}
			app.SetDefault(app.New(app.WithConfig(cfg)))
		}

		guard.Install(app.Default.Factory)
		guard.SetTimeout(app.Default.Config.ShutdownTimeout.Std())
		return nil
	},
}

// Execute runs the command tree under ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errors.ExitSuccess
	}

	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}

	logging.UserError("%v", err)
	return errors.GetExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $FORAGE_WS_CONFIG or the user config dir)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
