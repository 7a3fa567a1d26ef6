package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the effective configuration with secrets redacted.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowFormat string

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", string(config.FormatTOML), "Output format (toml, yaml)")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format := config.Format(configShowFormat)
	if format != config.FormatTOML && format != config.FormatYAML {
		return errors.ValidationError(fmt.Sprintf("unknown format %q (want toml or yaml)", configShowFormat))
	}
	return app.Default.Config.Redacted().Encode(cmd.OutOrStdout(), format)
}
