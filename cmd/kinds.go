package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/tui"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List workspace environments",
	Args:  cobra.NoArgs,
	RunE:  runKinds,
}

var kindsFormat string

func init() {
	kindsCmd.Flags().StringVar(&kindsFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(kindsCmd)
}

type kindInfo struct {
	Kind        workspace.Kind `json:"kind"`
	Supported   bool           `json:"supported"`
	Description string         `json:"description"`
}

type kindsOutput struct {
	Kinds     []kindInfo            `json:"kinds"`
	Runtime   string                `json:"runtime,omitempty"`
	Installed []runtime.RuntimeType `json:"installed_runtimes"`
}

func runKinds(cmd *cobra.Command, args []string) error {
	f := workspaces()
	kinds := workspace.AllKinds()
	runtimeName := app.Default.RuntimeName()
	installed := runtime.Available()

	switch kindsFormat {
	case "json":
		out := kindsOutput{Runtime: runtimeName, Installed: installed}
		for _, k := range kinds {
			out.Kinds = append(out.Kinds, kindInfo{Kind: k, Supported: f.IsSupported(k), Description: k.Description()})
		}
		return printJSON(cmd.OutOrStdout(), out)
	case "text":
		fmt.Fprint(cmd.OutOrStdout(), tui.SimplePicker(kinds, f.IsSupported))
		if runtimeName == "" {
			runtimeName = "none detected"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Container runtime: %s\n", runtimeName)
		if len(installed) > 0 {
			names := make([]string, len(installed))
			for i, rt := range installed {
				names[i] = string(rt)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed: %s\n", strings.Join(names, ", "))
		}
		return nil
	default:
		return errors.ValidationError(fmt.Sprintf("unknown format %q (want text or json)", kindsFormat))
	}
}
