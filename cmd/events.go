package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
)

var eventsCmd = &cobra.Command{
	Use:   "events [workspace-id]",
	Short: "Display the lifecycle events of a workspace",
	Long: `Display the recorded lifecycle events of a workspace.

Without an argument, list the workspaces that have recorded events.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

var eventsFormat string

func init() {
	eventsCmd.Flags().StringVar(&eventsFormat, "format", "text", "Output format (text, jsonl)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if eventsFormat != "text" && eventsFormat != "jsonl" {
		return errors.ValidationError(fmt.Sprintf("unknown format %q (want text or jsonl)", eventsFormat))
	}

	auditLogger := app.Default.Audit
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		ids, err := auditLogger.Workspaces()
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}
		if len(ids) == 0 {
			logInfo("No workspaces have recorded events")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	id := args[0]
	events, err := auditLogger.Events(id)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events found for workspace %s", id)
		return nil
	}

	for _, e := range events {
		if eventsFormat == "jsonl" {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		if e.Details != "" {
			fmt.Fprintf(out, "[%s] %-8s %-6s %s (%s)\n", ts, e.Type, e.Kind, e.Workspace, e.Details)
		} else {
			fmt.Fprintf(out, "[%s] %-8s %-6s %s\n", ts, e.Type, e.Kind, e.Workspace)
		}
	}

	return nil
}
