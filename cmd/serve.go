package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workspace HTTP API",
	Long: `Serve the workspace registry over HTTP until interrupted.

Workspaces created through the API live until they are deleted or the
server stops; on SIGINT or SIGTERM every remaining workspace is torn down.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default: server.listen from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	listen := serveListen
	if listen == "" {
		listen = app.Default.Config.Server.Listen
	}

	logInfo("Serving workspace API on %s", listen)
	srv := server.New(server.Config{Listen: listen}, workspaces(), logging.Component("server"))
	return srv.Start(cmd.Context())
}
