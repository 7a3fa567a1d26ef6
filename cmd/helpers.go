package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/factory"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logWarning = logging.UserWarning
)

// exitStatus carries a command's exit code out of Execute without an
// error message.
type exitStatus int

func (s exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(s))
}

// interactive reports whether the picker may take over the terminal.
// Tests replace it.
var interactive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// workspaces returns the application's workspace factory.
func workspaces() *factory.Factory {
	return app.Default.Factory
}

// parseEnv turns KEY=VALUE pairs into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.ValidationError(fmt.Sprintf("invalid environment variable %q (want KEY=VALUE)", pair))
		}
		env[key] = value
	}
	return env, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
