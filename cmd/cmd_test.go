package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/testutil"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

func executeCommand(args ...string) (string, string, error) {
	// Reset flag values before each test
	runKind = ""
	runImage = ""
	runEnv = nil
	runWorkDir = ""
	runRepo = ""
	runKeep = false
	runCommand = ""
	runStdin = false
	serveListen = ""
	kindsFormat = "text"
	eventsFormat = "text"
	configShowFormat = "toml"
	verbose = false
	jsonOutput = false
	configPath = ""
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}

	cmd := rootCmd
	cmd.SetArgs(args)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	// Reset args for next test
	cmd.SetArgs(nil)
	cmd.SetOut(nil)
	cmd.SetErr(nil)

	return stdout.String(), stderr.String(), err
}

// setupTestEnv installs a test app and disables the picker.
func setupTestEnv(t *testing.T) *testutil.TestEnv {
	t.Helper()

	env := testutil.NewTestEnv(t)
	t.Cleanup(env.Cleanup)

	old := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = old })

	return env
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	if !strings.Contains(stdout, "forage-ws") {
		t.Error("Help output should contain 'forage-ws'")
	}
	if !strings.Contains(stdout, "workspace") {
		t.Error("Help output should mention workspaces")
	}
	for _, name := range []string{"run", "serve", "kinds", "events", "config"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("Help output should list %q", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	for _, flag := range []string{"--verbose", "--json", "--config"} {
		if !strings.Contains(stdout, flag) {
			t.Errorf("Help should mention %s", flag)
		}
	}
}

func TestRunCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("run", "--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	for _, flag := range []string{"--kind", "--image", "--env", "--workdir", "--keep", "--command"} {
		if !strings.Contains(stdout, flag) {
			t.Errorf("Run help should mention %s", flag)
		}
	}
}

func TestRunCommand_Argv(t *testing.T) {
	env := setupTestEnv(t)

	stdout, _, err := executeCommand("run", "--", "echo", "hello world")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout != "[echo hello world]" {
		t.Errorf("stdout = %q", stdout)
	}

	created := env.Host.Created()
	if len(created) != 1 {
		t.Fatalf("created %d workspaces, want 1", len(created))
	}
	if created[0].Released() != 1 {
		t.Error("workspace should be torn down after the command")
	}
	if env.App.Factory.Len() != 0 {
		t.Errorf("registry holds %d workspaces, want 0", env.App.Factory.Len())
	}
}

func TestRunCommand_CommandLine(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommand("run", "-c", `printf '%s\n' "a b" c`)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout != `[printf %s\n a b c]` {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunCommand_Validation(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"run"}},
		{"both forms", []string{"run", "-c", "ls", "--", "ls"}},
		{"unbalanced quotes", []string{"run", "-c", "echo 'oops"}},
		{"bad env", []string{"run", "-e", "NOVALUE", "--", "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetExitCode(err); got != errors.ExitGeneralError {
				t.Errorf("exit code = %d, want %d", got, errors.ExitGeneralError)
			}
		})
	}
}

func TestRunCommand_Options(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := executeCommand("run", "-e", "A=1", "-e", "B=x=y", "--image", "alpine", "-w", "/src", "--repo", "/repos/app", "--", "true")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	opts := env.Host.Created()[0].Opts
	if opts.Env["A"] != "1" || opts.Env["B"] != "x=y" {
		t.Errorf("Env = %v", opts.Env)
	}
	if opts.Image != "alpine" {
		t.Errorf("Image = %q, want alpine", opts.Image)
	}
	if opts.WorkingDir != "/src" {
		t.Errorf("WorkingDir = %q, want /src", opts.WorkingDir)
	}
	if opts.SourceRepo != "/repos/app" {
		t.Errorf("SourceRepo = %q, want /repos/app", opts.SourceRepo)
	}
}

func TestRunCommand_ExitCode(t *testing.T) {
	env := setupTestEnv(t)
	env.Host.Customize(func(ws *testutil.FakeWorkspace) {
		ws.ExecFunc = func(command []string) (*workspace.ExecResult, error) {
			return &workspace.ExecResult{ExitCode: 3, Stderr: "failed\n"}, nil
		}
	})

	_, stderr, err := executeCommand("run", "--", "false")

	var status exitStatus
	if !errors.As(err, &status) || int(status) != 3 {
		t.Fatalf("err = %v, want exit status 3", err)
	}
	if stderr != "failed\n" {
		t.Errorf("stderr = %q", stderr)
	}
	if env.Host.Created()[0].Released() != 1 {
		t.Error("workspace should be torn down even when the command fails")
	}
}

func TestRunCommand_Keep(t *testing.T) {
	env := setupTestEnv(t)

	if _, _, err := executeCommand("run", "--keep", "--", "true"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if env.App.Factory.Len() != 1 {
		t.Fatalf("registry holds %d workspaces, want 1", env.App.Factory.Len())
	}
	if env.Host.Created()[0].Released() != 0 {
		t.Error("kept workspace should still be up")
	}
}

func TestRunCommand_UnsupportedKind(t *testing.T) {
	env := setupTestEnv(t)

	for _, kind := range []string{"flyio", "e2b", "remote", "nope"} {
		t.Run(kind, func(t *testing.T) {
			_, _, err := executeCommand("run", "--kind", kind, "--", "true")
			if !errors.IsUnsupported(err) {
				t.Errorf("err = %v, want unsupported environment", err)
			}
		})
	}

	if len(env.Host.Created()) != 0 {
		t.Error("no workspace should be provisioned")
	}
}

func TestRunCommand_ProvisioningFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.Host.Fail(errors.New(errors.ExitGeneralError, "disk full"))

	_, _, err := executeCommand("run", "--", "true")
	if got := errors.GetExitCode(err); got != errors.ExitProvisioningFailed {
		t.Errorf("exit code = %d, want %d (err = %v)", got, errors.ExitProvisioningFailed, err)
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	env := setupTestEnv(t)
	env.Host.Customize(func(ws *testutil.FakeWorkspace) {
		ws.ExecFunc = func(command []string) (*workspace.ExecResult, error) {
			return &workspace.ExecResult{ExitCode: 42}, nil
		}
	})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"command exit code", []string{"run", "--", "true"}, 42},
		{"unsupported kind", []string{"run", "--kind", "e2b", "--", "true"}, errors.ExitUnsupportedEnv},
		{"success", []string{"kinds"}, errors.ExitSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runKind = ""
			kindsFormat = "text"
			rootCmd.SetArgs(tt.args)
			rootCmd.SetOut(&bytes.Buffer{})
			rootCmd.SetErr(&bytes.Buffer{})
			defer func() {
				rootCmd.SetArgs(nil)
				rootCmd.SetOut(nil)
				rootCmd.SetErr(nil)
			}()

			if got := Execute(t.Context()); got != tt.want {
				t.Errorf("Execute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKindsCommand(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommand("kinds")
	if err != nil {
		t.Fatalf("kinds failed: %v", err)
	}

	for _, k := range workspace.AllKinds() {
		if !strings.Contains(stdout, k.String()) {
			t.Errorf("output should list %s", k)
		}
	}
	if !strings.Contains(stdout, "Container runtime: mock") {
		t.Errorf("output should name the runtime:\n%s", stdout)
	}
}

func TestKindsCommand_JSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommand("kinds", "--format", "json")
	if err != nil {
		t.Fatalf("kinds failed: %v", err)
	}

	var out kindsOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if out.Runtime != "mock" {
		t.Errorf("Runtime = %q, want mock", out.Runtime)
	}

	supported := map[workspace.Kind]bool{}
	for _, k := range out.Kinds {
		supported[k.Kind] = k.Supported
	}
	if !supported[workspace.KindHost] || !supported[workspace.KindDocker] {
		t.Errorf("host and docker should be supported: %v", supported)
	}
	if supported[workspace.KindRemote] || supported[workspace.KindFlyio] {
		t.Errorf("remote and flyio should not be supported: %v", supported)
	}
}

func TestKindsCommand_BadFormat(t *testing.T) {
	setupTestEnv(t)

	if _, _, err := executeCommand("kinds", "--format", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestEventsCommand(t *testing.T) {
	env := setupTestEnv(t)

	if _, _, err := executeCommand("run", "--", "true"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	id := env.Host.Created()[0].ID()

	stdout, _, err := executeCommand("events")
	if err != nil {
		t.Fatalf("events failed: %v", err)
	}
	if strings.TrimSpace(stdout) != id {
		t.Errorf("events listing = %q, want %q", stdout, id)
	}

	stdout, _, err = executeCommand("events", id)
	if err != nil {
		t.Fatalf("events failed: %v", err)
	}
	for _, typ := range []string{"create", "exec", "close"} {
		if !strings.Contains(stdout, typ) {
			t.Errorf("events should contain %q:\n%s", typ, stdout)
		}
	}

	stdout, _, err = executeCommand("events", id, "--format", "jsonl")
	if err != nil {
		t.Fatalf("events failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d JSON lines, want 3:\n%s", len(lines), stdout)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if first["type"] != "create" {
		t.Errorf("first event type = %v, want create", first["type"])
	}
}

func TestEventsCommand_EscapingID(t *testing.T) {
	setupTestEnv(t)

	if _, _, err := executeCommand("events", "../../etc/passwd"); err == nil {
		t.Error("expected an error for an id that escapes the state directory")
	}
}

func TestConfigShow(t *testing.T) {
	env := setupTestEnv(t)
	env.Config.Remote.APIKey = "sk-secret"

	stdout, _, err := executeCommand("config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, env.Config.StateDir) {
		t.Error("output should contain the state dir")
	}
	if strings.Contains(stdout, "sk-secret") {
		t.Error("output must not contain the API key")
	}

	stdout, _, err = executeCommand("config", "show", "--format", "yaml")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(stdout, "state_dir: ") {
		t.Errorf("YAML output should contain state_dir:\n%s", stdout)
	}

	if _, _, err := executeCommand("config", "show", "--format", "ini"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestParseEnv(t *testing.T) {
	env, err := parseEnv([]string{"A=1", "B=", "C=x=y"})
	if err != nil {
		t.Fatalf("parseEnv failed: %v", err)
	}
	if env["A"] != "1" || env["B"] != "" || env["C"] != "x=y" {
		t.Errorf("env = %v", env)
	}

	if env, err := parseEnv(nil); err != nil || env != nil {
		t.Errorf("parseEnv(nil) = %v, %v", env, err)
	}

	for _, bad := range []string{"NOEQUALS", "=value"} {
		if _, err := parseEnv([]string{bad}); err == nil {
			t.Errorf("parseEnv(%q) should fail", bad)
		}
	}
}

func TestCommandArgv(t *testing.T) {
	argv, err := commandArgv(`go test -run 'Test A'`, nil)
	if err != nil {
		t.Fatalf("commandArgv failed: %v", err)
	}
	want := []string{"go", "test", "-run", "Test A"}
	if strings.Join(argv, "|") != strings.Join(want, "|") {
		t.Errorf("argv = %q, want %q", argv, want)
	}

	argv, err = commandArgv("", []string{"ls", "-la"})
	if err != nil || len(argv) != 2 {
		t.Errorf("commandArgv passthrough = %v, %v", argv, err)
	}
}

func TestExitStatus(t *testing.T) {
	if got := exitStatus(2).Error(); got != "exit status 2" {
		t.Errorf("Error() = %q", got)
	}
}
