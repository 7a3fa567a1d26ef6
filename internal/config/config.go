package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigName      = "forage-ws.toml"
	DefaultImage           = "python:3.12-slim"
	DefaultContainerPrefix = "forage-ws-"
	DefaultListen          = "127.0.0.1:8787"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRemoteTimeout   = 30 * time.Second

	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "FORAGE_WS_CONFIG"
)

// Duration is a time.Duration that reads and writes as a string such as "30s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the forage-ws configuration file.
type Config struct {
	StateDir        string       `toml:"state_dir" yaml:"state_dir"`
	ShutdownTimeout Duration     `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	Host            HostConfig   `toml:"host" yaml:"host"`
	Docker          DockerConfig `toml:"docker" yaml:"docker"`
	Remote          RemoteConfig `toml:"remote" yaml:"remote"`
	Server          ServerConfig `toml:"server" yaml:"server"`
}

// HostConfig configures host workspaces.
type HostConfig struct {
	// Root is the parent of every owned host working directory.
	Root string `toml:"root" yaml:"root"`
}

// DockerConfig configures container workspaces.
type DockerConfig struct {
	// Command is the container CLI; empty means auto-detect.
	Command         string `toml:"command" yaml:"command"`
	Image           string `toml:"image" yaml:"image"`
	ContainerPrefix string `toml:"container_prefix" yaml:"container_prefix"`
}

// RemoteConfig configures the remote sandbox service.
// The remote kind is only registered when URL is set.
type RemoteConfig struct {
	URL     string   `toml:"url" yaml:"url"`
	APIKey  string   `toml:"api_key" yaml:"api_key"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
	// Template is the sandbox template used when a workspace names no image.
	Template string `toml:"template" yaml:"template"`
}

// ServerConfig configures the HTTP control API.
type ServerConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		StateDir:        defaultStateDir(),
		ShutdownTimeout: Duration(DefaultShutdownTimeout),
		Host: HostConfig{
			Root: filepath.Join(os.TempDir(), "forage-ws"),
		},
		Docker: DockerConfig{
			Image:           DefaultImage,
			ContainerPrefix: DefaultContainerPrefix,
		},
		Remote: RemoteConfig{
			Timeout: Duration(DefaultRemoteTimeout),
		},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
	}
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "forage-ws")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "forage-ws")
	}
	return filepath.Join(os.TempDir(), "forage-ws-state")
}

// DefaultPath returns the configuration file used when neither --config
// nor $FORAGE_WS_CONFIG is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigName
	}
	return filepath.Join(dir, "forage-ws", DefaultConfigName)
}

// ResolvePath picks the configuration file location. The second return
// value reports whether the path was chosen explicitly.
func ResolvePath(flagPath string) (string, bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return DefaultPath(), false
}

// Load reads the configuration at path, layered over Default.
// An explicit path that does not exist is an error; a missing default
// file yields the defaults.
func Load(flagPath string) (*Config, error) {
	path, explicit := ResolvePath(flagPath)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data, formatOf(path))
}

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Parse decodes data in the given format over the defaults and validates it.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the Config is usable.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive (got %s)", c.ShutdownTimeout.Std())
	}
	if c.Host.Root == "" {
		return fmt.Errorf("host.root is required")
	}
	if !filepath.IsAbs(c.Host.Root) {
		return fmt.Errorf("host.root must be an absolute path (got %q)", c.Host.Root)
	}
	if c.Docker.Image == "" {
		return fmt.Errorf("docker.image is required")
	}
	if c.Docker.ContainerPrefix == "" {
		return fmt.Errorf("docker.container_prefix is required")
	}
	validCommands := map[string]bool{"": true, "docker": true, "podman": true}
	if !validCommands[c.Docker.Command] {
		return fmt.Errorf("invalid docker.command: %s (must be docker, podman, or empty)", c.Docker.Command)
	}
	if c.Remote.URL != "" {
		u, err := url.Parse(c.Remote.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote.url must be an http(s) URL (got %q)", c.Remote.URL)
		}
		if c.Remote.Timeout <= 0 {
			return fmt.Errorf("remote.timeout must be positive (got %s)", c.Remote.Timeout.Std())
		}
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	return nil
}

// RemoteEnabled reports whether the remote kind should be registered.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.URL != ""
}

// WorkspacesDir is where per-workspace event logs live.
func (c *Config) WorkspacesDir() string {
	return filepath.Join(c.StateDir, "workspaces")
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Remote.APIKey != "" {
		out.Remote.APIKey = "********"
	}
	return &out
}

// Encode writes the configuration in the given format.
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
}

// ContainerName returns the container name for a workspace.
func (c *Config) ContainerName(workspaceID string) string {
	return c.Docker.ContainerPrefix + workspaceID
}
