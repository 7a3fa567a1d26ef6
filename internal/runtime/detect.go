package runtime

import (
	"fmt"
	"os/exec"
	goruntime "runtime"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/logging"
)

// RuntimeType identifies which container runtime to use
type RuntimeType string

const (
	RuntimeDocker RuntimeType = "docker"
	RuntimePodman RuntimeType = "podman"
	RuntimeAuto   RuntimeType = "auto"
)

// Config holds runtime configuration
type Config struct {
	// Type specifies which runtime to use (or "auto" for auto-detection)
	Type RuntimeType

	// ContainerPrefix is prepended to workspace ids
	ContainerPrefix string
}

// DefaultConfig returns the default runtime configuration
func DefaultConfig() *Config {
	return &Config{
		Type:            RuntimeAuto,
		ContainerPrefix: "forage-ws-",
	}
}

// ConfigFor maps the docker.command setting onto a runtime Config.
func ConfigFor(command, containerPrefix string) *Config {
	cfg := DefaultConfig()
	if command != "" {
		cfg.Type = RuntimeType(command)
	}
	if containerPrefix != "" {
		cfg.ContainerPrefix = containerPrefix
	}
	return cfg
}

// Detect determines which container runtime is available on the system.
func Detect() (RuntimeType, error) {
	logging.Debug("detecting container runtime", "os", goruntime.GOOS)

	switch goruntime.GOOS {
	case "linux", "darwin":
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goruntime.GOOS)
	}

	// Podman first: rootless by default
	if _, err := exec.LookPath("podman"); err == nil {
		logging.Debug("detected podman")
		return RuntimePodman, nil
	}

	if _, err := exec.LookPath("docker"); err == nil {
		logging.Debug("detected docker")
		return RuntimeDocker, nil
	}

	return "", fmt.Errorf("no supported container runtime found (tried: podman, docker)")
}

// New creates a new Runtime based on the configuration.
// If Type is RuntimeAuto, it auto-detects the best runtime.
func New(cfg *Config) (Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	runtimeType := cfg.Type
	if runtimeType == RuntimeAuto || runtimeType == "" {
		detected, err := Detect()
		if err != nil {
			return nil, err
		}
		runtimeType = detected
	}

	logging.Debug("creating runtime", "type", runtimeType)

	switch runtimeType {
	case RuntimeDocker, RuntimePodman:
		return NewDockerRuntime(string(runtimeType), cfg.ContainerPrefix)
	default:
		return nil, fmt.Errorf("unknown runtime type: %s", runtimeType)
	}
}

// Available returns a list of available runtimes on this system
func Available() []RuntimeType {
	var available []RuntimeType

	if _, err := exec.LookPath("podman"); err == nil {
		available = append(available, RuntimePodman)
	}

	if _, err := exec.LookPath("docker"); err == nil {
		available = append(available, RuntimeDocker)
	}

	return available
}
