package testutil

import (
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	cfg, err := ValidConfig()
	if err != nil {
		t.Fatalf("ValidConfig() error: %v", err)
	}

	if cfg.StateDir != "/var/lib/forage-ws" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if cfg.ShutdownTimeout.Std() != 45*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 45s", cfg.ShutdownTimeout.Std())
	}
	if cfg.Docker.Command != "podman" || cfg.Docker.ContainerPrefix != "ws-" {
		t.Errorf("Docker = %+v", cfg.Docker)
	}
	if !cfg.RemoteEnabled() {
		t.Error("remote should be enabled")
	}
	if cfg.Remote.Timeout.Std() != time.Minute {
		t.Errorf("Remote.Timeout = %s, want 1m", cfg.Remote.Timeout.Std())
	}
	if cfg.Remote.Template != "python-3.12" {
		t.Errorf("Remote.Template = %q", cfg.Remote.Template)
	}
}

func TestLoadValidYAMLConfig(t *testing.T) {
	cfg, err := ValidYAMLConfig()
	if err != nil {
		t.Fatalf("ValidYAMLConfig() error: %v", err)
	}

	if cfg.Docker.Image != "alpine:3.20" {
		t.Errorf("Docker.Image = %q", cfg.Docker.Image)
	}
	if cfg.Docker.ContainerPrefix != "forage-ws-" {
		t.Errorf("ContainerPrefix should keep its default, got %q", cfg.Docker.ContainerPrefix)
	}
	if cfg.Server.Listen != "0.0.0.0:8787" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}
	if cfg.Remote.Template != "base" {
		t.Errorf("Remote.Template = %q, want base", cfg.Remote.Template)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	if err := InvalidConfig(); err == nil {
		t.Error("invalid config fixture should fail to load")
	}
}

func TestLoadFixture_NotFound(t *testing.T) {
	if _, err := LoadFixture("nonexistent.toml"); err == nil {
		t.Error("LoadFixture should fail for a missing file")
	}
}
