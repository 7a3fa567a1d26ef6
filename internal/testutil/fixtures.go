package testutil

import (
	"embed"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConfigFixture parses a config fixture in the given format.
func LoadConfigFixture(name string, format config.Format) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	return config.Parse(data, format)
}

// ValidConfig returns the valid TOML config fixture.
func ValidConfig() (*config.Config, error) {
	return LoadConfigFixture("valid_config.toml", config.FormatTOML)
}

// ValidYAMLConfig returns the valid YAML config fixture.
func ValidYAMLConfig() (*config.Config, error) {
	return LoadConfigFixture("valid_config.yaml", config.FormatYAML)
}

// InvalidConfig returns the error from parsing the invalid config fixture.
func InvalidConfig() error {
	_, err := LoadConfigFixture("invalid_config.toml", config.FormatTOML)
	return err
}
