// Package config loads the CLI configuration file. The file is optional;
// every setting has a flag or environment fallback at the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the persisted CLI configuration.
type Config struct {
	// Endpoint is the catalog backend base URL used for dynamic-data lookups.
	Endpoint string `yaml:"endpoint"`
	// Project is the default target grouping identifier for runs.
	Project string `yaml:"project"`
	// TokenEnv names the environment variable holding the bearer token the
	// transport attaches to lookups. Token storage itself lives outside this
	// tool.
	TokenEnv string `yaml:"token_env"`
	// SchemaDirs are the directories registered with the schema registry.
	SchemaDirs []string `yaml:"schema_dirs"`
}

// DefaultPath returns the conventional config location under the user config
// directory.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "vra-cli", "config.yaml")
}

// Load reads path, falling back to defaults when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := &Config{TokenEnv: "VRA_TOKEN"}
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.TokenEnv == "" {
		cfg.TokenEnv = "VRA_TOKEN"
	}
	return cfg, nil
}
