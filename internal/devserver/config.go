// Package devserver serves chunk-split deployments during development.
//
// It is deliberately an honest reproduction of production asset hosting:
// deployments are content-addressed, and activating a new one removes the
// previous deployment's files, so stale clients hit real 404s — the exact
// condition package recovery exists for.
package devserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level keel.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Deploy  DeployConfig  `yaml:"deploy"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
}

// DeployConfig holds deployment settings.
type DeployConfig struct {
	// Dist is the build output directory to deploy from.
	Dist string `yaml:"dist"`
	// Out is the directory deployments are served from.
	Out string `yaml:"out"`
	// Version is the initial deployment version.
	Version string `yaml:"version"`
	// KeepPrevious retains the previous deployment's files on redeploy.
	// Off by default: removing them is what production does.
	KeepPrevious bool `yaml:"keep_previous"`
	// Watch redeploys automatically when Dist changes.
	Watch bool `yaml:"watch"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig reads configuration from a YAML file.
// Environment variables in the file are expanded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/"
	}
	if c.Deploy.Dist == "" {
		c.Deploy.Dist = "dist"
	}
	if c.Deploy.Out == "" {
		c.Deploy.Out = ".keel/deploy"
	}
	if c.Deploy.Version == "" {
		c.Deploy.Version = "v0.1.0"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
