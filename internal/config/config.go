// Package config provides configuration management for the gateway. It loads
// a YAML configuration file and provides structured access to server,
// logging, and upstream settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the listen port when none is configured.
	DefaultPort = 3141
	// DefaultAppName is the single app id the ADK surface advertises.
	DefaultAppName = "vscode-lm-proxy"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the listen address. Empty means loopback only.
	Host string `yaml:"host"`

	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// AppName is the application id reported by /list-apps and used as the
	// ADK author label.
	AppName string `yaml:"app-name"`

	// LoggingLevel selects the log verbosity (debug/info/warn/error/quiet).
	LoggingLevel string `yaml:"logging-level"`

	// LoggingToFile mirrors logs into a rotated file under LogDir.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogDir is the directory for rotated log files.
	LogDir string `yaml:"log-dir"`

	// RequestLog enables detailed request/response debug logging.
	RequestLog bool `yaml:"request-log"`

	// Upstream configures the backing chat-model endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`
}

// UpstreamConfig holds the chat-model backend connection settings.
type UpstreamConfig struct {
	// BaseURL is the OpenAI-compatible endpoint root, e.g. http://127.0.0.1:8080.
	BaseURL string `yaml:"base-url"`

	// APIKey is sent as a bearer token when non-empty.
	APIKey string `yaml:"api-key"`

	// TimeoutSeconds bounds one upstream request. <= 0 selects the default.
	TimeoutSeconds int `yaml:"timeout-seconds"`

	// Models lists the model ids the upstream serves, in preference order.
	// The first entry is the fallback when a requested id has no exact match.
	Models []string `yaml:"models"`
}

// LoadConfig reads and parses the configuration file at path, applying
// defaults for absent fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills absent fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.LoggingLevel == "" {
		c.LoggingLevel = "info"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
}
