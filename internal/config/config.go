// Package config loads the command-line tool configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/meili"
)

// Environment variables read by ApplyEnv and DefaultPath.
const (
	EnvConfig = "MEILI_CONFIG"
	EnvHost   = "MEILI_HOST"
	EnvAPIKey = "MEILI_API_KEY"
)

// Config holds the CLI configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Wait    WaitConfig    `yaml:"wait"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig locates the server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"` // 0 = no client-side timeout
}

// WaitConfig tunes polling of update status for --wait.
type WaitConfig struct {
	InitialIntervalMs int `yaml:"initial_interval_ms"`
	MaxIntervalMs     int `yaml:"max_interval_ms"`
	MaxElapsedSec     int `yaml:"max_elapsed_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // prod (JSON) or local/dev (console)
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// DefaultPath returns $MEILI_CONFIG, else the user config file when it
// exists, else "".
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	if p := filepath.Join(dir, "meili", "config.yaml"); fileExists(p) {
		return p
	}
	return ""
}

// ApplyEnv overrides the server location from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Server.APIKey = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "http://127.0.0.1:7700"
	}
	if c.Wait.InitialIntervalMs <= 0 {
		c.Wait.InitialIntervalMs = 100
	}
	if c.Wait.MaxIntervalMs <= 0 {
		c.Wait.MaxIntervalMs = 2000
	}
	if c.Wait.MaxElapsedSec <= 0 {
		c.Wait.MaxElapsedSec = 60
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := c.Client().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("server: %w", err))
	}
	if c.Server.TimeoutSec < 0 {
		result = multierror.Append(result,
			fmt.Errorf("server.timeout_sec must not be negative, got %d", c.Server.TimeoutSec))
	}
	if c.Wait.MaxIntervalMs < c.Wait.InitialIntervalMs {
		result = multierror.Append(result, fmt.Errorf(
			"wait.max_interval_ms (%d) must be >= wait.initial_interval_ms (%d)",
			c.Wait.MaxIntervalMs, c.Wait.InitialIntervalMs,
		))
	}
	switch c.Logging.Env {
	case "prod", "local", "dev":
	default:
		result = multierror.Append(result,
			fmt.Errorf("logging.env must be prod, local or dev, got %q", c.Logging.Env))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result,
			errors.New("logging.level must be one of debug, info, warn, error"))
	}

	return result.ErrorOrNil()
}

// Client returns the connection configuration of the SDK.
func (c *Config) Client() meili.Config {
	return meili.Config{Host: c.Server.Host, APIKey: c.Server.APIKey}
}

// Timeout returns the per-request timeout, zero when unset.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSec) * time.Second
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
