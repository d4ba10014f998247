// Package config loads bear-mcp settings from defaults, an optional YAML
// file, the environment and the OS keychain. Command-line flags are applied
// on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// TokenEnv is the environment variable holding the Bear API token.
const TokenEnv = "BEAR_API_TOKEN"

// Transports accepted by Config.Transport.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds every runtime setting.
type Config struct {
	// Token is Bear's API token, required by tags, open-tag, todo, today and search.
	Token string `yaml:"token"`

	CallbackHost string `yaml:"callback_host"`
	CallbackPort int    `yaml:"callback_port"`
	// PortAttempts is how many successive ports are probed from CallbackPort. 1 disables probing.
	PortAttempts int `yaml:"port_attempts"`

	Timeout           time.Duration `yaml:"timeout"`
	LateCallbackGrace time.Duration `yaml:"late_callback_grace"`

	// OpenCommand hands bear:// URIs to the app. Empty selects the OS default.
	OpenCommand string   `yaml:"open_command"`
	OpenArgs    []string `yaml:"open_args"`

	DispatchRate float64 `yaml:"dispatch_rate"`
	Serialize    bool    `yaml:"serialize"`

	Transport string `yaml:"transport"`
	HTTPPort  int    `yaml:"http_port"`

	CacheTTL time.Duration `yaml:"cache_ttl"`
	Metrics  bool          `yaml:"metrics"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		CallbackHost:      "127.0.0.1",
		CallbackPort:      11599,
		PortAttempts:      10,
		Timeout:           30 * time.Second,
		LateCallbackGrace: 5 * time.Second,
		Transport:         TransportStdio,
		HTTPPort:          8080,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/bear-mcp/config.yaml, falling back to ~/.config.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "bear-mcp", "config.yaml"), nil
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path reads DefaultPath if it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Token = token
	}
	return cfg, nil
}

// ResolveToken fills an empty Token from the keychain. A missing keychain
// entry is not an error: write-only tools work without a token.
func (c *Config) ResolveToken() error {
	if c.Token != "" {
		return nil
	}
	token, err := GetToken()
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil
		}
		return err
	}
	c.Token = token
	return nil
}

// ValidationError reports an invalid setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.CallbackHost == "" {
		errs = append(errs, &ValidationError{"callback_host", "must not be empty"})
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		errs = append(errs, &ValidationError{"callback_port", fmt.Sprintf("%d is out of range", c.CallbackPort)})
	}
	if c.PortAttempts < 1 {
		errs = append(errs, &ValidationError{"port_attempts", "must be at least 1"})
	}
	if c.Timeout < 0 {
		errs = append(errs, &ValidationError{"timeout", "must not be negative"})
	}
	if c.LateCallbackGrace < 0 {
		errs = append(errs, &ValidationError{"late_callback_grace", "must not be negative"})
	}
	if c.DispatchRate < 0 {
		errs = append(errs, &ValidationError{"dispatch_rate", "must not be negative"})
	}
	if c.CacheTTL < 0 {
		errs = append(errs, &ValidationError{"cache_ttl", "must not be negative"})
	}
	switch c.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		errs = append(errs, &ValidationError{"transport", fmt.Sprintf("unknown transport %q (use stdio or streamable-http)", c.Transport)})
	}
	if c.Transport == TransportStreamableHTTP && (c.HTTPPort < 1 || c.HTTPPort > 65535) {
		errs = append(errs, &ValidationError{"http_port", fmt.Sprintf("%d is out of range", c.HTTPPort)})
	}
	return errors.Join(errs...)
}
