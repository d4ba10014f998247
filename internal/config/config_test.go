package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(TokenEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CallbackHost != "127.0.0.1" || cfg.CallbackPort != 11599 {
		t.Errorf("callback address: got %s:%d", cfg.CallbackHost, cfg.CallbackPort)
	}
	if cfg.Timeout != 30*time.Second || cfg.LateCallbackGrace != 5*time.Second {
		t.Errorf("timeouts: got %v / %v", cfg.Timeout, cfg.LateCallbackGrace)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("transport: got %q", cfg.Transport)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
token: from-file
callback_port: 12000
timeout: 5s
late_callback_grace: 2m
open_command: /usr/bin/open
open_args: ["-g", "-j"]
serialize: true
transport: streamable-http
cache_ttl: 10s
`)
	t.Setenv(TokenEnv, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "from-file" || cfg.CallbackPort != 12000 {
		t.Errorf("got token=%q port=%d", cfg.Token, cfg.CallbackPort)
	}
	if cfg.Timeout != 5*time.Second || cfg.LateCallbackGrace != 2*time.Minute || cfg.CacheTTL != 10*time.Second {
		t.Errorf("durations not parsed: %+v", cfg)
	}
	if cfg.OpenCommand != "/usr/bin/open" || strings.Join(cfg.OpenArgs, " ") != "-g -j" {
		t.Errorf("opener: got %q %v", cfg.OpenCommand, cfg.OpenArgs)
	}
	if !cfg.Serialize || cfg.Transport != TransportStreamableHTTP {
		t.Errorf("got serialize=%v transport=%q", cfg.Serialize, cfg.Transport)
	}
	// Unset keys keep their defaults.
	if cfg.CallbackHost != "127.0.0.1" {
		t.Errorf("callback host: got %q", cfg.CallbackHost)
	}

	t.Setenv(TokenEnv, "from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "from-env" {
		t.Errorf("env should override file, got %q", cfg.Token)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "timeout: [not a duration\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty host", func(c *Config) { c.CallbackHost = "" }, "callback_host"},
		{"port range", func(c *Config) { c.CallbackPort = 70000 }, "callback_port"},
		{"attempts", func(c *Config) { c.PortAttempts = 0 }, "port_attempts"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"negative rate", func(c *Config) { c.DispatchRate = -1 }, "dispatch_rate"},
		{"transport", func(c *Config) { c.Transport = "sse" }, "transport"},
		{"http port", func(c *Config) { c.Transport = TransportStreamableHTTP; c.HTTPPort = 0 }, "http_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field: got %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestKeychainToken(t *testing.T) {
	keyring.MockInit()

	if _, err := GetToken(); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if err := SetToken(""); err == nil {
		t.Error("empty token should be rejected")
	}
	if err := SetToken("secret"); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.ResolveToken(); err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "secret" {
		t.Errorf("token: got %q", cfg.Token)
	}

	cfg = Default()
	cfg.Token = "explicit"
	if err := cfg.ResolveToken(); err != nil || cfg.Token != "explicit" {
		t.Errorf("explicit token must win, got %q (%v)", cfg.Token, err)
	}

	if err := DeleteToken(); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second delete: got %v", err)
	}

	cfg = Default()
	if err := cfg.ResolveToken(); err != nil || cfg.Token != "" {
		t.Errorf("missing keychain entry should leave token empty, got %q (%v)", cfg.Token, err)
	}
}

func TestFindAvailablePort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port

	port, err := FindAvailablePort("127.0.0.1", busy, 20)
	if err != nil {
		t.Fatal(err)
	}
	if port == busy {
		t.Errorf("returned busy port %d", busy)
	}
	if port < busy || port >= busy+20 {
		t.Errorf("port %d outside probe range", port)
	}

	if _, err := FindAvailablePort("127.0.0.1", busy, 1); err == nil {
		t.Error("expected error when the only candidate is taken")
	}
}
