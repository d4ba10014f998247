package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/mj1618/bear-mcp/internal/config"
)

func newServeFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	addServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestApplyServeFlags_OnlyChanged(t *testing.T) {
	cfg := config.Default()
	cfg.Token = "from-file"
	cfg.CallbackPort = 12000

	fs := newServeFlagSet(t, "--timeout", "5s", "--serialize", "--open-arg", "-g", "--open-arg", "-j")
	applyServeFlags(fs, cfg)

	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", cfg.Timeout)
	}
	if !cfg.Serialize {
		t.Error("serialize should be set")
	}
	if len(cfg.OpenArgs) != 2 || cfg.OpenArgs[1] != "-j" {
		t.Errorf("open args: got %v", cfg.OpenArgs)
	}
	// Flags left at their defaults must not override file values.
	if cfg.Token != "from-file" || cfg.CallbackPort != 12000 {
		t.Errorf("unset flags overrode config: token=%q port=%d", cfg.Token, cfg.CallbackPort)
	}
}

func TestLoadServeConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("token: file\ncallback_port: 12000\ntimeout: 10s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.TokenEnv, "env")

	fs := newServeFlagSet(t, "--config", path, "--timeout", "3s")
	cfg, err := loadServeConfig(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "env" {
		t.Errorf("env should beat file, got %q", cfg.Token)
	}
	if cfg.CallbackPort != 12000 {
		t.Errorf("file should beat defaults, got %d", cfg.CallbackPort)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("flag should beat file, got %v", cfg.Timeout)
	}

	fs = newServeFlagSet(t, "--config", path, "--token", "flag")
	cfg, err = loadServeConfig(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "flag" {
		t.Errorf("flag should beat env, got %q", cfg.Token)
	}
}

func TestLoadServeConfig_Invalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	fs := newServeFlagSet(t, "--transport", "carrier-pigeon")
	if _, err := loadServeConfig(fs); err == nil {
		t.Error("expected validation error")
	}
}
