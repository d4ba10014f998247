package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mj1618/bear-mcp/internal/bear"
	"github.com/mj1618/bear-mcp/internal/bridge"
	"github.com/mj1618/bear-mcp/internal/config"
	"github.com/mj1618/bear-mcp/internal/log"
	"github.com/mj1618/bear-mcp/internal/platform"
	"github.com/mj1618/bear-mcp/internal/server"
	"github.com/mj1618/bear-mcp/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server exposing Bear tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes Bear's
x-callback-url actions as tools. A local HTTP listener receives Bear's
x-success / x-error callbacks and is started before the first tool call.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Settings are read from the config file, then BEAR_API_TOKEN, then flags.
Without a token the keychain entry stored by "bear-mcp token set" is used.

Examples:
  bear-mcp serve
  bear-mcp serve --callback-port 0 --timeout 10s
  bear-mcp serve --transport streamable-http --port 8080 --metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd.Flags())
}

func addServeFlags(fs *pflag.FlagSet) {
	def := config.Default()
	fs.String("config", "", "Config file (default $XDG_CONFIG_HOME/bear-mcp/config.yaml)")
	fs.String("token", "", "Bear API token (overrides "+config.TokenEnv+")")
	fs.String("callback-host", def.CallbackHost, "Host the callback listener binds")
	fs.Int("callback-port", def.CallbackPort, "First port tried for the callback listener (0 picks any free port)")
	fs.Int("port-attempts", def.PortAttempts, "Successive callback ports to probe")
	fs.Duration("timeout", def.Timeout, "Max wait for Bear's callback per call (0 waits indefinitely)")
	fs.Duration("late-callback-grace", def.LateCallbackGrace, "How long after dispatch an abandoned call keeps absorbing its late callback")
	fs.String("open-command", def.OpenCommand, "Command that opens bear:// URLs (default: open -g on macOS)")
	fs.StringSlice("open-arg", nil, "Extra argument for --open-command (repeatable)")
	fs.Float64("dispatch-rate", def.DispatchRate, "Max actions sent to Bear per second (0 = unlimited)")
	fs.Bool("serialize", def.Serialize, "Allow a single in-flight action per operation family")
	fs.String("transport", def.Transport, "Transport: stdio, streamable-http")
	fs.Int("port", def.HTTPPort, "HTTP port for streamable-http transport")
	fs.Duration("cache-ttl", def.CacheTTL, "Cache TTL for read-only tool results (0 to disable)")
	fs.Bool("metrics", def.Metrics, "Serve Prometheus metrics at /metrics on the callback listener")
}

// applyServeFlags overlays explicitly set flags on cfg.
func applyServeFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("token") {
		cfg.Token, _ = fs.GetString("token")
	}
	if fs.Changed("callback-host") {
		cfg.CallbackHost, _ = fs.GetString("callback-host")
	}
	if fs.Changed("callback-port") {
		cfg.CallbackPort, _ = fs.GetInt("callback-port")
	}
	if fs.Changed("port-attempts") {
		cfg.PortAttempts, _ = fs.GetInt("port-attempts")
	}
	if fs.Changed("timeout") {
		cfg.Timeout, _ = fs.GetDuration("timeout")
	}
	if fs.Changed("late-callback-grace") {
		cfg.LateCallbackGrace, _ = fs.GetDuration("late-callback-grace")
	}
	if fs.Changed("open-command") {
		cfg.OpenCommand, _ = fs.GetString("open-command")
	}
	if fs.Changed("open-arg") {
		cfg.OpenArgs, _ = fs.GetStringSlice("open-arg")
	}
	if fs.Changed("dispatch-rate") {
		cfg.DispatchRate, _ = fs.GetFloat64("dispatch-rate")
	}
	if fs.Changed("serialize") {
		cfg.Serialize, _ = fs.GetBool("serialize")
	}
	if fs.Changed("transport") {
		cfg.Transport, _ = fs.GetString("transport")
	}
	if fs.Changed("port") {
		cfg.HTTPPort, _ = fs.GetInt("port")
	}
	if fs.Changed("cache-ttl") {
		cfg.CacheTTL, _ = fs.GetDuration("cache-ttl")
	}
	if fs.Changed("metrics") {
		cfg.Metrics, _ = fs.GetBool("metrics")
	}
}

// loadServeConfig resolves settings from file, environment and flags.
func loadServeConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyServeFlags(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	if err := cfg.ResolveToken(); err != nil {
		logger.Warn("could not read token from keychain", "error", err)
	}
	if cfg.Token == "" {
		logger.Warn("no Bear API token configured; tags, open_tag, todo, today and search will fail")
	}

	port := cfg.CallbackPort
	if port != 0 && cfg.PortAttempts > 1 {
		port, err = config.FindAvailablePort(cfg.CallbackHost, cfg.CallbackPort, cfg.PortAttempts)
		if err != nil {
			return err
		}
		if port != cfg.CallbackPort {
			logger.Info("callback port in use, using next free port", "requested", cfg.CallbackPort, "port", port)
		}
	}

	opener, err := platform.NewOpener(cfg.OpenCommand, cfg.OpenArgs...)
	if err != nil {
		return err
	}

	b := bridge.New(bridge.Config{
		Host:              cfg.CallbackHost,
		Port:              port,
		Families:          bear.Families,
		Timeout:           cfg.Timeout,
		LateCallbackGrace: cfg.LateCallbackGrace,
		DispatchRate:      cfg.DispatchRate,
		Serialize:         cfg.Serialize,
		Metrics:           cfg.Metrics,
		ShutdownTimeout:   5 * time.Second,
	}, opener, bridge.WithLogger(log.WithComponent(logger, "bridge")))

	client := bear.NewClient(b, cfg.Token, log.WithComponent(logger, "bear"))
	srv := server.New(client, server.Config{
		Name:      "bear",
		Version:   version.Version,
		Transport: cfg.Transport,
		Port:      cfg.HTTPPort,
		CacheTTL:  cfg.CacheTTL,
	}, log.WithComponent(logger, "mcp"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx, srv.Serve); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
