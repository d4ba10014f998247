package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mj1618/bear-mcp/internal/log"
	"github.com/mj1618/bear-mcp/internal/output"
	"github.com/mj1618/bear-mcp/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bear-mcp",
	Short: "MCP server for the Bear notes app",
	Long: `An MCP server that drives Bear through its x-callback-url API. Each tool
fires a bear:// action and waits for Bear to call back on a local HTTP listener.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json (default text)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}

// newLogger builds the process logger from the environment, a config file
// level/format (may be empty) and the root --log-* flags, in increasing priority.
func newLogger(level, format string) (*slog.Logger, error) {
	cfg := log.DefaultConfig()
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = log.Format(format)
	}
	cfg = log.FromEnv(cfg)
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.Level = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-format"); v != "" {
		cfg.Format = log.Format(v)
	}
	return log.New(cfg)
}
