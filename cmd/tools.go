package cmd

import (
	"github.com/mj1618/bear-mcp/internal/output"
	"github.com/mj1618/bear-mcp/internal/server"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools and their parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(server.Catalog())
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
