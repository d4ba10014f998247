package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mj1618/bear-mcp/internal/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the Bear API token stored in the system keychain",
	Long: `Manage the Bear API token used by tags, open_tag, todo, today and search.
Copy the token from Bear: Help > Advanced > API Token.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [TOKEN]",
	Short: "Store the token (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := tokenArg(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := config.SetToken(token); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token stored in keychain")
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteToken(); err != nil {
			if errors.Is(err, config.ErrTokenNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no token stored")
				return nil
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token removed from keychain")
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd)
	rootCmd.AddCommand(tokenCmd)
}

func tokenArg(args []string, in io.Reader) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("no token given")
	}
	return token, nil
}
