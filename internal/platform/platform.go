package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runFunc runs a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandOpener opens URIs by running an external command, for example
// `open -g <uri>` on macOS. The command hands the URI to the registered URL
// handler and returns; the action's result arrives later via callback.
type CommandOpener struct {
	Command string
	Args    []string

	run runFunc
}

// NewCommandOpener creates an opener that runs command with args followed by the URI.
func NewCommandOpener(command string, args ...string) *CommandOpener {
	return &CommandOpener{
		Command: command,
		Args:    args,
		run:     runCommand,
	}
}

// Open runs the command. A non-zero exit (e.g. no app registered for the
// bear:// scheme) is returned with the command's output.
func (o *CommandOpener) Open(ctx context.Context, uri string) error {
	args := append(append([]string(nil), o.Args...), uri)
	if out, err := o.run(ctx, o.Command, args...); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s failed: %w", o.Command, err)
		}
		return fmt.Errorf("%s failed: %s (%w)", o.Command, msg, err)
	}
	return nil
}
