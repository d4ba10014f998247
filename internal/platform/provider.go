package platform

import (
	"fmt"
	"runtime"
)

// ErrUnsupported is returned when no default open command is known for the OS.
var ErrUnsupported = fmt.Errorf("no default URL opener on %s/%s; Bear runs on macOS (set --open-command to override)", runtime.GOOS, runtime.GOARCH)

// defaultOpeners maps GOOS to the command that hands a URI to its registered app.
// "-g" keeps Bear in the background.
var defaultOpeners = map[string][]string{
	"darwin": {"open", "-g"},
	"linux":  {"xdg-open"},
}

// NewOpener returns a CommandOpener. An empty command selects the OS default.
func NewOpener(command string, args ...string) (*CommandOpener, error) {
	if command != "" {
		return NewCommandOpener(command, args...), nil
	}
	def, ok := defaultOpeners[runtime.GOOS]
	if !ok {
		return nil, ErrUnsupported
	}
	return NewCommandOpener(def[0], append(append([]string(nil), def[1:]...), args...)...), nil
}
