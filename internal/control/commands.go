package control

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedMethod is returned for a command token with no mapping
var ErrUnsupportedMethod = errors.New("unsupported method")

// Command maps a short command-line token to a wire method
type Command struct {
	// Token is what the user types (e.g., "pow")
	Token string

	// Method is the wire method name (e.g., "set_power")
	Method string

	// Usage describes the state argument
	Usage string

	// Params serializes the state argument into the envelope params
	Params func(state string) string
}

var commands = map[string]Command{
	"pow": {
		Token:  "pow",
		Method: "set_power",
		Usage:  "on|off",
		Params: Quote,
	},
}

// Translate turns a command token and its state argument into a Request.
// The TargetID is left zero; Client.Send fills it from the device.
func Translate(token, state string) (Request, error) {
	cmd, ok := commands[token]
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, token)
	}
	return Request{
		Method: cmd.Method,
		Params: cmd.Params(state),
	}, nil
}

// Commands returns the known commands sorted by token
func Commands() []Command {
	list := make([]Command, 0, len(commands))
	for _, cmd := range commands {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Token < list[j].Token })
	return list
}
