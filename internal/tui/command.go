package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string, with or without the leading ':'.
// Names are case-insensitive and single-letter aliases are expanded.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if alias, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = alias
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

var commandAliases = map[string]string{
	"o": "open",
	"r": "refresh",
	"c": "close",
	"h": "help",
	"q": "quit",
}

// commandHints documents the command line for the help page.
var commandHints = []string{
	"open <name>:open the first contact matching name",
	"refresh:reload contacts and presence",
	"close:leave the conversation",
	"help:show this help",
	"quit:exit",
}
