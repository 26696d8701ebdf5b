package tui

import (
	"fmt"
	"strings"
)

// Command is one parsed line of shell input
type Command struct {
	Name string // "chat" for free text
	Arg  string
}

var commandHelp = []struct {
	name, usage, help string
}{
	{"add", "/add <title>", "add a book to the cart"},
	{"remove", "/remove <id>", "remove a cart row"},
	{"buy", "/buy", "place the order"},
	{"clear", "/clear", "empty the cart"},
	{"sync", "/sync", "reload the cart from the store"},
	{"voice", "/voice", "speak a message to Genie"},
	{"stop", "/stop", "stop Genie speaking"},
	{"help", "/help", "show commands"},
	{"quit", "/quit", "leave the shell"},
}

var aliases = map[string]string{
	"listen": "voice",
	"mic":    "voice",
	"exit":   "quit",
	"rm":     "remove",
	"reload": "sync",
}

// ParseCommand turns a line of input into a command. Text without a leading
// slash is a chat message.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("empty input")
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Name: "chat", Arg: line}, nil
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	name = strings.ToLower(name)
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	arg = strings.TrimSpace(arg)

	for _, c := range commandHelp {
		if c.name != name {
			continue
		}
		if (name == "add" || name == "remove") && arg == "" {
			return Command{}, fmt.Errorf("usage: %s", c.usage)
		}
		return Command{Name: name, Arg: arg}, nil
	}
	return Command{}, fmt.Errorf("unknown command /%s (try /help)", name)
}

// HelpText lists the shell commands
func HelpText() string {
	lines := make([]string, 0, len(commandHelp))
	for _, c := range commandHelp {
		lines = append(lines, fmt.Sprintf("%-14s %s", c.usage, c.help))
	}
	return strings.Join(lines, "\n")
}
