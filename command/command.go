// Package command implements the subcommands of the varlink tool.
package command

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/alexej-v/varlink_cli/clierr"
)

type Command struct {
	Name string
	Info string
	// Hidden commands are left out of help listings and completion.
	Hidden bool
	// Interactive commands handle interrupts and timeouts themselves.
	Interactive bool

	Run func(ctx context.Context, env *Env, args []string) error
	// Complete returns candidates for current given the arguments before it.
	Complete func(ctx context.Context, env *Env, args []string, current string) []string
}

var commands map[string]*Command

func init() {
	commands = make(map[string]*Command)
	for _, c := range []*Command{callCommand, helpCommand, infoCommand, resolveCommand, shellCommand, completeCommand} {
		commands[c.Name] = c
	}
}

// Lookup returns the named command, or nil.
func Lookup(name string) *Command {
	return commands[name]
}

// Commands returns the visible commands sorted by name.
func Commands() []*Command {
	var list []*Command
	for _, c := range commands {
		if !c.Hidden {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names returns the names of the visible commands.
func Names() []string {
	list := Commands()
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names
}

// Dispatch runs the named command with the timeout of env.
func Dispatch(ctx context.Context, env *Env, name string, args []string) error {
	cmd := Lookup(name)
	if cmd == nil {
		return clierr.Newf(clierr.CommandNotFound, "'%s' is not a valid command", name)
	}
	if !cmd.Interactive {
		var cancel context.CancelFunc
		ctx, cancel = env.withTimeout(ctx)
		defer cancel()
	}
	env.logger().Debug("running command", "command", name, "args", args)
	return cmd.Run(ctx, env, args)
}

// PrintCommands writes the command list of the global help text.
func PrintCommands(w io.Writer) {
	for _, c := range Commands() {
		fmt.Fprintf(w, "  %-16.16s %s\n", c.Name, c.Info)
	}
}

func usage(w io.Writer, program, synopsis, description string, options ...string) {
	fmt.Fprintf(w, "Usage: %s %s\n\n%s\n\n", program, synopsis, description)
	for _, o := range options {
		fmt.Fprintf(w, "  %s\n", o)
	}
}

const (
	helpOption = "-h, --help             display this help text and exit"
	moreOption = "-m, --more             wait for multiple method returns if supported"
)
