package command

import (
	"context"
	"fmt"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/complete"
	"github.com/alexej-v/varlink_cli/config"
	"github.com/alexej-v/varlink_cli/idl"
	"github.com/alexej-v/varlink_cli/render"
)

var helpCommand = &Command{
	Name:     "help",
	Info:     "Print the description of an interface",
	Run:      runHelp,
	Complete: completeHelp,
}

func runHelp(ctx context.Context, env *Env, args []string) error {
	a, err := config.ParseHelp(args)
	if clierr.Is(err, clierr.MissingArgument) {
		fmt.Fprintf(env.Stderr, "Usage: %s help [ADDRESS/]INTERFACE\n", env.Program)
	}
	if err != nil {
		return err
	}
	if a.Help {
		usage(env.Stdout, env.Program, "help [ADDRESS/]INTERFACE",
			"Prints information about INTERFACE.", helpOption)
		return nil
	}

	desc, remote, err := describe(ctx, env, a.Target.Address, a.Target.Interface)
	if err != nil {
		return err
	}
	if remote != "" {
		fmt.Fprintf(env.Stdout, "Error: %s\n", remote)
		return nil
	}

	iface, err := idl.Parse(desc)
	if err != nil {
		return clierr.Wrap(clierr.Panic, err, "unable to parse interface description")
	}
	fmt.Fprintln(env.Stdout, render.Interface(iface, render.InterfaceWidth, env.Palette))
	return nil
}

func completeHelp(ctx context.Context, env *Env, args []string, current string) []string {
	return complete.Help(ctx, &source{env: env}, args, current)
}
