package command

import (
	"context"
	"fmt"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/complete"
	"github.com/alexej-v/varlink_cli/config"
)

var resolveCommand = &Command{
	Name:     "resolve",
	Info:     "Resolve an interface name to a varlink address",
	Run:      runResolve,
	Complete: completeResolve,
}

func runResolve(ctx context.Context, env *Env, args []string) error {
	a, err := config.ParseResolve(args)
	if err != nil {
		return err
	}
	if a.Help {
		usage(env.Stdout, env.Program, "resolve INTERFACE",
			"Resolve INTERFACE to the varlink address that implements it.", helpOption)
		return nil
	}

	address, err := env.Resolver.Resolve(ctx, a.Target.Interface)
	if err != nil {
		if clierr.CodeOf(err) == clierr.Panic {
			err = clierr.Wrapf(clierr.CannotResolve, err, "error resolving interface %s", a.Target.Interface)
		}
		return err
	}
	fmt.Fprintln(env.Stdout, address)
	return nil
}

func completeResolve(ctx context.Context, env *Env, args []string, current string) []string {
	return complete.Resolve(ctx, &source{env: env}, args, current)
}
