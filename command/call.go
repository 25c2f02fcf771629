package command

import (
	"context"

	"github.com/alexej-v/varlink_cli/client"
	"github.com/alexej-v/varlink_cli/complete"
	"github.com/alexej-v/varlink_cli/config"
	"github.com/alexej-v/varlink_cli/render"
)

var callCommand = &Command{
	Name:     "call",
	Info:     "Call a method",
	Run:      runCall,
	Complete: completeCall,
}

func runCall(ctx context.Context, env *Env, args []string) error {
	a, err := config.ParseCall(args)
	if err != nil {
		return err
	}
	if a.Help {
		usage(env.Stdout, env.Program, "call [ADDRESS/]INTERFACE.METHOD [ARGUMENTS]",
			"Call METHOD on INTERFACE at ADDRESS. ARGUMENTS must be valid JSON.",
			helpOption, moreOption)
		return nil
	}

	params, err := config.CallParameters(a, env.Stdin)
	if err != nil {
		return err
	}

	r := &render.Renderer{Out: env.Stdout, Err: env.Stderr, Palette: env.Palette}
	outcome, err := env.Client.Call(ctx, &client.CallRequest{
		Target:     a.Target,
		Parameters: params,
		More:       a.More,
	}, func(reply *client.Reply) error {
		return r.Reply(reply.Error, reply.Parameters)
	})
	env.logger().Debug("call finished", "method", a.Target.QualifiedMember(), "outcome", outcome.String())
	return err
}

func completeCall(ctx context.Context, env *Env, args []string, current string) []string {
	return complete.Call(ctx, &source{env: env}, args, current)
}
