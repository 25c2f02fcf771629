package command

import (
	"context"
	"fmt"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/complete"
	"github.com/alexej-v/varlink_cli/config"
)

// completeCommand prints the completion candidates for a command line. It
// is called by shell completion scripts as
//
//	varlink complete CURRENT [WORDS...]
//
// where WORDS are the words before CURRENT, without the program name.
var completeCommand = &Command{
	Name:   "complete",
	Info:   "Print completion candidates",
	Hidden: true,
	Run:    runComplete,
}

func runComplete(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return clierr.New(clierr.MissingArgument, "missing argument, CURRENT [WORDS...] expected")
	}
	for _, c := range Candidates(ctx, env, args[1:], args[0]) {
		fmt.Fprintln(env.Stdout, c)
	}
	return nil
}

// Candidates completes current given the words of a command line before it.
// Global options among words are honored; failures yield no candidates.
func Candidates(ctx context.Context, env *Env, words []string, current string) []string {
	cfg, err := config.Init(words)
	if err != nil {
		return nil
	}
	if cfg.Command == "" {
		return complete.Global(current, config.OptionNames(), Names())
	}
	cmd := Lookup(cfg.Command)
	if cmd == nil || cmd.Hidden || cmd.Complete == nil {
		return nil
	}

	cmdEnv := env
	if len(cfg.Args) < len(words)-1 && env.Derive != nil {
		derived, err := env.Derive(cfg)
		if err != nil {
			env.logger().Debug("completion environment", "error", err)
			return nil
		}
		defer derived.Close()
		cmdEnv = derived
	}
	return cmd.Complete(ctx, cmdEnv, cfg.Args, current)
}
