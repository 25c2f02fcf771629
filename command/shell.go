package command

import (
	"context"
	"fmt"
	"io"

	"github.com/alexej-v/varlink_cli/cli"
	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/config"
)

var shellCommand = &Command{
	Name:        "shell",
	Info:        "Run commands interactively",
	Interactive: true,
	Run:         runShell,
}

func runShell(ctx context.Context, env *Env, args []string) error {
	a, err := config.ParseShell(args)
	if err != nil {
		return err
	}
	if a.Help {
		usage(env.Stdout, env.Program, "shell",
			"Read commands from the terminal and run them. Ctrl-C cancels a running call,\nCtrl-D or \"exit\" leaves the shell.",
			helpOption)
		return nil
	}

	cfg := cli.DefaultConfig(shellRunner(env), func(ctx context.Context, words []string, current string) []string {
		return Candidates(ctx, env, words, current)
	})
	cfg.HistoryFile = env.Config.Default.HistoryFile
	cfg.Banner = shellBanner(env.Config)
	cfg.Color = env.Palette.Enabled()
	if r, ok := env.Stdin.(io.ReadCloser); ok {
		cfg.Stdin = r
	}
	cfg.Stdout = env.Stdout
	cfg.Stderr = env.Stderr
	return cli.Run(ctx, cfg)
}

func shellBanner(cfg *config.Config) string {
	if cfg.Default.Bridge != "" {
		return fmt.Sprintf("Connected through bridge %q, type \"exit\" to leave", cfg.Default.Bridge)
	}
	return fmt.Sprintf("Resolving interfaces at %s, type \"exit\" to leave", cfg.Default.Resolver)
}

// shellRunner dispatches one shell line. Remote errors have already been
// reported by the command; the error returned is printed by the shell.
func shellRunner(env *Env) cli.Runner {
	return func(ctx context.Context, words []string) error {
		cmd := Lookup(words[0])
		if cmd != nil && cmd.Interactive {
			return clierr.Newf(clierr.InvalidArgument, "'%s' cannot be run from the shell", words[0])
		}
		err := Dispatch(ctx, env, words[0], words[1:])
		if clierr.CodeOf(err) == clierr.Canceled {
			return nil
		}
		return err
	}
}
