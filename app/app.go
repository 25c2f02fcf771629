package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/command"
	"github.com/alexej-v/varlink_cli/config"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Version is printed by --version.
var Version = "0.1.0"

type app struct {
	program string
	stdio   command.Stdio

	cfg    *config.Config
	logger *slog.Logger
	env    *command.Env
}

func (a *app) initConfig(args []string) (err error) {
	a.cfg, err = config.Init(args)
	if err != nil {
		return clierr.Wrap(clierr.InvalidArgument, err, "invalid option")
	}
	return nil
}

func (a *app) initLogger() {
	options := &slog.HandlerOptions{Level: slog.LevelWarn}
	if a.cfg.Default.Verbose {
		options.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if f, ok := a.stdio.Err.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		handler = slog.NewTextHandler(a.stdio.Err, options)
	} else {
		handler = slog.NewJSONHandler(a.stdio.Err, options)
	}
	a.logger = slog.New(handler).With("program", a.program)
}

func (a *app) initEnv() (err error) {
	a.env, err = command.NewEnv(a.cfg, a.stdio, a.logger, a.program)
	if err != nil && clierr.CodeOf(err) == clierr.Panic {
		err = clierr.Wrap(clierr.CannotResolve, err, "unable to set up resolver")
	}
	return err
}

// Run executes the command line args, which exclude the program name, and
// returns the exit status.
func Run(program string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		program: program,
		stdio:   command.Stdio{In: stdin, Out: stdout, Err: stderr},
	}

	err := a.run(args)
	if err == nil || clierr.Is(err, clierr.Canceled) {
		return 0
	}

	fmt.Fprintf(stderr, "%s: %v\n", program, err)
	switch clierr.CodeOf(err) {
	case clierr.MissingCommand, clierr.CommandNotFound:
		fmt.Fprintf(stderr, "Try '%s --help' for more information\n", program)
	}
	return int(clierr.CodeOf(err))
}

func (a *app) run(args []string) error {
	if err := a.initConfig(args); err != nil {
		return err
	}
	a.initLogger()

	if a.cfg.Help {
		a.usage(a.stdio.Out)
		return nil
	}
	if a.cfg.Version {
		fmt.Fprintln(a.stdio.Out, Version)
		return nil
	}
	if a.cfg.Command == "" {
		return clierr.New(clierr.MissingCommand, "missing command")
	}
	cmd := command.Lookup(a.cfg.Command)
	if cmd == nil {
		return clierr.Newf(clierr.CommandNotFound, "'%s' is not a valid command", a.cfg.Command)
	}

	if err := a.initEnv(); err != nil {
		return err
	}
	defer a.env.Close()

	ctx := context.Background()
	if !cmd.Interactive {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
		defer stop()
	}
	return command.Dispatch(ctx, a.env, a.cfg.Command, a.cfg.Args)
}

func (a *app) usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [OPTIONS] COMMAND ...\n\n", a.program)
	fmt.Fprint(w, a.cfg.FlagUsages())
	fmt.Fprint(w, "\nCommands:\n")
	command.PrintCommands(w)
	fmt.Fprint(w, "\nErrors:\n")
	for _, c := range clierr.Codes() {
		fmt.Fprintf(w, " %s\n", clierr.Describe(c))
	}
	fmt.Fprintln(w)
}
