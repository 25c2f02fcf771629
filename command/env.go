package command

import (
	"context"
	"io"
	"log/slog"

	"github.com/alexej-v/varlink_cli/client"
	"github.com/alexej-v/varlink_cli/config"
	"github.com/alexej-v/varlink_cli/render"
	"github.com/alexej-v/varlink_cli/resolver"
)

// Env is everything a command needs to run.
type Env struct {
	Config   *config.Config
	Client   client.Client
	Resolver resolver.Resolver

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Palette *render.Palette
	Logger  *slog.Logger
	// Program is the name used in usage texts.
	Program string

	// Derive builds an environment for other global options. Completion uses
	// it for the options typed on the command line being completed.
	Derive func(cfg *config.Config) (*Env, error)
}

// Stdio bundles the standard streams of the process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewEnv wires the varlink client, resolver and palette for cfg.
func NewEnv(cfg *config.Config, stdio Stdio, logger *slog.Logger, program string) (*Env, error) {
	dialer := client.NewDialer()
	res, err := resolver.New(cfg, dialer, logger)
	if err != nil {
		return nil, err
	}

	clientDialer := dialer
	if cfg.Default.Bridge != "" {
		clientDialer = client.NewBridgeDialer(cfg.Default.Bridge)
	}

	env := &Env{
		Config: cfg,
		Client: client.NewClient(&client.ClientCfg{
			Dialer:   clientDialer,
			Resolver: res,
			Bridge:   cfg.Default.Bridge != "",
			Logger:   logger,
		}),
		Resolver: res,
		Stdin:    stdio.In,
		Stdout:   stdio.Out,
		Stderr:   stdio.Err,
		Palette:  render.NewPalette(stdio.Out, render.ShouldColorize(stdio.Out, cfg.Default.Color)),
		Logger:   logger,
		Program:  program,
	}
	env.Derive = func(cfg *config.Config) (*Env, error) {
		return NewEnv(cfg, stdio, logger, program)
	}
	return env, nil
}

// Close releases the resolver.
func (e *Env) Close() error {
	if e.Resolver == nil {
		return nil
	}
	return e.Resolver.Close()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// withTimeout applies the --timeout option to ctx.
func (e *Env) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Config == nil || e.Config.Default.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Config.Default.Timeout)
}
