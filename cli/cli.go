package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
)

const (
	defaultPrompt          = "varlink> "
	defaultInterruptPrompt = "^C"
	defaultEOFPrompt       = "exit"
	completeTimeout        = 2 * time.Second
)

// Runner executes one shell line, split into words.
type Runner func(ctx context.Context, args []string) error

// CompleteFunc returns the candidates for current given the words before it.
type CompleteFunc func(ctx context.Context, args []string, current string) []string

// cliConfig short version of readline config
type cliConfig struct {
	Prompt          string
	InterruptPrompt string
	EOFPrompt       string
	HistoryFile     string
	Color           bool
	// Banner is printed once when the shell starts.
	Banner string

	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer

	run      Runner
	complete CompleteFunc
	rlI      *readline.Instance
	out      *termenv.Output
}

// DefaultConfig returns default config
func DefaultConfig(run Runner, complete CompleteFunc) (cli *cliConfig) {
	cli = &cliConfig{
		Prompt:          defaultPrompt,
		InterruptPrompt: defaultInterruptPrompt,
		EOFPrompt:       defaultEOFPrompt,
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,

		run:      run,
		complete: complete,
	}
	return
}

// Run reads lines until EOF, "exit" or an interrupt on an empty line. An
// interrupt while a line is running cancels only that line.
func Run(ctx context.Context, cfg *cliConfig) error {
	profile := termenv.Ascii
	if cfg.Color {
		profile = termenv.ANSI
	}
	cfg.out = termenv.NewOutput(cfg.Stdout, termenv.WithProfile(profile))
	cfg.greet()

	prompt := cfg.Prompt
	if cfg.Color {
		prompt = cfg.out.String(prompt).Foreground(termenv.ANSIGreen).String()
	}

	rlI, err := readline.NewEx(&readline.Config{
		AutoComplete:    &completer{cfg: cfg},
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: cfg.InterruptPrompt,
		EOFPrompt:       cfg.EOFPrompt,
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
		Stderr:          cfg.Stderr,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start shell")
	}
	defer rlI.Close()
	cfg.rlI = rlI

	for ctx.Err() == nil {
		l, err := rlI.Readline()
		if err == io.EOF {
			return nil
		}
		if err == readline.ErrInterrupt {
			if len(l) == 0 {
				return nil
			}
			continue
		}
		if err != nil {
			return errors.Wrap(err, "failed to read line")
		}

		words, err := SplitLine(l)
		if err != nil {
			cfg.Errorf("%v", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return nil
		}

		if err := cfg.exec(ctx, words); err != nil {
			cfg.Errorf("%v", err)
		}
	}
	return nil
}

func (c *cliConfig) exec(ctx context.Context, words []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return c.run(ctx, words)
}

func (c *cliConfig) greet() {
	if c.Banner != "" {
		c.Infof("%s", c.Banner)
	}
}

func (c *cliConfig) Infof(format string, a ...interface{}) {
	c.printf(c.Stdout, termenv.ANSIGreen, format, a...)
}

func (c *cliConfig) Errorf(format string, a ...interface{}) {
	c.printf(c.Stderr, termenv.ANSIRed, format, a...)
}

func (c *cliConfig) printf(w io.Writer, color termenv.ANSIColor, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if c.Color && c.out != nil {
		msg = c.out.String(msg).Foreground(color).String()
	}
	fmt.Fprintln(w, msg)
}

type completer struct {
	cfg *cliConfig
}

// Do returns the suffixes completing the word under the cursor.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	words, _ := SplitLine(text)

	current := ""
	if text != "" && !strings.HasSuffix(text, " ") && len(words) > 0 {
		current = words[len(words)-1]
		words = words[:len(words)-1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()

	var out [][]rune
	for _, cand := range c.cfg.complete(ctx, words, current) {
		if !strings.HasPrefix(cand, current) {
			continue
		}
		out = append(out, []rune(cand[len(current):]))
	}
	if len(out) == 1 && !strings.HasSuffix(string(out[0]), ".") && !strings.HasSuffix(string(out[0]), "/") &&
		!strings.HasSuffix(string(out[0]), "=") {
		out[0] = append(out[0], ' ')
	}
	return out, len([]rune(current))
}
