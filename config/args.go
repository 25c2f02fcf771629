package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/target"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

// StdinSentinel as parameter argument reads the parameters from standard input.
const StdinSentinel = "-"

// CallArgs are the arguments of the call command.
type CallArgs struct {
	Help bool
	More bool

	Target *target.Target
	// Parameters is the raw parameter argument, valid if HasParameters.
	Parameters    string
	HasParameters bool
}

// ReadsStdin reports whether the parameters come from standard input.
func (a *CallArgs) ReadsStdin() bool {
	return a.HasParameters && a.Parameters == StdinSentinel
}

// CallFlags returns the flag set of the call command bound to a.
func CallFlags(a *CallArgs) *pflag.FlagSet {
	fs := newFlagSet("call")
	fs.BoolVarP(&a.Help, "help", "h", false, "display this help text and exit")
	fs.BoolVarP(&a.More, "more", "m", false, "wait for multiple method returns if supported")
	return fs
}

// ParseCall parses "[-h] [-m] [ADDRESS/]INTERFACE.METHOD [PARAMETERS|-]". The
// returned arguments are usable for completion even when an error is
// returned.
func ParseCall(args []string) (*CallArgs, error) {
	a := &CallArgs{}
	fs := CallFlags(a)
	if err := fs.Parse(args); err != nil {
		return a, clierr.Wrap(clierr.InvalidArgument, err, "invalid argument")
	}
	if a.Help {
		return a, nil
	}

	rest := fs.Args()
	if len(rest) > 1 {
		a.Parameters = rest[1]
		a.HasParameters = true
	}
	if len(rest) == 0 {
		return a, clierr.New(clierr.MissingArgument,
			"missing argument, [ADDRESS/]INTERFACE.METHOD [ARGUMENTS] expected")
	}
	if len(rest) > 2 {
		return a, clierr.Newf(clierr.InvalidArgument, "unexpected argument %q", rest[2])
	}

	t, err := target.Parse(rest[0], true)
	if err != nil {
		if errors.Cause(err) == target.ErrMissingMember {
			return a, clierr.Wrap(clierr.InvalidArgument, err, "missing method")
		}
		return a, clierr.Wrap(clierr.InvalidArgument, err,
			"invalid argument, [ADDRESS/]INTERFACE.METHOD [ARGUMENTS] expected")
	}
	a.Target = t
	return a, nil
}

// InterfaceArgs are the arguments of commands taking one interface name.
type InterfaceArgs struct {
	Help   bool
	Target *target.Target
}

// ParseHelp parses "[-h] [ADDRESS/]INTERFACE".
func ParseHelp(args []string) (*InterfaceArgs, error) {
	return parseInterface("help", args, true)
}

// ParseResolve parses "[-h] INTERFACE".
func ParseResolve(args []string) (*InterfaceArgs, error) {
	a, err := parseInterface("resolve", args, false)
	if err == nil && a.Target != nil && a.Target.HasAddress() {
		return a, clierr.New(clierr.InvalidArgument, "invalid argument, INTERFACE expected")
	}
	return a, err
}

// InterfaceFlags returns the flag set shared by the interface commands.
func InterfaceFlags(name string, a *InterfaceArgs) *pflag.FlagSet {
	fs := newFlagSet(name)
	fs.BoolVarP(&a.Help, "help", "h", false, "display this help text and exit")
	return fs
}

func parseInterface(name string, args []string, allowAddress bool) (*InterfaceArgs, error) {
	a := &InterfaceArgs{}
	fs := InterfaceFlags(name, a)
	if err := fs.Parse(args); err != nil {
		return a, clierr.Wrap(clierr.InvalidArgument, err, "invalid argument")
	}
	if a.Help {
		return a, nil
	}

	rest := fs.Args()
	expected := "INTERFACE"
	if allowAddress {
		expected = "[ADDRESS/]INTERFACE"
	}
	if len(rest) == 0 {
		return a, clierr.Newf(clierr.MissingArgument, "missing argument, %s expected", expected)
	}
	if len(rest) > 1 {
		return a, clierr.Newf(clierr.InvalidArgument, "unexpected argument %q", rest[1])
	}
	t, err := target.Parse(rest[0], false)
	if err != nil {
		return a, clierr.Wrapf(clierr.InvalidArgument, err, "invalid argument, %s expected", expected)
	}
	a.Target = t
	return a, nil
}

// InfoArgs are the arguments of the info command.
type InfoArgs struct {
	Help bool
	// Target is nil when no address was given.
	Target *target.Target
}

// InfoFlags returns the flag set of the info command bound to a.
func InfoFlags(a *InfoArgs) *pflag.FlagSet {
	fs := newFlagSet("info")
	fs.BoolVarP(&a.Help, "help", "h", false, "display this help text and exit")
	return fs
}

// ParseInfo parses "[-h] [ADDRESS]".
func ParseInfo(args []string) (*InfoArgs, error) {
	a := &InfoArgs{}
	fs := InfoFlags(a)
	if err := fs.Parse(args); err != nil {
		return a, clierr.Wrap(clierr.InvalidArgument, err, "invalid argument")
	}
	if a.Help {
		return a, nil
	}
	rest := fs.Args()
	if len(rest) > 1 {
		return a, clierr.Newf(clierr.InvalidArgument, "unexpected argument %q", rest[1])
	}
	if len(rest) == 1 {
		t, err := target.ParseAddress(rest[0])
		if err != nil {
			return a, clierr.Wrap(clierr.InvalidArgument, err, "unable to parse ADDRESS")
		}
		a.Target = t
	}
	return a, nil
}

type ShellArgs struct {
	Help bool
}

// ParseShell parses "[-h]".
func ParseShell(args []string) (*ShellArgs, error) {
	a := &ShellArgs{}
	fs := newFlagSet("shell")
	fs.BoolVarP(&a.Help, "help", "h", false, "display this help text and exit")
	if err := fs.Parse(args); err != nil {
		return a, clierr.Wrap(clierr.InvalidArgument, err, "invalid argument")
	}
	if !a.Help && fs.NArg() > 0 {
		return a, clierr.Newf(clierr.InvalidArgument, "unexpected argument %q", fs.Arg(0))
	}
	return a, nil
}

// FlagNames lists the long options of fs for completion.
func FlagNames(fs *pflag.FlagSet) []string {
	return flagNames(fs)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	return fs
}

// ReadParameters reads the parameter text from r until end of input.
func ReadParameters(r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", clierr.Wrap(clierr.InvalidJSON, err, "unable to read input parameters")
	}
	return buf.String(), nil
}

// DecodeParameters validates text as a JSON object and returns it in compact
// form. Comments and trailing commas are accepted.
func DecodeParameters(text string) (json.RawMessage, error) {
	data := bytes.TrimSpace(jsonc.ToJSON([]byte(text)))
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		return nil, clierr.New(clierr.InvalidJSON, "unable to parse input parameters, must be valid JSON")
	}
	var out bytes.Buffer
	if err := json.Compact(&out, data); err != nil {
		return nil, clierr.Wrap(clierr.InvalidJSON, err, "unable to parse input parameters, must be valid JSON")
	}
	return json.RawMessage(out.Bytes()), nil
}

// CallParameters returns the decoded parameters of a, reading stdin for the
// "-" sentinel. Nil means no parameters were given.
func CallParameters(a *CallArgs, stdin io.Reader) (json.RawMessage, error) {
	if !a.HasParameters {
		return nil, nil
	}
	text := a.Parameters
	if a.ReadsStdin() {
		var err error
		if text, err = ReadParameters(stdin); err != nil {
			return nil, err
		}
	}
	return DecodeParameters(text)
}
