// Package complete computes shell completion candidates. Arguments are
// parsed leniently and every failure simply yields fewer candidates.
package complete

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/alexej-v/varlink_cli/config"
	"github.com/alexej-v/varlink_cli/target"
)

// EmptyParameters is offered where call parameters are expected.
const EmptyParameters = "'{}'"

// Source provides the names completion draws from.
type Source interface {
	// Interfaces lists the interfaces served at address, or those known to
	// the resolver when address is empty.
	Interfaces(ctx context.Context, address string) ([]string, error)
	// Methods lists the method names of t.Interface.
	Methods(ctx context.Context, t *target.Target) ([]string, error)
}

// Filter returns the words starting with current, in order and without
// duplicates.
func Filter(current string, words ...string) []string {
	var out []string
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if !strings.HasPrefix(w, current) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Global completes the options and commands of the program itself.
func Global(current string, options, commands []string) []string {
	if strings.HasPrefix(current, "-") {
		if strings.HasSuffix(current, "=") {
			return nil
		}
		return Filter(current, options...)
	}
	return Filter(current, commands...)
}

// Call completes "call [OPTIONS] [ADDRESS/]INTERFACE.METHOD [PARAMETERS]".
// args are the words before current.
func Call(ctx context.Context, src Source, args []string, current string) []string {
	a, _ := config.ParseCall(args)

	if strings.HasPrefix(current, "-") {
		return Filter(current, config.FlagNames(config.CallFlags(&config.CallArgs{}))...)
	}
	if a == nil || a.Target == nil {
		return Methods(ctx, src, current)
	}
	if !a.HasParameters {
		return Filter(current, EmptyParameters)
	}
	return nil
}

// Help completes "help [ADDRESS/]INTERFACE".
func Help(ctx context.Context, src Source, args []string, current string) []string {
	if strings.HasPrefix(current, "-") {
		return Filter(current, config.FlagNames(config.InterfaceFlags("help", &config.InterfaceArgs{}))...)
	}
	if a, _ := config.ParseHelp(args); a != nil && a.Target != nil {
		return nil
	}
	return Interfaces(ctx, src, current, false)
}

// Resolve completes "resolve INTERFACE" from the resolver's interfaces.
func Resolve(ctx context.Context, src Source, args []string, current string) []string {
	if strings.HasPrefix(current, "-") {
		return Filter(current, config.FlagNames(config.InterfaceFlags("resolve", &config.InterfaceArgs{}))...)
	}
	if a, _ := config.ParseResolve(args); a != nil && a.Target != nil {
		return nil
	}
	ifaces, err := src.Interfaces(ctx, "")
	if err != nil {
		return nil
	}
	return Filter(current, ifaces...)
}

// Methods completes a method target. Without a usable interface in current
// the known interfaces are offered, ending in ".".
func Methods(ctx context.Context, src Source, current string) []string {
	t, err := target.Parse(current, true)
	if err != nil {
		if t, err = target.Parse(current, false); err != nil {
			return Interfaces(ctx, src, current, true)
		}
	}

	methods, err := src.Methods(ctx, t)
	if err != nil || len(methods) == 0 {
		return Interfaces(ctx, src, current, true)
	}
	prefix := addressPrefix(current)
	words := make([]string, len(methods))
	for i, m := range methods {
		words[i] = prefix + t.Interface + "." + m
	}
	return Filter(current, words...)
}

// Interfaces completes an interface name, keeping an address typed in
// current.
func Interfaces(ctx context.Context, src Source, current string, endWithDot bool) []string {
	prefix := addressPrefix(current)
	address := ""
	if prefix != "" {
		t, err := target.ParseAddress(strings.TrimSuffix(prefix, "/"))
		if err != nil {
			return nil
		}
		address = t.Address
	}

	ifaces, err := src.Interfaces(ctx, address)
	if err != nil {
		return nil
	}
	words := make([]string, len(ifaces))
	for i, iface := range ifaces {
		words[i] = prefix + iface
		if endWithDot {
			words[i] += "."
		}
	}
	return Filter(current, words...)
}

// Info completes "info [ADDRESS]" with unix sockets and directories below
// the typed path.
func Info(args []string, current string) []string {
	if strings.HasPrefix(current, "-") {
		return Filter(current, config.FlagNames(config.InfoFlags(&config.InfoArgs{}))...)
	}
	if a, _ := config.ParseInfo(args); a != nil && a.Target != nil {
		return nil
	}

	dir, prefix := ".", ""
	if i := strings.LastIndexByte(current, '/'); i >= 0 {
		if !strings.HasPrefix(current, "unix:") {
			return nil
		}
		prefix = current[len("unix:") : i+1]
		dir = prefix
	}

	var words []string
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			switch {
			case e.IsDir():
				words = append(words, "unix:"+prefix+e.Name()+"/")
			case e.Type()&os.ModeSocket != 0:
				words = append(words, "unix:"+prefix+e.Name())
			}
		}
	}
	sort.Strings(words)
	// the current directory might be empty
	words = append(words, "unix:/")
	return Filter(current, words...)
}

// addressPrefix returns "ADDRESS/" of a target being typed, or "".
func addressPrefix(current string) string {
	if !strings.HasPrefix(current, "unix:") && !strings.HasPrefix(current, "tcp:") && !strings.HasPrefix(current, "device:") {
		return ""
	}
	i := strings.LastIndexByte(current, '/')
	if i < 0 {
		return ""
	}
	return current[:i+1]
}
