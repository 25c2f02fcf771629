package config

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// DefaultResolver is the well-known address of the varlink interface resolver.
const DefaultResolver = "unix:/run/org.varlink.resolver"

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Default *Default
	Etcd    *Etcd

	// Command is the first non-option argument, Args everything after it.
	Command string
	Args    []string

	ConfigPath string
	Help       bool
	Version    bool

	flags *pflag.FlagSet
}

type Default struct {
	Bridge      string
	Resolver    string
	Timeout     time.Duration
	Color       string
	Verbose     bool
	HistoryFile string
}

type Etcd struct {
	Prefix      string
	DialTimeout time.Duration
}

func newConfig() *Config {
	return &Config{
		Default: &Default{
			Resolver: DefaultResolver,
			Color:    ColorAuto,
		},
		Etcd: &Etcd{
			Prefix:      "/varlink/interfaces/",
			DialTimeout: 5 * time.Second,
		},
	}
}

func registerCfg(cfg *Config, timeout *int) *pflag.FlagSet {
	fs := pflag.NewFlagSet("varlink", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&cfg.Default.Bridge, "bridge", "b", "", "command to execute and connect to")
	fs.StringVarP(&cfg.Default.Resolver, "resolver", "R", cfg.Default.Resolver,
		"address of the resolver, or etcd://HOST:PORT[,HOST:PORT]")
	fs.IntVarP(timeout, "timeout", "t", 0, "time in seconds to wait for a reply")
	fs.StringVar(&cfg.Default.Color, "color", cfg.Default.Color, "colorize output: auto, always or never")
	fs.BoolVarP(&cfg.Default.Verbose, "verbose", "v", false, "log connection details to stderr")
	fs.StringVar(&cfg.ConfigPath, "config", "", "configuration file")
	fs.BoolVarP(&cfg.Help, "help", "h", false, "display this help text and exit")
	fs.BoolVarP(&cfg.Version, "version", "V", false, "output version information and exit")
	return fs
}

// Init parses the global options in args, which must not contain the program
// name. Parsing stops at the command. Values from the configuration file are
// applied first, explicitly given flags override them.
func Init(args []string) (cfg *Config, err error) {
	cfg = newConfig()
	var timeout int
	fs := registerCfg(cfg, &timeout)
	cfg.flags = fs

	if err = fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "failed to parse command line arguments")
	}
	if timeout < 0 {
		return nil, errors.Errorf("invalid timeout %d", timeout)
	}
	cfg.Default.Timeout = time.Duration(timeout) * time.Second

	file, err := LoadFile(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if file != nil {
		file.apply(cfg, fs)
	}

	switch cfg.Default.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return nil, errors.Errorf("invalid color mode %q", cfg.Default.Color)
	}

	rest := fs.Args()
	if len(rest) > 0 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}
	return cfg, nil
}

// FlagUsages returns the help text of the global options.
func (c *Config) FlagUsages() string {
	if c.flags == nil {
		return ""
	}
	return c.flags.FlagUsages()
}

// OptionNames lists the long global options for completion, options taking a
// value end in "=".
func OptionNames() []string {
	cfg := newConfig()
	var timeout int
	return flagNames(registerCfg(cfg, &timeout))
}

func flagNames(fs *pflag.FlagSet) []string {
	var names []string
	fs.VisitAll(func(f *pflag.Flag) {
		name := "--" + f.Name
		if f.Value.Type() != "bool" {
			name += "="
		}
		names = append(names, name)
	})
	return names
}

// IsEtcdResolver reports whether the resolver address names an etcd cluster.
func (d *Default) IsEtcdResolver() bool {
	return strings.HasPrefix(d.Resolver, etcdScheme)
}

// EtcdEndpoints returns the endpoints of an etcd resolver address.
func (d *Default) EtcdEndpoints() []string {
	var endpoints []string
	for _, e := range strings.Split(strings.TrimPrefix(d.Resolver, etcdScheme), ",") {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}
	return endpoints
}

const etcdScheme = "etcd://"
