package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "VARLINK_CONFIG"

// File is the optional TOML configuration file.
type File struct {
	Resolver    string   `toml:"resolver"`
	Timeout     int      `toml:"timeout"`
	Color       string   `toml:"color"`
	HistoryFile string   `toml:"history_file"`
	Etcd        EtcdFile `toml:"etcd"`
}

type EtcdFile struct {
	Prefix      string `toml:"prefix"`
	DialTimeout int    `toml:"dial_timeout"`
}

// DefaultConfigPath returns $VARLINK_CONFIG or ~/.config/varlink/config.toml.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "varlink", "config.toml"), nil
}

// LoadFile reads the configuration file at path. An empty path selects the
// default location, which may be missing; an explicit path must exist.
func LoadFile(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	var file File
	if err := toml.NewDecoder(f).Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if file.Timeout < 0 || file.Etcd.DialTimeout < 0 {
		return nil, errors.Errorf("parse config %s: negative timeout", path)
	}
	return &file, nil
}

func (f *File) apply(cfg *Config, fs *pflag.FlagSet) {
	if f.Resolver != "" && !fs.Changed("resolver") {
		cfg.Default.Resolver = f.Resolver
	}
	if f.Timeout > 0 && !fs.Changed("timeout") {
		cfg.Default.Timeout = time.Duration(f.Timeout) * time.Second
	}
	if f.Color != "" && !fs.Changed("color") {
		cfg.Default.Color = strings.ToLower(f.Color)
	}
	if f.HistoryFile != "" {
		cfg.Default.HistoryFile = f.HistoryFile
	}
	if f.Etcd.Prefix != "" {
		cfg.Etcd.Prefix = f.Etcd.Prefix
	}
	if f.Etcd.DialTimeout > 0 {
		cfg.Etcd.DialTimeout = time.Duration(f.Etcd.DialTimeout) * time.Second
	}
}
