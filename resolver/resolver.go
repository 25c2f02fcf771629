// Package resolver looks up the address of the service implementing an
// interface. Two backends exist: the varlink resolver service and an etcd
// registry.
package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/alexej-v/varlink_cli/client"
	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/config"
)

// Resolver translates interface names to addresses and lists the interfaces
// it knows about.
type Resolver interface {
	client.Resolver
	Interfaces(ctx context.Context) ([]string, error)
	Close() error
}

// New returns the backend selected by the resolver address of cfg.
func New(cfg *config.Config, dialer client.Dialer, logger *slog.Logger) (Resolver, error) {
	if cfg.Default.IsEtcdResolver() {
		return NewEtcd(cfg.Default.EtcdEndpoints(), cfg.Etcd.Prefix, cfg.Etcd.DialTimeout, logger)
	}
	return NewVarlink(cfg.Default.Resolver, dialer, logger), nil
}

// Varlink resolves through the org.varlink.resolver service.
type Varlink struct {
	address string
	dialer  client.Dialer
	logger  *slog.Logger
}

func NewVarlink(address string, dialer client.Dialer, logger *slog.Logger) *Varlink {
	if dialer == nil {
		dialer = client.NewDialer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Varlink{address: address, dialer: dialer, logger: logger}
}

// Address returns the address of the resolver service.
func (r *Varlink) Address() string {
	return r.address
}

func (r *Varlink) Resolve(ctx context.Context, iface string) (string, error) {
	if iface == client.ResolverInterface {
		return r.address, nil
	}

	var out struct {
		Address string `json:"address"`
	}
	if err := r.call(ctx, "Resolve", map[string]string{"interface": iface}, &out); err != nil {
		return "", err
	}
	if out.Address == "" {
		return "", clierr.Newf(clierr.CannotResolve, "resolver returned no address for %s", iface)
	}
	r.logger.Debug("resolver lookup", "interface", iface, "address", out.Address)
	return out.Address, nil
}

func (r *Varlink) Interfaces(ctx context.Context) ([]string, error) {
	var out struct {
		Interfaces []string `json:"interfaces"`
	}
	if err := r.call(ctx, "GetInfo", nil, &out); err != nil {
		return nil, err
	}
	sort.Strings(out.Interfaces)
	return out.Interfaces, nil
}

func (r *Varlink) Close() error {
	return nil
}

func (r *Varlink) call(ctx context.Context, method string, in interface{}, out interface{}) error {
	method = client.ResolverInterface + "." + method

	conn, err := r.dialer.Dial(ctx, r.address)
	if err != nil {
		return clierr.Wrapf(clierr.CannotResolve, err, "unable to connect to resolver %s", r.address)
	}
	defer conn.Close()

	reply, err := client.Invoke(ctx, conn, method, in)
	if err != nil {
		return err
	}
	if reply.Error != "" {
		return clierr.Newf(clierr.CannotResolve, "%s failed with error %s", method, reply.Error)
	}
	if err := json.Unmarshal(reply.Parameters, out); err != nil {
		return clierr.Wrapf(clierr.InvalidMessage, err, "invalid reply to %s", method)
	}
	return nil
}
