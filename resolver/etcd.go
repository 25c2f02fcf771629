package resolver

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alexej-v/varlink_cli/clierr"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Etcd resolves interfaces registered in etcd:
//
//	Key:   {prefix}{interface}
//	Value: address, e.g. unix:/run/org.example.foo
type Etcd struct {
	client *clientv3.Client
	prefix string
	// timeout bounds every lookup, zero for none.
	timeout time.Duration
	logger  *slog.Logger
}

func NewEtcd(endpoints []string, prefix string, dialTimeout time.Duration, logger *slog.Logger) (*Etcd, error) {
	if len(endpoints) == 0 {
		return nil, clierr.New(clierr.InvalidArgument, "no etcd endpoints given")
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CannotConnect, err, "unable to create etcd client")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Etcd{client: c, prefix: prefix, timeout: dialTimeout, logger: logger}, nil
}

func (r *Etcd) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Etcd) Resolve(ctx context.Context, iface string) (string, error) {
	ctx, cancel := r.lookupContext(ctx)
	defer cancel()

	resp, err := r.client.Get(ctx, r.prefix+iface)
	if err != nil {
		return "", clierr.Wrapf(clierr.CannotResolve, err, "unable to look up %s", iface)
	}
	if len(resp.Kvs) == 0 {
		return "", clierr.Newf(clierr.CannotResolve, "interface %s not registered", iface)
	}
	address := strings.TrimSpace(string(resp.Kvs[0].Value))
	if address == "" {
		return "", clierr.Newf(clierr.CannotResolve, "empty address registered for %s", iface)
	}
	r.logger.Debug("etcd lookup", "interface", iface, "address", address)
	return address, nil
}

func (r *Etcd) Interfaces(ctx context.Context) ([]string, error) {
	ctx, cancel := r.lookupContext(ctx)
	defer cancel()

	resp, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, clierr.Wrap(clierr.CallFailed, err, "unable to list interfaces")
	}
	ifaces := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		name := strings.TrimPrefix(string(kv.Key), r.prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		ifaces = append(ifaces, name)
	}
	sort.Strings(ifaces)
	return ifaces, nil
}

func (r *Etcd) Close() error {
	return r.client.Close()
}
