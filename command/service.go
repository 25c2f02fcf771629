package command

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/alexej-v/varlink_cli/client"
	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/idl"
	"github.com/alexej-v/varlink_cli/target"
)

const (
	serviceInterface        = "org.varlink.service"
	methodGetInfo           = serviceInterface + ".GetInfo"
	methodGetInterfaceDescr = serviceInterface + ".GetInterfaceDescription"
)

type serviceInfo struct {
	Vendor     string    `json:"vendor"`
	Product    string    `json:"product"`
	Version    string    `json:"version"`
	URL        string    `json:"url"`
	Interfaces *[]string `json:"interfaces"`
}

// describe fetches the description of iface, at address or resolved. A
// remote error is returned by name with a nil error.
func describe(ctx context.Context, env *Env, address, iface string) (string, string, error) {
	t := &target.Target{Address: address, Interface: iface}
	reply, err := env.Client.CallOnce(ctx, t, methodGetInterfaceDescr, map[string]string{"interface": iface})
	if err != nil {
		return "", "", err
	}
	if reply.Error != "" {
		return "", reply.Error, nil
	}

	var out struct {
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(reply.Parameters, &out); err != nil || out.Description == nil {
		return "", "", clierr.Newf(clierr.CallFailed, "no description returned for %s", iface)
	}
	return *out.Description, "", nil
}

// getInfo calls GetInfo on t, on the bridge or on the resolver when t is nil.
func getInfo(ctx context.Context, env *Env, t *target.Target) (*serviceInfo, string, error) {
	if t == nil && env.Config.Default.Bridge == "" {
		t = &target.Target{Interface: client.ResolverInterface}
	}
	reply, err := env.Client.CallOnce(ctx, t, methodGetInfo, nil)
	if err != nil {
		return nil, "", err
	}
	if reply.Error != "" {
		return nil, reply.Error, nil
	}

	var info serviceInfo
	if err := json.Unmarshal(reply.Parameters, &info); err != nil {
		return nil, "", clierr.Wrap(clierr.InvalidMessage, err, "unable to parse reply")
	}
	if info.Interfaces == nil {
		return nil, "", clierr.New(clierr.InvalidMessage, "unable to parse reply, missing interfaces")
	}
	sort.Strings(*info.Interfaces)
	return &info, "", nil
}

// source feeds completion from the services reachable through env.
type source struct {
	env *Env
}

func (s *source) Interfaces(ctx context.Context, address string) ([]string, error) {
	if address == "" && s.env.Config.Default.Bridge == "" {
		return s.env.Resolver.Interfaces(ctx)
	}

	var t *target.Target
	if address != "" {
		var err error
		if t, err = target.ParseAddress(address); err != nil {
			return nil, err
		}
	}
	info, remote, err := getInfo(ctx, s.env, t)
	if err != nil {
		return nil, err
	}
	if remote != "" {
		return nil, clierr.Newf(clierr.RemoteError, "GetInfo failed with error %s", remote)
	}
	return *info.Interfaces, nil
}

func (s *source) Methods(ctx context.Context, t *target.Target) ([]string, error) {
	desc, remote, err := describe(ctx, s.env, t.Address, t.Interface)
	if err != nil {
		return nil, err
	}
	if remote != "" {
		return nil, clierr.Newf(clierr.RemoteError, "GetInterfaceDescription failed with error %s", remote)
	}
	iface, err := idl.Parse(desc)
	if err != nil {
		return nil, err
	}
	return iface.Methods, nil
}
