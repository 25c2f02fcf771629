package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/varlink/go/varlink"
)

// Reply is one reply message of a method call.
type Reply struct {
	// Error is the name of the remote error, empty on success.
	Error      string
	Parameters json.RawMessage
	// Continues is set when the service will send more replies.
	Continues bool
}

// ReceiveFunc blocks until the next reply of a call arrives. Remote errors
// are returned as a Reply with Error set, not as an error.
type ReceiveFunc func(ctx context.Context) (*Reply, error)

// Conn is a connection to a varlink service.
type Conn interface {
	// Send issues a method call. Nil parameters are omitted from the message.
	Send(ctx context.Context, method string, parameters json.RawMessage, more bool) (ReceiveFunc, error)
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

type dialer struct{}

// NewDialer returns a Dialer for varlink addresses ("unix:PATH", "tcp:HOST:PORT").
func NewDialer() Dialer {
	return dialer{}
}

func (dialer) Dial(ctx context.Context, address string) (Conn, error) {
	c, err := varlink.NewConnection(ctx, address)
	if err != nil {
		return nil, err
	}
	return &conn{conn: c}, nil
}

type bridgeDialer struct {
	command string
}

// NewBridgeDialer returns a Dialer that ignores the address and talks to the
// stdin/stdout of command instead.
func NewBridgeDialer(command string) Dialer {
	return bridgeDialer{command: command}
}

func (d bridgeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	c, err := varlink.NewBridge(d.command)
	if err != nil {
		return nil, err
	}
	return &conn{conn: c}, nil
}

type conn struct {
	conn      *varlink.Connection
	closeOnce sync.Once
	closeErr  error
}

func (c *conn) Send(ctx context.Context, method string, parameters json.RawMessage, more bool) (ReceiveFunc, error) {
	var flags uint64
	if more {
		flags |= varlink.More
	}
	var in interface{}
	if parameters != nil {
		in = parameters
	}

	receive, err := c.conn.Send(ctx, method, in, flags)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (*Reply, error) {
		var out json.RawMessage
		flags, err := receive(ctx, &out)
		if err != nil {
			name, params, ok := remoteError(err)
			if !ok {
				return nil, err
			}
			raw, err := json.Marshal(params)
			if err != nil {
				return nil, errors.Wrapf(err, "decode parameters of error %s", name)
			}
			return &Reply{Error: name, Parameters: raw}, nil
		}
		return &Reply{
			Parameters: out,
			Continues:  flags&varlink.Continues != 0,
		}, nil
	}, nil
}

// remoteError reports whether err is an error reply of the service. The
// library decodes the org.varlink.service errors into their own types, every
// other error name arrives as *varlink.Error.
func remoteError(err error) (name string, params interface{}, ok bool) {
	var (
		remote               *varlink.Error
		interfaceNotFound    *varlink.InterfaceNotFound
		methodNotFound       *varlink.MethodNotFound
		methodNotImplemented *varlink.MethodNotImplemented
		invalidParameter     *varlink.InvalidParameter
	)
	switch {
	case errors.As(err, &remote):
		return remote.Name, remote.Parameters, true
	case errors.As(err, &interfaceNotFound):
		return interfaceNotFound.Error(), interfaceNotFound, true
	case errors.As(err, &methodNotFound):
		return methodNotFound.Error(), methodNotFound, true
	case errors.As(err, &methodNotImplemented):
		return methodNotImplemented.Error(), methodNotImplemented, true
	case errors.As(err, &invalidParameter):
		return invalidParameter.Error(), invalidParameter, true
	}
	return "", nil, false
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
