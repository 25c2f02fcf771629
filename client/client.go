package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"syscall"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/target"

	"github.com/pkg/errors"
)

// ResolverInterface is the interface name of the varlink resolver itself.
const ResolverInterface = "org.varlink.resolver"

// Resolver translates interface names to service addresses.
type Resolver interface {
	Resolve(ctx context.Context, iface string) (string, error)
}

type Client interface {
	// Connect opens a connection to the service implementing t.Interface. The
	// caller owns the returned connection.
	Connect(ctx context.Context, t *target.Target) (Conn, error)
	// Call issues req and passes every reply to handle until the call is done.
	Call(ctx context.Context, req *CallRequest, handle ReplyHandler) (Outcome, error)
	// CallOnce connects, issues a single call without the more flag and
	// returns its reply.
	CallOnce(ctx context.Context, t *target.Target, method string, parameters interface{}) (*Reply, error)
}

// CallRequest describes one method call.
type CallRequest struct {
	Target *target.Target
	// Parameters is a JSON object, nil for none.
	Parameters json.RawMessage
	// More asks the service for multiple replies.
	More bool
}

// ReplyHandler consumes one reply. An error aborts the call.
type ReplyHandler func(reply *Reply) error

type client struct {
	dialer   Dialer
	resolver Resolver
	bridge   bool
	logger   *slog.Logger
}

type ClientCfg struct {
	Dialer   Dialer
	Resolver Resolver
	// Bridge is set when Dialer is a bridge; explicit addresses are refused.
	Bridge bool
	Logger *slog.Logger
}

func NewClient(cfg *ClientCfg) Client {
	c := &client{
		dialer:   cfg.Dialer,
		resolver: cfg.Resolver,
		bridge:   cfg.Bridge,
		logger:   cfg.Logger,
	}
	if c.dialer == nil {
		c.dialer = NewDialer()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c *client) Connect(ctx context.Context, t *target.Target) (Conn, error) {
	if c.bridge {
		if t != nil && t.HasAddress() {
			return nil, clierr.New(clierr.CannotConnect, "an address cannot be used together with a bridge")
		}
		c.logger.Debug("connecting through bridge")
		conn, err := c.dialer.Dial(ctx, "")
		if err != nil {
			return nil, clierr.Wrap(clierr.CannotConnect, err, "unable to start bridge")
		}
		return conn, nil
	}

	if t == nil {
		return nil, clierr.New(clierr.CannotConnect, "no address given")
	}

	address := t.Address
	if !t.HasAddress() {
		if c.resolver == nil {
			return nil, clierr.Newf(clierr.CannotResolve, "no resolver for interface %s", t.Interface)
		}
		var err error
		address, err = c.resolver.Resolve(ctx, t.Interface)
		if err != nil {
			if clierr.CodeOf(err) == clierr.Panic {
				err = clierr.Wrapf(clierr.CannotResolve, err, "error resolving interface %s", t.Interface)
			}
			return nil, err
		}
		c.logger.Debug("resolved interface", "interface", t.Interface, "address", address)
	}

	c.logger.Debug("connecting", "address", address)
	conn, err := c.dialer.Dial(ctx, address)
	if err != nil {
		return nil, clierr.Wrapf(clierr.CannotConnect, err, "unable to connect to %s", address)
	}
	return conn, nil
}

func (c *client) Call(ctx context.Context, req *CallRequest, handle ReplyHandler) (Outcome, error) {
	if req.Target == nil || req.Target.Member == "" {
		return Failed, clierr.New(clierr.InvalidArgument, "missing method")
	}

	conn, err := c.Connect(ctx, req.Target)
	if err != nil {
		return Failed, err
	}
	defer conn.Close()

	method := req.Target.QualifiedMember()
	c.logger.Debug("calling method", "method", method, "more", req.More)
	receive, err := conn.Send(ctx, method, req.Parameters, req.More)
	if err != nil {
		return Failed, clierr.Wrap(clierr.CallFailed, err, "unable to call")
	}

	for replies := 1; ; replies++ {
		reply, err := wait(ctx, receive)
		if err != nil {
			outcome, err := c.interrupted(ctx, err)
			c.logger.Debug("call interrupted", "method", method, "outcome", outcome.String(), "replies", replies-1)
			return outcome, err
		}
		c.logger.Debug("reply received", "method", method, "reply", replies,
			"error", reply.Error, "continues", reply.Continues)

		if err := handle(reply); err != nil {
			return Failed, clierr.Wrap(clierr.InvalidJSON, err, "unable to read message")
		}
		if reply.Error != "" {
			return RemoteError, nil
		}
		if !reply.Continues || !req.More {
			return Completed, nil
		}
	}
}

func (c *client) CallOnce(ctx context.Context, t *target.Target, method string, parameters interface{}) (*Reply, error) {
	conn, err := c.Connect(ctx, t)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c.logger.Debug("calling method", "method", method)
	reply, err := Invoke(ctx, conn, method, parameters)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Invoke issues a single call on conn and waits for its reply. Remote errors
// are returned in the Reply.
func Invoke(ctx context.Context, conn Conn, method string, parameters interface{}) (*Reply, error) {
	var params json.RawMessage
	if parameters != nil {
		b, err := json.Marshal(parameters)
		if err != nil {
			return nil, clierr.Wrap(clierr.InvalidJSON, err, "unable to encode parameters")
		}
		params = b
	}

	receive, err := conn.Send(ctx, method, params, false)
	if err != nil {
		return nil, clierr.Wrapf(clierr.CallFailed, err, "unable to call %s", method)
	}
	reply, err := wait(ctx, receive)
	if err != nil {
		outcome, err := classify(ctx, err)
		if outcome == Canceled {
			return nil, clierr.Wrap(clierr.Canceled, context.Canceled, "call canceled")
		}
		return nil, err
	}
	return reply, nil
}

// wait runs receive until it returns or ctx is done. A receive abandoned on
// cancellation returns once its connection is closed.
func wait(ctx context.Context, receive ReceiveFunc) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		reply *Reply
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := receive(ctx)
		done <- result{reply, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.reply, r.err
	}
}

func (c *client) interrupted(ctx context.Context, err error) (Outcome, error) {
	outcome, err := classify(ctx, err)
	if outcome == Canceled {
		return Canceled, nil
	}
	return outcome, err
}

func classify(ctx context.Context, err error) (Outcome, error) {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return Canceled, nil
	case errors.Is(err, context.DeadlineExceeded):
		return Failed, clierr.Wrap(clierr.Timeout, err, "timeout waiting for reply")
	case isClosed(err):
		return ConnectionClosed, clierr.Wrap(clierr.ConnectionClosed, err, "connection closed")
	case isMalformed(err):
		return Failed, clierr.Wrap(clierr.InvalidMessage, err, "invalid message")
	case clierr.CodeOf(err) != clierr.Panic:
		return Failed, err
	}
	return Failed, clierr.Wrap(clierr.Panic, err, "unable to process events")
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
