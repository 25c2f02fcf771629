package client

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/alexej-v/varlink_cli/clierr"
	"github.com/alexej-v/varlink_cli/target"

	"github.com/pkg/errors"
)

type step struct {
	reply *Reply
	err   error
	// block waits for the context instead of replying.
	block bool
}

type fakeConn struct {
	mu      sync.Mutex
	steps   []step
	sendErr error
	closed  int

	method string
	params json.RawMessage
	more   bool
}

func (c *fakeConn) Send(_ context.Context, method string, parameters json.RawMessage, more bool) (ReceiveFunc, error) {
	c.method, c.params, c.more = method, parameters, more
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	return func(ctx context.Context) (*Reply, error) {
		c.mu.Lock()
		if len(c.steps) == 0 {
			c.mu.Unlock()
			return nil, io.EOF
		}
		s := c.steps[0]
		c.steps = c.steps[1:]
		c.mu.Unlock()
		if s.block {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return s.reply, s.err
	}, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

type fakeDialer struct {
	conn    *fakeConn
	err     error
	address string
	dials   int
}

func (d *fakeDialer) Dial(_ context.Context, address string) (Conn, error) {
	d.dials++
	d.address = address
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeResolver map[string]string

func (r fakeResolver) Resolve(_ context.Context, iface string) (string, error) {
	if a, ok := r[iface]; ok {
		return a, nil
	}
	return "", clierr.Newf(clierr.CannotResolve, "interface %s not found", iface)
}

func mustTarget(t *testing.T, s string) *target.Target {
	t.Helper()
	tg, err := target.Parse(s, true)
	if err != nil {
		t.Fatal(err)
	}
	return tg
}

func reply(params string, continues bool) step {
	return step{reply: &Reply{Parameters: json.RawMessage(params), Continues: continues}}
}

func collect(replies *[]*Reply) ReplyHandler {
	return func(r *Reply) error {
		*replies = append(*replies, r)
		return nil
	}
}

func TestCallSingleReplyWithoutMore(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{"a":1}`, true), reply(`{"a":2}`, false)}}
	d := &fakeDialer{conn: conn}
	c := NewClient(&ClientCfg{Dialer: d})

	var got []*Reply
	outcome, err := c.Call(context.Background(), &CallRequest{
		Target:     mustTarget(t, "unix:/run/foo/org.example.foo.Get"),
		Parameters: json.RawMessage(`{"x":1}`),
	}, collect(&got))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Completed {
		t.Errorf("outcome = %v", outcome)
	}
	if len(got) != 1 {
		t.Fatalf("handled %d replies, want 1", len(got))
	}
	if d.address != "unix:/run/foo" || conn.method != "org.example.foo.Get" || conn.more {
		t.Errorf("dialed %q, sent %q more=%v", d.address, conn.method, conn.more)
	}
	if string(conn.params) != `{"x":1}` {
		t.Errorf("params = %s", conn.params)
	}
	if conn.closed != 1 {
		t.Errorf("closed %d times", conn.closed)
	}
}

func TestCallStreaming(t *testing.T) {
	conn := &fakeConn{steps: []step{
		reply(`{"n":1}`, true),
		reply(`{"n":2}`, true),
		reply(`{"n":3}`, false),
		reply(`{"n":4}`, false),
	}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	var got []*Reply
	outcome, err := c.Call(context.Background(), &CallRequest{
		Target: mustTarget(t, "unix:/run/foo/org.example.foo.Monitor"),
		More:   true,
	}, collect(&got))
	if err != nil || outcome != Completed {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
	if len(got) != 3 {
		t.Fatalf("handled %d replies, want 3", len(got))
	}
	for i, r := range got {
		var v struct{ N int }
		if err := json.Unmarshal(r.Parameters, &v); err != nil || v.N != i+1 {
			t.Errorf("reply %d = %s", i, r.Parameters)
		}
	}
	if !conn.more || conn.closed != 1 {
		t.Errorf("more=%v closed=%d", conn.more, conn.closed)
	}
}

func TestCallRemoteErrorStopsStream(t *testing.T) {
	conn := &fakeConn{steps: []step{
		reply(`{}`, true),
		{reply: &Reply{Error: "org.example.foo.NotFound", Parameters: json.RawMessage(`{"name":"x"}`), Continues: true}},
		reply(`{}`, false),
	}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	var got []*Reply
	outcome, err := c.Call(context.Background(), &CallRequest{
		Target: mustTarget(t, "unix:/run/foo/org.example.foo.Monitor"),
		More:   true,
	}, collect(&got))
	if err != nil || outcome != RemoteError {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
	if len(got) != 2 || got[1].Error != "org.example.foo.NotFound" {
		t.Errorf("replies = %+v", got)
	}
	if conn.closed != 1 {
		t.Errorf("closed %d times", conn.closed)
	}
}

func TestCallCanceledDuringStream(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{"n":1}`, true), {block: true}}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []*Reply
	outcome, err := c.Call(ctx, &CallRequest{
		Target: mustTarget(t, "unix:/run/foo/org.example.foo.Monitor"),
		More:   true,
	}, func(r *Reply) error {
		got = append(got, r)
		cancel()
		return nil
	})
	if err != nil || outcome != Canceled {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
	if len(got) != 1 {
		t.Errorf("handled %d replies, want 1", len(got))
	}
	if conn.closed != 1 {
		t.Errorf("closed %d times", conn.closed)
	}
}

func TestCallPeerClosed(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{}`, true), {err: errors.Wrap(io.EOF, "read")}}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	outcome, err := c.Call(context.Background(), &CallRequest{
		Target: mustTarget(t, "unix:/run/foo/org.example.foo.Monitor"),
		More:   true,
	}, func(*Reply) error { return nil })
	if outcome != ConnectionClosed || !clierr.Is(err, clierr.ConnectionClosed) {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
	if conn.closed != 1 {
		t.Errorf("closed %d times", conn.closed)
	}
}

func TestCallHandlerFailure(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{}`, true), reply(`{}`, false)}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	calls := 0
	outcome, err := c.Call(context.Background(), &CallRequest{
		Target: mustTarget(t, "unix:/run/foo/org.example.foo.Monitor"),
		More:   true,
	}, func(*Reply) error {
		calls++
		return errors.New("broken output")
	})
	if outcome != Failed || !clierr.Is(err, clierr.InvalidJSON) {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
	if calls != 1 || conn.closed != 1 {
		t.Errorf("handler calls %d, closed %d", calls, conn.closed)
	}
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ClientCfg
		target string
		code   clierr.Code
	}{
		{
			name:   "dial failure",
			cfg:    ClientCfg{Dialer: &fakeDialer{err: errors.New("refused")}},
			target: "unix:/run/foo/org.example.foo.Get",
			code:   clierr.CannotConnect,
		},
		{
			name:   "unresolvable",
			cfg:    ClientCfg{Dialer: &fakeDialer{conn: &fakeConn{}}, Resolver: fakeResolver{}},
			target: "org.example.foo.Get",
			code:   clierr.CannotResolve,
		},
		{
			name:   "no resolver",
			cfg:    ClientCfg{Dialer: &fakeDialer{conn: &fakeConn{}}},
			target: "org.example.foo.Get",
			code:   clierr.CannotResolve,
		},
		{
			name:   "bridge with address",
			cfg:    ClientCfg{Dialer: &fakeDialer{conn: &fakeConn{}}, Bridge: true},
			target: "unix:/run/foo/org.example.foo.Get",
			code:   clierr.CannotConnect,
		},
		{
			name:   "send failure",
			cfg:    ClientCfg{Dialer: &fakeDialer{conn: &fakeConn{sendErr: errors.New("broken pipe")}}},
			target: "unix:/run/foo/org.example.foo.Get",
			code:   clierr.CallFailed,
		},
		{
			name:   "undecodable reply",
			cfg:    ClientCfg{Dialer: &fakeDialer{conn: &fakeConn{steps: []step{{err: &json.SyntaxError{}}}}}},
			target: "unix:/run/foo/org.example.foo.Get",
			code:   clierr.InvalidMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&tt.cfg)
			outcome, err := c.Call(context.Background(), &CallRequest{Target: mustTarget(t, tt.target)},
				func(*Reply) error { return nil })
			if outcome != Failed || clierr.CodeOf(err) != tt.code {
				t.Errorf("Call = %v, %v; want code %v", outcome, err, tt.code)
			}
		})
	}
}

func TestCallResolvesInterface(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{}`, false)}}
	d := &fakeDialer{conn: conn}
	c := NewClient(&ClientCfg{Dialer: d, Resolver: fakeResolver{"org.example.foo": "unix:/run/org.example.foo"}})

	if _, err := c.Call(context.Background(), &CallRequest{Target: mustTarget(t, "org.example.foo.Get")},
		func(*Reply) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if d.address != "unix:/run/org.example.foo" {
		t.Errorf("dialed %q", d.address)
	}
}

func TestCallBridge(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{}`, false)}}
	d := &fakeDialer{conn: conn}
	c := NewClient(&ClientCfg{Dialer: d, Bridge: true, Resolver: fakeResolver{}})

	if _, err := c.Call(context.Background(), &CallRequest{Target: mustTarget(t, "org.example.foo.Get")},
		func(*Reply) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if d.dials != 1 || d.address != "" {
		t.Errorf("dials %d to %q", d.dials, d.address)
	}
}

func TestCallDeadline(t *testing.T) {
	conn := &fakeConn{steps: []step{{block: true}}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	outcome, err := c.Call(ctx, &CallRequest{Target: mustTarget(t, "unix:/run/foo/org.example.foo.Get")},
		func(*Reply) error { return nil })
	if outcome != Failed || !clierr.Is(err, clierr.Timeout) {
		t.Fatalf("Call = %v, %v", outcome, err)
	}
}

func TestCallOnce(t *testing.T) {
	conn := &fakeConn{steps: []step{reply(`{"description":"interface org.example.foo"}`, false)}}
	c := NewClient(&ClientCfg{Dialer: &fakeDialer{conn: conn}})

	tg, err := target.Parse("unix:/run/foo/org.example.foo", false)
	if err != nil {
		t.Fatal(err)
	}
	r, err := c.CallOnce(context.Background(), tg, "org.varlink.service.GetInterfaceDescription",
		map[string]string{"interface": "org.example.foo"})
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Parameters) != `{"description":"interface org.example.foo"}` {
		t.Errorf("Parameters = %s", r.Parameters)
	}
	if string(conn.params) != `{"interface":"org.example.foo"}` || conn.more {
		t.Errorf("sent %s more=%v", conn.params, conn.more)
	}
	if conn.closed != 1 {
		t.Errorf("closed %d times", conn.closed)
	}
}

func TestInvokeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Invoke(ctx, &fakeConn{steps: []step{{block: true}}}, "org.example.foo.Get", nil)
	if !clierr.Is(err, clierr.Canceled) {
		t.Errorf("Invoke = %v", err)
	}
}

func TestOutcomeString(t *testing.T) {
	if Completed.String() != "completed" || Outcome(0).String() != "unknown" || Outcome(42).String() != "unknown" {
		t.Error("unexpected outcome names")
	}
}
