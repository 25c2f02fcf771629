package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/alexej-v/varlink_cli/clierr"
)

func TestParseCall(t *testing.T) {
	a, err := ParseCall([]string{"-m", "unix:/run/org.example.foo/org.example.foo.List", `{"a":1}`})
	if err != nil {
		t.Fatal(err)
	}
	if !a.More || a.Help {
		t.Errorf("flags = more %v help %v", a.More, a.Help)
	}
	if a.Target.Address != "unix:/run/org.example.foo" || a.Target.QualifiedMember() != "org.example.foo.List" {
		t.Errorf("Target = %+v", a.Target)
	}
	if !a.HasParameters || a.Parameters != `{"a":1}` || a.ReadsStdin() {
		t.Errorf("Parameters = %q (%v)", a.Parameters, a.HasParameters)
	}
}

func TestParseCallFlagAfterTarget(t *testing.T) {
	a, err := ParseCall([]string{"org.example.foo.List", "--more"})
	if err != nil {
		t.Fatal(err)
	}
	if !a.More || a.HasParameters {
		t.Errorf("got %+v", a)
	}
}

func TestParseCallHelp(t *testing.T) {
	a, err := ParseCall([]string{"--help"})
	if err != nil {
		t.Fatal(err)
	}
	if !a.Help || a.Target != nil {
		t.Errorf("got %+v", a)
	}
}

func TestParseCallErrors(t *testing.T) {
	tests := []struct {
		args []string
		code clierr.Code
	}{
		{nil, clierr.MissingArgument},
		{[]string{"-m"}, clierr.MissingArgument},
		{[]string{"--bogus", "org.example.foo.Get"}, clierr.InvalidArgument},
		{[]string{"org.example.foo"}, clierr.InvalidArgument},
		{[]string{"nodots"}, clierr.InvalidArgument},
		{[]string{"org.example.foo.Get", "{}", "extra"}, clierr.InvalidArgument},
	}
	for _, tt := range tests {
		a, err := ParseCall(tt.args)
		if clierr.CodeOf(err) != tt.code {
			t.Errorf("ParseCall(%q) = %v, want %v", tt.args, err, tt.code)
		}
		if a == nil {
			t.Errorf("ParseCall(%q) returned no partial arguments", tt.args)
		}
	}
}

func TestParseCallStdinSentinel(t *testing.T) {
	a, err := ParseCall([]string{"org.example.foo.Get", "-"})
	if err != nil {
		t.Fatal(err)
	}
	if !a.ReadsStdin() {
		t.Fatal("sentinel not recognized")
	}

	fromStdin, err := CallParameters(a, strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}

	literal, err := ParseCall([]string{"org.example.foo.Get", `{"a":1}`})
	if err != nil {
		t.Fatal(err)
	}
	fromArg, err := CallParameters(literal, strings.NewReader("not read"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fromStdin, fromArg) {
		t.Errorf("stdin parameters %s differ from literal %s", fromStdin, fromArg)
	}
}

func TestCallParametersAbsent(t *testing.T) {
	a, err := ParseCall([]string{"org.example.foo.Get"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := CallParameters(a, iotest.ErrReader(errors.New("must not read")))
	if err != nil || p != nil {
		t.Errorf("CallParameters = %s, %v", p, err)
	}
}

func TestReadParametersLarge(t *testing.T) {
	big := `{"data":"` + strings.Repeat("x", 10000) + `"}`
	text, err := ReadParameters(iotest.OneByteReader(strings.NewReader(big)))
	if err != nil {
		t.Fatal(err)
	}
	if text != big {
		t.Errorf("read %d bytes, want %d", len(text), len(big))
	}

	_, err = ReadParameters(iotest.ErrReader(errors.New("broken")))
	if clierr.CodeOf(err) != clierr.InvalidJSON {
		t.Errorf("read error = %v", err)
	}
}

func TestDecodeParameters(t *testing.T) {
	got, err := DecodeParameters("{\n  \"a\": 1, // one\n  \"b\": [1, 2,],\n}\n")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1,"b":[1,2]}` {
		t.Errorf("DecodeParameters = %s", got)
	}

	for _, bad := range []string{"", "[1]", "42", `{"a":}`, `{"a":1`, "null"} {
		if _, err := DecodeParameters(bad); clierr.CodeOf(err) != clierr.InvalidJSON {
			t.Errorf("DecodeParameters(%q) = %v", bad, err)
		}
	}
}

func TestParseHelpAndResolve(t *testing.T) {
	a, err := ParseHelp([]string{"unix:/run/x/org.example.foo"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Target.Interface != "org.example.foo" || a.Target.Address != "unix:/run/x" {
		t.Errorf("Target = %+v", a.Target)
	}

	if _, err := ParseHelp(nil); clierr.CodeOf(err) != clierr.MissingArgument {
		t.Errorf("ParseHelp(nil) = %v", err)
	}
	if _, err := ParseHelp([]string{"x"}); clierr.CodeOf(err) != clierr.InvalidArgument {
		t.Errorf("ParseHelp(x) = %v", err)
	}
	if a, err := ParseHelp([]string{"-h"}); err != nil || !a.Help {
		t.Errorf("ParseHelp(-h) = %+v, %v", a, err)
	}

	if _, err := ParseResolve([]string{"unix:/run/x/org.example.foo"}); clierr.CodeOf(err) != clierr.InvalidArgument {
		t.Errorf("ParseResolve with address = %v", err)
	}
	if a, err := ParseResolve([]string{"org.example.foo"}); err != nil || a.Target.Interface != "org.example.foo" {
		t.Errorf("ParseResolve = %+v, %v", a, err)
	}
}

func TestParseInfo(t *testing.T) {
	a, err := ParseInfo(nil)
	if err != nil || a.Target != nil {
		t.Errorf("ParseInfo(nil) = %+v, %v", a, err)
	}
	a, err = ParseInfo([]string{"tcp:localhost:1234"})
	if err != nil || a.Target.Address != "tcp:localhost:1234" {
		t.Errorf("ParseInfo = %+v, %v", a, err)
	}
	if _, err := ParseInfo([]string{"org.example.foo"}); clierr.CodeOf(err) != clierr.InvalidArgument {
		t.Errorf("ParseInfo(interface) = %v", err)
	}
}

func TestParseShell(t *testing.T) {
	if a, err := ParseShell(nil); err != nil || a.Help {
		t.Errorf("ParseShell(nil) = %+v, %v", a, err)
	}
	if a, err := ParseShell([]string{"--help"}); err != nil || !a.Help {
		t.Errorf("ParseShell(--help) = %+v, %v", a, err)
	}
	if _, err := ParseShell([]string{"call"}); clierr.CodeOf(err) != clierr.InvalidArgument {
		t.Errorf("ParseShell(call) = %v", err)
	}
}
