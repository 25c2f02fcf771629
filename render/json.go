package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alexej-v/varlink_cli/clierr"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Renderer prints call replies.
type Renderer struct {
	Out     io.Writer
	Err     io.Writer
	Palette *Palette
}

// Reply prints the parameters of one reply to Out. A remote error is
// announced on Err first; its parameters are printed all the same.
func (r *Renderer) Reply(errorName string, parameters json.RawMessage) error {
	if errorName != "" {
		fmt.Fprintf(r.Err, "Call failed with error: %s\n", errorName)
	}
	text, err := r.Palette.JSON(parameters)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(r.Out, text+"\n"); err != nil {
		return clierr.Wrap(clierr.InvalidJSON, err, "unable to print reply")
	}
	return nil
}

// JSON indents data by two spaces and colors keys and values. Empty data is
// printed as an empty object.
func (p *Palette) JSON(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", clierr.Wrap(clierr.InvalidJSON, err, "unable to format reply")
	}
	if !p.Enabled() {
		return buf.String(), nil
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := lexer.Tokenise(nil, buf.String())
	if err != nil {
		return "", clierr.Wrap(clierr.InvalidJSON, err, "unable to format reply")
	}

	var out strings.Builder
	for tok := it(); tok != chroma.EOF; tok = it() {
		switch {
		case tok.Type == chroma.NameTag:
			out.WriteString(p.paint(p.key, tok.Value))
		case tok.Type.InCategory(chroma.Literal), tok.Type == chroma.KeywordConstant:
			out.WriteString(p.paint(p.value, tok.Value))
		default:
			out.WriteString(tok.Value)
		}
	}
	return strings.TrimRight(out.String(), "\n"), nil
}
