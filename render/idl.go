package render

import (
	"strings"

	"github.com/alexej-v/varlink_cli/idl"

	"github.com/charmbracelet/x/ansi"
	varlinkidl "github.com/varlink/go/varlink/idl"
)

// InterfaceWidth is the line width interface descriptions are formatted for.
const InterfaceWidth = 70

const indentStep = "  "

// Interface formats a parsed interface description: one declaration per
// paragraph, on a single line when it fits width, otherwise one field per
// line.
func Interface(iface *idl.Interface, width int, palette *Palette) string {
	f := &formatter{width: width, palette: palette}

	var b strings.Builder
	f.comment(&b, iface.Doc)
	b.WriteString(f.keyword("interface") + " " + iface.Name + "\n")
	for _, m := range iface.Members {
		b.WriteString("\n")
		f.member(&b, m)
	}
	return strings.TrimRight(b.String(), "\n")
}

type formatter struct {
	width   int
	palette *Palette
}

func (f *formatter) member(b *strings.Builder, member interface{}) {
	var line string
	switch m := member.(type) {
	case *varlinkidl.Alias:
		f.comment(b, m.Doc)
		line = f.keyword("type") + " " + f.typeName(m.Name) + " "
		line += f.typ(m.Type, "", column(line))
	case *varlinkidl.Method:
		f.comment(b, m.Doc)
		line = f.keyword("method") + " " + f.palette.paint(f.palette.method, m.Name)
		line += f.typ(m.In, "", column(line))
		line += " -> "
		line += f.typ(m.Out, "", column(line))
	case *varlinkidl.Error:
		f.comment(b, m.Doc)
		line = f.keyword("error") + " " + f.typeName(m.Name)
		if m.Type != nil {
			line += " "
			line += f.typ(m.Type, "", column(line))
		}
	default:
		return
	}
	b.WriteString(line + "\n")
}

func (f *formatter) comment(b *strings.Builder, doc string) {
	if doc == "" {
		return
	}
	limit := f.width - 2
	if limit < 20 {
		limit = 20
	}
	for _, text := range strings.Split(doc, "\n") {
		if text = strings.TrimSpace(text); text == "" {
			b.WriteString(f.palette.paint(f.palette.comment, "#") + "\n")
			continue
		}
		for _, line := range strings.Split(ansi.Wordwrap(text, limit, ""), "\n") {
			b.WriteString(f.palette.paint(f.palette.comment, "# "+line) + "\n")
		}
	}
}

// typ renders t starting at col. Structs and enums that do not fit are
// broken into one field per line at indent.
func (f *formatter) typ(t *varlinkidl.Type, indent string, col int) string {
	if t == nil {
		return ""
	}
	if flat := f.flat(t); col+ansi.StringWidth(flat) <= f.width {
		return flat
	}

	switch t.Kind {
	case varlinkidl.TypeArray, varlinkidl.TypeMaybe, varlinkidl.TypeMap:
		prefix := prefixes[t.Kind]
		return prefix + f.typ(t.ElementType, indent, col+len(prefix))
	case varlinkidl.TypeStruct, varlinkidl.TypeEnum:
		if len(t.Fields) == 0 {
			return "()"
		}
		inner := indent + indentStep
		var b strings.Builder
		b.WriteString("(\n")
		for i, field := range t.Fields {
			line := inner + field.Name
			if t.Kind == varlinkidl.TypeStruct {
				line += ": "
				line += f.typ(field.Type, inner, column(line))
			}
			b.WriteString(line)
			if i < len(t.Fields)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + ")")
		return b.String()
	}
	return f.flat(t)
}

var prefixes = map[varlinkidl.TypeKind]string{
	varlinkidl.TypeArray: "[]",
	varlinkidl.TypeMaybe: "?",
	varlinkidl.TypeMap:   "[string]",
}

var builtins = map[varlinkidl.TypeKind]string{
	varlinkidl.TypeBool:   "bool",
	varlinkidl.TypeInt:    "int",
	varlinkidl.TypeFloat:  "float",
	varlinkidl.TypeString: "string",
	varlinkidl.TypeObject: "object",
}

// flat renders t on one line.
func (f *formatter) flat(t *varlinkidl.Type) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case varlinkidl.TypeArray, varlinkidl.TypeMaybe, varlinkidl.TypeMap:
		return prefixes[t.Kind] + f.flat(t.ElementType)
	case varlinkidl.TypeAlias:
		return f.typeName(t.Alias)
	case varlinkidl.TypeStruct, varlinkidl.TypeEnum:
		fields := make([]string, len(t.Fields))
		for i, field := range t.Fields {
			fields[i] = field.Name
			if t.Kind == varlinkidl.TypeStruct {
				fields[i] += ": " + f.flat(field.Type)
			}
		}
		return "(" + strings.Join(fields, ", ") + ")"
	}
	return f.typeName(builtins[t.Kind])
}

func (f *formatter) keyword(s string) string {
	return f.palette.paint(f.palette.keyword, s)
}

func (f *formatter) typeName(s string) string {
	return f.palette.paint(f.palette.typ, s)
}

// column returns the display width of the last line of s.
func column(s string) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return ansi.StringWidth(s)
}
