// Package render formats replies and interface descriptions for the
// terminal.
package render

import (
	"io"
	"os"

	"github.com/alexej-v/varlink_cli/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette styles output fragments. A disabled palette returns text unchanged.
type Palette struct {
	enabled bool

	comment lipgloss.Style
	keyword lipgloss.Style
	method  lipgloss.Style
	typ     lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
}

// NewPalette returns a palette writing basic ANSI colors for w.
func NewPalette(w io.Writer, enabled bool) *Palette {
	// lipgloss re-detects the profile from the environment unless it is set
	// explicitly.
	r := lipgloss.NewRenderer(w, termenv.WithProfile(termenv.ANSI))
	r.SetColorProfile(termenv.ANSI)

	return &Palette{
		enabled: enabled,
		comment: r.NewStyle().Foreground(lipgloss.Color("4")),
		keyword: r.NewStyle().Foreground(lipgloss.Color("5")),
		method:  r.NewStyle().Foreground(lipgloss.Color("2")),
		typ:     r.NewStyle().Foreground(lipgloss.Color("6")),
		key:     r.NewStyle().Foreground(lipgloss.Color("6")),
		value:   r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// Plain returns a palette without colors.
func Plain() *Palette {
	return &Palette{}
}

func (p *Palette) Enabled() bool {
	return p != nil && p.enabled
}

func (p *Palette) paint(style lipgloss.Style, text string) string {
	if !p.Enabled() || text == "" {
		return text
	}
	return style.Render(text)
}

// ShouldColorize decides whether output to w is colored for the given
// --color mode. In auto mode w must be a terminal and NO_COLOR unset.
func ShouldColorize(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
