// Package ui holds the terminal styles used for command output and match
// rendering. Styles are decided once at startup and passed down; nothing
// below the command layer inspects the terminal.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette, ANSI 256 codes.
const (
	ColorGreen   = "42"
	ColorCyan    = "44"
	ColorMagenta = "170"
	ColorYellow  = "220"
	ColorRed     = "196"
	ColorGray    = "245"
)

// Styles holds every style used by gfr output.
type Styles struct {
	Color bool

	// Console messages
	OK    lipgloss.Style
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Skip  lipgloss.Style
	Dim   lipgloss.Style

	// Match lines
	Path   lipgloss.Style
	LineNo lipgloss.Style
	Match  lipgloss.Style

	// Listing
	Name lipgloss.Style
	Tag  lipgloss.Style
}

func newRenderer(profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	return r
}

// DefaultStyles returns colored styles. The color profile is fixed so the
// result does not depend on the writer it ends up on.
func DefaultStyles() Styles {
	r := newRenderer(termenv.ANSI256)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c)).TabWidth(lipgloss.NoTabConversion)
	}
	return Styles{
		Color: true,

		OK:    fg(ColorGreen),
		Info:  fg(ColorCyan),
		Warn:  fg(ColorYellow),
		Error: fg(ColorRed).Bold(true),
		Skip:  fg(ColorGray),
		Dim:   fg(ColorGray),

		Path:   fg(ColorMagenta),
		LineNo: fg(ColorGreen),
		Match:  fg(ColorRed).Bold(true),

		Name: r.NewStyle().Bold(true),
		Tag:  fg(ColorCyan),
	}
}

// NoColorStyles returns styles that render text unchanged.
func NoColorStyles() Styles {
	r := newRenderer(termenv.Ascii)
	plain := r.NewStyle()
	return Styles{
		OK:     plain,
		Info:   plain,
		Warn:   plain,
		Error:  plain,
		Skip:   plain,
		Dim:    plain,
		Path:   plain,
		LineNo: plain,
		Match:  plain,
		Name:   plain,
		Tag:    plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(color bool) Styles {
	if color {
		return DefaultStyles()
	}
	return NoColorStyles()
}
