package cmd

import (
	"fmt"
	"io"

	"github.com/kamusis/gfr/internal/ui"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands print through a console so icons, indentation and colors
// stay consistent across gfr's CLI output.
//
// Icon semantics:
//   ✓  success
//   ✗  failure
//   ⚠  warning
//   ○  skipped / already done
//   i  neutral info
//   ->  per-item progress

type console struct {
	out    io.Writer
	err    io.Writer
	styles ui.Styles
}

func newConsole(out, err io.Writer, styles ui.Styles) *console {
	return &console{out: out, err: err, styles: styles}
}

// ok prints a success line.
//
//	name = "" → "✓ msg"
//	name set  → "✓ [name] msg"
func (c *console) ok(name, msg string) {
	c.line(c.out, c.styles.OK.Render("✓"), name, msg)
}

// info prints a neutral informational line.
func (c *console) info(name, msg string) {
	c.line(c.out, c.styles.Info.Render("i"), name, msg)
}

// warn prints a warning line.
func (c *console) warn(name, msg string) {
	c.line(c.out, c.styles.Warn.Render("⚠"), name, msg)
}

// skip prints a line for work that was already done.
func (c *console) skip(name, msg string) {
	c.line(c.out, c.styles.Skip.Render("○"), name, msg)
}

// bad prints a failed check. It goes to stdout with the other check lines;
// fail is for the final command error.
func (c *console) bad(name, msg string) {
	c.line(c.out, c.styles.Error.Render("✗"), name, msg)
}

// section prints a "[ title ]" heading used by multi-step reports.
func (c *console) section(title string) {
	fmt.Fprintln(c.out, c.styles.Info.Render("[ "+title+" ]"))
}

// note prints a dimmed status line to stderr, keeping stdout for results.
func (c *console) note(msg string) {
	fmt.Fprintln(c.err, c.styles.Dim.Render(msg))
}

// fail prints "Error: <err>" to stderr.
func (c *console) fail(err error) {
	fmt.Fprintf(c.err, "%s %v\n", c.styles.Error.Render("Error:"), err)
}

func (c *console) line(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "%s %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "%s [%s] %s\n", icon, c.styles.Name.Render(name), msg)
	}
}
