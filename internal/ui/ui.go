package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ColorMode is the user's color preference.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never (case-insensitive). An
// empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w any) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks the NO_COLOR convention (https://no-color.org).
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// UseColor resolves a color mode against the writer output goes to.
func UseColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return !DetectNoColor() && IsTTY(w)
	}
}

// Detect returns the styles for output written to w.
func Detect(w io.Writer, mode ColorMode) Styles {
	return GetStyles(UseColor(w, mode))
}
