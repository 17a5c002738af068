package progress

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// fdWriter is satisfied by *os.File and anything else backed by a descriptor.
type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// DetectCapabilities inspects the writer progress is drawn on. Writers that
// are not terminals (buffers, pipes, redirected files) get plain output.
//
// getenv is consulted for NO_COLOR, TERM=dumb, CI and PROFILESYNC_ASCII=1;
// nil means os.Getenv.
func DetectCapabilities(w io.Writer, getenv func(string) string) TerminalCapabilities {
	if getenv == nil {
		getenv = os.Getenv
	}

	var caps TerminalCapabilities
	if f, ok := w.(fdWriter); ok && term.IsTerminal(int(f.Fd())) {
		caps.IsTTY = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			caps.Width = cols
		}
	}
	if !caps.IsTTY {
		return caps
	}

	dumb := getenv("TERM") == "dumb"
	caps.SupportsColor = !dumb && getenv("NO_COLOR") == "" && !color.NoColor
	caps.SupportsUnicode = !dumb && getenv("PROFILESYNC_ASCII") != "1"
	// CI logs keep every spinner frame, so only animate for people.
	caps.Animate = !dumb && !isCI(getenv)
	return caps
}

func isCI(getenv func(string) string) bool {
	v := strings.ToLower(getenv("CI"))
	return v != "" && v != "0" && v != "false"
}

var (
	unicodeSymbols = ProgressSymbols{Checkmark: "✓", Failure: "✗", Skipped: "–", SpinnerSet: 14}
	asciiSymbols   = ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", Skipped: "[SKIP]", SpinnerSet: 9}
)

// SelectSymbols picks braille spinner and check marks for unicode terminals,
// bracketed words and a |/-\ spinner otherwise.
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return unicodeSymbols
	}
	return asciiSymbols
}
