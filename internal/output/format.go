// Package output provides terminal output formatting utilities for the profilesync CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintBanner prints a title framed by double rules.
func PrintBanner(out io.Writer, title string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	width := GetTerminalWidth()
	if width > 60 {
		width = 60
	}
	rule := strings.Repeat("═", width)
	fmt.Fprintf(out, "%s\n  %s\n%s\n", cyan(rule), cyan(title), cyan(rule))
}

// PrintStepHeader prints a colored step header (e.g., "[2/6] Extensions...").
func PrintStepHeader(out io.Writer, step, totalSteps int, name string) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	fmt.Fprintf(out, "\n%s %s\n", yellow(fmt.Sprintf("[%d/%d]", step, totalSteps)), white(name+"..."))
}

// PrintSuccess prints an indented green checkmark line.
func PrintSuccess(out io.Writer, format string, args ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(out, "  %s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// PrintWarning prints an indented yellow warning line.
func PrintWarning(out io.Writer, format string, args ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(out, "  %s %s\n", yellow("⚠"), yellow(fmt.Sprintf(format, args...)))
}

// PrintInfo prints an indented plain line.
func PrintInfo(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, "  %s\n", fmt.Sprintf(format, args...))
}

// PrintDryRun prints a magenta line describing what a dry run skipped.
func PrintDryRun(out io.Writer, format string, args ...interface{}) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	fmt.Fprintf(out, "  %s %s\n", magenta("[DryRun]"), fmt.Sprintf(format, args...))
}

// PrintExecutingCommand prints the command being executed with colored styling.
// Uses magenta arrow and dim text for the command details.
func PrintExecutingCommand(out io.Writer, command string) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", magenta("→ Executing:"), dim(command))
}
