package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type palette struct {
	label, message, category, fix, bullet, usage func(a ...any) string
}

var colored = palette{
	label:    color.New(color.FgRed, color.Bold).SprintFunc(),
	message:  color.New(color.FgRed).SprintFunc(),
	category: color.New(color.FgYellow).SprintFunc(),
	fix:      color.New(color.FgGreen, color.Bold).SprintFunc(),
	bullet:   color.New(color.FgGreen).SprintFunc(),
	usage:    color.New(color.FgCyan).SprintFunc(),
}

var plain = palette{
	label: fmt.Sprint, message: fmt.Sprint, category: fmt.Sprint,
	fix: fmt.Sprint, bullet: fmt.Sprint, usage: fmt.Sprint,
}

// FormatError renders err for the terminal, in color unless color output
// is disabled.
func FormatError(err *CLIError) string {
	if color.NoColor {
		return FormatErrorPlain(err)
	}
	return render(err, colored)
}

// FormatErrorPlain renders err without ANSI colors.
func FormatErrorPlain(err *CLIError) string {
	return render(err, plain)
}

func render(err *CLIError, p palette) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category.String()), p.message(err.Message))
	if err.Usage != "" {
		fmt.Fprintf(&b, "\n%s %s\n", p.usage("Usage:"), p.usage(err.Usage))
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintf(&b, "\n%s\n", p.fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&b, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return b.String()
}

// FprintError writes the formatted err to w. A nil err writes nothing.
func FprintError(w io.Writer, err *CLIError) {
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError formats any error, giving plain errors the category.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return FormatError(cliErr)
	}
	return FormatError(Wrap(err, category))
}
