package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/output"
)

// PrintSummary writes the colored end-of-run summary.
func PrintSummary(w io.Writer, r *Report) {
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.Faint).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()

	fmt.Fprintln(w)
	output.PrintBanner(w, "Summary")
	if r.DryRun {
		fmt.Fprintln(w, magenta("[DryRun] nothing was applied"))
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Extensions"))
	if r.Extensions == nil {
		fmt.Fprintf(w, "  %s\n", gray("skipped"))
	} else {
		fmt.Fprintf(w, "  %s\n", green(fmt.Sprintf("installed: %d", len(r.Extensions.Installed))))
		fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("already installed: %d", len(r.Extensions.Skipped))))
		if n := len(r.Extensions.Failed); n > 0 {
			fmt.Fprintf(w, "  %s\n", red(fmt.Sprintf("failed: %d (%s)", n, strings.Join(r.Extensions.Failed, ", "))))
		}
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Profiles"))
	selected := "none"
	if len(r.SelectedProfiles) > 0 {
		selected = strings.Join(r.SelectedProfiles, ", ")
	}
	fmt.Fprintf(w, "  selected: %s\n", selected)
	fmt.Fprintf(w, "  common: %s (always applied)\n", r.CommonProfile)
	fmt.Fprintf(w, "  SafePreset: %s\n", onOff(r.SafePreset))

	fmt.Fprintf(w, "\n%s\n", yellow("Settings"))
	fmt.Fprintf(w, "  %s\n", green(fmt.Sprintf("added: %d", r.Count(merge.ActionAdded))))
	fmt.Fprintf(w, "  %s\n", yellow(fmt.Sprintf("overwritten: %d", r.Count(merge.ActionOverwrite))))
	if n := r.Count(merge.ActionMerged); n > 0 {
		fmt.Fprintf(w, "  merged: %d\n", n)
	}
	if n := r.Count(merge.ActionProtected); n > 0 {
		fmt.Fprintf(w, "  %s\n", cyan(fmt.Sprintf("protected: %d", n)))
	}
	if n := r.Conflicts(); n > 0 {
		fmt.Fprintf(w, "  %s\n", red(fmt.Sprintf("type conflicts: %d (review with --show-decisions)", n)))
	}
}
