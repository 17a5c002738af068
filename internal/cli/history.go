package cli

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/history"
	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past apply and merge runs",
	Long: `List recorded apply, export and merge runs, oldest first: when each ran, the
profiles involved, how many keys each merge action touched, the exit code and
the duration.`,
	Example: `  profilesync history --profile go
  profilesync history -n 5
  profilesync history --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		profile, _ := cmd.Flags().GetString("profile")
		limit, _ := cmd.Flags().GetInt("limit")
		wipe, _ := cmd.Flags().GetBool("clear")
		if limit < 0 {
			return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", limit))
		}

		out := cmd.OutOrStdout()
		if wipe {
			if err := history.ClearHistory(cfg.StateDir); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			fmt.Fprintln(out, "History cleared.")
			return nil
		}

		file, err := history.LoadHistory(cfg.StateDir)
		if err != nil {
			return err
		}
		entries := filterEntries(file.Entries, profile, limit)
		switch {
		case len(entries) > 0:
			displayEntries(out, entries)
		case profile != "":
			fmt.Fprintf(out, "No matching entries for profile '%s'.\n", profile)
		default:
			fmt.Fprintln(out, "No history available.")
		}
		return nil
	},
}

func init() {
	historyCmd.GroupID = shared.GroupConfiguration
	historyCmd.Flags().StringP("profile", "p", "", "Only show runs that used this profile")
	historyCmd.Flags().IntP("limit", "n", 0, "Show only the N most recent runs")
	historyCmd.Flags().BoolP("clear", "c", false, "Delete the recorded history")
	rootCmd.AddCommand(historyCmd)
}

// filterEntries keeps the entries that used profile (all when empty), then
// the newest limit of those.
func filterEntries(entries []history.HistoryEntry, profile string, limit int) []history.HistoryEntry {
	kept := slices.DeleteFunc(slices.Clone(entries), func(e history.HistoryEntry) bool {
		return profile != "" && !slices.Contains(e.Profiles, profile)
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

var (
	historyTime     = color.New(color.FgCyan).SprintFunc()
	historyOK       = color.New(color.FgGreen).SprintFunc()
	historyFailed   = color.New(color.FgRed).SprintFunc()
	historyConflict = color.New(color.FgYellow).SprintFunc()
)

// displayEntries prints one line per entry.
func displayEntries(out io.Writer, entries []history.HistoryEntry) {
	for _, e := range entries {
		profiles := "-"
		if len(e.Profiles) > 0 {
			profiles = strings.Join(e.Profiles, ",")
		}
		exit := historyOK(e.ExitCode)
		if e.ExitCode != 0 {
			exit = historyFailed(e.ExitCode)
		}

		fields := []string{
			historyTime(e.Timestamp.Format(time.DateTime)),
			fmt.Sprintf("%-6s", e.Command),
			fmt.Sprintf("%-20s", profiles),
			"exit=" + exit,
			e.Duration,
		}
		if counts := formatCounts(e.Decisions); counts != "" {
			fields = append(fields, counts)
		}
		if e.Conflicts > 0 {
			fields = append(fields, historyConflict(fmt.Sprintf("conflicts=%d", e.Conflicts)))
		}
		if e.DryRun {
			fields = append(fields, "(dry run)")
		}
		fmt.Fprintln(out, strings.Join(fields, "  "))
	}
}

// formatCounts renders decision counts in merge.Actions order, then any
// unknown actions alphabetically.
func formatCounts(counts map[string]int) string {
	var parts []string
	seen := make(map[string]bool)
	for _, a := range merge.Actions {
		if n := counts[string(a)]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", a, n))
		}
		seen[string(a)] = true
	}
	var rest []string
	for k, n := range counts {
		if !seen[k] && n > 0 {
			rest = append(rest, fmt.Sprintf("%s=%d", k, n))
		}
	}
	sort.Strings(rest)
	return strings.Join(append(parts, rest...), " ")
}

// logRun records a finished apply or merge run. History failures are
// written to stderr and never fail the command.
func logRun(cmd *cobra.Command, cfg *config.Configuration, command string, profiles []string, rep *report.Report, dryRun bool, runErr error, elapsed time.Duration) {
	if cfg.StateDir == "" {
		return
	}
	w := history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)
	w.Warn = cmd.ErrOrStderr()

	entry := history.HistoryEntry{
		Timestamp: now(),
		Command:   command,
		Profiles:  profiles,
		DryRun:    dryRun,
		ExitCode:  shared.ExitCode(runErr),
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	if rep != nil {
		entry.Profiles = rep.SelectedProfiles
		entry.Decisions = make(map[string]int)
		for _, a := range merge.Actions {
			if n := rep.Count(a); n > 0 {
				entry.Decisions[string(a)] = n
			}
		}
		entry.Conflicts = rep.Conflicts()
	}
	w.LogEntry(entry)
}
