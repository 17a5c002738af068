package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/output"
	"github.com/profilesync/profilesync/internal/report"
	"github.com/profilesync/profilesync/internal/settings"
)

var mergeCmd = &cobra.Command{
	Use:   "merge BASE [SOURCE...]",
	Short: "Merge settings files directly and print the result",
	Long: `Merge one or more SOURCE settings files into BASE, later sources winning,
and print the merged JSON. Nothing is written unless --output is given.

Objects are merged key by key, arrays become their de-duplicated union, and
any other value is overwritten by the source. Protected keys keep BASE's value.`,
	Example: `  # Preview the merge of two profiles into your settings
  profilesync merge ~/.config/Code/User/settings.json common.json go.json

  # Keep the base theme and print every decision
  profilesync merge base.json profile.json --safe-preset --show-decisions

  # Write the merged result
  profilesync merge base.json profile.json --output merged.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.GroupID = shared.GroupSync
	mergeCmd.Flags().StringSlice("protect", nil, "Dotted keys that keep BASE's value (repeatable)")
	mergeCmd.Flags().Bool("safe-preset", false, "Protect the appearance keys (theme, fonts, zoom)")
	mergeCmd.Flags().Bool("track-unchanged", false, "Record keys sources set to their existing value")
	mergeCmd.Flags().StringP("output", "o", "", "Write the merged settings to this file")
	mergeCmd.Flags().Bool("show-decisions", false, "Print every merge decision as a table")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	protect, _ := f.GetStringSlice("protect")
	safePreset, _ := f.GetBool("safe-preset")
	trackUnchanged, _ := f.GetBool("track-unchanged")
	outPath, _ := f.GetString("output")
	showDecisions, _ := f.GetBool("show-decisions")

	start := now()
	rep, err := mergeFiles(cmd, args, mergeFileOptions{
		protect:        append(cfg.ExtraProtectedKeys(), protect...),
		safePreset:     safePreset || cfg.SafePreset,
		trackUnchanged: trackUnchanged || cfg.TrackUnchanged,
		output:         outPath,
		showDecisions:  showDecisions,
	})
	logRun(cmd, cfg, "merge", args[1:], rep, outPath == "", err, now().Sub(start))
	return err
}

type mergeFileOptions struct {
	protect        []string
	safePreset     bool
	trackUnchanged bool
	output         string
	showDecisions  bool
}

func mergeFiles(cmd *cobra.Command, args []string, opts mergeFileOptions) (*report.Report, error) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	base, err := settings.ReadFile(args[0])
	if err != nil {
		return nil, clierrors.MalformedSettings(args[0], err)
	}

	var sources []merge.Source
	var labels []string
	for _, path := range args[1:] {
		if _, err := os.Stat(path); err != nil {
			return nil, clierrors.NewArgumentError(fmt.Sprintf("source file not found: %s", path))
		}
		doc, err := settings.ReadFile(path)
		if err != nil {
			return nil, clierrors.MalformedSettings(path, err)
		}
		label := sourceLabel(path, labels)
		labels = append(labels, label)
		sources = append(sources, merge.Source{Label: label, Doc: doc})
	}

	protected := merge.NewKeySet(opts.protect...)
	if opts.safePreset {
		for _, k := range merge.SafePresetKeys {
			protected[k] = struct{}{}
		}
	}

	result, err := merge.Merge(base, sources, protected, merge.Options{TrackUnchanged: opts.trackUnchanged})
	if err != nil {
		return nil, err
	}

	if opts.output != "" {
		if err := settings.WriteFile(opts.output, result.Doc); err != nil {
			return nil, clierrors.FileNotWritable(opts.output, err)
		}
		output.PrintSuccess(errOut, "wrote %s", opts.output)
	} else if err := settings.Encode(out, result.Doc); err != nil {
		return nil, fmt.Errorf("encoding merged settings: %w", err)
	}

	if opts.showDecisions {
		fmt.Fprint(errOut, report.DecisionTable(result.Decisions))
	}
	for _, d := range result.Conflicts() {
		output.PrintWarning(errOut, "%s changed type; %s value taken", d.Key, d.Source)
	}

	return &report.Report{
		GeneratedAt:      now(),
		DryRun:           opts.output == "",
		SelectedProfiles: labels,
		Decisions:        result.Decisions,
	}, nil
}

// sourceLabel names a source by its file name, or by its parent folder when
// the file is a profile's settings.json. Repeated labels get a numeric suffix.
func sourceLabel(path string, taken []string) string {
	label := filepath.Base(path)
	if label == "settings.json" {
		if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
			label = parent
		}
	}
	label = strings.TrimSuffix(label, ".json")
	unique := label
	for i := 2; slices.Contains(taken, unique); i++ {
		unique = fmt.Sprintf("%s#%d", label, i)
	}
	return unique
}
