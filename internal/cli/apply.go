package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/git"
	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/output"
	"github.com/profilesync/profilesync/internal/profile"
	"github.com/profilesync/profilesync/internal/progress"
	"github.com/profilesync/profilesync/internal/report"
	"github.com/profilesync/profilesync/internal/settings"
	"github.com/profilesync/profilesync/internal/userdir"
)

const applySteps = 6

type applyOptions struct {
	profiles      []string
	extensions    []string
	allExtensions bool
	noInstall     bool
	safePreset    bool
	dryRun        bool
	showDecisions bool
	reportPath    string
	reportFormat  report.Format
	noReport      bool
	pull          bool
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Install profile extensions and merge profile settings into yours",
	Long: `Apply shared profiles to your VS Code setup in six steps:

  1. Check prerequisites (profiles directory, user directory, code CLI)
  2. Read every profile's extension list
  3. Install the selected extensions plus those of the common profile
  4. Select the profiles to apply
  5. Back up settings.json, then merge the common profile and the selected
     profiles into it, later profiles winning
  6. Write a report and print a summary

Without --profile, an interactive terminal prompts for the profiles; otherwise
only the common profile is applied. Keys listed in protected_keys, and the
appearance keys with --safe-preset, always keep your own values.`,
	Example: `  # Choose profiles and extensions interactively
  profilesync apply

  # Apply two profiles, the second one winning
  profilesync apply --profile python --profile data-science

  # Preview without touching any file
  profilesync apply --profile go --dry-run --show-decisions

  # Settings only, keeping your theme and fonts
  profilesync apply --profile go --no-install-extensions --safe-preset`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	applyCmd.GroupID = shared.GroupSync
	applyCmd.Flags().StringSliceP("profile", "p", nil, "Profile to apply (repeatable, later wins)")
	applyCmd.Flags().StringSlice("extensions", nil, "Extension IDs to install (comma separated)")
	applyCmd.Flags().Bool("all-extensions", false, "Install every extension listed by any profile")
	applyCmd.Flags().Bool("no-install-extensions", false, "Skip extension installation")
	applyCmd.Flags().Bool("safe-preset", false, "Keep your theme, fonts and zoom level")
	applyCmd.Flags().BoolP("dry-run", "n", false, "Show what would change without writing anything")
	applyCmd.Flags().Bool("show-decisions", false, "Print every merge decision as a table")
	applyCmd.Flags().String("report", "", "Report file path (overrides report_path)")
	applyCmd.Flags().String("report-format", "", "Report format: markdown or yaml (overrides report_format)")
	applyCmd.Flags().Bool("no-report", false, "Do not write a report file")
	applyCmd.Flags().Bool("pull", false, "Pull the profiles repository before applying")
	applyCmd.MarkFlagsMutuallyExclusive("extensions", "all-extensions")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := applyFlags(cmd, cfg)
	if err != nil {
		return err
	}

	start := now()
	rep, err := applyProfiles(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
	logRun(cmd, cfg, "apply", opts.profiles, rep, opts.dryRun, err, now().Sub(start))
	return err
}

func applyFlags(cmd *cobra.Command, cfg *config.Configuration) (applyOptions, error) {
	var opts applyOptions
	f := cmd.Flags()
	opts.profiles, _ = f.GetStringSlice("profile")
	opts.extensions, _ = f.GetStringSlice("extensions")
	opts.allExtensions, _ = f.GetBool("all-extensions")
	opts.noInstall, _ = f.GetBool("no-install-extensions")
	opts.safePreset, _ = f.GetBool("safe-preset")
	opts.dryRun, _ = f.GetBool("dry-run")
	opts.showDecisions, _ = f.GetBool("show-decisions")
	opts.noReport, _ = f.GetBool("no-report")
	opts.pull, _ = f.GetBool("pull")

	opts.safePreset = opts.safePreset || cfg.SafePreset
	opts.pull = opts.pull || cfg.Git.PullBeforeApply

	if opts.noInstall && (len(opts.extensions) > 0 || opts.allExtensions) {
		return opts, clierrors.InvalidFlagCombination("--no-install-extensions with --extensions/--all-extensions",
			"Choose extensions or skip installation, not both")
	}

	opts.reportPath, _ = f.GetString("report")
	if opts.reportPath == "" {
		opts.reportPath = cfg.ReportPath
	}
	format, _ := f.GetString("report-format")
	if format == "" {
		format = cfg.ReportFormat
	}
	parsed, err := report.ParseFormat(format)
	if err != nil {
		return opts, clierrors.NewArgumentError(err.Error())
	}
	opts.reportFormat = parsed
	return opts, nil
}

// applyProfiles runs the six apply steps and returns the resulting report.
func applyProfiles(ctx context.Context, out io.Writer, cfg *config.Configuration, opts applyOptions) (*report.Report, error) {
	p := newPrompter(stdin, out)

	output.PrintBanner(out, "profilesync apply")
	if opts.dryRun {
		output.PrintDryRun(out, "no files will be written and no extensions installed")
	}

	// 1. Prerequisites
	output.PrintStepHeader(out, 1, applySteps, "Checking prerequisites")
	if opts.pull {
		pullProfiles(ctx, out, cfg.ProfilesDir)
	}
	repo, err := profile.Open(cfg.ProfilesDir, cfg.CommonProfile)
	if err != nil {
		return nil, clierrors.ProfilesDirNotFound(cfg.ProfilesDir)
	}
	output.PrintSuccess(out, "profiles directory: %s", repo.Root)

	dir, err := userdir.Locate(cfg.UserDir, userEnv())
	if err != nil {
		if dir == "" {
			dir = err.Error()
		}
		return nil, clierrors.UserDirNotFound(dir)
	}
	settingsPath := filepath.Join(dir, userdir.SettingsFile)
	output.PrintSuccess(out, "user settings: %s", settingsPath)

	install := cfg.InstallExtensions && !opts.noInstall
	skipReason := "--no-install-extensions"
	if !cfg.InstallExtensions {
		skipReason = "install_extensions is off"
	}
	var codeCLI *extension.CodeCLI
	if install {
		codeCLI, err = extension.NewCodeCLI(cfg.CodeCmd, newRunner(), cfg.InsecureTLS)
		if err != nil {
			return nil, clierrors.WrapWithMessage(err, clierrors.Configuration, "invalid code_cmd")
		}
		if path, err := codeCLI.LookPath(); err != nil {
			output.PrintWarning(out, "%s not found; extension installation will be skipped", codeCLI.Name())
			install = false
			skipReason = codeCLI.Name() + " not found"
		} else {
			output.PrintSuccess(out, "code CLI: %s", path)
		}
	}

	if cfg.InsecureTLS {
		changed, err := userdir.EnsureProxyStrictSSL(settingsPath, opts.dryRun)
		switch {
		case err != nil:
			output.PrintWarning(out, "could not set %s: %v", userdir.ProxyStrictSSLKey, err)
		case changed:
			output.PrintSuccess(out, "TLS verification disabled (%s: false)", userdir.ProxyStrictSSLKey)
		default:
			output.PrintSuccess(out, "TLS verification already disabled")
		}
	}

	// 2. Extension matrix
	output.PrintStepHeader(out, 2, applySteps, "Reading extension lists")
	explanations := loadExplanations(out, cfg.ExplainFile)
	matrix, err := extension.BuildMatrix(repo, explanations)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration, "reading extension lists")
	}
	for _, w := range matrix.Warnings {
		output.PrintWarning(out, "%s", w)
	}
	output.PrintSuccess(out, "%d extensions (%d selectable, %d from %s)",
		len(matrix.Rows), len(matrix.Selectable()), len(matrix.CommonIDs()), repo.Common)
	if n := matrix.MissingExplanations(); n > 0 && len(explanations) > 0 {
		output.PrintInfo(out, "%d extensions have no description", n)
	}

	var selected []string
	cancelled := false
	if install {
		selected, cancelled, err = chooseExtensions(p, out, matrix, opts)
		if err != nil {
			return nil, err
		}
	}

	// 3. Install
	var installed *extension.InstallResult
	switch {
	case !install:
		output.PrintStepHeader(out, 3, applySteps, "Installing extensions (skipped: "+skipReason+")")
	case cancelled:
		output.PrintStepHeader(out, 3, applySteps, "Installing extensions (skipped: selection cancelled)")
	default:
		output.PrintStepHeader(out, 3, applySteps, "Installing extensions")
		common := matrix.CommonIDs()
		tracker := progress.NewTracker(out, len(extension.Plan(selected, common)), progress.DetectCapabilities(out, nil))
		in := &extension.Installer{CLI: codeCLI, Progress: tracker}
		res, err := in.InstallSelected(ctx, selected, common, opts.dryRun)
		if err != nil {
			return nil, err
		}
		installed = &res
		output.PrintInfo(out, "installed %d, already installed %d, failed %d",
			len(res.Installed), len(res.Skipped), len(res.Failed))
	}

	// 4. Profile selection
	output.PrintStepHeader(out, 4, applySteps, "Selecting profiles")
	profiles, err := chooseProfiles(p, out, repo, opts.profiles)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		output.PrintWarning(out, "no profile selected; only %s is applied", repo.Common)
	} else {
		output.PrintSuccess(out, "selected: %s", strings.Join(profiles, ", "))
	}

	// 5. Merge
	output.PrintStepHeader(out, 5, applySteps, "Merging settings")
	result, err := mergeIntoUser(out, cfg, repo, settingsPath, profiles, opts)
	if err != nil {
		return nil, err
	}

	rep := &report.Report{
		GeneratedAt:      now(),
		DryRun:           opts.dryRun,
		SelectedProfiles: profiles,
		CommonProfile:    repo.Common,
		SafePreset:       opts.safePreset,
		Decisions:        result.Decisions,
		Extensions:       installed,
	}

	// 6. Report
	output.PrintStepHeader(out, 6, applySteps, "Writing report")
	if opts.showDecisions {
		fmt.Fprint(out, report.DecisionTable(result.Decisions))
	}
	if opts.noReport || opts.reportPath == "" {
		output.PrintInfo(out, "report file disabled")
	} else if err := report.WriteFile(opts.reportPath, rep, opts.reportFormat); err != nil {
		output.PrintWarning(out, "could not write report: %v", err)
	} else {
		output.PrintSuccess(out, "report: %s", opts.reportPath)
	}

	report.PrintSummary(out, rep)
	fmt.Fprintln(out)
	output.PrintSuccess(out, "done")
	return rep, nil
}

// mergeIntoUser backs up the user's settings, merges the common profile and
// the selected profiles into them, and writes the result.
func mergeIntoUser(out io.Writer, cfg *config.Configuration, repo *profile.Repository, settingsPath string, profiles []string, opts applyOptions) (*merge.Result, error) {
	backup, err := userdir.Backup(settingsPath, now(), opts.dryRun)
	switch {
	case err != nil:
		return nil, clierrors.FileNotWritable(settingsPath, err)
	case backup == "":
		output.PrintInfo(out, "no existing settings.json, nothing to back up")
	case opts.dryRun:
		output.PrintDryRun(out, "would back up to %s", backup)
	default:
		output.PrintSuccess(out, "backup: %s", backup)
	}

	base, err := settings.ReadFile(settingsPath)
	if err != nil {
		return nil, clierrors.MalformedSettings(settingsPath, err)
	}
	output.PrintSuccess(out, "loaded your settings (%d keys)", base.Len())

	var sources []merge.Source
	for _, name := range append([]string{repo.Common}, profiles...) {
		doc, err := repo.LoadSettings(name)
		if err != nil {
			return nil, clierrors.MalformedSettings(repo.SettingsPath(name), err)
		}
		if doc.Len() == 0 {
			output.PrintInfo(out, "skipping %s (no settings)", name)
			continue
		}
		output.PrintInfo(out, "merging %s (%d keys)", name, doc.Len())
		sources = append(sources, merge.Source{Label: name, Doc: doc})
	}

	protected := merge.NewKeySet(cfg.ExtraProtectedKeys()...)
	if opts.safePreset {
		for _, k := range merge.SafePresetKeys {
			protected[k] = struct{}{}
		}
		output.PrintInfo(out, "SafePreset: keeping your appearance settings")
	}

	result, err := merge.Merge(base, sources, protected, merge.Options{TrackUnchanged: cfg.TrackUnchanged})
	if err != nil {
		return nil, err
	}

	if err := userdir.WriteSettings(settingsPath, result.Doc, opts.dryRun); err != nil {
		return nil, clierrors.FileNotWritable(settingsPath, err)
	}
	if opts.dryRun {
		output.PrintDryRun(out, "would write %s", settingsPath)
	} else {
		output.PrintSuccess(out, "wrote %s", settingsPath)
	}
	if n := len(result.Conflicts()); n > 0 {
		output.PrintWarning(out, "%d keys changed type (object/array); review with --show-decisions", n)
	}
	return result, nil
}

// chooseExtensions resolves which selectable extensions to install. The
// common profile's extensions are added by the installer.
func chooseExtensions(p *prompter, out io.Writer, matrix *extension.Matrix, opts applyOptions) ([]string, bool, error) {
	switch {
	case opts.allExtensions:
		var ids []string
		for _, r := range matrix.Selectable() {
			ids = append(ids, r.ID)
		}
		return ids, false, nil
	case len(opts.extensions) > 0:
		known, unknown := matrix.Lookup(opts.extensions)
		for _, id := range unknown {
			output.PrintWarning(out, "%s is not listed by any profile; installing it anyway", id)
		}
		return append(known, unknown...), false, nil
	case !isInteractive():
		output.PrintInfo(out, "not a terminal: installing only the extensions of %s", profileName(matrix))
		return nil, false, nil
	}

	fmt.Fprint(out, reportMatrix(matrix))
	return p.selectExtensions(matrix.Selectable())
}

func profileName(matrix *extension.Matrix) string {
	for _, p := range matrix.Profiles {
		if strings.HasPrefix(p, ".") {
			return p
		}
	}
	return "the common profile"
}

// reportMatrix renders the matrix shown before the extension prompt.
func reportMatrix(matrix *extension.Matrix) string {
	return "\n" + report.MatrixTable(matrix)
}

// chooseProfiles validates profiles given on the command line or prompts for
// them on a terminal.
func chooseProfiles(p *prompter, out io.Writer, repo *profile.Repository, requested []string) ([]string, error) {
	names, err := repo.Selectable()
	if err != nil {
		return nil, err
	}
	output.PrintInfo(out, "%d selectable profiles", len(names))

	if len(requested) > 0 {
		var out []string
		for _, name := range requested {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !slices.Contains(names, name) {
				return nil, clierrors.UnknownProfile(name, names)
			}
			out = append(out, name)
		}
		return out, nil
	}
	if !isInteractive() || len(names) == 0 {
		return nil, nil
	}
	return p.selectProfiles(repo, names)
}

func loadExplanations(out io.Writer, path string) profile.Explanations {
	if path == "" {
		return nil
	}
	x, err := profile.LoadExplanations(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			output.PrintWarning(out, "%v", err)
		}
		return nil
	}
	return x
}

// pullProfiles fast-forwards the profiles repository. Failures are reported
// and the apply continues with the local copy.
func pullProfiles(ctx context.Context, out io.Writer, dir string) {
	repo, err := git.Open(dir)
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			output.PrintWarning(out, "%s is not in a git repository; skipping pull", dir)
			return
		}
		output.PrintWarning(out, "opening repository: %v", err)
		return
	}
	updated, err := repo.Pull(ctx)
	switch {
	case err != nil:
		output.PrintWarning(out, "pull failed, using local profiles: %v", err)
	case updated:
		output.PrintSuccess(out, "pulled latest profiles into %s", repo.Root())
	default:
		output.PrintSuccess(out, "profiles repository is up to date")
	}
}
