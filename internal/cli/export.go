package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/git"
	"github.com/profilesync/profilesync/internal/output"
	"github.com/profilesync/profilesync/internal/profile"
	"github.com/profilesync/profilesync/internal/userdir"
)

type exportOptions struct {
	alias              string
	includeKeybindings bool
	includeSnippets    bool
	noExtensions       bool
	commit             bool
	force              bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save your current VS Code settings as a shared profile",
	Long: `Copy your settings.json (and optionally keybindings.json and snippets/)
into <profiles_dir>/<alias>/ and record your installed extensions in
vscode-extensions.json.

The alias is prompted for on a terminal when --alias is not given. With
--commit, or git.auto_commit in the config, the new profile is committed to
the profiles repository.`,
	Example: `  # Export under a chosen alias
  profilesync export --alias alice-dev

  # Include keybindings and snippets, then commit
  profilesync export --alias alice-dev --include-keybindings --include-snippets --commit`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.GroupID = shared.GroupSync
	exportCmd.Flags().StringP("alias", "a", "", "Profile name (lowercase letters, digits, hyphens)")
	exportCmd.Flags().Bool("include-keybindings", false, "Also export keybindings.json")
	exportCmd.Flags().Bool("include-snippets", false, "Also export the snippets folder")
	exportCmd.Flags().Bool("no-extensions", false, "Do not record installed extensions")
	exportCmd.Flags().Bool("commit", false, "Commit the exported profile to the profiles repository")
	exportCmd.Flags().BoolP("force", "f", false, "Overwrite an existing profile without asking")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var opts exportOptions
	f := cmd.Flags()
	opts.alias, _ = f.GetString("alias")
	opts.includeKeybindings, _ = f.GetBool("include-keybindings")
	opts.includeSnippets, _ = f.GetBool("include-snippets")
	opts.noExtensions, _ = f.GetBool("no-extensions")
	opts.commit, _ = f.GetBool("commit")
	opts.force, _ = f.GetBool("force")
	opts.commit = opts.commit || cfg.Git.AutoCommit

	return exportProfile(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
}

func exportProfile(ctx context.Context, out io.Writer, cfg *config.Configuration, opts exportOptions) error {
	p := newPrompter(stdin, out)
	output.PrintBanner(out, "profilesync export")

	repo, err := profile.Open(cfg.ProfilesDir, cfg.CommonProfile)
	if err != nil {
		return clierrors.ProfilesDirNotFound(cfg.ProfilesDir)
	}
	dir, err := userdir.Locate(cfg.UserDir, userEnv())
	if err != nil {
		if dir == "" {
			dir = err.Error()
		}
		return clierrors.UserDirNotFound(dir)
	}
	output.PrintSuccess(out, "user settings: %s", dir)

	alias := opts.alias
	if alias == "" {
		if !isInteractive() {
			return clierrors.NewArgumentError("--alias is required when not running in a terminal",
				"Pass --alias <name>")
		}
		if alias, err = p.askAlias(); err != nil {
			return clierrors.NewArgumentError(err.Error(), "Pass --alias <name>")
		}
	}
	if err := profile.ValidateAlias(alias); err != nil {
		return clierrors.InvalidAlias(alias)
	}

	if repo.Exists(alias) && !opts.force {
		if !isInteractive() {
			return clierrors.NewArgumentError(fmt.Sprintf("profile %q already exists", alias),
				"Pass --force to overwrite it")
		}
		ok, err := p.confirm(fmt.Sprintf("Profile %q exists. Overwrite?", alias))
		if err != nil {
			return err
		}
		if !ok {
			output.PrintInfo(out, "export cancelled")
			return nil
		}
	}

	exts := listExtensions(ctx, out, cfg, opts.noExtensions)

	res, err := repo.Export(profile.ExportOptions{
		Alias:              alias,
		UserDir:            dir,
		IncludeKeybindings: opts.includeKeybindings,
		IncludeSnippets:    opts.includeSnippets,
		Extensions:         exts,
	})
	if err != nil {
		if errors.Is(err, profile.ErrInvalidAlias) {
			return clierrors.InvalidAlias(alias)
		}
		return clierrors.FileNotWritable(repo.Path(alias), err)
	}

	for _, name := range res.Copied {
		output.PrintSuccess(out, "copied %s", name)
	}
	for _, name := range res.Missing {
		output.PrintWarning(out, "%s not found in %s", name, dir)
	}
	if res.ExtensionsWritten {
		output.PrintSuccess(out, "recorded %d extensions", len(exts))
	}
	output.PrintSuccess(out, "profile %s saved to %s", alias, res.Dir)

	if opts.commit {
		commitProfile(out, cfg, res.Dir, alias)
	}
	return nil
}

// listExtensions returns the installed extensions to record, or nil when
// they should not or cannot be listed.
func listExtensions(ctx context.Context, out io.Writer, cfg *config.Configuration, skip bool) []profile.Extension {
	if skip {
		return nil
	}
	codeCLI, err := extension.NewCodeCLI(cfg.CodeCmd, newRunner(), cfg.InsecureTLS)
	if err != nil {
		output.PrintWarning(out, "invalid code_cmd, extensions not recorded: %v", err)
		return nil
	}
	if _, err := codeCLI.LookPath(); err != nil {
		output.PrintWarning(out, "%s not found, extensions not recorded", codeCLI.Name())
		return nil
	}
	exts, err := codeCLI.ListWithVersions(ctx)
	if err != nil {
		output.PrintWarning(out, "listing extensions: %v", err)
		return nil
	}
	return exts
}

// commitProfile commits the exported profile directory. Failures are
// reported, the export itself has already succeeded.
func commitProfile(out io.Writer, cfg *config.Configuration, dir, alias string) {
	repo, err := git.Open(dir)
	if err != nil {
		output.PrintWarning(out, "not committing: %v", err)
		return
	}
	author := git.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := repo.CommitPaths([]string{dir}, "Export profile "+alias, author)
	switch {
	case errors.Is(err, git.ErrNothingToCommit):
		output.PrintInfo(out, "profile unchanged, nothing to commit")
	case err != nil:
		output.PrintWarning(out, "commit failed: %v", err)
	default:
		output.PrintSuccess(out, "committed %s", shortHash(hash))
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
