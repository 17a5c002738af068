package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/output"
	"github.com/profilesync/profilesync/internal/profile"
	"github.com/profilesync/profilesync/internal/report"
)

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Inspect the shared profiles directory",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return profilesListCmd.RunE(cmd, args)
	},
}

var profilesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles with their themes and extension counts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, repo, err := openProfiles(cmd)
		if err != nil {
			return err
		}
		return listProfiles(cmd, cfg, repo)
	},
}

var profilesExtensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "Show which extensions each profile enables",
	Long: `Show the extension matrix: one row per extension ID, one column per
profile. Numbered rows are the choices offered by 'apply'; rows marked '*'
come from the common profile and are always installed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, repo, err := openProfiles(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		matrix, err := extension.BuildMatrix(repo, loadExplanations(cmd.ErrOrStderr(), cfg.ExplainFile))
		if err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Configuration, "reading extension lists")
		}
		for _, w := range matrix.Warnings {
			output.PrintWarning(cmd.ErrOrStderr(), "%s", w)
		}
		fmt.Fprint(out, report.MatrixTable(matrix))
		if n := matrix.MissingExplanations(); n > 0 {
			output.PrintInfo(out, "%d extensions have no description in %s", n, cfg.ExplainFile)
		}
		return nil
	},
}

func init() {
	profilesCmd.GroupID = shared.GroupProfiles
	profilesCmd.AddCommand(profilesListCmd, profilesExtensionsCmd)
	rootCmd.AddCommand(profilesCmd)
}

func openProfiles(cmd *cobra.Command) (*config.Configuration, *profile.Repository, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	repo, err := profile.Open(cfg.ProfilesDir, cfg.CommonProfile)
	if err != nil {
		return nil, nil, clierrors.ProfilesDirNotFound(cfg.ProfilesDir)
	}
	return cfg, repo, nil
}

func listProfiles(cmd *cobra.Command, cfg *config.Configuration, repo *profile.Repository) error {
	names, err := repo.List()
	if err != nil {
		return err
	}

	rows := make([]report.ProfileRow, 0, len(names))
	for _, name := range names {
		row := report.ProfileRow{Name: name, Common: name == repo.Common}
		if s, err := repo.Summary(name); err != nil {
			row.Err = err
		} else {
			row.ColorTheme, row.IconTheme = s.ColorTheme, s.IconTheme
		}
		if exts, err := repo.LoadExtensions(name); err == nil {
			row.Extensions = len(exts)
		}
		rows = append(rows, row)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.ProfileTable(rows))
	if !repo.Exists(repo.Common) {
		output.PrintWarning(cmd.ErrOrStderr(), "common profile %s not found in %s", repo.Common, cfg.ProfilesDir)
	}
	return nil
}
