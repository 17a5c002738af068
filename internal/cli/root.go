// Package cli implements the profilesync command line: exporting a user's
// VS Code settings into the shared profiles directory and applying profiles
// back onto a user's settings.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	cliconfig "github.com/profilesync/profilesync/internal/cli/config"
	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/cli/util"
	"github.com/profilesync/profilesync/internal/config"
	clierrors "github.com/profilesync/profilesync/internal/errors"
	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/git"
	"github.com/profilesync/profilesync/internal/userdir"
)

var rootCmd = &cobra.Command{
	Use:   "profilesync",
	Short: "Share VS Code settings and extensions through profile folders",
	Long: `profilesync keeps a team's VS Code setup in a shared profiles directory.

Each profile is a folder holding a settings.json and a vscode-extensions.json.
'export' copies your current settings into a new profile; 'apply' installs a
profile's extensions and merges its settings into yours, keeping a backup and
writing a report of every key it touched.`,
	Example: `  # Export your settings as a new profile
  profilesync export --alias alice-dev

  # Preview what applying a profile would change
  profilesync apply --profile python --dry-run

  # Apply, keeping your theme and fonts
  profilesync apply --profile python --safe-preset`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logger := log.New(cmd.ErrOrStderr(), "[debug] ", log.Ltime)
			git.SetDebugLogger(logger.Printf)
		}
	},
}

// Seams replaced by tests.
var (
	newRunner = func() extension.Runner { return extension.ExecRunner{} }
	userEnv   = userdir.SystemEnv
	now       = time.Now

	// isInteractive reports whether prompts may be shown.
	isInteractive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var stdin io.Reader = os.Stdin

func init() {
	rootCmd.PersistentFlags().String("config", "", "Project config file (default .profilesync/config.yml)")
	rootCmd.PersistentFlags().String("profiles-dir", "", "Shared profiles directory (overrides profiles_dir)")
	rootCmd.PersistentFlags().String("user-dir", "", "VS Code user directory (overrides user_dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug output for git operations")

	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupSync, Title: "Sync Commands:"},
		&cobra.Group{ID: shared.GroupProfiles, Title: "Profile Commands:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration Commands:"},
	)

	cliconfig.Register(rootCmd)
	util.Register(rootCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return shared.ExitSuccess
	}

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		cliErr := clierrors.AsCLIError(err)
		if cliErr == nil {
			category := clierrors.Runtime
			if shared.IsUsageError(err) {
				category = clierrors.Argument
			}
			cliErr = clierrors.Wrap(err, category)
		}
		clierrors.FprintError(rootCmd.ErrOrStderr(), cliErr)
	}
	return shared.ExitCode(err)
}

// loadConfig loads the layered configuration and applies the global flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: path,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		if path == "" {
			path = config.ProjectConfigPath()
		}
		return nil, clierrors.ConfigParseError(path, err)
	}

	if dir, _ := cmd.Flags().GetString("profiles-dir"); dir != "" {
		cfg.ProfilesDir = dir
	}
	if dir, _ := cmd.Flags().GetString("user-dir"); dir != "" {
		cfg.UserDir = dir
	}
	return cfg, nil
}
