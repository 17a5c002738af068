package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the profiles directory, user settings and editor CLI",
	Long: `Check that profilesync can run: the profiles directory exists, the common
profile and your settings.json parse, and the editor command is on PATH.

Checks marked ○ are optional; only ✗ results make doctor exit non-zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		in := health.Inputs{
			ProfilesDir:   cfg.ProfilesDir,
			CommonProfile: cfg.CommonProfile,
			UserDir:       cfg.UserDir,
			UserEnv:       userEnv(),
			ExplainFile:   cfg.ExplainFile,
		}
		if code, err := extension.NewCodeCLI(cfg.CodeCmd, newRunner(), cfg.InsecureTLS); err == nil {
			in.CodeCLI = code
		}

		report := health.RunHealthChecks(in)
		fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
		if !report.Passed {
			return shared.NewExitError(shared.ExitMissingDependency)
		}
		return nil
	},
}

func init() {
	doctorCmd.GroupID = shared.GroupConfiguration
	rootCmd.AddCommand(doctorCmd)
}
