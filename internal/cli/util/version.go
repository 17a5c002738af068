// Package util provides the utility commands of the profilesync CLI.
package util

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/profilesync/profilesync/internal/build"
	"github.com/profilesync/profilesync/internal/cli/shared"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for profilesync",
	Example: `  # Show version info
  profilesync version

  # Plain output (for scripts)
  profilesync version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout())
	},
}

// Register adds the utility commands to root.
func Register(root *cobra.Command) {
	versionCmd.GroupID = shared.GroupConfiguration
	root.AddCommand(versionCmd)
}

func init() {
	versionCmd.Flags().Bool("plain", false, "Plain output without formatting")
}

type versionField struct {
	label string
	value string
}

func versionFields() []versionField {
	return []versionField{
		{"Version", build.Version},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "profilesync %s\n", build.Version)
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

var versionBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("86")).
	Padding(1, 2)

// printPrettyVersion prints the version fields in a bordered box.
func printPrettyVersion(out io.Writer) {
	yellow := color.New(color.FgYellow).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	var lines []string
	for _, f := range versionFields() {
		lines = append(lines, fmt.Sprintf("%s  %s", yellow(fmt.Sprintf("%9s", f.label)), white(f.value)))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cyan("profilesync")+"  shared VS Code profiles")
	fmt.Fprintln(out, versionBox.Render(strings.Join(lines, "\n")))
	if build.IsDevBuild() {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("development build"))
	}
	fmt.Fprintln(out)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
