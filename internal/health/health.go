// Package health checks that the pieces profilesync depends on are in place:
// the shared profiles directory, the editor user directory and the editor
// command line. The report backs the 'profilesync doctor' command.
package health

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/profilesync/profilesync/internal/git"
	"github.com/profilesync/profilesync/internal/profile"
	"github.com/profilesync/profilesync/internal/settings"
	"github.com/profilesync/profilesync/internal/userdir"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks are reported but do not fail the report.
	Optional bool
}

// HealthReport contains all health check results.
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Executable is the part of the editor CLI the checks need.
type Executable interface {
	Name() string
	LookPath() (string, error)
}

// Inputs describes the environment to check.
type Inputs struct {
	ProfilesDir   string
	CommonProfile string
	UserDir       string
	UserEnv       userdir.Env
	ExplainFile   string
	// CodeCLI is nil when the configured command could not be parsed.
	CodeCLI Executable
}

// RunHealthChecks runs all health checks and returns a report.
func RunHealthChecks(in Inputs) *HealthReport {
	report := &HealthReport{Passed: true}
	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Passed && !c.Optional {
			report.Passed = false
		}
	}

	add(CheckProfilesDir(in.ProfilesDir))
	add(CheckCommonProfile(in.ProfilesDir, in.CommonProfile))
	add(CheckUserSettings(in.UserDir, in.UserEnv))
	add(CheckCodeCLI(in.CodeCLI))
	add(CheckProfilesRepository(in.ProfilesDir))
	add(CheckExplainFile(in.ExplainFile))
	return report
}

// CheckProfilesDir checks that the profiles directory exists and counts the
// profiles in it.
func CheckProfilesDir(dir string) CheckResult {
	const name = "Profiles directory"
	repo, err := profile.Open(dir, "")
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s not found", dir)}
	}
	names, err := repo.List()
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("%s (%d profiles)", dir, len(names))}
}

// CheckCommonProfile checks that the common profile exists and its settings
// parse. A missing common profile is allowed.
func CheckCommonProfile(dir, common string) CheckResult {
	const name = "Common profile"
	repo, err := profile.Open(dir, common)
	if err != nil {
		return CheckResult{Name: name, Optional: true, Message: "profiles directory missing"}
	}
	if !repo.Exists(repo.Common) {
		return CheckResult{Name: name, Optional: true, Message: fmt.Sprintf("%s not found, only selected profiles will be merged", repo.Common)}
	}
	if _, err := repo.LoadSettings(repo.Common); err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: repo.Common}
}

// CheckUserSettings checks that the editor user directory is found and its
// settings.json, if present, parses.
func CheckUserSettings(override string, env userdir.Env) CheckResult {
	const name = "User settings"
	dir, err := userdir.Locate(override, env)
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	path := filepath.Join(dir, userdir.SettingsFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("%s (no settings.json yet)", dir)}
	}
	doc, err := settings.ReadFile(path)
	if err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("%s (%d keys)", path, doc.Len())}
}

// CheckCodeCLI checks that the editor command is on PATH. Without it
// extensions cannot be listed or installed, settings still merge.
func CheckCodeCLI(code Executable) CheckResult {
	const name = "Editor CLI"
	if code == nil {
		return CheckResult{Name: name, Optional: true, Message: "code_cmd is empty or invalid"}
	}
	path, err := code.LookPath()
	if err != nil {
		return CheckResult{Name: name, Optional: true, Message: fmt.Sprintf("%s not found in PATH, extensions will not be installed", code.Name())}
	}
	return CheckResult{Name: name, Passed: true, Message: path}
}

// CheckProfilesRepository reports the git state of the profiles directory.
func CheckProfilesRepository(dir string) CheckResult {
	const name = "Profiles repository"
	repo, err := git.Open(dir)
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			return CheckResult{Name: name, Optional: true, Message: "not a git repository, pull and commit are unavailable"}
		}
		return CheckResult{Name: name, Optional: true, Message: err.Error()}
	}

	var parts []string
	if branch, err := repo.CurrentBranch(); err == nil && branch != "" {
		parts = append(parts, "branch "+branch)
	}
	clean, err := repo.IsClean(dir)
	switch {
	case err != nil:
		parts = append(parts, "status unknown")
	case clean:
		parts = append(parts, "clean")
	default:
		parts = append(parts, "uncommitted changes")
	}
	return CheckResult{Name: name, Passed: true, Message: repo.Root() + " (" + strings.Join(parts, ", ") + ")"}
}

// CheckExplainFile checks the extension explanation file.
func CheckExplainFile(path string) CheckResult {
	const name = "Extension descriptions"
	if path == "" {
		return CheckResult{Name: name, Optional: true, Message: "explain_file not set"}
	}
	x, err := profile.LoadExplanations(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{Name: name, Optional: true, Message: fmt.Sprintf("%s not found", path)}
		}
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: fmt.Sprintf("%s (%d entries)", path, len(x))}
}

// FormatReport formats the health report for console output.
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		mark := "✓"
		switch {
		case check.Passed:
		case check.Optional:
			mark = "○"
		default:
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return b.String()
}
