package errors

import "fmt"

// Common error messages for the profilesync CLI.
// These templates ensure consistent, actionable error messages.

// ProfilesDirNotFound creates an error for a missing shared profiles directory.
func ProfilesDirNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("profiles directory not found: %s", path),
		"Run profilesync from the root of the shared profiles repository",
		"Or set profiles_dir in .profilesync/config.yml",
		"Or export your own settings first: profilesync export --alias <name>",
	)
}

// UserDirNotFound creates an error when the editor user directory cannot be located.
func UserDirNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("VS Code user directory not found: %s", path),
		"Start VS Code once so it creates its user directory",
		"Or point user_dir at it: PROFILESYNC_USER_DIR=/path/to/Code/User",
	)
}

// CodeCLINotFound creates an error when the editor command line is missing.
func CodeCLINotFound(cmd string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("%s command not found", cmd),
		"In VS Code run 'Shell Command: Install code command in PATH'",
		"Or set code_cmd in config to the full path of the code binary",
		"Or skip extension installs with --no-install-extensions",
	)
}

// MalformedSettings creates an error for a settings file that is not valid JSON.
func MalformedSettings(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("malformed settings file: %s", path),
		"Fix the JSON syntax in the file (comments and trailing commas are allowed)",
		"Check the reported position with: profilesync merge "+path,
	)
}

// InvalidAlias creates an error for an export alias that cannot name a profile folder.
func InvalidAlias(alias string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid alias: %q", alias),
		"profilesync export --alias <name>",
		"Aliases may contain only lowercase letters, digits and hyphens",
		"Example: profilesync export --alias alice-dev",
	)
}

// UnknownProfile creates an error when a requested profile does not exist.
func UnknownProfile(name string, available []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("unknown profile: %s", name),
		fmt.Sprintf("Available profiles: %v", available),
		"List profiles with: profilesync profiles list",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Recreate it with: profilesync config init --force",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'profilesync <command> --help' to see valid options",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", path),
		"Clone the shared profiles repository first",
		"Or run without --commit/--pull",
	)
}
