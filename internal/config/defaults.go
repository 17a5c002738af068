package config

// GetDefaultConfigTemplate returns the commented config file written by
// 'config init'. It sets every key to its default.
func GetDefaultConfigTemplate() string {
	return `# profilesync configuration
# See 'profilesync config -h' for commands, 'profilesync config keys' for all options

# Shared profile repository
profiles_dir: vscode/profiles         # One folder per profile (settings.json, vscode-extensions.json)
common_profile: .project-common       # Always applied first, never selectable
explain_file: vscode/vscode-extensions-explain.json
user_dir: ""                          # VS Code user dir (empty = detect per OS)

# Merge settings
safe_preset: false                    # Keep your theme, fonts and zoom level
protected_keys: []                    # Extra keys that always keep your value
track_unchanged: false                # Log keys profiles touched without changing

# Extensions
code_cmd: code                        # Editor CLI (e.g. "flatpak run com.visualstudio.code")
install_extensions: true              # Install profile extensions during apply
insecure_tls: false                   # Skip TLS checks behind intercepting proxies

# Reports
report_path: vscode/vscode-setting-merge-report.md
report_format: markdown               # markdown | yaml

# History settings
state_dir: ~/.profilesync/state       # Directory for sync history
max_history_entries: 200              # Max sync history entries to retain

# Shared repository (git)
git:
  auto_commit: false                  # Commit exported profiles
  author_name: ""                     # Commit author (empty = git config / login name)
  author_email: ""
  pull_before_apply: false            # Fast-forward the repository before apply
`
}

// GetDefaults returns the built-in value of every known key, keyed by
// dotted path.
func GetDefaults() map[string]any {
	defaults := make(map[string]any, len(KnownKeys))
	for key, schema := range KnownKeys {
		defaults[key] = schema.Default
	}
	return defaults
}
