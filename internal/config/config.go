// Package config provides hierarchical configuration management for profilesync using koanf.
// Configuration is loaded with priority: environment variables > project config (.profilesync/config.yml)
// > user config (~/.config/profilesync/config.yml) > defaults. Files ending in .json are read as JSON.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "PROFILESYNC_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the profilesync CLI configuration
type Configuration struct {
	// ProfilesDir is the shared profile repository folder holding one
	// sub-folder per profile. Relative paths resolve against the working directory.
	ProfilesDir string `koanf:"profiles_dir" yaml:"profiles_dir" json:"profiles_dir" validate:"required"`
	// UserDir overrides the detected VS Code user directory.
	UserDir string `koanf:"user_dir" yaml:"user_dir" json:"user_dir"`
	// CommonProfile names the profile that is always applied first.
	CommonProfile string `koanf:"common_profile" yaml:"common_profile" json:"common_profile" validate:"required"`
	// ExplainFile maps extension IDs to human readable explanations.
	ExplainFile string `koanf:"explain_file" yaml:"explain_file" json:"explain_file"`
	// CodeCmd is the editor CLI command, parsed with shell quoting rules.
	// Example: "flatpak run com.visualstudio.code"
	CodeCmd string `koanf:"code_cmd" yaml:"code_cmd" json:"code_cmd" validate:"required"`

	// SafePreset keeps the user's appearance settings (theme, fonts, zoom).
	SafePreset bool `koanf:"safe_preset" yaml:"safe_preset" json:"safe_preset"`
	// ProtectedKeys are extra dotted keys that always keep the user's value.
	ProtectedKeys []string `koanf:"protected_keys" yaml:"protected_keys" json:"protected_keys"`
	// TrackUnchanged records keys that profiles touched without changing them.
	TrackUnchanged bool `koanf:"track_unchanged" yaml:"track_unchanged" json:"track_unchanged"`

	InstallExtensions bool `koanf:"install_extensions" yaml:"install_extensions" json:"install_extensions"`
	// InsecureTLS disables TLS verification for extension downloads and sets
	// http.proxyStrictSSL=false in the user settings. For corporate proxies only.
	InsecureTLS bool `koanf:"insecure_tls" yaml:"insecure_tls" json:"insecure_tls"`

	ReportPath   string `koanf:"report_path" yaml:"report_path" json:"report_path"`
	ReportFormat string `koanf:"report_format" yaml:"report_format" json:"report_format" validate:"oneof=markdown yaml"`

	StateDir string `koanf:"state_dir" yaml:"state_dir" json:"state_dir"`
	// MaxHistoryEntries sets the maximum number of sync history entries to retain.
	// Oldest entries are pruned when this limit is exceeded.
	MaxHistoryEntries int `koanf:"max_history_entries" yaml:"max_history_entries" json:"max_history_entries" validate:"min=0"`

	Git GitConfig `koanf:"git" yaml:"git" json:"git"`
}

// GitConfig controls how the shared profile repository is handled.
type GitConfig struct {
	// AutoCommit commits exported profiles to the shared repository.
	AutoCommit  bool   `koanf:"auto_commit" yaml:"auto_commit" json:"auto_commit"`
	AuthorName  string `koanf:"author_name" yaml:"author_name" json:"author_name"`
	AuthorEmail string `koanf:"author_email" yaml:"author_email" json:"author_email" validate:"omitempty,email"`
	// PullBeforeApply fast-forwards the shared repository before merging.
	PullBeforeApply bool `koanf:"pull_before_apply" yaml:"pull_before_apply" json:"pull_before_apply"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides .profilesync/config.yml. A .json path is
	// parsed as JSON.
	ProjectConfigPath string
	// UserConfigPath overrides the XDG user config path.
	UserConfigPath string
	// WarningWriter receives unknown-key warnings (default: os.Stderr).
	WarningWriter io.Writer
}

// Load loads configuration from defaults, the user file, the project file
// and PROFILESYNC_* variables, later sources winning.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions is Load with explicit paths and warning output.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warn := opts.WarningWriter
	if warn == nil {
		warn = os.Stderr
	}

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}

	for _, f := range []struct {
		source ConfigSource
		path   string
	}{
		{SourceUser, userPath},
		{SourceProject, projectPath},
	} {
		if err := loadFile(k, f.path, warn); err != nil {
			return nil, fmt.Errorf("loading %s config: %w", f.source, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := ValidateConfigValues(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.ProfilesDir = expandHomePath(cfg.ProfilesDir)
	cfg.UserDir = expandHomePath(cfg.UserDir)
	return &cfg, nil
}

// loadFile merges one config file into k. A missing file is skipped.
func loadFile(k *koanf.Koanf, path string, warn io.Writer) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &FileError{Path: path, Message: err.Error()}
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	} else if err := CheckYAMLSyntax(data, path); err != nil {
		return err
	}

	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), parser); err != nil {
		return &FileError{Path: path, Message: err.Error()}
	}
	for _, key := range UnknownKeys(fk.Keys()) {
		fmt.Fprintf(warn, "Warning: unknown configuration key %q in %s (ignored)\n", key, path)
	}
	return k.Merge(fk)
}

// UnknownKeys returns the keys that are not configuration keys, sorted.
func UnknownKeys(keys []string) []string {
	var unknown []string
	for _, key := range keys {
		if _, ok := KnownKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// envTransform converts environment variable names to config keys.
// Example: PROFILESYNC_GIT_AUTO_COMMIT -> git.auto_commit
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if strings.HasPrefix(key, "git_") {
		return "git." + strings.TrimPrefix(key, "git_")
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// ExtraProtectedKeys returns the configured protected keys with blanks removed.
func (c *Configuration) ExtraProtectedKeys() []string {
	out := make([]string, 0, len(c.ProtectedKeys))
	for _, k := range c.ProtectedKeys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// CommonProfilePath returns the folder of the common profile.
func (c *Configuration) CommonProfilePath() string {
	return filepath.Join(c.ProfilesDir, c.CommonProfile)
}
