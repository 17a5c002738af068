package config

import (
	"bytes"
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilesync/profilesync/internal/cli/shared"
)

// The config commands are package globals, so these tests run sequentially.

type configEnv struct {
	project string
	user    string
}

func newConfigEnv(t *testing.T) *configEnv {
	t.Helper()
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return &configEnv{
		project: filepath.Join(dir, "project", "config.yml"),
		user:    filepath.Join(xdg, "profilesync", "config.yml"),
	}
}

// run executes the config command tree under a throwaway root.
func (e *configEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "profilesync", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "")
	root.AddGroup(&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration Commands:"})
	Register(root)
	t.Cleanup(func() { root.RemoveCommand(configCmd) })
	resetFlags(configCmd)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", e.project}, args...))
	err := root.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfigShow(t *testing.T) {
	tests := map[string]struct {
		args []string
		want []string
	}{
		"yaml by default": {
			want: []string{"Configuration Sources:", "profiles_dir: team/profiles", "install_extensions: true"},
		},
		"json": {
			args: []string{"--json"},
			want: []string{"Configuration Sources:", `"profiles_dir": "team/profiles"`},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newConfigEnv(t)
			writeFile(t, e.project, "profiles_dir: team/profiles\n")

			out, err := e.run(t, append([]string{"config", "show"}, tt.args...)...)
			require.NoError(t, err, out)
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			assert.Contains(t, out, "PROFILESYNC_*")
		})
	}
}

func TestConfigShow_InvalidProject(t *testing.T) {
	e := newConfigEnv(t)
	writeFile(t, e.project, "profiles_dir: [unterminated\n")

	_, err := e.run(t, "config", "show")
	require.Error(t, err)
	assert.Equal(t, shared.ExitMalformedInput, shared.ExitCode(err))
}

func TestConfigPath(t *testing.T) {
	e := newConfigEnv(t)
	writeFile(t, e.project, "safe_preset: true\n")

	out, err := e.run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "user:    "+e.user+" (not found)")
	assert.Contains(t, out, "project: "+e.project+" (exists)")
}

func TestConfigInit(t *testing.T) {
	tests := map[string]struct {
		args     []string
		existing bool
		wantOut  string
		wantFile func(e *configEnv) string
		wantKeep bool
	}{
		"user config": {
			wantOut:  "Created user config",
			wantFile: func(e *configEnv) string { return e.user },
		},
		"project config": {
			args:     []string{"--project"},
			wantOut:  "Created project config",
			wantFile: func(e *configEnv) string { return e.project },
		},
		"existing kept": {
			args:     []string{"--project"},
			existing: true,
			wantOut:  "already exists",
			wantFile: func(e *configEnv) string { return e.project },
			wantKeep: true,
		},
		"existing forced": {
			args:     []string{"--project", "--force"},
			existing: true,
			wantOut:  "Created project config",
			wantFile: func(e *configEnv) string { return e.project },
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newConfigEnv(t)
			if tt.existing {
				writeFile(t, e.project, "safe_preset: true\n")
			}

			out, err := e.run(t, append([]string{"config", "init"}, tt.args...)...)
			require.NoError(t, err, out)
			assert.Contains(t, out, tt.wantOut)

			data, err := os.ReadFile(tt.wantFile(e))
			require.NoError(t, err)
			if tt.wantKeep {
				assert.Equal(t, "safe_preset: true\n", string(data))
			} else {
				assert.Contains(t, string(data), "# profilesync configuration")
			}
		})
	}
}

func TestConfigSetGet(t *testing.T) {
	tests := map[string]struct {
		key, value string
		wantGet    string
	}{
		"bool":   {key: "safe_preset", value: "true", wantGet: "safe_preset: true (project config)"},
		"nested": {key: "git.auto_commit", value: "true", wantGet: "git.auto_commit: true (project config)"},
		"enum":   {key: "report_format", value: "yaml", wantGet: "report_format: yaml (project config)"},
		"list":   {key: "protected_keys", value: "editor.fontSize, window.zoomLevel", wantGet: "protected_keys: [editor.fontSize, window.zoomLevel] (project config)"},
		"int":    {key: "max_history_entries", value: "50", wantGet: "max_history_entries: 50 (project config)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newConfigEnv(t)
			writeFile(t, e.project, "# team settings\nprofiles_dir: team/profiles\n")

			out, err := e.run(t, "config", "set", tt.key, tt.value, "--project")
			require.NoError(t, err, out)
			assert.Contains(t, out, "Set "+tt.key+" = "+tt.value+" in project config")

			out, err = e.run(t, "config", "get", tt.key)
			require.NoError(t, err, out)
			assert.Contains(t, out, tt.wantGet)

			data, err := os.ReadFile(e.project)
			require.NoError(t, err)
			assert.Contains(t, string(data), "# team settings")
		})
	}
}

func TestConfigSet_UserConfig(t *testing.T) {
	e := newConfigEnv(t)

	out, err := e.run(t, "config", "set", "code_cmd", "codium")
	require.NoError(t, err, out)
	assert.Contains(t, out, "in user config")

	out, err = e.run(t, "config", "get", "code_cmd")
	require.NoError(t, err)
	assert.Contains(t, out, "code_cmd: codium (user config)")
}

func TestConfigSet_Errors(t *testing.T) {
	tests := map[string]struct {
		key, value string
		wantErr    string
	}{
		"unknown key":  {key: "agent_preset", value: "x", wantErr: "unknown configuration key"},
		"invalid bool": {key: "safe_preset", value: "maybe", wantErr: "invalid boolean"},
		"invalid int":  {key: "max_history_entries", value: "many", wantErr: "invalid integer"},
		"invalid enum": {key: "report_format", value: "html", wantErr: "valid options: markdown, yaml"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newConfigEnv(t)

			_, err := e.run(t, "config", "set", tt.key, tt.value, "--project")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(err))
			assert.NoFileExists(t, e.project)
		})
	}
}

func TestConfigGet_Default(t *testing.T) {
	e := newConfigEnv(t)

	out, err := e.run(t, "config", "get", "common_profile")
	require.NoError(t, err)
	assert.Contains(t, out, "common_profile: .project-common (default, not set)")

	_, err = e.run(t, "config", "get", "nope")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(err))
}

func TestConfigKeys(t *testing.T) {
	e := newConfigEnv(t)

	out, err := e.run(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "profiles_dir")
	assert.Contains(t, out, "markdown|yaml")
	assert.Contains(t, out, "git.pull_before_apply")
}

func TestConfigShow_JSONIsValid(t *testing.T) {
	e := newConfigEnv(t)

	out, err := e.run(t, "config", "show", "--json")
	require.NoError(t, err)
	start := bytes.IndexByte([]byte(out), '{')
	require.GreaterOrEqual(t, start, 0)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &decoded))
	assert.Equal(t, ".project-common", decoded["common_profile"])
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	abs, err := ResolvePath("relative/config.yml")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = ResolvePath("")
	assert.Error(t, err)

	u, err := user.Current()
	require.NoError(t, err)
	got, err := ResolvePath("~/x.yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(u.HomeDir, "x.yml"), got)
}

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDirectory(dir))
	assert.DirExists(t, dir)
	require.NoError(t, EnsureDirectory(dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, EnsureDirectory(file))
}
