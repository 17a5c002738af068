package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/testutil"
	"github.com/profilesync/profilesync/internal/userdir"
)

// Tests in this package drive the global rootCmd and replace package level
// seams, so they cannot run in parallel.

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// fakeCode stands in for the editor CLI. Installs succeed unless the ID is
// listed in fail.
type fakeCode struct {
	calls testutil.CallRecorder

	mu        sync.Mutex
	installed []string
	fail      map[string]bool
}

func (f *fakeCode) Run(ctx context.Context, env []string, name string, args ...string) (extension.RunResult, error) {
	f.calls.Record(testutil.CallRecord{Name: filepath.Base(name), Args: args})

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case len(args) >= 2 && args[0] == "--list-extensions" && args[1] == "--show-versions":
		var lines []string
		for _, id := range f.installed {
			lines = append(lines, id+"@1.0.0")
		}
		return extension.RunResult{Stdout: strings.Join(lines, "\n")}, nil
	case len(args) >= 1 && args[0] == "--list-extensions":
		return extension.RunResult{Stdout: strings.Join(f.installed, "\n")}, nil
	case len(args) >= 2 && args[0] == "--install-extension":
		if f.fail[args[1]] {
			return extension.RunResult{ExitCode: 1, Stderr: "Extension '" + args[1] + "' not found."}, nil
		}
		f.installed = append(f.installed, args[1])
		return extension.RunResult{}, nil
	}
	return extension.RunResult{ExitCode: 2, Stderr: "unexpected arguments"}, nil
}

func (f *fakeCode) installs() []string {
	var ids []string
	for _, c := range f.calls.Calls() {
		if len(c.Args) >= 2 && c.Args[0] == "--install-extension" {
			ids = append(ids, c.Args[1])
		}
	}
	return ids
}

// cliEnv is a temporary workspace with a profiles directory, a VS Code user
// directory, and a project config pointing at both.
type cliEnv struct {
	root     string
	profiles string
	user     string
	state    string
	report   string
	config   string
	code     *fakeCode
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	e := &cliEnv{
		root:     root,
		profiles: filepath.Join(root, "profiles"),
		user:     filepath.Join(root, "Code", "User"),
		state:    filepath.Join(root, "state"),
		report:   filepath.Join(root, "report.md"),
		config:   filepath.Join(root, "config.yml"),
		code:     &fakeCode{fail: map[string]bool{}},
	}
	require.NoError(t, os.MkdirAll(e.profiles, 0o755))
	require.NoError(t, os.MkdirAll(e.user, 0o755))

	// An executable the code CLI lookup can find; the fake runner answers
	// the actual calls.
	codeBin := filepath.Join(root, "bin", "code")
	require.NoError(t, os.MkdirAll(filepath.Dir(codeBin), 0o755))
	require.NoError(t, os.WriteFile(codeBin, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	e.writeConfig(t, map[string]string{"code_cmd": codeBin})

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))

	origRunner, origEnv, origNow, origInteractive, origStdin := newRunner, userEnv, now, isInteractive, stdin
	t.Cleanup(func() {
		newRunner, userEnv, now, isInteractive, stdin = origRunner, origEnv, origNow, origInteractive, origStdin
	})
	newRunner = func() extension.Runner { return e.code }
	userEnv = func() userdir.Env { return userdir.Env{} }
	now = func() time.Time { return fixedNow }
	isInteractive = func() bool { return false }
	stdin = strings.NewReader("")
	return e
}

// writeConfig writes the project config with the workspace paths plus extra.
func (e *cliEnv) writeConfig(t *testing.T, extra map[string]string) {
	t.Helper()
	values := map[string]string{
		"profiles_dir": e.profiles,
		"user_dir":     e.user,
		"state_dir":    e.state,
		"report_path":  e.report,
		"explain_file": filepath.Join(e.root, "explain.json"),
	}
	for k, v := range extra {
		values[k] = v
	}
	var b strings.Builder
	for k, v := range values {
		b.WriteString(k + ": " + quoteYAML(v) + "\n")
	}
	require.NoError(t, os.WriteFile(e.config, []byte(b.String()), 0o644))
}

func quoteYAML(v string) string {
	if v == "true" || v == "false" || strings.HasPrefix(v, "[") {
		return v
	}
	return `"` + v + `"`
}

// writeFile writes content under the workspace root.
func (e *cliEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *cliEnv) writeProfile(t *testing.T, name, settingsJSON, extensionsJSON string) {
	t.Helper()
	if settingsJSON != "" {
		e.writeFile(t, "profiles/"+name+"/settings.json", settingsJSON)
	}
	if extensionsJSON != "" {
		e.writeFile(t, "profiles/"+name+"/vscode-extensions.json", extensionsJSON)
	}
}

func (e *cliEnv) userSettings(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.user, "settings.json"))
	require.NoError(t, err)
	return string(data)
}

// run executes the CLI with args and the workspace config, returning
// combined stdout and stderr.
func (e *cliEnv) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	stdin = strings.NewReader(input)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since rootCmd keeps flag values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
