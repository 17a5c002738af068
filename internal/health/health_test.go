package health

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilesync/profilesync/internal/userdir"
)

type fakeExecutable struct {
	name string
	path string
	err  error
}

func (f fakeExecutable) Name() string              { return f.name }
func (f fakeExecutable) LookPath() (string, error) { return f.path, f.err }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCheckProfilesDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go", "settings.json"), `{}`)
	writeFile(t, filepath.Join(dir, "python", "settings.json"), `{}`)

	got := CheckProfilesDir(dir)
	assert.True(t, got.Passed)
	assert.Contains(t, got.Message, "(2 profiles)")

	got = CheckProfilesDir(filepath.Join(dir, "absent"))
	assert.False(t, got.Passed)
	assert.False(t, got.Optional)
	assert.Contains(t, got.Message, "not found")
}

func TestCheckCommonProfile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		settings     string
		wantPassed   bool
		wantOptional bool
	}{
		"present":   {settings: `{"editor.tabSize": 2}`, wantPassed: true},
		"missing":   {wantOptional: true},
		"malformed": {settings: `{"editor.tabSize": `},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.settings != "" {
				writeFile(t, filepath.Join(dir, ".project-common", "settings.json"), tt.settings)
			}

			got := CheckCommonProfile(dir, "")
			assert.Equal(t, tt.wantPassed, got.Passed, got.Message)
			assert.Equal(t, tt.wantOptional, got.Optional)
		})
	}
}

func TestCheckUserSettings(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup       func(t *testing.T, dir string) string
		wantPassed  bool
		wantMessage string
	}{
		"no settings yet": {
			setup:       func(t *testing.T, dir string) string { return dir },
			wantPassed:  true,
			wantMessage: "no settings.json yet",
		},
		"settings parse": {
			setup: func(t *testing.T, dir string) string {
				writeFile(t, filepath.Join(dir, "settings.json"), `{"a": 1, "b": 2}`)
				return dir
			},
			wantPassed:  true,
			wantMessage: "(2 keys)",
		},
		"malformed settings": {
			setup: func(t *testing.T, dir string) string {
				writeFile(t, filepath.Join(dir, "settings.json"), `[1]`)
				return dir
			},
		},
		"missing directory": {
			setup:       func(t *testing.T, dir string) string { return filepath.Join(dir, "absent") },
			wantMessage: "not found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			override := tt.setup(t, t.TempDir())

			got := CheckUserSettings(override, userdir.Env{})
			assert.Equal(t, tt.wantPassed, got.Passed, got.Message)
			assert.Contains(t, got.Message, tt.wantMessage)
		})
	}
}

func TestCheckCodeCLI(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		code         Executable
		wantPassed   bool
		wantOptional bool
		wantMessage  string
	}{
		"found": {
			code:        fakeExecutable{name: "code", path: "/usr/bin/code"},
			wantPassed:  true,
			wantMessage: "/usr/bin/code",
		},
		"not on path": {
			code:         fakeExecutable{name: "codium", err: errors.New("not found")},
			wantOptional: true,
			wantMessage:  "codium not found in PATH",
		},
		"invalid command": {
			wantOptional: true,
			wantMessage:  "code_cmd",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := CheckCodeCLI(tt.code)
			assert.Equal(t, tt.wantPassed, got.Passed)
			assert.Equal(t, tt.wantOptional, got.Optional)
			assert.Contains(t, got.Message, tt.wantMessage)
		})
	}
}

func TestCheckProfilesRepository(t *testing.T) {
	t.Parallel()

	t.Run("not a repository", func(t *testing.T) {
		t.Parallel()
		got := CheckProfilesRepository(t.TempDir())
		assert.False(t, got.Passed)
		assert.True(t, got.Optional)
		assert.Contains(t, got.Message, "not a git repository")
	})

	t.Run("clean repository", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
			InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
		})
		require.NoError(t, err)
		writeFile(t, filepath.Join(dir, "go", "settings.json"), `{}`)
		wt, err := repo.Worktree()
		require.NoError(t, err)
		_, err = wt.Add("go/settings.json")
		require.NoError(t, err)
		_, err = wt.Commit("add go", &gogit.CommitOptions{
			Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)

		got := CheckProfilesRepository(dir)
		assert.True(t, got.Passed, got.Message)
		assert.Contains(t, got.Message, "branch main, clean")

		writeFile(t, filepath.Join(dir, "python", "settings.json"), `{}`)
		got = CheckProfilesRepository(dir)
		assert.Contains(t, got.Message, "uncommitted changes")
	})
}

func TestCheckExplainFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	valid := filepath.Join(dir, "explain.json")
	writeFile(t, valid, `[{"id": "golang.go", "explain": "Go"}]`)
	broken := filepath.Join(dir, "broken.json")
	writeFile(t, broken, `{`)

	tests := map[string]struct {
		path         string
		wantPassed   bool
		wantOptional bool
	}{
		"unset":   {path: "", wantOptional: true},
		"missing": {path: filepath.Join(dir, "absent.json"), wantOptional: true},
		"valid":   {path: valid, wantPassed: true},
		"broken":  {path: broken},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := CheckExplainFile(tt.path)
			assert.Equal(t, tt.wantPassed, got.Passed, got.Message)
			assert.Equal(t, tt.wantOptional, got.Optional)
		})
	}
}

func TestRunHealthChecks(t *testing.T) {
	t.Parallel()

	profiles := t.TempDir()
	user := t.TempDir()
	writeFile(t, filepath.Join(profiles, ".project-common", "settings.json"), `{}`)

	report := RunHealthChecks(Inputs{
		ProfilesDir: profiles,
		UserDir:     user,
		CodeCLI:     fakeExecutable{name: "code", err: errors.New("missing")},
	})
	require.Len(t, report.Checks, 6)
	assert.True(t, report.Passed, "optional failures keep the report passing")

	report = RunHealthChecks(Inputs{
		ProfilesDir: filepath.Join(profiles, "absent"),
		UserDir:     user,
	})
	assert.False(t, report.Passed)
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	report := &HealthReport{
		Checks: []CheckResult{
			{Name: "Profiles directory", Passed: true, Message: "/p (2 profiles)"},
			{Name: "Editor CLI", Optional: true, Message: "code not found in PATH"},
			{Name: "User settings", Message: "user settings directory not found"},
		},
	}

	assert.Equal(t,
		"✓ Profiles directory: /p (2 profiles)\n"+
			"○ Editor CLI: code not found in PATH\n"+
			"✗ User settings: user settings directory not found\n",
		FormatReport(report))
}
