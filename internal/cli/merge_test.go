package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilesync/profilesync/internal/cli/shared"
	"github.com/profilesync/profilesync/internal/history"
	"github.com/profilesync/profilesync/internal/settings"
)

func TestMerge_PrintsMergedJSON(t *testing.T) {
	e := newCLIEnv(t)
	base := e.writeFile(t, "base.json", `{"editor.tabSize": 2, "files.exclude": {"**/.git": true}}`)
	src := e.writeFile(t, "go.json", `{"editor.tabSize": 4, "files.exclude": {"**/vendor": true}}`)

	out, err := e.run(t, "", "merge", base, src)
	require.NoError(t, err, out)

	doc, err := settings.Parse([]byte(out))
	require.NoError(t, err, out)
	tab, _ := doc.Get("editor.tabSize")
	exclude, _ := doc.Get("files.exclude")
	assert.Equal(t, "4", tab.String())
	assert.Equal(t, `{"**/.git":true,"**/vendor":true}`, exclude.String())
}

func TestMerge_Options(t *testing.T) {
	tests := map[string]struct {
		args      []string
		wantTheme string
		wantSize  string
	}{
		"source wins by default": {
			wantTheme: `"Monokai"`,
			wantSize:  "16",
		},
		"protect keeps base value": {
			args:      []string{"--protect", "editor.fontSize"},
			wantTheme: `"Monokai"`,
			wantSize:  "14",
		},
		"safe preset keeps appearance": {
			args:      []string{"--safe-preset"},
			wantTheme: `"Default Dark+"`,
			wantSize:  "14",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newCLIEnv(t)
			base := e.writeFile(t, "base.json", `{"workbench.colorTheme": "Default Dark+", "editor.fontSize": 14}`)
			src := e.writeFile(t, "theme.json", `{"workbench.colorTheme": "Monokai", "editor.fontSize": 16}`)
			outPath := filepath.Join(e.root, "merged.json")

			args := append([]string{"merge", base, src, "--output", outPath}, tt.args...)
			out, err := e.run(t, "", args...)
			require.NoError(t, err, out)
			assert.Contains(t, out, "wrote "+outPath)

			doc, err := settings.ReadFile(outPath)
			require.NoError(t, err)
			theme, _ := doc.Get("workbench.colorTheme")
			size, _ := doc.Get("editor.fontSize")
			assert.Equal(t, tt.wantTheme, theme.String())
			assert.Equal(t, tt.wantSize, size.String())
		})
	}
}

func TestMerge_ShowDecisionsAndConflicts(t *testing.T) {
	e := newCLIEnv(t)
	base := e.writeFile(t, "base.json", `{"files.exclude": {"**/.git": true}}`)
	src := e.writeFile(t, "profiles/go/settings.json", `{"files.exclude": ["vendor"]}`)

	out, err := e.run(t, "", "merge", base, src, "--show-decisions", "--output", filepath.Join(e.root, "out.json"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "files.exclude")
	assert.Contains(t, out, "overwrite")
	assert.Contains(t, out, "changed type; go value taken")
}

func TestMerge_Errors(t *testing.T) {
	tests := map[string]struct {
		files    map[string]string
		args     []string
		wantCode int
	}{
		"no arguments": {
			args:     nil,
			wantCode: shared.ExitInvalidArguments,
		},
		"missing source": {
			files:    map[string]string{"base.json": `{}`},
			args:     []string{"base.json", "absent.json"},
			wantCode: shared.ExitInvalidArguments,
		},
		"malformed base": {
			files:    map[string]string{"base.json": `{"a": `, "src.json": `{}`},
			args:     []string{"base.json", "src.json"},
			wantCode: shared.ExitMalformedInput,
		},
		"malformed source": {
			files:    map[string]string{"base.json": `{}`, "src.json": `[1, 2]`},
			args:     []string{"base.json", "src.json"},
			wantCode: shared.ExitMalformedInput,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := newCLIEnv(t)
			for rel, content := range tt.files {
				e.writeFile(t, rel, content)
			}
			args := []string{"merge"}
			for _, a := range tt.args {
				args = append(args, filepath.Join(e.root, a))
			}

			_, err := e.run(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, shared.ExitCode(err))
		})
	}
}

func TestMerge_LogsHistory(t *testing.T) {
	e := newCLIEnv(t)
	base := e.writeFile(t, "base.json", `{"a": 1}`)
	src := e.writeFile(t, "profiles/go/settings.json", `{"a": 2, "b": 3}`)

	_, err := e.run(t, "", "merge", base, src)
	require.NoError(t, err)

	hist, err := history.LoadHistory(e.state)
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	entry := hist.Entries[0]
	assert.Equal(t, "merge", entry.Command)
	assert.Equal(t, []string{"go"}, entry.Profiles)
	assert.True(t, entry.DryRun)
	assert.Equal(t, 1, entry.Decisions["overwrite"])
	assert.Equal(t, 1, entry.Decisions["added"])
}

func TestSourceLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path  string
		taken []string
		want  string
	}{
		"plain file":         {path: "/tmp/theme.json", want: "theme"},
		"profile settings":   {path: "/repo/go/settings.json", want: "go"},
		"bare settings":      {path: "settings.json", want: "settings"},
		"repeated label":     {path: "/a/go/settings.json", taken: []string{"go"}, want: "go#2"},
		"repeated twice":     {path: "/b/go.json", taken: []string{"go", "go#2"}, want: "go#3"},
		"non json extension": {path: "/tmp/theme.jsonc", want: "theme.jsonc"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sourceLabel(filepath.FromSlash(tt.path), tt.taken))
		})
	}
}
