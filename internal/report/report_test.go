package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/settings"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt:      time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		SelectedProfiles: []string{"go"},
		CommonProfile:    ".project-common",
		SafePreset:       true,
		Decisions: []merge.Decision{
			{
				Key: "editor.fontSize", Path: []string{"editor.fontSize"}, Action: merge.ActionOverwrite,
				Source: "go", Old: settings.Int(12), HadOld: true, New: settings.Int(14),
			},
			{
				Key: "python.analysis.extraPaths", Path: []string{"python.analysis.extraPaths"}, Action: merge.ActionAdded,
				Source: "go", New: settings.Array(settings.String("a"), settings.String("b")),
			},
			{
				Key: "http.proxy", Path: []string{"http.proxy"}, Action: merge.ActionProtected,
				Source: "user", Old: settings.String("http://proxy:8080"), HadOld: true, New: settings.String("http://proxy:8080"),
			},
		},
		Extensions: &extension.InstallResult{
			Installed: []string{"golang.go"},
			Skipped:   []string{"editorconfig.editorconfig"},
			Failed:    []string{"bad.ext"},
			Errors:    map[string]string{"bad.ext": "installing bad.ext: exit status 1"},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, sampleReport()))

	want := "# VS Code Settings and Extensions Report\n" +
		"\n" +
		"Generated: 2026-10-19 09:30:00\n" +
		"Mode: apply\n" +
		"\n" +
		"## Extensions\n" +
		"\n" +
		"- Installed: 1\n" +
		"- Skipped (already installed): 1\n" +
		"- Failed: 1\n" +
		"\n" +
		"### Installed extensions\n" +
		"\n" +
		"- golang.go\n" +
		"\n" +
		"### Failed extensions\n" +
		"\n" +
		"- bad.ext: installing bad.ext: exit status 1\n" +
		"\n" +
		"## Settings merge\n" +
		"\n" +
		"### Applied profiles\n" +
		"\n" +
		"- go\n" +
		"- Common profile: .project-common (always applied)\n" +
		"- SafePreset: on\n" +
		"\n" +
		"### Decisions\n" +
		"\n" +
		"| Key | Action | Source | Old | New |\n" +
		"|-----|--------|--------|-----|-----|\n" +
		"| `editor.fontSize` | overwrite | go | `12` | `14` |\n" +
		"| `python.analysis.extraPaths` | added | go | `[none]` | `[2 items]` |\n" +
		"| `http.proxy` | protected | user | `http://proxy:8080` | `http://proxy:8080` |\n" +
		"\n" +
		"---\n" +
		"*This report was generated automatically by profilesync.*\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderMarkdown_Empty(t *testing.T) {
	t.Parallel()

	r := &Report{
		GeneratedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DryRun:        true,
		CommonProfile: ".project-common",
		Extensions:    &extension.InstallResult{},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Mode: dry run (nothing applied)\n")
	assert.Contains(t, out, "### Installed extensions\n\n(none)\n")
	assert.Contains(t, out, "### Failed extensions\n\n(none)\n")
	assert.Contains(t, out, "- (none selected)\n")
	assert.Contains(t, out, "- SafePreset: off\n")
	assert.Contains(t, out, "| - | - | - | - | - |\n")
}

func TestRenderMarkdown_SkippedExtensionsAndEscaping(t *testing.T) {
	t.Parallel()

	r := &Report{
		CommonProfile: ".project-common",
		Decisions: []merge.Decision{{
			Key: "terminal.integrated.shellArgs", Action: merge.ActionOverwrite, Source: "win",
			Old: settings.String("a|b"), HadOld: true, New: settings.String("`x`"), Conflict: true,
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Extension installation was skipped.\n")
	assert.Contains(t, out, "| overwrite (conflict) | win | `a\\|b` | `'x'` |")
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderYAML(&buf, sampleReport()))

	var got struct {
		GeneratedAt string         `yaml:"generated_at"`
		Profiles    []string       `yaml:"profiles"`
		SafePreset  bool           `yaml:"safe_preset"`
		Counts      map[string]int `yaml:"counts"`
		Extensions  struct {
			Installed []string          `yaml:"installed"`
			Errors    map[string]string `yaml:"errors"`
		} `yaml:"extensions"`
		Decisions []map[string]any `yaml:"decisions"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "2026-10-19T09:30:00Z", got.GeneratedAt)
	assert.Equal(t, []string{"go"}, got.Profiles)
	assert.True(t, got.SafePreset)
	assert.Equal(t, map[string]int{"added": 1, "overwrite": 1, "merged": 0, "protected": 1, "unchanged": 0}, got.Counts)
	assert.Equal(t, []string{"golang.go"}, got.Extensions.Installed)
	assert.Equal(t, "installing bad.ext: exit status 1", got.Extensions.Errors["bad.ext"])

	require.Len(t, got.Decisions, 3)
	assert.Equal(t, "editor.fontSize", got.Decisions[0]["key"])
	assert.Equal(t, "12", got.Decisions[0]["old"])
	assert.Equal(t, `["a","b"]`, got.Decisions[1]["new"])
	assert.NotContains(t, got.Decisions[1], "old")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		want    Format
		wantErr bool
	}{
		"empty":    {in: "", want: FormatMarkdown},
		"markdown": {in: "markdown", want: FormatMarkdown},
		"md":       {in: " MD ", want: FormatMarkdown},
		"yaml":     {in: "yaml", want: FormatYAML},
		"yml":      {in: "yml", want: FormatYAML},
		"unknown":  {in: "html", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	obj, err := settings.FromMap(map[string]any{"**/.git": true})
	require.NoError(t, err)

	tests := map[string]struct {
		value   settings.Value
		present bool
		want    string
	}{
		"absent":      {present: false, want: "[none]"},
		"string":      {value: settings.String("One Dark Pro"), present: true, want: "One Dark Pro"},
		"non-ascii":   {value: settings.String("ゆたぼん"), present: true, want: "ゆたぼん"},
		"number":      {value: settings.Int(14), present: true, want: "14"},
		"bool":        {value: settings.Bool(false), present: true, want: "false"},
		"null":        {value: settings.Null(), present: true, want: "null"},
		"empty array": {value: settings.Array(), present: true, want: "[0 items]"},
		"array":       {value: settings.Array(settings.Int(1), settings.Int(2)), present: true, want: "[2 items]"},
		"object":      {value: settings.Object(obj), present: true, want: `{"**/.git":true}`},
		"long string": {value: settings.String(strings.Repeat("x", 80)), present: true, want: strings.Repeat("x", 59) + "…"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatValue(tt.value, tt.present))
		})
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "apply.yaml")
	require.NoError(t, WriteFile(path, sampleReport(), FormatYAML))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "common_profile: .project-common")

	assert.Error(t, WriteFile(filepath.Join(dir, "x"), sampleReport(), Format("html")))
}

func TestPrintSummary(t *testing.T) {
	// Not parallel: toggles the global color switch.
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	r := sampleReport()
	r.DryRun = true
	r.Decisions[0].Conflict = true

	var buf bytes.Buffer
	PrintSummary(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "[DryRun] nothing was applied")
	assert.Contains(t, out, "installed: 1\n")
	assert.Contains(t, out, "already installed: 1\n")
	assert.Contains(t, out, "failed: 1 (bad.ext)")
	assert.Contains(t, out, "selected: go\n")
	assert.Contains(t, out, "SafePreset: on\n")
	assert.Contains(t, out, "added: 1\n")
	assert.Contains(t, out, "overwritten: 1\n")
	assert.Contains(t, out, "protected: 1\n")
	assert.Contains(t, out, "type conflicts: 1")
	assert.NotContains(t, out, "merged:")
}

func TestPrintSummary_SkippedExtensions(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	PrintSummary(&buf, &Report{CommonProfile: ".project-common"})
	out := buf.String()

	assert.Contains(t, out, "skipped\n")
	assert.Contains(t, out, "selected: none\n")
	assert.NotContains(t, out, "type conflicts")
}
