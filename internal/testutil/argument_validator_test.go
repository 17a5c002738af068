package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEditorArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		editor  string
		args    []string
		wantErr string
	}{
		"list extensions":     {editor: "code", args: []string{"--list-extensions"}},
		"list with versions":  {editor: "code", args: []string{"--list-extensions", "--show-versions"}},
		"install":             {editor: "code", args: []string{"--install-extension", "ms-python.python", "--force"}},
		"install pinned":      {editor: "codium", args: []string{"--install-extension", "golang.go@0.41.0", "--force"}},
		"strict ssl off":      {editor: "code", args: []string{"--install-extension", "golang.go", "--force", "--strict-ssl", "false"}},
		"equals syntax":       {editor: "code", args: []string{"--install-extension=golang.go"}},
		"no args":             {editor: "code"},
		"bad extension id":    {editor: "code", args: []string{"--install-extension", "not an id"}, wantErr: "invalid value"},
		"missing value":       {editor: "code", args: []string{"--install-extension", "--force"}, wantErr: "requires a value"},
		"value at end":        {editor: "code", args: []string{"--install-extension"}, wantErr: "requires a value"},
		"bad strict ssl":      {editor: "code", args: []string{"--strict-ssl", "maybe"}, wantErr: "invalid value"},
		"switch with value":   {editor: "code", args: []string{"--force=yes"}, wantErr: "takes no value"},
		"unknown flag":        {editor: "code", args: []string{"--uninstall-everything"}, wantErr: "unknown code flag"},
		"positional argument": {editor: "code", args: []string{"golang.go"}, wantErr: "unexpected argument"},
		"unknown editor":      {editor: "atom", args: []string{"--list-extensions"}, wantErr: "unknown editor"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := ValidateEditorArgs(tt.editor, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEditorCLI_Required(t *testing.T) {
	t.Parallel()

	cli := EditorCLI{
		Binary:   "installer",
		Flags:    map[string]EditorFlag{"force": {}, "other": {}},
		Required: []string{"force"},
	}

	assert.NoError(t, cli.Validate([]string{"--force"}))
	assert.ErrorContains(t, cli.Validate([]string{"--other"}), "missing required flag: --force")
}

func TestLookupEditor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		wantBinary string
		wantOK     bool
	}{
		"code":   {wantBinary: "code", wantOK: true},
		"codium": {wantBinary: "codium", wantOK: true},
		"vim":    {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cli, ok := LookupEditor(name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBinary, cli.Binary)
		})
	}
}

func TestFlagName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "force", flagName("--Force"))
	assert.Equal(t, "v", flagName("-v"))
	assert.Equal(t, "strict-ssl=false", flagName("--strict-ssl=false"))
}
