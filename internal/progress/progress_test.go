package progress

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps      TerminalCapabilities
		wantCheck string
		wantSet   int
	}{
		"unicode terminal": {
			caps:      TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			wantCheck: "✓",
			wantSet:   14,
		},
		"ascii fallback": {
			caps:      TerminalCapabilities{IsTTY: false},
			wantCheck: "[OK]",
			wantSet:   9,
		},
		"tty forced to ascii": {
			caps:      TerminalCapabilities{IsTTY: true, SupportsColor: true},
			wantCheck: "[OK]",
			wantSet:   9,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := SelectSymbols(tt.caps)
			assert.Equal(t, tt.wantCheck, got.Checkmark)
			assert.Equal(t, tt.wantSet, got.SpinnerSet)
		})
	}
}

func TestTracker_PlainOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := NewTracker(&buf, 3, TerminalCapabilities{})

	tr.Start("ms-python.python")
	tr.Success("")
	tr.Start("golang.go")
	tr.Skip("already installed")
	tr.Start("bad.ext")
	tr.Fail("exit status 1")

	assert.Equal(t, 3, tr.Done())
	assert.Equal(t,
		"[OK] [1/3] ms-python.python\n"+
			"[SKIP] [2/3] golang.go (already installed)\n"+
			"[FAIL] [3/3] bad.ext (exit status 1)\n",
		buf.String())
}

func TestDetectCapabilities_NotATerminal(t *testing.T) {
	t.Parallel()

	file, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })

	env := func(string) string { return "" }
	tests := map[string]struct {
		w io.Writer
	}{
		"buffer":       {w: &bytes.Buffer{}},
		"regular file": {w: file},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, TerminalCapabilities{}, DetectCapabilities(tt.w, env))
		})
	}
}

func TestIsCI(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value string
		want  bool
	}{
		"unset": {},
		"true":  {value: "true", want: true},
		"one":   {value: "1", want: true},
		"FALSE": {value: "FALSE"},
		"zero":  {value: "0"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			getenv := func(key string) string {
				if key == "CI" {
					return tt.value
				}
				return ""
			}
			assert.Equal(t, tt.want, isCI(getenv))
		})
	}
}

func TestTracker_NoSpinnerWithoutAnimation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := NewTracker(&buf, 1, TerminalCapabilities{IsTTY: true, SupportsUnicode: true})

	tr.Start("golang.go")
	tr.Success("")

	assert.Equal(t, "✓ [1/1] golang.go\n", buf.String())
}
