package history

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seed(t *testing.T, stateDir string, commands ...string) {
	t.Helper()
	file := &HistoryFile{}
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, c := range commands {
		file.Entries = append(file.Entries, HistoryEntry{
			ID:        fmt.Sprintf("seed-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Command:   c,
			Duration:  "1s",
		})
	}
	require.NoError(t, SaveHistory(stateDir, file))
}

func TestWriter_LogEntry(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		seeded []string
		want   []string
	}{
		"first run":    {want: []string{"apply"}},
		"appends last": {seeded: []string{"export", "merge"}, want: []string{"export", "merge", "apply"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if len(tt.seeded) > 0 {
				seed(t, dir, tt.seeded...)
			}

			id := NewWriter(dir, 200).LogEntry(HistoryEntry{
				Command:   "apply",
				Profiles:  []string{".project-common", "alice"},
				Decisions: map[string]int{"added": 2, "overwrite": 1},
				Conflicts: 1,
				Duration:  "30ms",
			})

			file, err := LoadHistory(dir)
			require.NoError(t, err)
			var commands []string
			for _, e := range file.Entries {
				commands = append(commands, e.Command)
			}
			assert.Equal(t, tt.want, commands)

			last := file.Entries[len(file.Entries)-1]
			assert.Equal(t, id, last.ID)
			_, err = uuid.Parse(last.ID)
			assert.NoError(t, err)
			assert.False(t, last.Timestamp.IsZero())
			assert.Equal(t, []string{".project-common", "alice"}, last.Profiles)
			assert.Equal(t, map[string]int{"added": 2, "overwrite": 1}, last.Decisions)
			assert.Equal(t, 1, last.Conflicts)
		})
	}
}

func TestWriter_KeepsCallerIDAndTime(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewWriter(dir, 0).LogEntry(HistoryEntry{ID: "fixed", Timestamp: at, Command: "export"})
	assert.Equal(t, "fixed", id)

	file, err := LoadHistory(dir)
	require.NoError(t, err)
	require.Len(t, file.Entries, 1)
	assert.True(t, at.Equal(file.Entries[0].Timestamp))
}

func TestWriter_Prunes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seed(t, dir, "a", "b", "c", "d")

	NewWriter(dir, 3).LogEntry(HistoryEntry{Command: "e"})

	file, err := LoadHistory(dir)
	require.NoError(t, err)
	require.Len(t, file.Entries, 3)
	assert.Equal(t, "c", file.Entries[0].Command)
	assert.Equal(t, "e", file.Entries[2].Command)
}

func TestKeepNewest(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		limit := rapid.IntRange(0, 30).Draw(t, "limit")
		entries := make([]HistoryEntry, n)
		for i := range entries {
			entries[i].ID = fmt.Sprint(i)
		}

		got := keepNewest(entries, limit)

		want := n
		if limit > 0 && n > limit {
			want = limit
		}
		if len(got) != want {
			t.Fatalf("len = %d, want %d", len(got), want)
		}
		if want > 0 && got[len(got)-1].ID != fmt.Sprint(n-1) {
			t.Fatalf("newest entry dropped: last = %s", got[len(got)-1].ID)
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].ID == got[i].ID {
				t.Fatalf("duplicate entry %s", got[i].ID)
			}
		}
	})
}

func TestWriter_LogCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	NewWriter(dir, 200).LogCommand("export", []string{"alice"}, 3, 2*time.Second+340*time.Microsecond)

	file, err := LoadHistory(dir)
	require.NoError(t, err)
	require.Len(t, file.Entries, 1)
	e := file.Entries[0]
	assert.Equal(t, "export", e.Command)
	assert.Equal(t, []string{"alice"}, e.Profiles)
	assert.Equal(t, 3, e.ExitCode)
	assert.Equal(t, "2s", e.Duration)
}

func TestWriter_Concurrent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				w.LogEntry(HistoryEntry{Command: fmt.Sprintf("apply-%d-%d", i, j)})
			}
		}(i)
	}
	wg.Wait()

	file, err := LoadHistory(dir)
	require.NoError(t, err)
	assert.Len(t, file.Entries, 32)
}

func TestWriter_FailureOnlyWarns(t *testing.T) {
	t.Parallel()

	notADir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))

	var warn bytes.Buffer
	w := NewWriter(notADir, 200)
	w.Warn = &warn

	assert.NotEmpty(t, w.LogEntry(HistoryEntry{Command: "apply"}))
	assert.Contains(t, warn.String(), "Warning: failed to log history")
}

func TestLoadHistory(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		want    int
		wantErr string
	}{
		"missing file": {},
		"two entries": {
			content: "entries:\n  - id: a\n    command: apply\n  - id: b\n    command: export\n",
			want:    2,
		},
		"malformed": {
			content: "entries: [unclosed\n",
			wantErr: "parsing history file",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.content != "" {
				require.NoError(t, os.WriteFile(HistoryPath(dir), []byte(tt.content), 0o644))
			}

			got, err := LoadHistory(dir)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got.Entries, tt.want)
		})
	}
}

func TestHistoryFile_Recent(t *testing.T) {
	t.Parallel()

	h := &HistoryFile{Entries: []HistoryEntry{{ID: "1"}, {ID: "2"}, {ID: "3"}}}

	tests := map[string]struct {
		limit int
		want  []string
	}{
		"all":          {limit: 0, want: []string{"3", "2", "1"}},
		"limited":      {limit: 2, want: []string{"3", "2"}},
		"over the cap": {limit: 10, want: []string{"3", "2", "1"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var ids []string
			for _, e := range h.Recent(tt.limit) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestClearHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	NewWriter(dir, 10).LogEntry(HistoryEntry{Command: "apply"})
	require.FileExists(t, HistoryPath(dir))

	require.NoError(t, ClearHistory(dir))
	assert.NoFileExists(t, HistoryPath(dir))
	assert.NoError(t, ClearHistory(dir), "clearing twice is fine")
}
