package history

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer appends entries to the history file of a state directory. Writes
// from one Writer are serialized; the file keeps at most MaxEntries entries.
type Writer struct {
	StateDir string
	// MaxEntries bounds the file; the oldest entries go first. Zero keeps all.
	MaxEntries int
	// Warn receives write failures, which never fail the command being
	// recorded. Nil means os.Stderr.
	Warn io.Writer

	mu sync.Mutex
}

func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries, Warn: os.Stderr}
}

// LogEntry records entry, filling in a missing ID and timestamp, and returns
// the entry ID.
func (w *Writer) LogEntry(entry HistoryEntry) string {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := w.append(entry); err != nil {
		out := w.Warn
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Warning: failed to log history: %v\n", err)
	}
	return entry.ID
}

// LogCommand records a run of command that used profiles.
func (w *Writer) LogCommand(command string, profiles []string, exitCode int, duration time.Duration) string {
	return w.LogEntry(HistoryEntry{
		Command:  command,
		Profiles: profiles,
		ExitCode: exitCode,
		Duration: duration.Round(time.Millisecond).String(),
	})
}

func (w *Writer) append(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := LoadHistory(w.StateDir)
	if err != nil {
		return err
	}
	file.Entries = keepNewest(append(file.Entries, entry), w.MaxEntries)
	return SaveHistory(w.StateDir, file)
}

// keepNewest drops entries from the front until at most limit remain.
func keepNewest(entries []HistoryEntry, limit int) []HistoryEntry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
