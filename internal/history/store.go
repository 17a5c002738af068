// Package history records profilesync runs in a YAML file under the state
// directory so past applies and exports can be reviewed with
// `profilesync history`.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryFileName is the file inside the state directory holding the history.
const HistoryFileName = "history.yaml"

// HistoryEntry is a single recorded run.
type HistoryEntry struct {
	ID        string         `yaml:"id"`
	Timestamp time.Time      `yaml:"timestamp"`
	Command   string         `yaml:"command"`
	Profiles  []string       `yaml:"profiles,omitempty"`
	Decisions map[string]int `yaml:"decisions,omitempty"`
	Conflicts int            `yaml:"conflicts,omitempty"`
	DryRun    bool           `yaml:"dry_run,omitempty"`
	ExitCode  int            `yaml:"exit_code"`
	Duration  string         `yaml:"duration"`
}

// HistoryFile is the on-disk document.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// HistoryPath returns the history file path for a state directory.
func HistoryPath(stateDir string) string {
	return filepath.Join(stateDir, HistoryFileName)
}

// LoadHistory reads the history file. A missing file is an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(HistoryPath(stateDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &HistoryFile{}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", HistoryPath(stateDir), err)
	}
	return &history, nil
}

// SaveHistory writes the history file atomically, creating the state
// directory when needed.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, HistoryFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, HistoryPath(stateDir)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// ClearHistory removes the history file. Clearing a missing file is not an error.
func ClearHistory(stateDir string) error {
	if err := os.Remove(HistoryPath(stateDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing history file: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, newest first.
// A limit of zero or less returns every entry.
func (h *HistoryFile) Recent(limit int) []HistoryEntry {
	n := len(h.Entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}
