package extension

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/profilesync/profilesync/internal/profile"
)

// loadParallelism bounds concurrent extension list reads.
const loadParallelism = 8

// Status is an extension's state in one profile.
type Status string

const (
	StatusAbsent   Status = ""
	StatusCommon   Status = "common"
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Row is one extension across all profiles.
type Row struct {
	ID          string
	Explanation string
	// Common rows are listed by the common profile and always installed.
	Common bool
	Status map[string]Status
}

// Matrix is the extension overview of a profiles directory. Selectable rows
// come first, sorted by ID, followed by the common rows.
type Matrix struct {
	Profiles []string
	Rows     []Row
	// Warnings lists profiles without an extension list.
	Warnings []string
}

// BuildMatrix collects the extension lists of every profile in repo.
// Profiles without vscode-extensions.json are skipped with a warning; a
// malformed list is an error.
func BuildMatrix(repo *profile.Repository, explanations profile.Explanations) (*Matrix, error) {
	names, err := repo.List()
	if err != nil {
		return nil, err
	}

	m := &Matrix{Profiles: names}
	perProfile := make(map[string]map[string]profile.Extension, len(names))
	ids := make(map[string]bool)

	lists := make([][]profile.Extension, len(names))
	missing := make([]bool, len(names))
	var g errgroup.Group
	g.SetLimit(loadParallelism)
	for i, name := range names {
		g.Go(func() error {
			exts, err := repo.LoadExtensions(name)
			if errors.Is(err, os.ErrNotExist) {
				missing[i] = true
				return nil
			}
			lists[i] = exts
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, name := range names {
		if missing[i] {
			m.Warnings = append(m.Warnings, fmt.Sprintf("%s has no %s", name, profile.ExtensionsFile))
			continue
		}
		exts := lists[i]
		byID := make(map[string]profile.Extension, len(exts))
		for _, e := range exts {
			byID[e.ID] = e
			ids[e.ID] = true
		}
		perProfile[name] = byID
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var common []Row
	for _, id := range sorted {
		row := Row{ID: id, Explanation: explanations[id], Status: make(map[string]Status, len(names))}
		for _, name := range names {
			e, ok := perProfile[name][id]
			switch {
			case !ok:
				row.Status[name] = StatusAbsent
			case name == repo.Common:
				row.Status[name] = StatusCommon
				row.Common = true
			case e.Enabled:
				row.Status[name] = StatusEnabled
			default:
				row.Status[name] = StatusDisabled
			}
		}
		if row.Common {
			common = append(common, row)
		} else {
			m.Rows = append(m.Rows, row)
		}
	}
	m.Rows = append(m.Rows, common...)
	return m, nil
}

// Selectable returns the rows not covered by the common profile.
func (m *Matrix) Selectable() []Row {
	var out []Row
	for _, r := range m.Rows {
		if !r.Common {
			out = append(out, r)
		}
	}
	return out
}

// CommonIDs returns the IDs of the common rows.
func (m *Matrix) CommonIDs() []string {
	var out []string
	for _, r := range m.Rows {
		if r.Common {
			out = append(out, r.ID)
		}
	}
	return out
}

// MissingExplanations counts rows without an explanation.
func (m *Matrix) MissingExplanations() int {
	n := 0
	for _, r := range m.Rows {
		if r.Explanation == "" {
			n++
		}
	}
	return n
}

// EnabledIn returns the selectable IDs enabled in any of the given profiles.
func (m *Matrix) EnabledIn(profiles ...string) []string {
	var out []string
	for _, r := range m.Selectable() {
		for _, p := range profiles {
			if r.Status[p] == StatusEnabled {
				out = append(out, r.ID)
				break
			}
		}
	}
	return out
}

// Lookup resolves IDs case-insensitively against the matrix and returns the
// canonical IDs plus any that are unknown.
func (m *Matrix) Lookup(ids []string) (known, unknown []string) {
	index := make(map[string]string, len(m.Rows))
	for _, r := range m.Rows {
		index[strings.ToLower(r.ID)] = r.ID
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if canon, ok := index[strings.ToLower(id)]; ok {
			known = append(known, canon)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}
