package report

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/merge"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = cellStyle.Foreground(lipgloss.Color("245"))
	warnStyle   = cellStyle.Foreground(lipgloss.Color("214"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

// DecisionTable renders decisions for --show-decisions. Conflicts are
// highlighted and protected keys dimmed.
func DecisionTable(decisions []merge.Decision) string {
	if len(decisions) == 0 {
		return "No settings changed.\n"
	}

	t := newTable("KEY", "ACTION", "SOURCE", "OLD", "NEW")
	for _, d := range decisions {
		action := string(d.Action)
		if d.Conflict {
			action += "!"
		}
		t.Row(d.Key, action, d.Source, FormatValue(d.Old, d.HadOld), FormatValue(d.New, true))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row < 0 || row >= len(decisions) {
			return cellStyle
		}
		d := decisions[row]
		switch {
		case d.Conflict:
			return warnStyle
		case d.Action == merge.ActionProtected || d.Action == merge.ActionUnchanged:
			return dimStyle
		}
		return cellStyle
	})
	return t.String() + "\n"
}

// statusLabels are the matrix cell texts per status.
var statusLabels = map[extension.Status]string{
	extension.StatusAbsent:   "",
	extension.StatusCommon:   "common",
	extension.StatusEnabled:  "✓",
	extension.StatusDisabled: "disabled",
}

// MatrixTable renders the extension matrix. Selectable rows are numbered in
// the order the selection prompt uses; common rows are marked with "*".
func MatrixTable(m *extension.Matrix) string {
	if len(m.Rows) == 0 {
		return "No extensions listed in any profile.\n"
	}

	headers := append([]string{"#", "EXTENSION"}, m.Profiles...)
	headers = append(headers, "DESCRIPTION")
	t := newTable(headers...)

	n := 0
	for _, r := range m.Rows {
		num := "*"
		if !r.Common {
			n++
			num = strconv.Itoa(n)
		}
		cells := []string{num, r.ID}
		for _, p := range m.Profiles {
			cells = append(cells, statusLabels[r.Status[p]])
		}
		cells = append(cells, r.Explanation)
		t.Row(cells...)
	}

	rows := m.Rows
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(rows) && rows[row].Common {
			return dimStyle
		}
		return cellStyle
	})
	return t.String() + "\n"
}

// ProfileRow is one line of the profile listing.
type ProfileRow struct {
	Name       string
	Common     bool
	ColorTheme string
	IconTheme  string
	Extensions int
	// Err is set when the profile's settings could not be read.
	Err error
}

// ProfileTable renders the profile listing. The common profile is dimmed.
func ProfileTable(rows []ProfileRow) string {
	if len(rows) == 0 {
		return "No profiles found.\n"
	}

	t := newTable("PROFILE", "COLOR THEME", "ICON THEME", "EXTENSIONS")
	for _, r := range rows {
		name := r.Name
		if r.Common {
			name += " (common)"
		}
		if r.Err != nil {
			t.Row(name, "unreadable", "", strconv.Itoa(r.Extensions))
			continue
		}
		t.Row(name, r.ColorTheme, r.IconTheme, strconv.Itoa(r.Extensions))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row < 0 || row >= len(rows) {
			return cellStyle
		}
		switch {
		case rows[row].Err != nil:
			return warnStyle
		case rows[row].Common:
			return dimStyle
		}
		return cellStyle
	})
	return t.String() + "\n"
}
