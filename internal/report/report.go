// Package report renders the outcome of an apply: a Markdown or YAML file
// describing installed extensions and every merge decision, plus the console
// tables and summary shown at the end of a run.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/profilesync/profilesync/internal/extension"
	"github.com/profilesync/profilesync/internal/merge"
	"github.com/profilesync/profilesync/internal/settings"
)

// Format selects the report file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// DefaultFileName is the report written next to the profiles directory.
const DefaultFileName = "profilesync-report.md"

const (
	noneValue     = "[none]"
	maxValueWidth = 60
	timeLayout    = "2006-01-02 15:04:05"
)

// ParseFormat accepts "markdown", "md", "yaml" and "yml". An empty string
// selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want markdown or yaml)", s)
	}
}

// Report is everything an apply run did.
type Report struct {
	GeneratedAt      time.Time
	DryRun           bool
	SelectedProfiles []string
	CommonProfile    string
	SafePreset       bool
	Decisions        []merge.Decision
	// Extensions is nil when extension installation was skipped.
	Extensions *extension.InstallResult
}

// Count returns the number of decisions with the given action.
func (r *Report) Count(action merge.Action) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Action == action {
			n++
		}
	}
	return n
}

// Conflicts returns the number of decisions flagged as type conflicts.
func (r *Report) Conflicts() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Conflict {
			n++
		}
	}
	return n
}

// FormatValue renders a decision value for tables: "[none]" when absent,
// "[N items]" for arrays, the raw text of strings and compact JSON otherwise.
// Long values are shortened.
func FormatValue(v settings.Value, present bool) string {
	if !present {
		return noneValue
	}
	var s string
	switch v.Kind() {
	case settings.KindArray:
		return fmt.Sprintf("[%d items]", v.Len())
	case settings.KindString:
		s = v.AsString()
	default:
		s = v.String()
	}
	return truncate(s, maxValueWidth)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

// Render writes r in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatYAML:
		return RenderYAML(w, r)
	case FormatMarkdown, "":
		return RenderMarkdown(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile renders r to path, creating parent directories.
func WriteFile(path string, r *Report, format Format) error {
	var buf bytes.Buffer
	if err := Render(&buf, r, format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the Markdown report.
func RenderMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder

	mode := "apply"
	if r.DryRun {
		mode = "dry run (nothing applied)"
	}
	b.WriteString("# VS Code Settings and Extensions Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Mode: %s\n\n", mode)

	b.WriteString("## Extensions\n\n")
	if r.Extensions == nil {
		b.WriteString("Extension installation was skipped.\n")
	} else {
		ext := r.Extensions
		fmt.Fprintf(&b, "- Installed: %d\n", len(ext.Installed))
		fmt.Fprintf(&b, "- Skipped (already installed): %d\n", len(ext.Skipped))
		fmt.Fprintf(&b, "- Failed: %d\n\n", len(ext.Failed))

		b.WriteString("### Installed extensions\n\n")
		writeList(&b, ext.Installed, nil)
		b.WriteString("\n### Failed extensions\n\n")
		writeList(&b, ext.Failed, ext.Errors)
	}

	b.WriteString("\n## Settings merge\n\n")
	b.WriteString("### Applied profiles\n\n")
	if len(r.SelectedProfiles) == 0 {
		b.WriteString("- (none selected)\n")
	}
	for _, p := range r.SelectedProfiles {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	fmt.Fprintf(&b, "- Common profile: %s (always applied)\n", r.CommonProfile)
	fmt.Fprintf(&b, "- SafePreset: %s\n\n", onOff(r.SafePreset))

	b.WriteString("### Decisions\n\n")
	b.WriteString("| Key | Action | Source | Old | New |\n")
	b.WriteString("|-----|--------|--------|-----|-----|\n")
	if len(r.Decisions) == 0 {
		b.WriteString("| - | - | - | - | - |\n")
	}
	for _, d := range r.Decisions {
		action := string(d.Action)
		if d.Conflict {
			action += " (conflict)"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | `%s` | `%s` |\n",
			cell(d.Key), action, cell(d.Source),
			cell(FormatValue(d.Old, d.HadOld)), cell(FormatValue(d.New, true)))
	}

	b.WriteString("\n---\n*This report was generated automatically by profilesync.*\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, items []string, details map[string]string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, item := range items {
		if msg := details[item]; msg != "" {
			fmt.Fprintf(b, "- %s: %s\n", item, msg)
			continue
		}
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// cell keeps a value from breaking the Markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

type yamlReport struct {
	GeneratedAt   string                   `yaml:"generated_at"`
	DryRun        bool                     `yaml:"dry_run"`
	Profiles      []string                 `yaml:"profiles"`
	CommonProfile string                   `yaml:"common_profile"`
	SafePreset    bool                     `yaml:"safe_preset"`
	Extensions    *extension.InstallResult `yaml:"extensions,omitempty"`
	Counts        map[string]int           `yaml:"counts"`
	Decisions     []yamlDecision           `yaml:"decisions"`
}

type yamlDecision struct {
	Key      string `yaml:"key"`
	Action   string `yaml:"action"`
	Source   string `yaml:"source"`
	Old      string `yaml:"old,omitempty"`
	New      string `yaml:"new"`
	Conflict bool   `yaml:"conflict,omitempty"`
}

// RenderYAML writes the report as YAML. Values are kept as full compact JSON.
func RenderYAML(w io.Writer, r *Report) error {
	out := yamlReport{
		GeneratedAt:   r.GeneratedAt.Format(time.RFC3339),
		DryRun:        r.DryRun,
		Profiles:      append([]string{}, r.SelectedProfiles...),
		CommonProfile: r.CommonProfile,
		SafePreset:    r.SafePreset,
		Extensions:    r.Extensions,
		Counts:        make(map[string]int, len(merge.Actions)),
		Decisions:     make([]yamlDecision, 0, len(r.Decisions)),
	}
	for _, a := range merge.Actions {
		out.Counts[string(a)] = r.Count(a)
	}
	for _, d := range r.Decisions {
		yd := yamlDecision{
			Key:      d.Key,
			Action:   string(d.Action),
			Source:   d.Source,
			New:      d.New.String(),
			Conflict: d.Conflict,
		}
		if d.HadOld {
			yd.Old = d.Old.String()
		}
		out.Decisions = append(out.Decisions, yd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
