package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extension is one entry of vscode-extensions.json.
type Extension struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Enabled bool   `json:"enabled"`
}

// UnmarshalJSON treats a missing "enabled" as true.
func (e *Extension) UnmarshalJSON(data []byte) error {
	type plain struct {
		ID      string  `json:"id"`
		Version *string `json:"version"`
		Enabled *bool   `json:"enabled"`
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	e.ID = p.ID
	e.Version = ""
	if p.Version != nil {
		e.Version = *p.Version
	}
	e.Enabled = p.Enabled == nil || *p.Enabled
	return nil
}

// LoadExtensions reads a profile's extension list. A single object instead of
// a list is accepted as a one-element list. A missing file returns an error
// wrapping os.ErrNotExist.
func (r *Repository) LoadExtensions(name string) ([]Extension, error) {
	path := filepath.Join(r.Path(name), ExtensionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extension list of %s: %w", name, err)
	}
	exts, err := parseExtensions(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return exts, nil
}

func parseExtensions(data []byte) ([]Extension, error) {
	data = bytes.TrimSpace(jsonc.ToJSON(bytes.TrimPrefix(data, utf8BOM)))
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '{' {
		var one Extension
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		return []Extension{one}, nil
	}
	var list []Extension
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for i, e := range list {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d has no id", i)
		}
	}
	return list, nil
}

// WriteExtensions replaces the profile's extension list.
func WriteExtensions(dir string, exts []Extension) error {
	if exts == nil {
		exts = []Extension{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(exts); err != nil {
		return fmt.Errorf("encoding extension list: %w", err)
	}
	path := filepath.Join(dir, ExtensionsFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Explanations maps extension IDs to the team's description of why they are used.
type Explanations map[string]string

type explanationEntry struct {
	ID      string `json:"id"`
	Explain string `json:"explain"`
}

// LoadExplanations reads the explanation file, a JSON list of
// {"id", "explain"} objects. A missing file returns an error wrapping
// os.ErrNotExist.
func LoadExplanations(path string) (Explanations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading explanations: %w", err)
	}
	data = jsonc.ToJSON(bytes.TrimPrefix(data, utf8BOM))

	var entries []explanationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make(Explanations, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Explain
	}
	return out, nil
}

// Missing returns the IDs of exts without an explanation, sorted.
func (x Explanations) Missing(exts []Extension) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, e := range exts {
		if x[e.ID] == "" && !seen[e.ID] {
			seen[e.ID] = true
			missing = append(missing, e.ID)
		}
	}
	sort.Strings(missing)
	return missing
}
