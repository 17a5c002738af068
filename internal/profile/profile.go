// Package profile reads and writes the shared profiles directory. Each
// profile is a folder holding a settings.json and optionally a
// vscode-extensions.json list; folders starting with a dot (the common
// profile) are applied automatically and cannot be selected.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/profilesync/profilesync/internal/settings"
)

const (
	// DefaultCommonProfile is the profile applied on every apply.
	DefaultCommonProfile = ".project-common"
	// SettingsFile is the settings file inside a profile.
	SettingsFile = "settings.json"
	// ExtensionsFile lists a profile's extensions.
	ExtensionsFile = "vscode-extensions.json"

	// Unchanged is shown for theme settings a profile does not set.
	Unchanged = "(unchanged)"

	colorThemeKey = "workbench.colorTheme"
	iconThemeKey  = "workbench.iconTheme"
)

// ErrNotFound is returned when the profiles directory or a profile is missing.
var ErrNotFound = errors.New("not found")

// ErrInvalidAlias is returned for profile names outside [a-z0-9-].
var ErrInvalidAlias = errors.New("invalid profile alias")

var aliasPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateAlias checks a name for a new exported profile.
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return fmt.Errorf("%w %q: use lowercase letters, digits and hyphens", ErrInvalidAlias, alias)
	}
	return nil
}

// Repository is a profiles directory.
type Repository struct {
	Root   string
	Common string
}

// Open returns the repository rooted at root. The directory must exist.
// An empty common name selects DefaultCommonProfile.
func Open(root, common string) (*Repository, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("profiles directory %s: %w", root, ErrNotFound)
	}
	if common == "" {
		common = DefaultCommonProfile
	}
	return &Repository{Root: root, Common: common}, nil
}

// Path returns the directory of a profile.
func (r *Repository) Path(name string) string {
	return filepath.Join(r.Root, name)
}

// SettingsPath returns the settings file of a profile.
func (r *Repository) SettingsPath(name string) string {
	return filepath.Join(r.Root, name, SettingsFile)
}

// Exists reports whether the profile folder exists.
func (r *Repository) Exists(name string) bool {
	info, err := os.Stat(r.Path(name))
	return err == nil && info.IsDir()
}

// List returns every profile folder, sorted by name. A .git folder is not
// a profile.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != ".git" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Selectable returns the profiles a user may pick: those not starting with a dot.
func (r *Repository) Selectable() ([]string, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, n := range all {
		if !strings.HasPrefix(n, ".") {
			names = append(names, n)
		}
	}
	return names, nil
}

// LoadSettings reads a profile's settings. A profile without a settings file
// yields an empty document.
func (r *Repository) LoadSettings(name string) (*settings.Document, error) {
	return settings.ReadFile(r.SettingsPath(name))
}

// Summary is the theme overview shown when choosing a profile.
type Summary struct {
	Name       string
	ColorTheme string
	IconTheme  string
}

// Summary reports the color and icon themes a profile would apply.
func (r *Repository) Summary(name string) (Summary, error) {
	doc, err := r.LoadSettings(name)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Name:       name,
		ColorTheme: themeOf(doc, colorThemeKey),
		IconTheme:  themeOf(doc, iconThemeKey),
	}, nil
}

func themeOf(doc *settings.Document, key string) string {
	v, ok := doc.Get(key)
	if !ok || v.IsNull() {
		return Unchanged
	}
	if v.Kind() == settings.KindString {
		return v.AsString()
	}
	return v.String()
}
