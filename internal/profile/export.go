package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/profilesync/profilesync/internal/userdir"
)

// ExportOptions controls what Export copies into a profile.
type ExportOptions struct {
	Alias              string
	UserDir            string
	IncludeKeybindings bool
	IncludeSnippets    bool
	// Extensions is written as the profile's extension list when non-nil.
	Extensions []Extension
}

// ExportResult describes what Export wrote.
type ExportResult struct {
	Dir string
	// Copied and Missing list the user directory entries that were, or could
	// not be, copied.
	Copied            []string
	Missing           []string
	ExtensionsWritten bool
}

// Export saves the user's current settings (and optionally keybindings and
// snippets) as the profile named by opts.Alias, creating it if needed.
func (r *Repository) Export(opts ExportOptions) (*ExportResult, error) {
	if err := ValidateAlias(opts.Alias); err != nil {
		return nil, err
	}

	dir := r.Path(opts.Alias)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile directory: %w", err)
	}
	res := &ExportResult{Dir: dir}

	files := []string{userdir.SettingsFile}
	if opts.IncludeKeybindings {
		files = append(files, userdir.KeybindingsFile)
	}
	for _, name := range files {
		src := filepath.Join(opts.UserDir, name)
		if _, err := os.Stat(src); err != nil {
			res.Missing = append(res.Missing, name)
			continue
		}
		if err := userdir.CopyFile(src, filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("copying %s: %w", name, err)
		}
		res.Copied = append(res.Copied, name)
	}

	if opts.IncludeSnippets {
		src := filepath.Join(opts.UserDir, userdir.SnippetsDir)
		if info, err := os.Stat(src); err != nil || !info.IsDir() {
			res.Missing = append(res.Missing, userdir.SnippetsDir)
		} else {
			if err := userdir.CopyDir(src, filepath.Join(dir, userdir.SnippetsDir)); err != nil {
				return nil, fmt.Errorf("copying snippets: %w", err)
			}
			res.Copied = append(res.Copied, userdir.SnippetsDir)
		}
	}

	if opts.Extensions != nil {
		if err := WriteExtensions(dir, opts.Extensions); err != nil {
			return nil, err
		}
		res.ExtensionsWritten = true
	}
	return res, nil
}
