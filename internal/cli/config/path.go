package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/profilesync/profilesync/internal/config"
)

// ResolvePath makes a --config argument absolute. A leading "~" or "~/"
// means the current user's home directory.
func ResolvePath(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty path")
	}
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		u, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("looking up home directory: %w", err)
		}
		raw = filepath.Join(u.HomeDir, strings.TrimPrefix(raw[1:], "/"))
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", raw, err)
	}
	return abs, nil
}

// EnsureDirectory creates path and its parents unless it is already a
// directory.
func EnsureDirectory(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", path)
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// writeTemplate writes the commented default config to path.
func writeTemplate(path string) error {
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644)
}
