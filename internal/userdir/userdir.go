// Package userdir locates the editor's user settings directory and performs
// the file operations an apply needs there: timestamped backups, writing the
// merged settings and the optional proxy TLS tweak.
package userdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/profilesync/profilesync/internal/settings"
)

const (
	// SettingsFile is the user settings file name.
	SettingsFile = "settings.json"
	// KeybindingsFile is the user keybindings file name.
	KeybindingsFile = "keybindings.json"
	// SnippetsDir is the user snippets directory name.
	SnippetsDir = "snippets"

	// ProxyStrictSSLKey is the setting relaxed by EnsureProxyStrictSSL.
	ProxyStrictSSLKey = "http.proxyStrictSSL"

	backupLayout = "20060102-150405"
)

// ErrNotFound is returned when the user directory cannot be determined or
// does not exist.
var ErrNotFound = errors.New("user settings directory not found")

// Env abstracts environment lookups for Locate.
type Env struct {
	GOOS    string
	Getenv  func(string) string
	HomeDir func() (string, error)
}

// SystemEnv is the Env of the running process.
func SystemEnv() Env {
	return Env{GOOS: runtime.GOOS, Getenv: os.Getenv, HomeDir: os.UserHomeDir}
}

// Locate returns the editor user directory. A non-empty override wins;
// otherwise the platform default is used:
//
//	windows  %APPDATA%\Code\User
//	darwin   ~/Library/Application Support/Code/User
//	other    $XDG_CONFIG_HOME/Code/User (default ~/.config)
//
// The directory must exist.
func Locate(override string, env Env) (string, error) {
	dir := override
	if dir == "" {
		var err error
		dir, err = defaultDir(env)
		if err != nil {
			return "", err
		}
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return dir, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	return dir, nil
}

func defaultDir(env Env) (string, error) {
	switch env.GOOS {
	case "windows":
		appData := env.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("%w: APPDATA is not set", ErrNotFound)
		}
		return filepath.Join(appData, "Code", "User"), nil
	case "darwin":
		home, err := env.HomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return filepath.Join(home, "Library", "Application Support", "Code", "User"), nil
	default:
		base := env.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := env.HomeDir()
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrNotFound, err)
			}
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, "Code", "User"), nil
	}
}

// BackupPath returns the backup file name used for a settings file at now.
func BackupPath(settingsPath string, now time.Time) string {
	name := fmt.Sprintf("settings.backup-%s.json", now.Format(backupLayout))
	return filepath.Join(filepath.Dir(settingsPath), name)
}

// Backup copies the settings file next to itself as
// settings.backup-YYYYMMDD-HHMMSS.json and returns the backup path. A missing
// settings file is not an error: nothing is copied and "" is returned. In a
// dry run the path is computed but nothing is written.
func Backup(settingsPath string, now time.Time, dryRun bool) (string, error) {
	info, err := os.Stat(settingsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking %s: %w", settingsPath, err)
	}

	dst := BackupPath(settingsPath, now)
	if dryRun {
		return dst, nil
	}
	if err := copyFile(settingsPath, dst, info); err != nil {
		return "", fmt.Errorf("backing up %s: %w", settingsPath, err)
	}
	return dst, nil
}

// WriteSettings writes doc to path with four-space indentation. Dry runs
// write nothing.
func WriteSettings(path string, doc *settings.Document, dryRun bool) error {
	if dryRun {
		return nil
	}
	return settings.WriteFile(path, doc)
}

// EnsureProxyStrictSSL sets http.proxyStrictSSL to false in the settings file
// at path, creating the file when missing. It reports whether the file changed.
func EnsureProxyStrictSSL(path string, dryRun bool) (bool, error) {
	doc, err := settings.ReadFile(path)
	if err != nil {
		return false, err
	}
	if v, ok := doc.Get(ProxyStrictSSLKey); ok && v.Kind() == settings.KindBool && !v.AsBool() {
		return false, nil
	}
	doc.Set(ProxyStrictSSLKey, settings.Bool(false))
	if dryRun {
		return true, nil
	}
	if err := settings.WriteFile(path, doc); err != nil {
		return false, err
	}
	return true, nil
}

// CopyFile copies src to dst, creating dst's directory.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyFile(src, dst, info)
}

// CopyDir replaces dst with a recursive copy of src.
func CopyDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing %s: %w", dst, err)
	}
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info)
	})
}

// copyFile copies content, mode and modification time like cp -p.
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
