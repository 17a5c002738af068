package extension

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/google/shlex"

	"github.com/profilesync/profilesync/internal/profile"
)

// DefaultCommand is the editor CLI used when none is configured.
const DefaultCommand = "code"

// tlsEnv disables Node's certificate checks for the editor CLI.
const tlsEnv = "NODE_TLS_REJECT_UNAUTHORIZED"

// ErrEmptyCommand is returned for a blank command template.
var ErrEmptyCommand = errors.New("editor command is empty")

// InstallError reports a failed install.
type InstallError struct {
	ID       string
	ExitCode int
	Stderr   string
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("installing %s: exit status %d", e.ID, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// CodeCLI wraps the editor command line ("code", "codium", "flatpak run ...").
type CodeCLI struct {
	runner      Runner
	name        string
	prefix      []string
	insecureTLS bool
}

// NewCodeCLI parses a shell-style command template such as
// `flatpak run com.visualstudio.code`. With insecureTLS, installs pass
// --strict-ssl false and every call sets NODE_TLS_REJECT_UNAUTHORIZED=0.
func NewCodeCLI(template string, runner Runner, insecureTLS bool) (*CodeCLI, error) {
	parts, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("parsing editor command %q: %w", template, err)
	}
	if len(parts) == 0 {
		return nil, ErrEmptyCommand
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CodeCLI{runner: runner, name: parts[0], prefix: parts[1:], insecureTLS: insecureTLS}, nil
}

// Name returns the executable the template runs.
func (c *CodeCLI) Name() string {
	return c.name
}

// LookPath resolves the executable on PATH.
func (c *CodeCLI) LookPath() (string, error) {
	return exec.LookPath(c.name)
}

func (c *CodeCLI) env() []string {
	if c.insecureTLS {
		return []string{tlsEnv + "=0"}
	}
	return nil
}

func (c *CodeCLI) run(ctx context.Context, args ...string) (RunResult, error) {
	full := append(append([]string{}, c.prefix...), args...)
	return c.runner.Run(ctx, c.env(), c.name, full...)
}

// ListInstalled returns the installed extension IDs, lower-cased.
func (c *CodeCLI) ListInstalled(ctx context.Context) (map[string]bool, error) {
	res, err := c.run(ctx, "--list-extensions")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing extensions: exit status %d: %s", res.ExitCode, cleanStderr(res.Stderr))
	}
	installed := make(map[string]bool)
	for _, line := range strings.Split(res.Stdout, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			installed[strings.ToLower(id)] = true
		}
	}
	return installed, nil
}

// ListWithVersions returns the installed extensions as profile entries,
// all enabled, in the order the CLI prints them.
func (c *CodeCLI) ListWithVersions(ctx context.Context) ([]profile.Extension, error) {
	res, err := c.run(ctx, "--list-extensions", "--show-versions")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing extensions: exit status %d: %s", res.ExitCode, cleanStderr(res.Stderr))
	}
	return ParseExtensionList(res.Stdout), nil
}

var idVersion = regexp.MustCompile(`^(.+)@(.+)$`)

// ParseExtensionList parses `--list-extensions --show-versions` output, one
// "id@version" per line. Lines without a version keep an empty Version.
func ParseExtensionList(out string) []profile.Extension {
	exts := []profile.Extension{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ext := profile.Extension{ID: line, Enabled: true}
		if m := idVersion.FindStringSubmatch(line); m != nil {
			ext.ID, ext.Version = m[1], m[2]
		}
		exts = append(exts, ext)
	}
	return exts
}

// Install installs or updates one extension.
func (c *CodeCLI) Install(ctx context.Context, id string) error {
	args := []string{"--install-extension", id, "--force"}
	if c.insecureTLS {
		args = append(args, "--strict-ssl", "false")
	}
	res, err := c.run(ctx, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &InstallError{ID: id, ExitCode: res.ExitCode, Stderr: cleanStderr(res.Stderr)}
	}
	return nil
}

// cleanStderr drops Node's warning about disabled certificate checks.
func cleanStderr(s string) string {
	var keep []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, tlsEnv) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.Join(keep, "; ")
}
