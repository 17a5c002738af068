// Package git provides the shared profile repository operations profilesync
// needs: locating the repository, checking for local changes, committing an
// exported profile and fast-forwarding before an apply. It uses the go-git
// library, so no git binary is required.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// DefaultRemote is the remote pulled from before an apply.
const DefaultRemote = "origin"

// DefaultPullTimeout bounds Pull when the caller's context has no deadline.
const DefaultPullTimeout = 60 * time.Second

// ErrNotRepository is returned when a path is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// ErrNothingToCommit is returned by CommitPaths when the paths hold no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Author identifies the committer of an exported profile.
type Author struct {
	Name  string
	Email string
}

// Repo is an opened shared profile repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, walking up the directory tree
// like git does. An empty path means the current working directory.
func Open(path string) (*Repo, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	root := wt.Filesystem.Root()
	logDebug("[git] repository root: %s", root)
	return &Repo{repo: repo, root: root}, nil
}

// Root returns the absolute path of the repository's working tree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the checked out branch name, or "" for a detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}
	return head.Name().Short(), nil
}

// IsClean reports whether the working tree below the given paths has no
// staged, modified or untracked files. With no paths the whole tree is checked.
func (r *Repo) IsClean(paths ...string) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}

	prefixes, err := r.relPaths(paths)
	if err != nil {
		return false, err
	}
	for file, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		if matchesAny(file, prefixes) {
			logDebug("[git] IsClean: %s is %c%c", file, st.Staging, st.Worktree)
			return false, nil
		}
	}
	return true, nil
}

// CommitPaths stages the given files or directories and commits them.
// Returns ErrNothingToCommit when staging leaves no changes.
func (r *Repo) CommitPaths(paths []string, message string, author Author) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	rel, err := r.relPaths(paths)
	if err != nil {
		return "", err
	}
	for _, p := range rel {
		if _, err := wt.Add(p); err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("getting status: %w", err)
	}
	staged := false
	for file, st := range status {
		if st.Staging != git.Unmodified && st.Staging != git.Untracked && matchesAny(file, rel) {
			staged = true
			break
		}
	}
	if !staged {
		return "", ErrNothingToCommit
	}

	sig := r.signature(author)
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	logDebug("[git] CommitPaths: %s %q", hash, message)
	return hash.String(), nil
}

// Pull fast-forwards the current branch from DefaultRemote. It reports
// whether anything changed. A repository without that remote, or with an
// SSH remote and no SSH agent, is left alone.
func (r *Repo) Pull(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPullTimeout)
		defer cancel()
	}

	remote, err := r.repo.Remote(DefaultRemote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			logDebug("[git] Pull: no %s remote configured", DefaultRemote)
			return false, nil
		}
		return false, fmt.Errorf("looking up remote %s: %w", DefaultRemote, err)
	}

	cfg := remote.Config()
	if len(cfg.URLs) == 0 {
		return false, nil
	}
	url := cfg.URLs[0]
	if isSSHURL(url) && !isSSHAgentAvailable() {
		logDebug("[git] skipping pull from '%s': SSH URL without SSH agent available", cfg.Name)
		return false, nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	logDebug("[git] pulling from remote '%s' (%s)", cfg.Name, url)
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName: cfg.Name,
		Auth:       getAuthForURL(url),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		return false, nil
	default:
		return false, fmt.Errorf("pulling from %s: %w", cfg.Name, err)
	}
}

// signature fills blank author fields from the user's git config, then the
// login name.
func (r *Repo) signature(a Author) *object.Signature {
	if a.Name == "" || a.Email == "" {
		if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
			if a.Name == "" {
				a.Name = cfg.User.Name
			}
			if a.Email == "" {
				a.Email = cfg.User.Email
			}
		}
	}
	if a.Name == "" {
		a.Name = "profilesync"
		if u, err := user.Current(); err == nil && u.Username != "" {
			a.Name = u.Username
		}
	}
	if a.Email == "" {
		a.Email = a.Name + "@localhost"
	}
	return &object.Signature{Name: a.Name, Email: a.Email, When: time.Now()}
}

// relPaths converts paths to slash-separated paths relative to the root.
func (r *Repo) relPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		rel, err := filepath.Rel(r.root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is outside the repository %s", p, r.root)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func matchesAny(file string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if p == "." || file == p || strings.HasPrefix(file, p+"/") {
			return true
		}
	}
	return false
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use environment credentials.
func getAuthForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username == "" {
		username = os.Getenv("GITHUB_TOKEN")
		if username != "" {
			password = "" // GitHub token can be used as username with empty password
		}
	}

	if username != "" {
		return &http.BasicAuth{
			Username: username,
			Password: password,
		}
	}

	return nil
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
func isSSHAgentAvailable() bool {
	return strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")) != ""
}
