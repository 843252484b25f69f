// Package helper is the native layer behind the updater: it inspects the
// checkout with git, pulls new commits, runs the build and relaunches the
// application. Every call returns a Result so callers never deal with panics
// or bare errors.
package helper

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	appErrors "repoup/internal/errors"
)

// RepoInfo identifies the checkout being updated.
type RepoInfo struct {
	RepositoryURL     string `json:"repositoryUrl"`
	CurrentCommitHash string `json:"currentCommitHash"`
	Branch            string `json:"branch,omitempty"`
}

// Commit is a commit that exists upstream but not locally.
type Commit struct {
	ShortHash string `json:"shortHash"`
	LongHash  string `json:"longHash"`
	Author    string `json:"author"`
	Message   string `json:"message"`
}

// Helper is the contract the updater UI and CLI talk to.
type Helper interface {
	RepoInfo(ctx context.Context) Result[RepoInfo]
	NewCommits(ctx context.Context) Result[[]Commit]
	Update(ctx context.Context) Result[Unit]
	Rebuild(ctx context.Context) Result[Unit]
	// Relaunch replaces or restarts the running application. On success
	// it may never return.
	Relaunch() error
}

// Backend names accepted by WithBackend.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// repoSource is the git side of the helper. Implementations return plain
// errors; Local converts them into Results.
type repoSource interface {
	repoInfo(ctx context.Context) (RepoInfo, error)
	newCommits(ctx context.Context) ([]Commit, error)
	pull(ctx context.Context) error
	gitDir(ctx context.Context) (string, error)
}

// Local is the Helper for a checkout on the local filesystem.
type Local struct {
	repoPath string
	remote   string
	backend  string
	gitBin   string
	timeout  time.Duration

	source     repoSource
	build      buildRunner
	relauncher relauncher
}

// Option configures a Local helper.
type Option func(*Local)

// WithRepoPath sets the checkout directory. Defaults to the working directory.
func WithRepoPath(path string) Option {
	return func(l *Local) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			l.repoPath = trimmed
		}
	}
}

// WithRemote sets the upstream remote name. Defaults to origin.
func WithRemote(remote string) Option {
	return func(l *Local) {
		if trimmed := strings.TrimSpace(remote); trimmed != "" {
			l.remote = trimmed
		}
	}
}

// WithBackend selects how git is read: BackendCLI or BackendNative.
func WithBackend(name string) Option {
	return func(l *Local) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			l.backend = strings.ToLower(trimmed)
		}
	}
}

// WithGitBinary overrides the git executable.
func WithGitBinary(path string) Option {
	return func(l *Local) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			l.gitBin = trimmed
		}
	}
}

// WithBuildCommand sets the argv run by Rebuild.
func WithBuildCommand(argv []string) Option {
	return func(l *Local) {
		if len(argv) > 0 {
			l.build.argv = append([]string(nil), argv...)
		}
	}
}

// WithFailureMarker sets the output text that marks a build as failed even
// when the build exits zero. An empty marker disables the check.
func WithFailureMarker(marker string) Option {
	return func(l *Local) {
		l.build.marker = marker
	}
}

// WithRelaunchCommand sets the argv started by Relaunch. When empty the
// current executable is re-executed.
func WithRelaunchCommand(argv []string) Option {
	return func(l *Local) {
		l.relauncher.argv = append([]string(nil), argv...)
	}
}

// WithTimeout bounds each helper call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Local) {
		l.timeout = d
	}
}

// New builds a Local helper. It fails only on an unknown backend or an
// unusable repository path; git problems surface later as Failures.
func New(opts ...Option) (*Local, error) {
	l := &Local{
		repoPath: ".",
		remote:   "origin",
		backend:  BackendCLI,
		gitBin:   "git",
		build:    buildRunner{marker: "Build failed"},
	}
	for _, opt := range opts {
		opt(l)
	}

	abs, err := filepath.Abs(l.repoPath)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("resolve repo path %q", l.repoPath), err)
	}
	l.repoPath = abs
	l.build.dir = abs
	l.relauncher.dir = abs
	if len(l.build.argv) == 0 {
		l.build.argv = []string{"go", "build", "./..."}
	}

	cli := &gitCLI{bin: l.gitBin, dir: abs, remote: l.remote}
	switch l.backend {
	case BackendCLI:
		l.source = cli
	case BackendNative:
		l.source = &nativeGit{dir: abs, remote: l.remote, cli: cli}
	default:
		return nil, appErrors.New(appErrors.CodeConfigurationError,
			fmt.Sprintf("unknown backend %q (want %s or %s)", l.backend, BackendCLI, BackendNative), nil)
	}
	return l, nil
}

// RepoPath returns the absolute checkout path.
func (l *Local) RepoPath() string {
	return l.repoPath
}

// Remote returns the upstream remote name.
func (l *Local) Remote() string {
	return l.remote
}

// Backend returns the selected backend name.
func (l *Local) Backend() string {
	return l.backend
}

func (l *Local) RepoInfo(ctx context.Context) Result[RepoInfo] {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	info, err := l.source.repoInfo(ctx)
	return FromError(info, err)
}

func (l *Local) NewCommits(ctx context.Context) Result[[]Commit] {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	commits, err := l.source.newCommits(ctx)
	if err == nil && commits == nil {
		commits = []Commit{}
	}
	return FromError(commits, err)
}

func (l *Local) Update(ctx context.Context) Result[Unit] {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	return FromError(Unit{}, l.source.pull(ctx))
}

func (l *Local) Rebuild(ctx context.Context) Result[Unit] {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	return FromError(Unit{}, l.build.run(ctx))
}

func (l *Local) Relaunch() error {
	return l.relauncher.relaunch()
}

// GitDir returns the absolute .git directory of the checkout.
func (l *Local) GitDir(ctx context.Context) (string, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	return l.source.gitDir(ctx)
}

func (l *Local) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}
