package helper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	appErrors "repoup/internal/errors"
)

// logFormat separates fields with the ASCII unit separator so commit
// subjects containing spaces or dashes parse cleanly.
const logFormat = "--pretty=format:%h%x1f%H%x1f%an%x1f%s"

type gitCLI struct {
	bin    string
	dir    string
	remote string

	versionOnce sync.Once
	versionErr  error
}

func (g *gitCLI) repoInfo(ctx context.Context) (RepoInfo, error) {
	if err := g.checkVersion(ctx); err != nil {
		return RepoInfo{}, err
	}
	url, err := g.output(ctx, "remote", "get-url", g.remote)
	if err != nil {
		return RepoInfo{}, err
	}
	hash, err := g.output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return RepoInfo{}, err
	}
	branch, err := g.output(ctx, "branch", "--show-current")
	if err != nil {
		return RepoInfo{}, err
	}
	return RepoInfo{
		RepositoryURL:     NormalizeRemoteURL(url),
		CurrentCommitHash: hash,
		Branch:            branch,
	}, nil
}

func (g *gitCLI) newCommits(ctx context.Context) ([]Commit, error) {
	if err := g.checkVersion(ctx); err != nil {
		return nil, err
	}
	if err := g.fetch(ctx); err != nil {
		return nil, err
	}
	branch, err := g.currentBranch(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := g.remoteHasBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Commit{}, nil
	}
	out, err := g.output(ctx, "log", fmt.Sprintf("HEAD..%s/%s", g.remote, branch), logFormat)
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

func (g *gitCLI) pull(ctx context.Context) error {
	_, err := g.run(ctx, "pull", "--ff-only")
	return err
}

func (g *gitCLI) gitDir(ctx context.Context) (string, error) {
	return g.output(ctx, "rev-parse", "--absolute-git-dir")
}

func (g *gitCLI) fetch(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", g.remote)
	return err
}

func (g *gitCLI) currentBranch(ctx context.Context) (string, error) {
	args := []string{"branch", "--show-current"}
	branch, err := g.output(ctx, args...)
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", appErrors.New(appErrors.CodeGitFailed, "HEAD is detached",
			CommandError{Cmd: commandLine(g.bin, args), Output: "HEAD is detached; check out a branch to receive updates"})
	}
	return branch, nil
}

func (g *gitCLI) remoteHasBranch(ctx context.Context, branch string) (bool, error) {
	out, err := g.output(ctx, "ls-remote", "--heads", g.remote, branch)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (g *gitCLI) output(ctx context.Context, args ...string) (string, error) {
	out, err := g.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// run executes git in the checkout and returns stdout. On failure the
// returned error carries stderr (or stdout when stderr is empty).
func (g *gitCLI) run(ctx context.Context, args ...string) ([]byte, error) {
	//nolint:gosec // G204: helper intentionally shells out to git
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = g.dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		out := stderr.Bytes()
		if len(bytes.TrimSpace(out)) == 0 {
			out = stdout.Bytes()
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, classifyCommandError(appErrors.CodeGitFailed, g.bin, args, err, out)
	}
	return stdout.Bytes(), nil
}

func parseLog(out string) ([]Commit, error) {
	commits := []Commit{}
	if strings.TrimSpace(out) == "" {
		return commits, nil
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\x1f", 4)
		if len(fields) != 4 {
			return nil, appErrors.New(appErrors.CodeParseFailed,
				fmt.Sprintf("unexpected git log line %q", line), nil)
		}
		commits = append(commits, Commit{
			ShortHash: fields[0],
			LongHash:  fields[1],
			Author:    fields[2],
			Message:   fields[3],
		})
	}
	return commits, nil
}
