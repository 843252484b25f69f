package helper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	appErrors "repoup/internal/errors"
)

// nativeGit reads the repository with go-git and delegates fetch and pull
// to the git binary, which already knows the user's credentials.
type nativeGit struct {
	dir    string
	remote string
	cli    *gitCLI
}

func (n *nativeGit) open() (*gitlib.Repository, error) {
	repo, err := gitlib.PlainOpenWithOptions(n.dir, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, appErrors.New(appErrors.CodeGitFailed, fmt.Sprintf("open repository %s", n.dir), err)
	}
	return repo, nil
}

func (n *nativeGit) repoInfo(ctx context.Context) (RepoInfo, error) {
	repo, err := n.open()
	if err != nil {
		return RepoInfo{}, err
	}
	remote, err := repo.Remote(n.remote)
	if err != nil {
		return RepoInfo{}, appErrors.New(appErrors.CodeGitFailed, fmt.Sprintf("lookup remote %s", n.remote), err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return RepoInfo{}, appErrors.New(appErrors.CodeGitFailed, fmt.Sprintf("remote %s has no url", n.remote), nil)
	}
	head, err := repo.Head()
	if err != nil {
		return RepoInfo{}, appErrors.New(appErrors.CodeGitFailed, "resolve HEAD", err)
	}
	info := RepoInfo{
		RepositoryURL:     NormalizeRemoteURL(urls[0]),
		CurrentCommitHash: head.Hash().String(),
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

func (n *nativeGit) newCommits(ctx context.Context) ([]Commit, error) {
	if err := n.cli.fetch(ctx); err != nil {
		return nil, err
	}
	repo, err := n.open()
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, appErrors.New(appErrors.CodeGitFailed, "resolve HEAD", err)
	}
	if !head.Name().IsBranch() {
		return nil, appErrors.New(appErrors.CodeGitFailed, "HEAD is detached",
			CommandError{Cmd: "resolve HEAD branch", Output: "HEAD is detached; check out a branch to receive updates"})
	}
	upstreamName := plumbing.NewRemoteReferenceName(n.remote, head.Name().Short())
	upstream, err := repo.Reference(upstreamName, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []Commit{}, nil
	}
	if err != nil {
		return nil, appErrors.New(appErrors.CodeGitFailed, fmt.Sprintf("resolve %s", upstreamName.Short()), err)
	}
	if upstream.Hash() == head.Hash() {
		return []Commit{}, nil
	}

	local, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, appErrors.New(appErrors.CodeGitFailed, "load HEAD commit", err)
	}
	remote, err := repo.CommitObject(upstream.Hash())
	if err != nil {
		return nil, appErrors.New(appErrors.CodeGitFailed, fmt.Sprintf("load %s commit", upstreamName.Short()), err)
	}
	pending, err := commitsNotIn(ctx, remote, local)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(pending))
	for _, c := range pending {
		commits = append(commits, toCommit(c))
	}
	return commits, nil
}

// commitsNotIn returns the commits reachable from tip but not from base,
// newest first, matching `git log base..tip`.
func commitsNotIn(ctx context.Context, tip, base *object.Commit) ([]*object.Commit, error) {
	excluded := map[plumbing.Hash]bool{}
	err := object.NewCommitPreorderIter(base, nil, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, walkError(err)
	}

	var out []*object.Commit
	err = object.NewCommitPreorderIter(tip, excluded, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, walkError(err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Committer.When.After(out[j].Committer.When)
	})
	return out, nil
}

func walkError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return appErrors.New(appErrors.CodeGitFailed, "walk history", err)
}

func toCommit(c *object.Commit) Commit {
	long := c.Hash.String()
	subject := strings.TrimSpace(c.Message)
	if idx := strings.IndexByte(subject, '\n'); idx >= 0 {
		subject = strings.TrimSpace(subject[:idx])
	}
	return Commit{
		ShortHash: ShortHash(long),
		LongHash:  long,
		Author:    c.Author.Name,
		Message:   subject,
	}
}

func (n *nativeGit) pull(ctx context.Context) error {
	return n.cli.pull(ctx)
}

func (n *nativeGit) gitDir(ctx context.Context) (string, error) {
	repo, err := n.open()
	if err != nil {
		return "", err
	}
	if fs, ok := repo.Storer.(*filesystem.Storage); ok {
		return fs.Filesystem().Root(), nil
	}
	return n.cli.gitDir(ctx)
}
