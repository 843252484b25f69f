package update

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"repoup/internal/helper"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []CheckRecord
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, rec CheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func TestFetcherReturnsHelperResults(t *testing.T) {
	mock := helper.NewMock()
	mock.RepoInfoFn = func(context.Context) helper.Result[helper.RepoInfo] {
		return helper.Ok(helper.RepoInfo{RepositoryURL: "https://github.com/o/r", CurrentCommitHash: "abc123"})
	}
	mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Ok([]helper.Commit{{ShortHash: "b"}, {ShortHash: "a"}})
	}
	f := NewFetcher(mock)
	ctx := context.Background()

	info, ok := f.FetchRepoInfo(ctx).Value()
	if !ok || info.CurrentCommitHash != "abc123" {
		t.Fatalf("unexpected repo info %+v ok=%v", info, ok)
	}
	commits, ok := f.FetchPendingCommits(ctx).Value()
	if !ok || len(commits) != 2 || commits[0].ShortHash != "b" {
		t.Fatalf("expected commits in helper order, got %+v", commits)
	}
}

func TestFetcherPassesFailuresThrough(t *testing.T) {
	mock := helper.NewMock()
	mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Fail[[]helper.Commit](helper.Failure{Cmd: "git fetch origin", Message: "offline"})
	}
	f := NewFetcher(mock)

	res := f.FetchPendingCommits(context.Background())
	failure, failed := res.Failure()
	if !failed || failure.Cmd != "git fetch origin" || failure.Message != "offline" {
		t.Fatalf("unexpected result %+v failed=%v", failure, failed)
	}

	// An unstubbed RepoInfo is an unknown failure, not a panic.
	failure, failed = f.FetchRepoInfo(context.Background()).Failure()
	if !failed || !failure.Unknown() {
		t.Fatalf("expected unknown failure, got %+v", failure)
	}
}

func TestFetcherRecordsChecks(t *testing.T) {
	checkedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{}
	mock := helper.NewMock()
	mock.RepoInfoFn = func(context.Context) helper.Result[helper.RepoInfo] {
		return helper.Ok(helper.RepoInfo{CurrentCommitHash: "head1"})
	}
	calls := 0
	mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		calls++
		if calls == 1 {
			return helper.Ok([]helper.Commit{{ShortHash: "x"}})
		}
		return helper.Fail[[]helper.Commit](helper.Failure{Message: "boom"})
	}
	f := NewFetcher(mock, WithRecorder(rec), WithClock(func() time.Time { return checkedAt }))
	ctx := context.Background()

	f.FetchRepoInfo(ctx)
	f.FetchPendingCommits(ctx)
	f.FetchPendingCommits(ctx)

	if len(rec.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rec.records))
	}
	first := rec.records[0]
	if first.PendingCount != 1 || first.HeadHash != "head1" || first.Failure != nil || !first.CheckedAt.Equal(checkedAt) {
		t.Fatalf("unexpected first record %+v", first)
	}
	second := rec.records[1]
	if second.Failure == nil || second.Failure.Message != "boom" {
		t.Fatalf("expected failure recorded, got %+v", second)
	}
}

func TestFetcherIgnoresRecorderErrors(t *testing.T) {
	mock := helper.NewMock()
	mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Ok([]helper.Commit{})
	}
	f := NewFetcher(mock, WithRecorder(&fakeRecorder{err: errors.New("disk full")}))

	if !f.FetchPendingCommits(context.Background()).Ok() {
		t.Fatal("recorder errors must not turn a successful check into a failure")
	}
}
