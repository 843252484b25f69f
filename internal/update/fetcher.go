package update

import (
	"context"
	"sync"
	"time"

	"repoup/internal/debug"
	"repoup/internal/helper"
)

// CheckRecord describes one completed pending-commit check.
type CheckRecord struct {
	CheckedAt    time.Time
	HeadHash     string
	PendingCount int
	Failure      *helper.Failure
}

// Recorder persists completed checks.
type Recorder interface {
	Record(ctx context.Context, rec CheckRecord) error
}

// Fetcher asks the helper for repository status and logs every failure.
type Fetcher struct {
	helper   helper.Helper
	recorder Recorder
	now      func() time.Time

	mu       sync.Mutex
	lastHead string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRecorder stores each completed pending-commit check.
func WithRecorder(r Recorder) FetcherOption {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// WithClock overrides the time source used for check records.
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher wraps a helper.
func NewFetcher(h helper.Helper, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{helper: h, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRepoInfo returns the checkout's identity. Safe to call concurrently
// with FetchPendingCommits.
func (f *Fetcher) FetchRepoInfo(ctx context.Context) helper.Result[helper.RepoInfo] {
	res := f.helper.RepoInfo(ctx)
	if info, ok := res.Value(); ok {
		f.mu.Lock()
		f.lastHead = info.CurrentCommitHash
		f.mu.Unlock()
		return res
	}
	logFailure("fetch repo info", res)
	return res
}

// FetchPendingCommits returns the commits upstream that are not in HEAD.
func (f *Fetcher) FetchPendingCommits(ctx context.Context) helper.Result[[]helper.Commit] {
	res := f.helper.NewCommits(ctx)
	commits, ok := res.Value()
	if ok {
		debug.Logf("check found %d pending commit(s)", len(commits))
	} else {
		logFailure("check for updates", res)
	}
	f.record(ctx, res)
	return res
}

func (f *Fetcher) record(ctx context.Context, res helper.Result[[]helper.Commit]) {
	if f.recorder == nil {
		return
	}
	f.mu.Lock()
	head := f.lastHead
	f.mu.Unlock()

	rec := CheckRecord{CheckedAt: f.now(), HeadHash: head}
	if commits, ok := res.Value(); ok {
		rec.PendingCount = len(commits)
	} else {
		failure, _ := res.Failure()
		rec.Failure = &failure
	}
	if err := f.recorder.Record(ctx, rec); err != nil {
		debug.Logf("record check: %v", err)
	}
}

func logFailure[T any](op string, res helper.Result[T]) {
	if failure, failed := res.Failure(); failed {
		debug.LogFailure(op, failure.Cmd, failure.Message)
	}
}
