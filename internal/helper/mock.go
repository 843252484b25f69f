package helper

import (
	"context"
	"errors"
	"sync"
)

// ErrMockNotImplemented is returned when a Mock method lacks an override.
var ErrMockNotImplemented = errors.New("helper.Mock: method not implemented")

// Mock is a test double for Helper. Methods without a stub return an
// unknown-failure Result.
type Mock struct {
	RepoInfoFn   func(context.Context) Result[RepoInfo]
	NewCommitsFn func(context.Context) Result[[]Commit]
	UpdateFn     func(context.Context) Result[Unit]
	RebuildFn    func(context.Context) Result[Unit]
	RelaunchFn   func() error

	mu                  sync.Mutex
	RepoInfoCallCount   int
	NewCommitsCallCount int
	UpdateCallCount     int
	RebuildCallCount    int
	RelaunchCallCount   int
	// Calls records method names in call order.
	Calls []string
}

// NewMock returns a Mock with zeroed handlers.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) record(name string, counter *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
	m.Calls = append(m.Calls, name)
}

// RepoInfo invokes the configured stub.
func (m *Mock) RepoInfo(ctx context.Context) Result[RepoInfo] {
	m.record("RepoInfo", &m.RepoInfoCallCount)
	if m.RepoInfoFn == nil {
		return Result[RepoInfo]{}
	}
	return m.RepoInfoFn(ctx)
}

// NewCommits invokes the configured stub.
func (m *Mock) NewCommits(ctx context.Context) Result[[]Commit] {
	m.record("NewCommits", &m.NewCommitsCallCount)
	if m.NewCommitsFn == nil {
		return Result[[]Commit]{}
	}
	return m.NewCommitsFn(ctx)
}

// Update invokes the configured stub.
func (m *Mock) Update(ctx context.Context) Result[Unit] {
	m.record("Update", &m.UpdateCallCount)
	if m.UpdateFn == nil {
		return Result[Unit]{}
	}
	return m.UpdateFn(ctx)
}

// Rebuild invokes the configured stub.
func (m *Mock) Rebuild(ctx context.Context) Result[Unit] {
	m.record("Rebuild", &m.RebuildCallCount)
	if m.RebuildFn == nil {
		return Result[Unit]{}
	}
	return m.RebuildFn(ctx)
}

// Relaunch invokes the configured stub or returns ErrMockNotImplemented.
func (m *Mock) Relaunch() error {
	m.record("Relaunch", &m.RelaunchCallCount)
	if m.RelaunchFn == nil {
		return ErrMockNotImplemented
	}
	return m.RelaunchFn()
}

// Counts returns a consistent snapshot of call counts.
func (m *Mock) Counts() (repoInfo, newCommits, update, rebuild, relaunch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RepoInfoCallCount, m.NewCommitsCallCount, m.UpdateCallCount, m.RebuildCallCount, m.RelaunchCallCount
}
