package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	appErrors "repoup/internal/errors"
	"repoup/internal/helper"
	"repoup/internal/update"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(context.Background(), path, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreEmpty(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Last(context.Background())
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if ok {
		t.Fatal("expected empty history")
	}
}

func TestStoreRecordAndLast(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := s.Record(ctx, update.CheckRecord{CheckedAt: base, HeadHash: "aaa", PendingCount: 3}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	failure := helper.Failure{Cmd: "git fetch origin", Message: "offline"}
	if err := s.Record(ctx, update.CheckRecord{CheckedAt: base.Add(time.Minute), HeadHash: "aaa", Failure: &failure}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	last, ok, err := s.Last(ctx)
	if err != nil || !ok {
		t.Fatalf("Last = %v, %v", ok, err)
	}
	if !last.Failed || last.FailureCmd != "git fetch origin" || last.FailureMessage != "offline" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if !last.CheckedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("checked_at = %s, want %s", last.CheckedAt, base.Add(time.Minute))
	}

	success, ok, err := s.LastSuccess(ctx)
	if err != nil || !ok {
		t.Fatalf("LastSuccess = %v, %v", ok, err)
	}
	if success.PendingCount != 3 || success.HeadHash != "aaa" || success.Failed {
		t.Fatalf("unexpected last success %+v", success)
	}
}

func TestStoreRecordPrunes(t *testing.T) {
	s := openTestStore(t, WithKeep(3))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, update.CheckRecord{CheckedAt: base.Add(time.Duration(i) * time.Hour), PendingCount: i}); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries after pruning, got %d", len(entries))
	}
	for i, want := range []int{4, 3, 2} {
		if entries[i].PendingCount != want {
			t.Fatalf("entry %d pending = %d, want %d", i, entries[i].PendingCount, want)
		}
	}

	removed, err := s.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestStoreImplementsRecorder(t *testing.T) {
	var _ update.Recorder = (*Store)(nil)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
		t.Fatalf("expected configuration_error, got %v", err)
	}
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Record(ctx, update.CheckRecord{HeadHash: "persisted"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	last, ok, err := reopened.Last(ctx)
	if err != nil || !ok || last.HeadHash != "persisted" {
		t.Fatalf("Last after reopen = %+v, %v, %v", last, ok, err)
	}
}
