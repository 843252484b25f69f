// Package history keeps a small SQLite log of update checks so the updater
// can show when it last looked upstream.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	appErrors "repoup/internal/errors"
	"repoup/internal/update"
)

// DefaultKeep is how many checks are retained after each insert.
const DefaultKeep = 100

const schema = `
CREATE TABLE IF NOT EXISTS checks (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	checked_at      INTEGER NOT NULL,
	head_hash       TEXT    NOT NULL DEFAULT '',
	pending_count   INTEGER NOT NULL DEFAULT 0,
	failed          INTEGER NOT NULL DEFAULT 0,
	failure_cmd     TEXT    NOT NULL DEFAULT '',
	failure_message TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at);
`

// Entry is one stored check.
type Entry struct {
	ID             int64
	CheckedAt      time.Time
	HeadHash       string
	PendingCount   int
	Failed         bool
	FailureCmd     string
	FailureMessage string
}

// Store is a SQLite-backed check history. It implements update.Recorder.
type Store struct {
	db   *sql.DB
	path string
	keep int

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKeep sets how many entries Record retains. Non-positive keeps all.
func WithKeep(n int) Option {
	return func(s *Store) {
		s.keep = n
	}
}

// Open creates (if needed) and opens the history database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, appErrors.New(appErrors.CodeConfigurationError, "history path is empty", nil)
	}
	//nolint:gosec // G301: user config directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryFailed, "create history directory", err)
	}
	db, err := sql.Open("sqlite", buildDSN(trimmed))
	if err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryFailed, fmt.Sprintf("open %s", trimmed), err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, appErrors.New(appErrors.CodeHistoryFailed, fmt.Sprintf("migrate %s", trimmed), err)
	}
	s := &Store{db: db, path: trimmed, keep: DefaultKeep}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func buildDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "journal_mode(WAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed check and prunes old entries.
func (s *Store) Record(ctx context.Context, rec update.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkedAt := rec.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}
	var failed int
	var failureCmd, failureMessage string
	if rec.Failure != nil {
		failed = 1
		failureCmd = rec.Failure.Cmd
		failureMessage = rec.Failure.Message
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checks (checked_at, head_hash, pending_count, failed, failure_cmd, failure_message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		checkedAt.UnixMilli(), rec.HeadHash, rec.PendingCount, failed, failureCmd, failureMessage)
	if err != nil {
		return appErrors.New(appErrors.CodeHistoryFailed, "insert check", err)
	}
	if s.keep > 0 {
		if _, err := s.prune(ctx, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// Last returns the most recent check. ok is false when the history is empty.
func (s *Store) Last(ctx context.Context) (Entry, bool, error) {
	entries, err := s.Recent(ctx, 1)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// LastSuccess returns the most recent check that did not fail.
func (s *Store) LastSuccess(ctx context.Context) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, checked_at, head_hash, pending_count, failed, failure_cmd, failure_message
		FROM checks WHERE failed = 0
		ORDER BY checked_at DESC, id DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, appErrors.New(appErrors.CodeHistoryFailed, "query last success", err)
	}
	return e, true, nil
}

// Recent returns up to limit checks, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, checked_at, head_hash, pending_count, failed, failure_cmd, failure_message
		FROM checks
		ORDER BY checked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryFailed, "query checks", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, appErrors.New(appErrors.CodeHistoryFailed, "scan check", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.New(appErrors.CodeHistoryFailed, "iterate checks", err)
	}
	return entries, nil
}

// Prune keeps the newest keep entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prune(ctx, keep)
}

func (s *Store) prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM checks WHERE id NOT IN (
			SELECT id FROM checks ORDER BY checked_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, appErrors.New(appErrors.CodeHistoryFailed, "prune checks", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e         Entry
		checkedAt int64
		failed    int
	)
	if err := row.Scan(&e.ID, &checkedAt, &e.HeadHash, &e.PendingCount, &failed, &e.FailureCmd, &e.FailureMessage); err != nil {
		return Entry{}, err
	}
	e.CheckedAt = time.UnixMilli(checkedAt)
	e.Failed = failed != 0
	return e, nil
}
