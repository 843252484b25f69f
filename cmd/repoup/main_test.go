package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"repoup/internal/config"
	"repoup/internal/helper"
	"repoup/internal/history"
	"repoup/internal/ui"
	"repoup/internal/watch"
)

type testEnv struct {
	deps   deps
	mock   *helper.Mock
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	ran    int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cleanup := config.ResetForTesting(t)
	t.Cleanup(cleanup)

	mock := helper.NewMock()
	mock.RepoInfoFn = func(context.Context) helper.Result[helper.RepoInfo] {
		return helper.Ok(helper.RepoInfo{
			RepositoryURL:     "https://github.com/acme/widget",
			CurrentCommitHash: "0123456789abcdef0123456789abcdef01234567",
			Branch:            "main",
		})
	}
	mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Ok([]helper.Commit{
			{ShortHash: "abcdef0", LongHash: "abcdef0123", Author: "Dana", Message: "Fix relaunch"},
			{ShortHash: "bcdef01", LongHash: "bcdef01234", Author: "Robin", Message: "Add nord palette"},
		})
	}
	mock.UpdateFn = func(context.Context) helper.Result[helper.Unit] { return helper.Ok(helper.Unit{}) }
	mock.RebuildFn = func(context.Context) helper.Result[helper.Unit] { return helper.Ok(helper.Unit{}) }
	mock.RelaunchFn = func() error { return nil }

	env := &testEnv{mock: mock, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.deps = deps{
		stdout:    env.stdout,
		stderr:    env.stderr,
		newHelper: func() (helper.Helper, error) { return mock, nil },
		runProgram: func(app *ui.App) error {
			env.ran++
			return nil
		},
	}
	return env
}

func TestCheckJSON(t *testing.T) {
	env := newTestEnv(t)

	if code := execute(env.deps, []string{"check", "--json"}); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	var report checkReport
	if err := json.Unmarshal(env.stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, env.stdout)
	}
	if report.Repo == nil || report.Repo.Branch != "main" {
		t.Fatalf("repo = %+v", report.Repo)
	}
	if len(report.Pending) != 2 || report.Pending[0].ShortHash != "abcdef0" {
		t.Fatalf("pending = %+v", report.Pending)
	}
	if report.UpToDate {
		t.Fatal("upToDate should be false with pending commits")
	}
}

func TestCheckText(t *testing.T) {
	tests := []struct {
		name    string
		commits []helper.Commit
		want    string
	}{
		{name: "up to date", commits: []helper.Commit{}, want: "Up to Date!"},
		{name: "one", commits: []helper.Commit{{ShortHash: "abcdef0", Author: "Dana", Message: "Fix"}}, want: "There is 1 Update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
				return helper.Ok(tt.commits)
			}
			if code := execute(env.deps, []string{"check"}); code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			out := env.stdout.String()
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "acme/widget") {
				t.Fatalf("unexpected output:\n%s", out)
			}
		})
	}
}

func TestCheckFailureExitsNonZero(t *testing.T) {
	env := newTestEnv(t)
	env.mock.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Fail[[]helper.Commit](helper.Failure{Cmd: "git fetch origin", Message: "could not resolve host"})
	}

	if code := execute(env.deps, []string{"check"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "Error occurred when running: git fetch origin") {
		t.Fatalf("missing failure detail:\n%s", out)
	}
	if strings.Contains(env.stderr.String(), "command failed") {
		t.Fatalf("already-reported failure printed twice: %s", env.stderr)
	}
}

func TestCheckRecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	env.deps.openHistory = func(ctx context.Context) (*history.Store, error) {
		return history.Open(ctx, dbPath)
	}

	if code := execute(env.deps, []string{"check"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}

	store, err := history.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	entry, ok, err := store.Last(context.Background())
	if err != nil || !ok {
		t.Fatalf("Last = %+v, %v, %v", entry, ok, err)
	}
	if entry.PendingCount != 2 || entry.HeadHash != "0123456789abcdef0123456789abcdef01234567" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		update       helper.Result[helper.Unit]
		rebuild      helper.Result[helper.Unit]
		wantCode     int
		wantOut      string
		wantErr      string
		wantRebuild  int
		wantRelaunch int
	}{
		{
			name:        "success without restart",
			args:        []string{"apply"},
			update:      helper.Ok(helper.Unit{}),
			rebuild:     helper.Ok(helper.Unit{}),
			wantOut:     "Update Success!",
			wantRebuild: 1,
		},
		{
			name:         "success with restart",
			args:         []string{"apply", "--restart"},
			update:       helper.Ok(helper.Unit{}),
			rebuild:      helper.Ok(helper.Unit{}),
			wantOut:      "Update Success!",
			wantRebuild:  1,
			wantRelaunch: 1,
		},
		{
			name:     "update fails",
			args:     []string{"apply", "--restart"},
			update:   helper.Fail[helper.Unit](helper.Failure{Cmd: "git pull --ff-only", Message: "fatal: Not possible to fast-forward"}),
			rebuild:  helper.Ok(helper.Unit{}),
			wantCode: 1,
			wantErr:  "Failed to update. Check the console for more info",
		},
		{
			name:        "rebuild fails",
			args:        []string{"apply", "--restart"},
			update:      helper.Ok(helper.Unit{}),
			rebuild:     helper.Fail[helper.Unit](helper.Failure{}),
			wantCode:    1,
			wantErr:     "An unknown error occurred",
			wantRebuild: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mock.UpdateFn = func(context.Context) helper.Result[helper.Unit] { return tt.update }
			env.mock.RebuildFn = func(context.Context) helper.Result[helper.Unit] { return tt.rebuild }

			if code := execute(env.deps, tt.args); code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if tt.wantOut != "" && !strings.Contains(env.stdout.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, env.stdout)
			}
			if tt.wantErr != "" && !strings.Contains(env.stderr.String(), tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, env.stderr)
			}
			_, _, _, rebuilds, relaunches := env.mock.Counts()
			if rebuilds != tt.wantRebuild {
				t.Errorf("rebuild calls = %d, want %d", rebuilds, tt.wantRebuild)
			}
			if relaunches != tt.wantRelaunch {
				t.Errorf("relaunch calls = %d, want %d", relaunches, tt.wantRelaunch)
			}
		})
	}
}

func TestApplyRelaunchError(t *testing.T) {
	env := newTestEnv(t)
	env.mock.RelaunchFn = func() error { return errors.New("exec format error") }

	if code := execute(env.deps, []string{"apply", "--restart"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(env.stderr.String(), "relaunch: exec format error") {
		t.Fatalf("stderr = %s", env.stderr)
	}
}

func TestRootRunsProgram(t *testing.T) {
	env := newTestEnv(t)
	if code := execute(env.deps, nil); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if env.ran != 1 {
		t.Fatalf("program ran %d times", env.ran)
	}
	if _, _, _, _, relaunches := env.mock.Counts(); relaunches != 0 {
		t.Fatal("relaunched without confirmation")
	}
}

func TestRootToleratesHistoryAndWatchFailures(t *testing.T) {
	env := newTestEnv(t)
	env.deps.openHistory = func(context.Context) (*history.Store, error) {
		return nil, errors.New("disk full")
	}
	env.deps.startWatch = func(context.Context, helper.Helper) (*watch.Watcher, error) {
		return nil, errors.New("too many open files")
	}
	if code := execute(env.deps, nil); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if env.ran != 1 {
		t.Fatal("program did not run")
	}
}

func TestRootHelperError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.newHelper = func() (helper.Helper, error) {
		return nil, errors.New(`unknown backend "svn"`)
	}
	if code := execute(env.deps, []string{"--backend", "svn"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(env.stderr.String(), `Error: unknown backend "svn"`) {
		t.Fatalf("stderr = %s", env.stderr)
	}
	if env.ran != 0 {
		t.Fatal("program ran despite helper error")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)
	var gotRemote, gotBackend string
	env.deps.newHelper = func() (helper.Helper, error) {
		gotRemote = config.GetString(config.KeyRepoRemote)
		gotBackend = config.GetString(config.KeyBackend)
		return env.mock, nil
	}
	if code := execute(env.deps, []string{"check", "--remote", "upstream", "--backend", "native"}); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if gotRemote != "upstream" || gotBackend != "native" {
		t.Fatalf("remote=%q backend=%q", gotRemote, gotBackend)
	}
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	env := newTestEnv(t)
	if err := config.Set(config.KeyRepoRemote, "mirror"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var gotRemote string
	env.deps.newHelper = func() (helper.Helper, error) {
		gotRemote = config.GetString(config.KeyRepoRemote)
		return env.mock, nil
	}
	if code := execute(env.deps, []string{"check"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotRemote != "mirror" {
		t.Fatalf("remote = %q, want config value", gotRemote)
	}
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	if code := execute(env.deps, []string{"version"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(env.stdout.String(), "repoup version "+Version) {
		t.Fatalf("stdout = %q", env.stdout)
	}
}

func TestFormatStepMessage(t *testing.T) {
	if got := formatStepMessage("update"); got != "Pulling upstream commits..." {
		t.Errorf("update step = %q", got)
	}
	if got := formatStepMessage("other"); got != "Working..." {
		t.Errorf("unknown step = %q", got)
	}
}
