package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"repoup/internal/config"
	"repoup/internal/debug"
	appErrors "repoup/internal/errors"
	"repoup/internal/helper"
	"repoup/internal/history"
	"repoup/internal/ui"
	"repoup/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
)

// deps are the seams the commands are built on. Tests replace them.
type deps struct {
	stdout io.Writer
	stderr io.Writer

	newHelper   func() (helper.Helper, error)
	openHistory func(ctx context.Context) (*history.Store, error)
	startWatch  func(ctx context.Context, h helper.Helper) (*watch.Watcher, error)
	runProgram  func(app *ui.App) error
}

func defaultDeps() deps {
	return deps{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newHelper:   helperFromConfig,
		openHistory: historyFromConfig,
		startWatch:  watchFromConfig,
		runProgram: func(app *ui.App) error {
			_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func helperFromConfig() (helper.Helper, error) {
	h, err := helper.New(
		helper.WithRepoPath(config.GetString(config.KeyRepoPath)),
		helper.WithRemote(config.GetString(config.KeyRepoRemote)),
		helper.WithBackend(config.GetString(config.KeyBackend)),
		helper.WithBuildCommand(config.GetStringSlice(config.KeyBuildCommand)),
		helper.WithFailureMarker(config.GetString(config.KeyBuildFailureMarker)),
		helper.WithRelaunchCommand(config.GetStringSlice(config.KeyRelaunchCommand)),
		helper.WithTimeout(config.GetDuration(config.KeyHelperTimeout)),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// historyFromConfig opens the check history. An empty history.path
// disables it and returns a nil store.
func historyFromConfig(ctx context.Context) (*history.Store, error) {
	path := strings.TrimSpace(config.GetString(config.KeyHistoryPath))
	if path == "" {
		return nil, nil
	}
	return history.Open(ctx, path)
}

// gitDirHelper is implemented by helpers backed by a real checkout.
type gitDirHelper interface {
	GitDir(ctx context.Context) (string, error)
	Remote() string
}

func watchFromConfig(ctx context.Context, h helper.Helper) (*watch.Watcher, error) {
	if !config.GetBool(config.KeyWatch) {
		return nil, nil
	}
	local, ok := h.(gitDirHelper)
	if !ok {
		return nil, appErrors.New(appErrors.CodeConfigurationError, "watch needs a git checkout", nil)
	}
	gitDir, err := local.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	return watch.New(gitDir, local.Remote())
}

// openOptionalHistory opens the history store, logging and continuing
// without one when it cannot be opened.
func openOptionalHistory(ctx context.Context, d deps) *history.Store {
	if d.openHistory == nil {
		return nil
	}
	store, err := d.openHistory(ctx)
	if err != nil {
		debug.Logf("history disabled: %v", err)
		return nil
	}
	return store
}

// errSilent is returned by commands that already reported their failure.
var errSilent = errors.New("command failed")

func isSilent(err error) bool {
	return errors.Is(err, errSilent)
}
