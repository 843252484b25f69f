package ui

import (
	"context"
	"strings"
	"testing"

	"repoup/internal/helper"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

const testRepoURL = "https://github.com/acme/widget"

func testRepoInfo() helper.RepoInfo {
	return helper.RepoInfo{
		RepositoryURL:     testRepoURL,
		CurrentCommitHash: "0123456789abcdef0123456789abcdef01234567",
		Branch:            "main",
	}
}

func testCommits(n int) []helper.Commit {
	commits := make([]helper.Commit, 0, n)
	subjects := []string{"Fix relaunch on macOS", "Add nord palette", "Bump glamour", "Trim log noise"}
	for i := 0; i < n; i++ {
		long := string(rune('a'+i)) + "bcdef0123456789abcdef0123456789abcdef01"
		commits = append(commits, helper.Commit{
			ShortHash: long[:7],
			LongHash:  long,
			Author:    "Dana",
			Message:   subjects[i%len(subjects)],
		})
	}
	return commits
}

func okMock(info helper.RepoInfo, commits []helper.Commit) *helper.Mock {
	m := helper.NewMock()
	m.RepoInfoFn = func(context.Context) helper.Result[helper.RepoInfo] {
		return helper.Ok(info)
	}
	m.NewCommitsFn = func(context.Context) helper.Result[[]helper.Commit] {
		return helper.Ok(commits)
	}
	m.UpdateFn = func(context.Context) helper.Result[helper.Unit] {
		return helper.Ok(helper.Unit{})
	}
	m.RebuildFn = func(context.Context) helper.Result[helper.Unit] {
		return helper.Ok(helper.Unit{})
	}
	m.RelaunchFn = func() error { return nil }
	return m
}

func newTestApp(t *testing.T, h helper.Helper) *App {
	t.Helper()
	app, err := NewApp(Config{Helper: h, OutputFormat: "plain"})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.width = 100
	app.height = 40
	return app
}

// execCmd runs cmd and flattens batches into the messages they produce.
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, execCmd(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// settle feeds every message produced by cmd back into the app until no
// work is left, the way the program loop would. Timer ticks are skipped.
// It reports whether the app asked to quit.
func settle(t *testing.T, app *App, cmd tea.Cmd) bool {
	t.Helper()
	quit := false
	queue := execCmd(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("settle: too many messages")
		}
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case spinner.TickMsg, toastTickMsg:
			continue
		case tea.QuitMsg:
			quit = true
			continue
		}
		_, next := app.Update(msg)
		queue = append(queue, execCmd(next)...)
	}
	return quit
}

func press(t *testing.T, app *App, keys string) bool {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	_, cmd := app.Update(msg)
	return settle(t, app, cmd)
}

func plainView(app *App) string {
	return ansi.Strip(app.View())
}

// buttonRow returns the line holding the action buttons.
func buttonRow(view string) string {
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, "Check for updates") {
			return line
		}
	}
	return ""
}
