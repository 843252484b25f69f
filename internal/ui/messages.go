package ui

import (
	"time"

	"repoup/internal/helper"
	"repoup/internal/update"

	tea "github.com/charmbracelet/bubbletea"
)

type repoInfoMsg struct {
	result helper.Result[helper.RepoInfo]
}

// commitsMsg carries the retry key the fetch was started with.
type commitsMsg struct {
	key    int
	result helper.Result[[]helper.Commit]
}

type applyDoneMsg struct {
	outcome update.Outcome
}

type lastCheckedMsg struct {
	at time.Time
}

type watchEventMsg struct{}

type toastTickMsg struct{}

func scheduleToastTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}
