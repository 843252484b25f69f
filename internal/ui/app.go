package ui

import (
	"context"
	"fmt"
	"time"

	"repoup/internal/config"
	"repoup/internal/debug"
	"repoup/internal/helper"
	"repoup/internal/history"
	"repoup/internal/ui/theme"
	"repoup/internal/update"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var clipboardWriteAll = clipboard.WriteAll

// CheckHistory looks up earlier checks for the footer.
type CheckHistory interface {
	LastSuccess(ctx context.Context) (history.Entry, bool, error)
}

// Config configures the UI application.
type Config struct {
	Helper helper.Helper
	// Recorder, if set, stores each completed pending-commit check.
	Recorder update.Recorder
	History  CheckHistory
	// WatchEvents triggers a re-check on every receive.
	WatchEvents  <-chan struct{}
	Links        bool
	OutputFormat string
}

// App implements the Bubble Tea model for the updater modal.
type App struct {
	helper  helper.Helper
	fetcher *update.Fetcher
	machine *update.Machine
	history CheckHistory
	watch   <-chan struct{}

	repoInfo    *helper.RepoInfo
	repoPending bool
	commits     []helper.Commit
	// fetchErr holds the latest failure of either fetch.
	fetchErr *helper.Failure
	retryKey int
	checking bool
	// noUpdatesToastKey is the retry key the "No updates found" toast
	// was last shown for.
	noUpdatesToastKey int

	cursor      int
	focus       Button
	lastChecked time.Time

	alert        *AlertOverlay
	toast        *toast
	toastTicking bool

	spinner  spinner.Model
	spinning bool
	help     help.Model
	keys     KeyMap
	links    Linker
	markdown func(string) string

	width             int
	height            int
	relaunchRequested bool
}

// NewApp creates the updater modal.
func NewApp(cfg Config) (*App, error) {
	if cfg.Helper == nil {
		return nil, fmt.Errorf("ui: helper is required")
	}
	var fetchOpts []update.FetcherOption
	if cfg.Recorder != nil {
		fetchOpts = append(fetchOpts, update.WithRecorder(cfg.Recorder))
	}
	return &App{
		helper:            cfg.Helper,
		fetcher:           update.NewFetcher(cfg.Helper, fetchOpts...),
		machine:           &update.Machine{},
		history:           cfg.History,
		watch:             cfg.WatchEvents,
		repoPending:       true,
		checking:          true,
		noUpdatesToastKey: -1,
		focus:             ButtonCheck,
		spinner:           spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:              help.New(),
		keys:              DefaultKeyMap(),
		links:             Linker{Enabled: cfg.Links},
		markdown:          buildMarkdownRenderer(cfg.OutputFormat, contentWidth(ModalWidth)),
	}, nil
}

// RelaunchRequested reports whether the user confirmed the restart prompt.
// The caller relaunches once the program has exited and the terminal is
// restored.
func (m *App) RelaunchRequested() bool {
	return m.relaunchRequested
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(
		m.fetchRepoInfo(),
		m.fetchCommits(m.retryKey),
		m.loadLastChecked(),
		m.waitForWatch(),
		m.startSpinner(),
	)
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case repoInfoMsg:
		m.handleRepoInfo(msg)
		return m, nil
	case commitsMsg:
		return m, m.handleCommits(msg)
	case applyDoneMsg:
		return m, m.handleApplyDone(msg)
	case AlertConfirmedMsg:
		return m, m.handleAlertConfirmed(msg)
	case AlertCancelledMsg:
		m.alert = nil
		m.fire(update.EventDismiss)
		return m, nil
	case lastCheckedMsg:
		if m.lastChecked.IsZero() {
			m.lastChecked = msg.at
		}
		return m, nil
	case watchEventMsg:
		cmds := []tea.Cmd{m.waitForWatch()}
		if !m.working() {
			debug.Log("watch: remote refs changed, re-checking")
			cmds = append(cmds, m.startCheck())
		}
		return m, tea.Batch(cmds...)
	case toastTickMsg:
		if m.toast == nil || m.toast.expired(timeNow()) {
			m.toast = nil
			m.toastTicking = false
			return m, nil
		}
		return m, scheduleToastTick()
	case spinner.TickMsg:
		if !m.working() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.alert != nil {
			var cmd tea.Cmd
			m.alert, cmd = m.alert.Update(msg)
			return m, cmd
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *App) handleRepoInfo(msg repoInfoMsg) {
	m.repoPending = false
	if info, ok := msg.result.Value(); ok {
		m.repoInfo = &info
		return
	}
	failure, _ := msg.result.Failure()
	m.repoInfo = nil
	m.fetchErr = &failure
}

func (m *App) handleCommits(msg commitsMsg) tea.Cmd {
	if msg.key != m.retryKey {
		debug.Logf("dropping stale check result (key %d, current %d)", msg.key, m.retryKey)
		return nil
	}
	m.checking = false
	commits, ok := msg.result.Value()
	if !ok {
		failure, _ := msg.result.Failure()
		m.commits = nil
		m.fetchErr = &failure
		return nil
	}
	if commits == nil {
		commits = []helper.Commit{}
	}
	m.commits = commits
	m.lastChecked = timeNow()
	m.clampSelection()
	if len(commits) == 0 && m.noUpdatesToastKey != msg.key {
		m.noUpdatesToastKey = msg.key
		return m.showToast("No updates found", toastInfo)
	}
	return nil
}

func (m *App) handleApplyDone(msg applyDoneMsg) tea.Cmd {
	m.fire(msg.outcome.Event)
	switch m.machine.Phase() {
	case update.PhaseFailedUpdate:
		m.alert = newFailureAlert(alertUpdateFailed, "Failed to update. Check the console for more info")
	case update.PhaseFailedRebuild:
		m.alert = newFailureAlert(alertRebuildFailed, "The Build failed. Please try manually building the new update")
	case update.PhaseAwaitingRestart:
		m.alert = newRestartPrompt()
		// HEAD moved; refresh what the modal shows behind the prompt.
		m.repoPending = true
		return tea.Batch(m.fetchRepoInfo(), m.startCheck())
	}
	return nil
}

func (m *App) handleAlertConfirmed(msg AlertConfirmedMsg) tea.Cmd {
	m.alert = nil
	if msg.kind != alertRestart {
		m.fire(update.EventDismiss)
		return nil
	}
	if !m.fire(update.EventConfirm) {
		return nil
	}
	m.relaunchRequested = true
	return tea.Quit
}

func (m *App) fire(ev update.Event) bool {
	if err := m.machine.Fire(ev); err != nil {
		debug.Logf("ui: %v", err)
		return false
	}
	return true
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Update):
		return m.press(ButtonUpdate)
	case key.Matches(msg, m.keys.Check):
		return m.press(ButtonCheck)
	case key.Matches(msg, m.keys.Tab):
		m.cycleFocus(msg.String() == "shift+tab")
	case key.Matches(msg, m.keys.Enter):
		return m.press(m.focus)
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.commits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Copy):
		return m.copySelectedHash()
	case key.Matches(msg, m.keys.Theme):
		name := theme.CycleTheme()
		if err := config.SaveTheme(name); err != nil {
			debug.Logf("save theme: %v", err)
		}
		return m.showToast("Theme: "+name, toastInfo)
	}
	return nil
}

// press runs a button's action. Both buttons are inert while updating.
func (m *App) press(b Button) tea.Cmd {
	if m.machine.Busy() {
		return nil
	}
	switch b {
	case ButtonUpdate:
		if len(m.commits) == 0 {
			return nil
		}
		return m.startApply()
	case ButtonCheck:
		return m.startCheck()
	}
	return nil
}

func (m *App) startCheck() tea.Cmd {
	m.retryKey++
	m.checking = true
	m.commits = nil
	m.clampSelection()
	// A failure from the repo-info fetch stays until that fetch succeeds.
	if m.repoInfo != nil {
		m.fetchErr = nil
	}
	return tea.Batch(m.fetchCommits(m.retryKey), m.startSpinner())
}

func (m *App) startApply() tea.Cmd {
	if !m.fire(update.EventStart) {
		return nil
	}
	h := m.helper
	apply := func() tea.Msg {
		return applyDoneMsg{outcome: update.Run(context.Background(), h)}
	}
	return tea.Batch(apply, m.startSpinner())
}

func (m *App) cycleFocus(reverse bool) {
	buttons := m.state().Buttons()
	idx := 0
	for i, b := range buttons {
		if b == m.focus {
			idx = i
		}
	}
	if reverse {
		idx = (idx - 1 + len(buttons)) % len(buttons)
	} else {
		idx = (idx + 1) % len(buttons)
	}
	m.focus = buttons[idx]
}

func (m *App) clampSelection() {
	if m.cursor >= len(m.commits) {
		m.cursor = len(m.commits) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(m.commits) == 0 && m.focus == ButtonUpdate {
		m.focus = ButtonCheck
	}
}

func (m *App) copySelectedHash() tea.Cmd {
	if m.cursor >= len(m.commits) {
		return nil
	}
	hash := m.commits[m.cursor].LongHash
	if err := clipboardWriteAll(hash); err != nil {
		debug.Logf("copy %s: %v", hash, err)
		return m.showToast("Could not copy to clipboard", toastError)
	}
	return m.showToast(fmt.Sprintf("Copied %s to clipboard.", helper.ShortHash(hash)), toastSuccess)
}

func (m *App) showToast(text string, kind toastKind) tea.Cmd {
	m.toast = newToast(text, kind)
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return scheduleToastTick()
}

func (m *App) working() bool {
	return m.checking || m.machine.Busy()
}

func (m *App) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *App) fetchRepoInfo() tea.Cmd {
	f := m.fetcher
	return func() tea.Msg {
		return repoInfoMsg{result: f.FetchRepoInfo(context.Background())}
	}
}

func (m *App) fetchCommits(retryKey int) tea.Cmd {
	f := m.fetcher
	return func() tea.Msg {
		return commitsMsg{key: retryKey, result: f.FetchPendingCommits(context.Background())}
	}
}

func (m *App) loadLastChecked() tea.Cmd {
	if m.history == nil {
		return nil
	}
	h := m.history
	return func() tea.Msg {
		entry, ok, err := h.LastSuccess(context.Background())
		if err != nil {
			debug.Logf("load check history: %v", err)
			return nil
		}
		if !ok {
			return nil
		}
		return lastCheckedMsg{at: entry.CheckedAt}
	}
}

func (m *App) waitForWatch() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	ch := m.watch
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return watchEventMsg{}
	}
}

func (m *App) state() ModalState {
	s := ModalState{
		RepoInfo:    m.repoInfo,
		Commits:     m.commits,
		FetchErr:    m.fetchErr,
		Updating:    m.machine.Busy(),
		Checking:    m.checking,
		Cursor:      m.cursor,
		Focus:       m.focus,
		LastChecked: m.lastChecked,
		Help:        m.help.ShortHelpView(m.keys.ShortHelp()),
		Links:       m.links,
		Markdown:    m.markdown,
	}
	// Hash links need the repo URL of the current HEAD.
	if m.repoPending {
		s.RepoInfo = nil
	}
	if m.working() {
		s.Spinner = m.spinner.View()
	}
	return s
}

func (m *App) View() string {
	content := RenderModal(m.state())
	if m.alert != nil {
		content = m.alert.View()
	}
	if m.toast != nil {
		content = lipgloss.JoinVertical(lipgloss.Center, content, m.toast.View(timeNow()))
	}
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
