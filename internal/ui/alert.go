package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type alertKind int

const (
	alertUpdateFailed alertKind = iota
	alertRebuildFailed
	alertRestart
)

// AlertOverlay is a blocking dialog. With an empty CancelText it is a plain
// alert and every dismiss key acknowledges it.
type AlertOverlay struct {
	Title       string
	Body        string
	ConfirmText string
	CancelText  string

	kind   alertKind
	danger bool
	keys   KeyMap
}

// AlertConfirmedMsg is sent when the confirm button is pressed.
type AlertConfirmedMsg struct {
	kind alertKind
}

// AlertCancelledMsg is sent when the dialog is dismissed without confirming.
type AlertCancelledMsg struct {
	kind alertKind
}

func newFailureAlert(kind alertKind, body string) *AlertOverlay {
	return &AlertOverlay{
		Title:       "Welp!",
		Body:        body,
		ConfirmText: "OK",
		kind:        kind,
		danger:      true,
		keys:        DefaultKeyMap(),
	}
}

func newRestartPrompt() *AlertOverlay {
	return &AlertOverlay{
		Title:       "Update Success!",
		Body:        "Successfully updated. Restart now to apply the changes?",
		ConfirmText: "Restart",
		CancelText:  "Not now!",
		kind:        alertRestart,
		keys:        DefaultKeyMap(),
	}
}

// Update implements tea.Model.
func (a *AlertOverlay) Update(msg tea.Msg) (*AlertOverlay, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	kind := a.kind
	switch {
	case key.Matches(keyMsg, a.keys.Confirm):
		return a, func() tea.Msg { return AlertConfirmedMsg{kind: kind} }
	case key.Matches(keyMsg, a.keys.Cancel):
		if a.CancelText == "" {
			return a, func() tea.Msg { return AlertConfirmedMsg{kind: kind} }
		}
		return a, func() tea.Msg { return AlertCancelledMsg{kind: kind} }
	}
	return a, nil
}

// View implements tea.Model.
func (a *AlertOverlay) View() string {
	width := contentWidth(AlertWidth)
	titleStyle := styleTitle()
	if a.danger {
		titleStyle = styleErrorText()
	}
	lines := []string{
		titleStyle.Render(a.Title),
		styleDivider().Render(strings.Repeat("─", width)),
		"",
		styleText().Render(wordwrap.String(a.Body, width)),
		"",
		a.buttons(width),
	}
	return styleAlert(a.danger).Width(AlertWidth - 2).Render(strings.Join(lines, "\n"))
}

func (a *AlertOverlay) buttons(width int) string {
	confirm := styleButton(true, false).Render(a.ConfirmText)
	row := confirm
	if a.CancelText != "" {
		row = lipgloss.JoinHorizontal(lipgloss.Top, styleButton(false, false).Render(a.CancelText), "  ", confirm)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, row)
}
