package ui

import (
	"strings"

	"repoup/internal/ui/theme"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	// ModalWidth is the outer width of the updater modal.
	ModalWidth = 64
	// AlertWidth is the outer width of alerts and the restart prompt.
	AlertWidth = 48

	// modalHPadding is the horizontal padding used by styleModal().
	modalHPadding = 2
)

// contentWidth returns the usable text width inside a bordered, padded box.
func contentWidth(boxWidth int) int {
	w := boxWidth - 2*modalHPadding - 2
	if w < 10 {
		w = 10
	}
	return w
}

func styleModal() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Current().BorderFocused).
		Padding(1, modalHPadding)
}

func styleAlert(danger bool) lipgloss.Style {
	s := styleModal()
	if danger {
		s = s.BorderForeground(theme.Current().Error)
	}
	return s
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().Primary).
		Bold(true)
}

func styleSectionLabel() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().Secondary).
		Bold(true)
}

func styleDivider() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().BorderNormal)
}

func styleText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Text)
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().TextMuted)
}

func styleHash() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Accent)
}

func styleErrorText() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().Error).
		Bold(true)
}

func styleUpToDate() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().Success).
		Bold(true)
}

func stylePending() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current().Warning).
		Bold(true)
}

func styleSelectedRow() lipgloss.Style {
	return lipgloss.NewStyle().Background(theme.Current().BackgroundSecondary)
}

// styleButton renders an action button. Disabled wins over focused.
func styleButton(focused, disabled bool) lipgloss.Style {
	t := theme.Current()
	s := lipgloss.NewStyle().Padding(0, 2)
	switch {
	case disabled:
		return s.Foreground(t.TextMuted).Background(t.BackgroundSecondary).Faint(true)
	case focused:
		return s.Foreground(t.Background).Background(t.Primary).Bold(true)
	default:
		return s.Foreground(t.Text).Background(t.BackgroundSecondary)
	}
}

func styleSuccessToast() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Current().Success).
		Foreground(theme.Current().Text).
		Padding(0, 1)
}

func styleInfoToast() lipgloss.Style {
	return styleSuccessToast().BorderForeground(theme.Current().Secondary)
}

func styleErrorToast() lipgloss.Style {
	return styleSuccessToast().BorderForeground(theme.Current().Error)
}

// buildMarkdownRenderer returns a renderer for failure output. The "plain"
// format, or a glamour setup error, falls back to word wrapping.
func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
