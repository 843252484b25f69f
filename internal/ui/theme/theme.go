// Package theme provides the semantic color palette for the updater UI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme is a set of semantic colors. Every color adapts to light and dark
// terminals.
type Theme struct {
	Primary   lipgloss.AdaptiveColor // modal border, focused button
	Secondary lipgloss.AdaptiveColor // links, section headings
	Accent    lipgloss.AdaptiveColor // commit hashes

	Error   lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor

	Text      lipgloss.AdaptiveColor
	TextMuted lipgloss.AdaptiveColor // authors, footer, disabled buttons

	Background          lipgloss.AdaptiveColor
	BackgroundSecondary lipgloss.AdaptiveColor // selected commit, buttons

	BorderNormal  lipgloss.AdaptiveColor
	BorderFocused lipgloss.AdaptiveColor
}

func c(dark, light string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Dark: dark, Light: light}
}
