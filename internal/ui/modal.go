package ui

import (
	"fmt"
	"strings"
	"time"

	"repoup/internal/helper"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Button identifies a modal action.
type Button int

const (
	ButtonUpdate Button = iota
	ButtonCheck
)

func (b Button) String() string {
	switch b {
	case ButtonUpdate:
		return "Update"
	case ButtonCheck:
		return "Check for updates"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

const (
	checkingText      = "Checking for updates…"
	fetchFailedText   = "Failed to check updates. Check the console for more info"
	unknownFailedText = "An unknown error occurred"
)

// ModalState is everything the modal view depends on.
type ModalState struct {
	// RepoInfo is nil while the repo-info fetch is pending or after it failed.
	RepoInfo *helper.RepoInfo
	// Commits is nil until a pending-commit fetch succeeds.
	Commits []helper.Commit
	// FetchErr is the most recent failure of either fetch.
	FetchErr *helper.Failure
	Updating bool
	Checking bool

	Cursor      int
	Focus       Button
	LastChecked time.Time
	Spinner     string
	Help        string

	Links    Linker
	Width    int
	Markdown func(string) string
}

// Buttons returns the action buttons in display order. Update is only
// offered while there is something to pull.
func (s ModalState) Buttons() []Button {
	if len(s.Commits) > 0 {
		return []Button{ButtonUpdate, ButtonCheck}
	}
	return []Button{ButtonCheck}
}

func (s ModalState) showsError() bool {
	return s.FetchErr != nil && (s.RepoInfo == nil || s.Commits == nil)
}

// RenderModal draws the updater modal.
func RenderModal(s ModalState) string {
	boxWidth := s.Width
	if boxWidth <= 0 {
		boxWidth = ModalWidth
	}
	width := contentWidth(boxWidth)

	lines := []string{styleTitle().Render("Updater")}
	lines = append(lines, styleDivider().Render(strings.Repeat("─", width)), "")

	if s.RepoInfo != nil {
		lines = append(lines, styleSectionLabel().Render("Repo"), renderIdentity(s), "")
	}

	lines = append(lines, styleSectionLabel().Render("Updates"))
	if s.showsError() {
		lines = append(lines, renderFetchError(*s.FetchErr, s.Markdown)...)
	} else {
		lines = append(lines, renderStatus(s))
	}
	if len(s.Commits) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderCommits(s, width)...)
	}

	lines = append(lines, "", renderButtons(s, width))
	lines = append(lines, "", styleMuted().Render(FormatLastChecked(s.LastChecked)))
	if s.Help != "" {
		lines = append(lines, s.Help)
	}
	return styleModal().Width(boxWidth - 2).Render(strings.Join(lines, "\n"))
}

func renderIdentity(s ModalState) string {
	info := s.RepoInfo
	slug := helper.RepoSlug(info.RepositoryURL)
	short := helper.ShortHash(info.CurrentCommitHash)
	repo := s.Links.Link(info.RepositoryURL, styleText().Render(slug))
	hash := s.Links.Link(helper.CommitURL(info.RepositoryURL, info.CurrentCommitHash), styleHash().Render(short))
	line := repo + " (" + hash + ")"
	if info.Branch != "" {
		line += styleMuted().Render(" on " + info.Branch)
	}
	return line
}

func renderFetchError(f helper.Failure, markdown func(string) string) []string {
	lines := []string{styleErrorText().Render(fetchFailedText)}
	if f.Cmd == "" {
		return append(lines, styleMuted().Render(unknownFailedText))
	}
	lines = append(lines, styleText().Render("Error occurred when running: "+f.Cmd))
	if f.Message != "" {
		block := "```\n" + f.Message + "\n```"
		if markdown != nil {
			block = markdown(block)
		}
		lines = append(lines, block)
	}
	return lines
}

func renderStatus(s ModalState) string {
	var status string
	switch {
	case s.Commits == nil:
		status = styleMuted().Render(checkingText)
	case len(s.Commits) == 0:
		status = styleUpToDate().Render("Up to Date!")
	case len(s.Commits) == 1:
		status = stylePending().Render("There is 1 Update")
	default:
		status = stylePending().Render(fmt.Sprintf("There are %d Updates", len(s.Commits)))
	}
	if (s.Checking || s.Updating) && s.Spinner != "" {
		status = s.Spinner + " " + status
	}
	return status
}

func renderCommits(s ModalState, width int) []string {
	lines := make([]string, 0, len(s.Commits))
	for i, c := range s.Commits {
		short := c.ShortHash
		if short == "" {
			short = helper.ShortHash(c.LongHash)
		}
		hash := styleHash().Render(short)
		// Without repo info there is no URL to link to.
		if s.RepoInfo != nil {
			hash = s.Links.Link(helper.CommitURL(s.RepoInfo.RepositoryURL, c.LongHash), hash)
		}
		author := " - " + c.Author
		avail := width - lipgloss.Width(short) - 1 - lipgloss.Width(author)
		message := c.Message
		if avail > 0 {
			message = ansi.Truncate(message, avail, "…")
		}
		row := hash + " " + styleText().Render(message) + styleMuted().Render(author)
		if i == s.Cursor {
			row = styleSelectedRow().Render(row)
		}
		lines = append(lines, row)
	}
	return lines
}

func renderButtons(s ModalState, width int) string {
	buttons := s.Buttons()
	rendered := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			rendered = append(rendered, "  ")
		}
		rendered = append(rendered, styleButton(b == s.Focus, s.Updating).Render(b.String()))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, row)
}
