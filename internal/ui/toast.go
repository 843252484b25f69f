package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

const defaultToastDuration = 3 * time.Second

// toast is a transient notification shown under the modal until it expires.
type toast struct {
	text     string
	kind     toastKind
	start    time.Time
	duration time.Duration
}

func newToast(text string, kind toastKind) *toast {
	return &toast{text: text, kind: kind, start: timeNow(), duration: defaultToastDuration}
}

func (t *toast) expired(now time.Time) bool {
	return now.Sub(t.start) >= t.duration
}

func (t *toast) remaining(now time.Time) int {
	left := t.duration - now.Sub(t.start)
	if left < 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (t *toast) View(now time.Time) string {
	countdown := fmt.Sprintf("[%ds]", t.remaining(now))
	width := lipgloss.Width(t.text) + 2 + len(countdown)
	if width < 30 {
		width = 30
	}
	padding := width - lipgloss.Width(t.text) - len(countdown)
	content := t.text + strings.Repeat(" ", padding) + styleMuted().Render(countdown)
	switch t.kind {
	case toastSuccess:
		return styleSuccessToast().Render(content)
	case toastError:
		return styleErrorToast().Render(content)
	default:
		return styleInfoToast().Render(content)
	}
}
