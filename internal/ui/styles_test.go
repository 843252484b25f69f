package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestBuildMarkdownRendererPlainWraps(t *testing.T) {
	render := buildMarkdownRenderer("plain", 20)
	out := render("fatal: unable to access the remote repository")
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 20 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
}

func TestBuildMarkdownRendererRich(t *testing.T) {
	render := buildMarkdownRenderer("rich", 40)
	out := render("```\nfatal: refusing to merge\n```")
	if !strings.Contains(ansi.Strip(out), "fatal: refusing to merge") {
		t.Fatalf("rendered output lost the message: %q", out)
	}
}

func TestContentWidthFloor(t *testing.T) {
	if got := contentWidth(ModalWidth); got != ModalWidth-6 {
		t.Errorf("contentWidth(%d) = %d", ModalWidth, got)
	}
	if got := contentWidth(4); got != 10 {
		t.Errorf("contentWidth(4) = %d, want floor 10", got)
	}
}
