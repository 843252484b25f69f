package ui

import "github.com/muesli/termenv"

// Linker renders external links as OSC 8 hyperlinks. A disabled Linker, or
// one given an empty URL, returns the text unchanged.
type Linker struct {
	Enabled bool
}

// Link wraps text in a hyperlink to url.
func (l Linker) Link(url, text string) string {
	if !l.Enabled || url == "" {
		return text
	}
	return termenv.Hyperlink(url, text)
}
