package ui

import (
	"time"

	"github.com/dustin/go-humanize"
)

var timeNow = time.Now

// FormatLastChecked describes when the last successful check finished,
// for example "Last checked 3 minutes ago".
func FormatLastChecked(t time.Time) string {
	if t.IsZero() {
		return "Never checked"
	}
	now := timeNow()
	if t.After(now) {
		t = now
	}
	if now.Sub(t) < time.Second {
		return "Last checked just now"
	}
	return "Last checked " + humanize.RelTime(t, now, "ago", "from now")
}
