package ui

import (
	"testing"
	"time"
)

func TestFormatLastChecked(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "zero", at: time.Time{}, want: "Never checked"},
		{name: "just now", at: now, want: "Last checked just now"},
		{name: "future clamps", at: now.Add(time.Hour), want: "Last checked just now"},
		{name: "seconds", at: now.Add(-30 * time.Second), want: "Last checked 30 seconds ago"},
		{name: "minutes", at: now.Add(-3 * time.Minute), want: "Last checked 3 minutes ago"},
		{name: "days", at: now.Add(-50 * time.Hour), want: "Last checked 2 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLastChecked(tt.at); got != tt.want {
				t.Errorf("FormatLastChecked() = %q, want %q", got, tt.want)
			}
		})
	}
}
