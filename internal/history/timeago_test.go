package history

import (
	"testing"
	"time"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"zero", 0, "Just now"},
		{"59 seconds", 59 * time.Second, "Just now"},
		{"60 seconds", 60 * time.Second, "1m ago"},
		{"90 seconds rounds down", 90 * time.Second, "1m ago"},
		{"59 minutes", 59*time.Minute + 59*time.Second, "59m ago"},
		{"one hour", time.Hour, "1h ago"},
		{"23 hours", 23*time.Hour + 59*time.Minute, "23h ago"},
		{"one day", 24 * time.Hour, "1d ago"},
		{"six days", 6*24*time.Hour + 23*time.Hour, "6d ago"},
		{"seven days is a date", 7 * 24 * time.Hour, "Mar 8, 2026"},
		{"old", 400 * 24 * time.Hour, "Feb 8, 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimeAgo(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}
