package history

import (
	"fmt"
	"time"
)

// FormatRelativeTime formats t relative to now, like "2h ago" or "yesterday".
// Older times are shown as a local date.
func FormatRelativeTime(t time.Time) string {
	return formatRelative(t, time.Now())
}

func formatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}
