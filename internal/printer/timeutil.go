package printer

import (
	"fmt"
	"time"
)

// Age returns a compact relative age like "42s", "5m", "3h" or "2d".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "0s"
	case diff < time.Minute:
		return fmt.Sprintf("%ds", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd", int(diff.Hours()/24))
	}
}
