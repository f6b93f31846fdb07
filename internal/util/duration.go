package util

import (
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// FormatDuration renders d with day and week units, e.g. "1d2h3m4s".
// Durations are rounded to the millisecond first.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return str2duration.String(d.Round(time.Millisecond))
}

// ParseDuration accepts Go duration strings plus day (d) and week (w) units,
// so "1w2d" is valid.
func ParseDuration(s string) (time.Duration, error) {
	return str2duration.ParseDuration(s)
}
