// Package dateutils provides the date-only operations the API and the
// renewal scheduler share. Dates are always UTC at midnight; the bot has no
// per-user timezones.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts accepted from users.
const (
	LayoutISO      = "2006-01-02"
	LayoutEuropean = "02.01.2006"
)

var acceptedLayouts = []string{
	LayoutISO,
	LayoutEuropean,
}

// ParseDay parses a user-supplied calendar date, accepting ISO and European
// spellings. The result is midnight UTC.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}

// FormatDay renders a date as ISO, the wire format for all date fields.
func FormatDay(t time.Time) string {
	return t.UTC().Format(LayoutISO)
}

// Day truncates a timestamp to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current day at midnight UTC.
func Today() time.Time {
	return Day(time.Now())
}
