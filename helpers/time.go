package helpers

import (
	"strconv"
	"strings"
	"time"

	"github.com/karrick/tparse/v2"
)

// ParseTime resolves a user supplied point in time. Accepts absolute
// timestamps ("2026-09-01T18:00") as well as relative expressions
// understood by tparse ("now+2h", "now+1d12h").
func ParseTime(input string, base time.Time) (time.Time, error) {
	input = normalizeTimeInput(input)

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
		"02.01.2006 15:04",
		"02.01.2006",
	} {
		if parsed, err := time.Parse(layout, input); err == nil {
			return parsed, nil
		}
	}

	return tparse.AddDuration(base, input)
}

func normalizeTimeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "now")

	// a bare number is treated as hours from now
	if hours, err := strconv.ParseFloat(input, 64); err == nil {
		return "+" + strconv.Itoa(int(hours*60)) + "m"
	}
	return input
}

// HumanizeDuration formats a duration as "1d2h3m4s"
func HumanizeDuration(d time.Duration) (result string) {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - (hours * 60)
	seconds := int(d.Seconds()) - (minutes * 60) - (hours * 60 * 60)

	if hours > 0 {
		days := hours / 24
		hoursLeft := hours % 24
		if days > 0 {
			result += strconv.Itoa(days) + "d"
		}
		if hoursLeft > 0 {
			result += strconv.Itoa(hoursLeft) + "h"
		}
	}
	if minutes > 0 {
		result += strconv.Itoa(minutes) + "m"
	}
	if seconds > 0 {
		result += strconv.Itoa(seconds) + "s"
	}
	return result
}
