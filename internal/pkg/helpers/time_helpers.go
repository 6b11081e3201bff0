package helpers

import (
	"time"

	"github.com/oussamael/internhub/internal/pkg/logger"
)

// ParseDuration parses a duration string, falling back to the given
// default when the value is empty or malformed.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("value", durationStr).
			Dur("default", defaultDuration).
			Msg("Invalid duration, using default")
		return defaultDuration
	}
	return duration
}

// DayBounds returns the half-open interval [start, end) of the calendar
// day containing t, in t's location. Deadline checks such as "due today"
// compare against these bounds.
func DayBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
