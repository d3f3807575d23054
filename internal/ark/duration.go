package ark

import (
	"fmt"
	"strconv"
	"time"
)

// Retention durations use a compact <number><unit> format where the unit is
// one of h/d/w/m/y. Months are exactly 30 days and years exactly 365 days;
// the format is approximate on purpose, not calendar-aware.
const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

// ParseRetainDuration parses a retention duration string like "36h", "30d",
// "4w", "6m" or "1y". Anything else — empty string, missing or unknown unit,
// non-numeric count, sign characters — fails with ErrInvalidDuration.
func ParseRetainDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	count, unit := s[:len(s)-1], s[len(s)-1]

	// strconv.ParseUint would accept a leading "+"; the format does not.
	for i := 0; i < len(count); i++ {
		if count[i] < '0' || count[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
	}
	n, err := strconv.ParseInt(count, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	switch unit {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * day, nil
	case 'w':
		return time.Duration(n) * week, nil
	case 'm':
		return time.Duration(n) * month, nil
	case 'y':
		return time.Duration(n) * year, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
}
